package main

import (
	"github.com/raykavin/backsim"
	"github.com/raykavin/backsim/internal/config"
	"github.com/spf13/cobra"
)

// Run command flags
var (
	configFile string
	noProgress bool
)

func buildRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest described by a configuration file",
		RunE:  runBacktest,
	}

	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file (yaml, toml or json)")
	runCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Hide the progress bar")

	return runCmd
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	simulator, err := backsim.New(cfg, backsim.WithProgressBar(!noProgress))
	if err != nil {
		return err
	}
	defer simulator.Close()

	report, err := simulator.Run(cmd.Context())
	if renderErr := report.Render(cmd.OutOrStdout()); renderErr != nil {
		backsim.DefaultLog.WithError(renderErr).Error("failed to render report")
	}

	return err
}
