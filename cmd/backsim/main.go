package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	dateLayout = "2006-01-02"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "backsim",
		Short:   "Replay trading strategies over historical candles",
		Version: "1.0.0",
	}

	rootCmd.AddCommand(
		buildRunCmd(),
		buildOptimizeCmd(),
		buildDownloadCmd(),
		buildAssetsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
