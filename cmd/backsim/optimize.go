package main

import (
	"fmt"

	"github.com/raykavin/backsim"
	"github.com/raykavin/backsim/internal/config"
	"github.com/raykavin/backsim/pkg/optimizer"
	"github.com/spf13/cobra"
)

// Optimize command flags
var (
	method      string
	metricName  string
	minimize    bool
	iterations  int
	parallelism int
	seed        int64
	topN        int
	resultsFile string
)

func buildOptimizeCmd() *cobra.Command {
	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search the strategy parameters that maximize a metric",
		RunE:  runOptimize,
	}

	optimizeCmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file (yaml, toml or json)")
	optimizeCmd.Flags().StringVarP(&method, "method", "m", "grid", "Search method: grid or random")
	optimizeCmd.Flags().StringVar(&metricName, "metric", string(optimizer.MetricReturn), "Metric to optimize")
	optimizeCmd.Flags().BoolVar(&minimize, "minimize", false, "Minimize the metric instead of maximizing it")
	optimizeCmd.Flags().IntVarP(&iterations, "iterations", "i", 100, "Maximum number of evaluations")
	optimizeCmd.Flags().IntVarP(&parallelism, "parallel", "p", 4, "Parallel evaluations")
	optimizeCmd.Flags().Int64Var(&seed, "seed", 0, "Random search seed")
	optimizeCmd.Flags().IntVarP(&topN, "top", "n", 10, "Number of results to print")
	optimizeCmd.Flags().StringVarP(&resultsFile, "output", "o", "", "Write all results to a CSV file")

	return optimizeCmd
}

func buildOptimizer(optimizerConfig *optimizer.Config) (optimizer.Optimizer, error) {
	switch method {
	case "grid":
		return optimizer.NewGridSearch(optimizerConfig)
	case "random":
		return optimizer.NewRandomSearch(optimizerConfig)
	default:
		return nil, fmt.Errorf("unknown optimization method %q", method)
	}
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	parameters, err := optimizer.StrategyParameters(cfg.Strategy.Name)
	if err != nil {
		return err
	}

	evaluator, err := backsim.NewEvaluator(cfg)
	if err != nil {
		return err
	}

	target := optimizer.MetricName(metricName)
	optimizerConfig := optimizer.NewConfig().
		WithParameters(parameters...).
		WithMaxIterations(iterations).
		WithParallelism(parallelism).
		WithLogger(backsim.DefaultLog).
		WithTargetMetric(target, !minimize).
		WithTopN(topN).
		WithSeed(seed)

	search, err := buildOptimizer(optimizerConfig)
	if err != nil {
		return err
	}

	results, err := search.Optimize(cmd.Context(), evaluator, target, !minimize)
	if err != nil {
		return err
	}

	optimizer.PrintResults(cmd.OutOrStdout(), results, target, topN)

	if resultsFile != "" {
		return optimizer.SaveResultsToCSV(results, resultsFile)
	}
	return nil
}
