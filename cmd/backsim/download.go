package main

import (
	"fmt"
	"time"

	"github.com/raykavin/backsim"
	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/exchange"
	"github.com/raykavin/backsim/pkg/exchange/binance"
	"github.com/spf13/cobra"
)

// Download command flags
var (
	pair       string
	days       int
	startDate  string
	endDate    string
	timeframe  string
	outputFile string
	assetsFile string
	useTestnet bool
)

func buildDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download historical candles from Binance into a CSV feed",
		RunE:  runDownload,
	}

	downloadCmd.Flags().StringVarP(&pair, "pair", "p", "", "Trading pair (e.g. BTCUSDT)")
	downloadCmd.Flags().IntVarP(&days, "days", "d", 0, "Number of days to download (default 30 days)")
	downloadCmd.Flags().StringVarP(&startDate, "start", "s", "", "Start date (e.g. 2021-12-01)")
	downloadCmd.Flags().StringVarP(&endDate, "end", "e", "", "End date (e.g. 2020-12-31)")
	downloadCmd.Flags().StringVarP(&timeframe, "timeframe", "t", "", "Timeframe (e.g. 1h)")
	downloadCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (e.g. ./btc.csv)")
	downloadCmd.Flags().StringVarP(&assetsFile, "assets", "a", "", "Asset list overriding the built-in one")
	downloadCmd.Flags().BoolVar(&useTestnet, "testnet", false, "Use the Binance testnet")

	downloadCmd.MarkFlagRequired("pair")
	downloadCmd.MarkFlagRequired("timeframe")
	downloadCmd.MarkFlagRequired("output")

	return downloadCmd
}

func runDownload(cmd *cobra.Command, args []string) error {
	period, err := core.ParsePeriod(timeframe)
	if err != nil {
		return err
	}

	target, err := resolvePair(pair)
	if err != nil {
		return err
	}

	options, err := buildDownloadOptions()
	if err != nil {
		return err
	}

	spot, err := binance.NewExchange(cmd.Context(), backsim.DefaultLog, binance.Config{UseTestnet: useTestnet})
	if err != nil {
		return err
	}

	return exchange.NewDownloader(spot,
		exchange.WithDownloadLogger(backsim.DefaultLog),
		exchange.WithDownloadProgress(true),
	).Download(cmd.Context(), target, period, outputFile, options...)
}

// resolvePair splits a Binance symbol and resolves both assets
func resolvePair(symbol string) (core.Pair, error) {
	base, quote, err := binance.SplitAssetQuote(symbol)
	if err != nil {
		return core.Pair{}, err
	}

	assets, err := exchange.DefaultAssetRegistry()
	if err != nil {
		return core.Pair{}, err
	}

	if assetsFile != "" {
		if err := assets.LoadFile(assetsFile); err != nil {
			return core.Pair{}, err
		}
	}

	return assets.Pair(base, quote)
}

func buildDownloadOptions() ([]exchange.DownloadOption, error) {
	var options []exchange.DownloadOption

	if days > 0 {
		options = append(options, exchange.WithDays(days))
	}

	if startDate != "" || endDate != "" {
		if startDate == "" || endDate == "" {
			return nil, fmt.Errorf("START and END dates must be provided together")
		}

		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date format: %w", err)
		}

		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date format: %w", err)
		}

		options = append(options, exchange.WithInterval(start, end))
	}

	return options, nil
}
