package exchange

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/logger"
	"github.com/raykavin/backsim/pkg/logger/zerolog"
	"github.com/schollz/progressbar/v3"
)

const batchSize = 500

// csvHeaders is the column order read back by NewCSVFeed
var csvHeaders = []string{"time", "open", "close", "low", "high", "volume"}

// CandleSource serves historical candles of a pair symbol, e.g. an exchange API
type CandleSource interface {
	CandlesByPeriod(ctx context.Context, pair, period string, start, end time.Time) ([]core.Candle, error)
}

// Downloader writes the candles of a CandleSource to CSV files
type Downloader struct {
	source   CandleSource
	log      logger.Logger
	progress bool
	now      func() time.Time
}

// DownloaderOption configures a Downloader
type DownloaderOption func(*Downloader)

// WithDownloadLogger sets the downloader logger
func WithDownloadLogger(log logger.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.log = log
	}
}

// WithDownloadProgress shows a progress bar while downloading
func WithDownloadProgress(enabled bool) DownloaderOption {
	return func(d *Downloader) {
		d.progress = enabled
	}
}

// NewDownloader creates a new downloader reading from source
func NewDownloader(source CandleSource, options ...DownloaderOption) *Downloader {
	downloader := &Downloader{
		source: source,
		log:    zerolog.Nop(),
		now:    time.Now,
	}

	for _, option := range options {
		option(downloader)
	}

	return downloader
}

// DownloadParameters defines the time range of a download
type DownloadParameters struct {
	Start time.Time
	End   time.Time
}

// DownloadOption configures the time range of a download
type DownloadOption func(*DownloadParameters)

// WithInterval sets specific start and end times for the download
func WithInterval(start, end time.Time) DownloadOption {
	return func(parameters *DownloadParameters) {
		parameters.Start = start
		parameters.End = end
	}
}

// WithDays sets the download range to the last days up to now
func WithDays(days int) DownloadOption {
	return func(parameters *DownloadParameters) {
		parameters.End = time.Now()
		parameters.Start = parameters.End.AddDate(0, 0, -days)
	}
}

// parameters defaults to the last month, starts on a UTC day boundary and
// never ends in the future
func (d *Downloader) parameters(options []DownloadOption) DownloadParameters {
	now := d.now().UTC()
	parameters := DownloadParameters{
		Start: now.AddDate(0, -1, 0),
		End:   now,
	}

	for _, option := range options {
		option(&parameters)
	}

	day := core.MustParsePeriod("1d")
	parameters.Start = day.Truncate(parameters.Start)

	if parameters.End.Before(now) {
		parameters.End = day.Truncate(parameters.End)
	} else {
		parameters.End = now
	}

	return parameters
}

// Download fetches the candles of pair and writes them to outputPath
func (d *Downloader) Download(ctx context.Context, pair core.Pair, period core.Period, outputPath string, options ...DownloadOption) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	return d.Write(ctx, file, pair, period, options...)
}

// Write fetches the candles of pair and writes them as CSV to w
func (d *Downloader) Write(ctx context.Context, w io.Writer, pair core.Pair, period core.Period, options ...DownloadOption) error {
	parameters := d.parameters(options)
	if parameters.End.Before(parameters.Start) {
		return fmt.Errorf("download end %s is before start %s",
			parameters.End.Format(time.RFC3339), parameters.Start.Format(time.RFC3339))
	}

	candleCount := int(parameters.End.Sub(parameters.Start)/period.Duration()) + 1

	d.log.WithField("pair", pair.Symbol()).
		WithField("period", period.String()).
		Infof("Downloading %d candles", candleCount)

	bar := progressbar.DefaultSilent(int64(candleCount))
	if d.progress {
		bar = progressbar.Default(int64(candleCount), "downloading")
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeaders); err != nil {
		return err
	}

	missingCandles, err := d.downloadCandleBatches(ctx, pair, period, parameters, writer, bar)
	if err != nil {
		return err
	}

	if err = bar.Close(); err != nil {
		d.log.Warnf("Failed to close progress bar: %s", err.Error())
	}

	if missingCandles > 0 {
		d.log.Warnf("%d missing candles", missingCandles)
	}

	writer.Flush()
	d.log.Info("Done!")
	return writer.Error()
}

// downloadCandleBatches downloads candles in batches and writes them to CSV
func (d *Downloader) downloadCandleBatches(
	ctx context.Context,
	pair core.Pair,
	period core.Period,
	parameters DownloadParameters,
	writer *csv.Writer,
	bar *progressbar.ProgressBar,
) (int, error) {
	missingCandles := 0
	interval := period.Duration()
	places := pair.Quote.Places()

	for batchStart := parameters.Start; !batchStart.After(parameters.End); batchStart = batchStart.Add(interval * batchSize) {
		if err := ctx.Err(); err != nil {
			return missingCandles, err
		}

		batchEnd := calculateBatchEnd(batchStart, interval, parameters.End)
		expected := int(batchEnd.Sub(batchStart)/interval) + 1

		candles, err := d.source.CandlesByPeriod(ctx, pair.Symbol(), period.String(), batchStart, batchEnd)
		if err != nil {
			return missingCandles, err
		}

		for _, candle := range candles {
			if err := writer.Write(candle.ToSlice(places)); err != nil {
				return missingCandles, err
			}
		}

		if len(candles) < expected {
			missingCandles += expected - len(candles)
		}

		if err := bar.Add(len(candles)); err != nil {
			d.log.Warnf("Failed to update progress bar: %s", err.Error())
		}
	}

	return missingCandles, nil
}

// calculateBatchEnd stops one second before the next batch start, or at totalEnd
func calculateBatchEnd(batchStart time.Time, interval time.Duration, totalEnd time.Time) time.Time {
	potentialEnd := batchStart.Add(interval * batchSize).Add(-time.Second)

	if potentialEnd.Before(totalEnd) {
		return potentialEnd
	}

	return totalEnd
}
