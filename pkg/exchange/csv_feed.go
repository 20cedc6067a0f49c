package exchange

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	defaultHeaderMap    = map[string]int{
		"time": 0, "open": 1, "close": 2, "low": 3, "high": 4, "volume": 5,
	}
)

// PairFeed describes one CSV file of candles
type PairFeed struct {
	Pair      string // pair symbol, e.g. BTCUSDT
	File      string
	Timeframe string // timeframe of the rows in File
}

// CSVFeed is a PriceSeries loaded from CSV files
type CSVFeed struct {
	*PriceSeries
	Feeds map[string]PairFeed
}

// NewCSVFeed reads every feed and resamples it to the target granularity
func NewCSVFeed(granularity core.Period, feeds ...PairFeed) (*CSVFeed, error) {
	csvFeed := &CSVFeed{
		PriceSeries: NewPriceSeries(granularity),
		Feeds:       make(map[string]PairFeed),
	}

	for _, feed := range feeds {
		csvFeed.Feeds[feed.Pair] = feed

		source := granularity
		if feed.Timeframe != "" {
			var err error
			if source, err = core.ParsePeriod(feed.Timeframe); err != nil {
				return nil, err
			}
		}

		candles, err := readCandlesFromCSV(feed)
		if err != nil {
			return nil, err
		}

		resampled, err := resample(candles, source, granularity)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", feed.File, err)
		}

		if len(resampled) == 0 {
			return nil, fmt.Errorf("%w: %s has no complete %s candles", ErrInsufficientData, feed.File, granularity)
		}

		csvFeed.Add(feed.Pair, resampled...)
	}

	return csvFeed, nil
}

// parseHeaders returns the column index of every field. Files without a
// header row use the default column order.
func parseHeaders(headers []string) (headerMap map[string]int, hasCustomHeaders bool) {
	if _, err := strconv.Atoi(headers[0]); err == nil {
		return defaultHeaderMap, false
	}

	headerMap = make(map[string]int)
	for index, header := range headers {
		headerMap[header] = index
	}

	for field := range defaultHeaderMap {
		if _, ok := headerMap[field]; !ok {
			return defaultHeaderMap, true
		}
	}

	return headerMap, true
}

// readCandlesFromCSV reads the rows of a feed file into candles
func readCandlesFromCSV(feed PairFeed) ([]core.Candle, error) {
	csvFile, err := os.Open(feed.File)
	if err != nil {
		return nil, err
	}
	defer csvFile.Close()

	csvLines, err := csv.NewReader(csvFile).ReadAll()
	if err != nil {
		return nil, err
	}

	if len(csvLines) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrInsufficientData, feed.File)
	}

	headerMap, hasCustomHeaders := parseHeaders(csvLines[0])
	if hasCustomHeaders {
		csvLines = csvLines[1:]
	}

	candles := make([]core.Candle, 0, len(csvLines))
	for line, row := range csvLines {
		candle, err := parseCandleFromLine(row, headerMap, feed.Pair)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", feed.File, line+1, err)
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// parseCandleFromLine builds a candle from one CSV row
func parseCandleFromLine(line []string, headerMap map[string]int, pair string) (core.Candle, error) {
	for field, index := range headerMap {
		if index >= len(line) {
			return core.Candle{}, fmt.Errorf("%w: missing %s column", ErrInsufficientData, field)
		}
	}

	timestamp, err := strconv.ParseInt(line[headerMap["time"]], 10, 64)
	if err != nil {
		return core.Candle{}, err
	}

	candle := core.Candle{
		Pair:     pair,
		Time:     time.Unix(timestamp, 0).UTC(),
		Complete: true,
	}

	fields := []struct {
		name   string
		target *decimal.Decimal
	}{
		{"open", &candle.Open},
		{"close", &candle.Close},
		{"low", &candle.Low},
		{"high", &candle.High},
		{"volume", &candle.Volume},
	}

	for _, field := range fields {
		if *field.target, err = decimal.NewFromString(line[headerMap[field.name]]); err != nil {
			return core.Candle{}, fmt.Errorf("%s: %w", field.name, err)
		}
	}

	return candle, nil
}

// resample groups source candles into target periods. Groups that do not
// start on a target boundary or that are not complete are dropped.
func resample(candles []core.Candle, source, target core.Period) ([]core.Candle, error) {
	if source.Duration() == target.Duration() {
		return candles, nil
	}

	if source.Duration() > target.Duration() {
		return nil, fmt.Errorf("%w: cannot resample %s candles into %s", core.ErrInvalidPeriod, source, target)
	}

	result := make([]core.Candle, 0, len(candles)/int(target.Duration()/source.Duration())+1)

	var current core.Candle
	inPeriod := false

	for _, candle := range candles {
		slot := target.Truncate(candle.Time)

		if !inPeriod || !current.Time.Equal(slot) {
			if !target.IsBoundary(candle.Time) {
				inPeriod = false
				continue
			}

			current = candle
			current.Time = slot
			current.Complete = false
			inPeriod = true
		} else {
			current.High = decimal.Max(current.High, candle.High)
			current.Low = decimal.Min(current.Low, candle.Low)
			current.Close = candle.Close
			current.Volume = current.Volume.Add(candle.Volume)
		}

		if target.IsBoundary(candle.Time.Add(source.Duration())) {
			current.Complete = true
			result = append(result, current)
			inPeriod = false
		}
	}

	return result, nil
}
