package binance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jpillora/backoff"
	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/logger"
	"github.com/raykavin/backsim/pkg/logger/zerolog"
	"github.com/shopspring/decimal"
)

const defaultRetries = 3

// klineFetcher requests one batch of klines between two unix millisecond bounds
type klineFetcher func(ctx context.Context, symbol, interval string, start, end int64) ([]*binance.Kline, error)

// Spot reads historical market data from the Binance spot market
type Spot struct {
	client  *binance.Client
	log     logger.Logger
	fetch   klineFetcher
	retries int
	retry   *backoff.Backoff
	err     error
}

// SpotOption is a function that configures a Spot client
type SpotOption func(*Spot)

// WithCredentials sets the API credentials for the Spot client
func WithCredentials(key, secret string) SpotOption {
	return func(s *Spot) {
		s.client = binance.NewClient(key, secret)
	}
}

// WithLogger sets the logger used to report retries
func WithLogger(log logger.Logger) SpotOption {
	return func(s *Spot) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRetries sets how many times a failed request is repeated
func WithRetries(retries int) SpotOption {
	return func(s *Spot) {
		s.retries = retries
	}
}

// WithTestNet enables the Binance testnet
func WithTestNet() SpotOption {
	return func(_ *Spot) {
		binance.UseTestnet = true
	}
}

// WithCustomMainAPIEndpoint sets custom endpoints for the Binance Main API
func WithCustomMainAPIEndpoint(apiURL, wsURL, combinedURL string) SpotOption {
	return func(s *Spot) {
		if apiURL == "" || wsURL == "" || combinedURL == "" {
			s.err = ErrMissingEndpoint
			return
		}
		binance.BaseAPIMainURL = apiURL
		binance.BaseWsMainURL = wsURL
		binance.BaseCombinedMainURL = combinedURL
	}
}

// WithCustomTestnetAPIEndpoint sets custom endpoints for the Binance Testnet API
func WithCustomTestnetAPIEndpoint(apiURL, wsURL, combinedURL string) SpotOption {
	return func(s *Spot) {
		if apiURL == "" || wsURL == "" || combinedURL == "" {
			s.err = ErrMissingEndpoint
			return
		}
		binance.BaseAPITestnetURL = apiURL
		binance.BaseWsTestnetURL = wsURL
		binance.BaseCombinedTestnetURL = combinedURL
	}
}

func newSpot(options ...SpotOption) *Spot {
	spot := &Spot{
		client:  binance.NewClient("", ""),
		log:     zerolog.Nop(),
		retries: defaultRetries,
		retry:   setupBackoffRetry(),
	}

	for _, option := range options {
		option(spot)
	}

	if spot.fetch == nil {
		spot.fetch = spot.klines
	}

	return spot
}

// NewSpot creates a Binance spot client and checks the connection
func NewSpot(ctx context.Context, options ...SpotOption) (*Spot, error) {
	spot := newSpot(options...)
	if spot.err != nil {
		return nil, spot.err
	}

	if err := spot.client.NewPingService().Do(ctx); err != nil {
		return nil, fmt.Errorf("binance ping fail: %w", err)
	}

	spot.log.Info("[SETUP] Using Binance Spot market data")
	return spot, nil
}

func (s *Spot) klines(ctx context.Context, symbol, interval string, start, end int64) ([]*binance.Kline, error) {
	return s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(start).
		EndTime(end).
		Limit(1000).
		Do(ctx)
}

// CandlesByPeriod gets the candles of a pair symbol opened between start and end.
// Failed requests are retried with an exponential backoff.
func (s *Spot) CandlesByPeriod(ctx context.Context, pair, period string, start, end time.Time) ([]core.Candle, error) {
	var (
		data []*binance.Kline
		err  error
	)

	s.retry.Reset()
	for attempt := 0; attempt <= s.retries; attempt++ {
		data, err = s.fetch(ctx, pair, period, start.UnixMilli(), end.UnixMilli())
		if err == nil {
			break
		}

		wait := s.retry.Duration()
		s.log.WithError(err).
			WithField("pair", pair).
			WithField("attempt", attempt+1).
			Warnf("kline request failed, retrying in %s", wait)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("klines of %s: %w", pair, err)
	}

	candles := make([]core.Candle, 0, len(data))
	for _, kline := range data {
		candle, err := convertKlineToCandle(pair, *kline)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// Assets lists every asset traded on the spot market with its lot size
func (s *Spot) Assets(ctx context.Context) ([]core.Asset, error) {
	info, err := s.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange info: %w", err)
	}

	return assetsFromSymbols(info.Symbols), nil
}

// assetsFromSymbols keeps the finest lot size seen for every asset. Base assets
// use the LOT_SIZE step, quote assets their quote precision.
func assetsFromSymbols(symbols []binance.Symbol) []core.Asset {
	lots := make(map[string]decimal.Decimal)

	keep := func(symbol string, lot decimal.Decimal) {
		if !lot.IsPositive() {
			return
		}
		if current, ok := lots[symbol]; !ok || lot.LessThan(current) {
			lots[symbol] = lot
		}
	}

	for _, info := range symbols {
		base := lotSize(info.BaseAssetPrecision)
		for _, filter := range info.Filters {
			if typ, ok := filter["filterType"]; ok && typ == string(binance.SymbolFilterTypeLotSize) {
				if step, ok := filter["stepSize"].(string); ok {
					if parsed, err := decimal.NewFromString(step); err == nil && parsed.IsPositive() {
						base = parsed
					}
				}
			}
		}

		keep(info.BaseAsset, base)
		keep(info.QuoteAsset, lotSize(info.QuotePrecision))
	}

	assets := make([]core.Asset, 0, len(lots))
	for symbol, lot := range lots {
		assets = append(assets, core.NewAsset(symbol, symbol, lot))
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].Symbol < assets[j].Symbol })
	return assets
}

// convertKlineToCandle converts a Binance kline to a core.Candle
func convertKlineToCandle(pair string, k binance.Kline) (core.Candle, error) {
	candle := core.Candle{
		Pair:     pair,
		Time:     time.UnixMilli(k.OpenTime).UTC(),
		Complete: true,
	}

	fields := []struct {
		name   string
		value  string
		target *decimal.Decimal
	}{
		{"open", k.Open, &candle.Open},
		{"close", k.Close, &candle.Close},
		{"high", k.High, &candle.High},
		{"low", k.Low, &candle.Low},
		{"volume", k.Volume, &candle.Volume},
	}

	for _, field := range fields {
		value, err := parseDecimal(field.name, field.value)
		if err != nil {
			return core.Candle{}, err
		}
		*field.target = value
	}

	return candle, nil
}
