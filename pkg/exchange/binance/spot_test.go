package binance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jpillora/backoff"
	"github.com/stretchr/testify/require"
)

func testSpot(fetch klineFetcher, retries int) *Spot {
	spot := newSpot(WithRetries(retries))
	spot.fetch = fetch
	spot.retry = &backoff.Backoff{Min: time.Millisecond, Max: time.Millisecond}
	return spot
}

func TestSplitAssetQuote(t *testing.T) {
	asset, quote, err := SplitAssetQuote("BTCUSDT")
	require.NoError(t, err)
	require.Equal(t, "BTC", asset)
	require.Equal(t, "USDT", quote)

	asset, quote, err = SplitAssetQuote("ETHBTC")
	require.NoError(t, err)
	require.Equal(t, "ETH", asset)
	require.Equal(t, "BTC", quote)

	_, _, err = SplitAssetQuote("USDT")
	require.ErrorIs(t, err, ErrInvalidPair)
}

func TestCandlesByPeriod(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0

	spot := testSpot(func(_ context.Context, symbol, interval string, from, to int64) ([]*binance.Kline, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("connection reset")
		}

		require.Equal(t, "BTCUSDT", symbol)
		require.Equal(t, "1h", interval)
		require.Equal(t, start.UnixMilli(), from)
		require.Equal(t, start.Add(time.Hour).UnixMilli(), to)

		return []*binance.Kline{
			{OpenTime: start.UnixMilli(), Open: "100.5", High: "110", Low: "90", Close: "101", Volume: "3.25"},
			{OpenTime: start.Add(time.Hour).UnixMilli(), Open: "101", High: "102", Low: "99", Close: "100", Volume: "1"},
		}, nil
	}, 2)

	candles, err := spot.CandlesByPeriod(context.Background(), "BTCUSDT", "1h", start, start.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Len(t, candles, 2)
	require.True(t, candles[0].Time.Equal(start))
	require.Equal(t, "100.5", candles[0].Open.String())
	require.Equal(t, "3.25", candles[0].Volume.String())
	require.Equal(t, "BTCUSDT", candles[1].Pair)
}

func TestCandlesByPeriodGivesUp(t *testing.T) {
	calls := 0
	spot := testSpot(func(context.Context, string, string, int64, int64) ([]*binance.Kline, error) {
		calls++
		return nil, errors.New("rate limited")
	}, 2)

	_, err := spot.CandlesByPeriod(context.Background(), "BTCUSDT", "1h", time.Now(), time.Now())
	require.Error(t, err)
	require.Equal(t, 3, calls)
}

func TestMalformedKline(t *testing.T) {
	spot := testSpot(func(context.Context, string, string, int64, int64) ([]*binance.Kline, error) {
		return []*binance.Kline{{Open: "1", High: "x", Low: "1", Close: "1", Volume: "1"}}, nil
	}, 0)

	_, err := spot.CandlesByPeriod(context.Background(), "BTCUSDT", "1h", time.Now(), time.Now())
	require.ErrorIs(t, err, ErrMalformedKline)
}

func TestAssetsFromSymbols(t *testing.T) {
	assets := assetsFromSymbols([]binance.Symbol{
		{
			Symbol:             "BTCUSDT",
			BaseAsset:          "BTC",
			BaseAssetPrecision: 8,
			QuoteAsset:         "USDT",
			QuotePrecision:     8,
			Filters: []map[string]interface{}{
				{"filterType": "LOT_SIZE", "stepSize": "0.00001000"},
			},
		},
		{
			Symbol:             "ETHBTC",
			BaseAsset:          "ETH",
			BaseAssetPrecision: 8,
			QuoteAsset:         "BTC",
			QuotePrecision:     6,
		},
	})

	require.Len(t, assets, 3)
	require.Equal(t, "BTC", assets[0].Symbol)
	require.Equal(t, "0.000001", assets[0].LotSize.String())
	require.Equal(t, "ETH", assets[1].Symbol)
	require.Equal(t, "0.00000001", assets[1].LotSize.String())
	require.Equal(t, "USDT", assets[2].Symbol)
}

func TestMissingEndpoint(t *testing.T) {
	_, err := NewSpot(context.Background(), WithCustomMainAPIEndpoint("https://api", "", ""))
	require.ErrorIs(t, err, ErrMissingEndpoint)
}
