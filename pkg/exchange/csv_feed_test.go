package exchange

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/stretchr/testify/require"
)

const hourlyCSV = `time,open,close,low,high,volume
1704067200,100,101,99,102,1
1704070800,101,103,100,104,2
1704074400,103,102,101,105,1
1704078000,102,106,102,107,3
1704081600,106,106,106,106,1
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewCSVFeed(t *testing.T) {
	path := writeCSV(t, hourlyCSV)

	t.Run("same timeframe", func(t *testing.T) {
		feed, err := NewCSVFeed(hourly, PairFeed{Pair: "BTCUSD", File: path, Timeframe: "1h"})
		require.NoError(t, err)

		candles, err := feed.Candles(context.Background(), btcusd, t0, t0.Add(4*hourly.Duration()))
		require.NoError(t, err)
		require.Len(t, candles, 5)

		candle, err := feed.Candle(btcusd, t1.Add(30*time.Minute))
		require.NoError(t, err)
		require.Equal(t, t1, candle.Time)
		require.Equal(t, "103", candle.Close.String())
	})

	t.Run("resampled", func(t *testing.T) {
		feed, err := NewCSVFeed(core.MustParsePeriod("2h"), PairFeed{Pair: "BTCUSD", File: path, Timeframe: "1h"})
		require.NoError(t, err)

		candles, err := feed.Candles(context.Background(), btcusd, t0, t0.Add(24*hourly.Duration()))
		require.NoError(t, err)
		require.Len(t, candles, 2)

		first := candles[0]
		require.Equal(t, t0, first.Time)
		require.Equal(t, "100", first.Open.String())
		require.Equal(t, "103", first.Close.String())
		require.Equal(t, "99", first.Low.String())
		require.Equal(t, "104", first.High.String())
		require.Equal(t, "3", first.Volume.String())
		require.True(t, first.Complete)

		second := candles[1]
		require.Equal(t, t2, second.Time)
		require.Equal(t, "106", second.Close.String())
		require.Equal(t, "107", second.High.String())
		require.Equal(t, "4", second.Volume.String())
	})

	t.Run("headerless file", func(t *testing.T) {
		path := writeCSV(t, "1704067200,100,101,99,102,1\n")
		feed, err := NewCSVFeed(hourly, PairFeed{Pair: "BTCUSD", File: path})
		require.NoError(t, err)
		require.Equal(t, []string{"BTCUSD"}, feed.Pairs())
	})

	t.Run("missing volume column", func(t *testing.T) {
		path := writeCSV(t, "1704067200,100,101,99,102\n")
		_, err := NewCSVFeed(hourly, PairFeed{Pair: "BTCUSD", File: path})
		require.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("header without volume", func(t *testing.T) {
		path := writeCSV(t, "time,open,close,low,high\n1704067200,100,101,99,102\n")
		_, err := NewCSVFeed(hourly, PairFeed{Pair: "BTCUSD", File: path})
		require.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("no complete candle", func(t *testing.T) {
		path := writeCSV(t, "1704070800,100,101,99,102,1\n")
		_, err := NewCSVFeed(core.MustParsePeriod("2h"), PairFeed{Pair: "BTCUSD", File: path, Timeframe: "1h"})
		require.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewCSVFeed(hourly, PairFeed{Pair: "BTCUSD", File: filepath.Join(t.TempDir(), "nope.csv")})
		require.Error(t, err)
	})

	t.Run("bad number", func(t *testing.T) {
		path := writeCSV(t, "1704067200,abc,101,99,102,1\n")
		_, err := NewCSVFeed(hourly, PairFeed{Pair: "BTCUSD", File: path})
		require.Error(t, err)
	})
}

func TestResample(t *testing.T) {
	t.Run("coarser source", func(t *testing.T) {
		_, err := resample(nil, core.MustParsePeriod("1d"), hourly)
		require.ErrorIs(t, err, core.ErrInvalidPeriod)
	})

	t.Run("leading partial group is dropped", func(t *testing.T) {
		candles := []core.Candle{
			candle(t1, "1", "1", "1", "1"),
			candle(t2, "2", "3", "2", "2"),
			candle(t2.Add(hourly.Duration()), "2", "4", "1", "3"),
		}

		result, err := resample(candles, hourly, core.MustParsePeriod("2h"))
		require.NoError(t, err)
		require.Len(t, result, 1)
		require.Equal(t, t2, result[0].Time)
		require.Equal(t, "4", result[0].High.String())
		require.Equal(t, "1", result[0].Low.String())
	})
}
