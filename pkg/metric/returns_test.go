package metric

import (
	"strings"
	"testing"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	usd    = core.NewAsset("USD", "United States Dollar", decimal.RequireFromString("0.01"))
	btc    = core.NewAsset("BTC", "Bitcoin", decimal.RequireFromString("0.00000001"))
	btcusd = core.NewPair(btc, usd)
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func result(at time.Time, value string) core.Result {
	return core.Result{
		Time: at,
		Snapshot: core.Snapshot{
			Time:      at,
			Reference: usd,
			Value:     core.NewQuantity(usd, dec(value)),
		},
		Intent: core.NewHoldIntent(btcusd, at),
	}
}

// daily results starting on a date with the given values
func daily(start time.Time, values ...string) []core.Result {
	results := make([]core.Result, 0, len(values))
	for i, value := range values {
		results = append(results, result(start.AddDate(0, 0, i), value))
	}
	return results
}

func TestRateOfReturn(t *testing.T) {
	require.True(t, RateOfReturn(dec("100"), dec("110")).Equal(dec("0.1")))
	require.True(t, RateOfReturn(dec("100"), dec("50")).Equal(dec("-0.5")))
	require.True(t, RateOfReturn(dec("0"), dec("50")).IsZero())
}

func TestHorizon_Start(t *testing.T) {
	at := time.Date(2024, time.August, 15, 13, 30, 0, 0, time.UTC) // thursday

	tests := []struct {
		horizon  Horizon
		expected time.Time
	}{
		{YearToDate, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{QuarterToDate, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)},
		{MonthToDate, time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)},
		{WeekToDate, time.Date(2024, time.August, 12, 0, 0, 0, 0, time.UTC)},
		{Inception, time.Time{}},
	}

	for _, tc := range tests {
		t.Run(string(tc.horizon), func(t *testing.T) {
			start, err := tc.horizon.Start(at)
			require.NoError(t, err)
			require.Equal(t, tc.expected, start)
		})
	}

	t.Run("quarter boundaries", func(t *testing.T) {
		start, err := QuarterToDate.Start(time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Equal(t, time.October, start.Month())

		start, err = QuarterToDate.Start(time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Equal(t, time.January, start.Month())
	})

	t.Run("sunday belongs to the week started on monday", func(t *testing.T) {
		start, err := WeekToDate.Start(time.Date(2024, time.August, 18, 23, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Equal(t, time.Date(2024, time.August, 12, 0, 0, 0, 0, time.UTC), start)
	})

	t.Run("halvening is not supported", func(t *testing.T) {
		_, err := Halvening.Start(at)
		require.Error(t, err)
	})
}

func TestParseHorizon(t *testing.T) {
	horizon, err := ParseHorizon("mtd")
	require.NoError(t, err)
	require.Equal(t, MonthToDate, horizon)

	_, err = ParseHorizon("decade")
	require.Error(t, err)
}

func TestTimeWeightedReturn(t *testing.T) {
	results := daily(time.Date(2024, time.January, 30, 0, 0, 0, 0, time.UTC), "100", "110", "200", "220")

	t.Run("month to date restarts every month", func(t *testing.T) {
		points, err := TimeWeightedReturn(results, MonthToDate)
		require.NoError(t, err)
		require.Len(t, points, 4)

		require.True(t, points[0].Return.IsZero())
		require.True(t, points[1].Return.Equal(dec("0.1")))
		require.True(t, points[2].Return.IsZero(), "february starts over")
		require.True(t, points[3].Return.Equal(dec("0.1")))
	})

	t.Run("inception", func(t *testing.T) {
		points, err := TimeWeightedReturn(results, Inception)
		require.NoError(t, err)
		require.True(t, points[3].Return.Equal(dec("1.2")))
	})

	t.Run("unsupported horizon", func(t *testing.T) {
		_, err := TimeWeightedReturn(results, Halvening)
		require.Error(t, err)
	})
}

func TestRollingReturn(t *testing.T) {
	results := daily(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), "100", "110", "121", "60.5")

	points := RollingReturn(results, 2)
	require.True(t, points[0].Return.IsZero())
	require.True(t, points[1].Return.Equal(dec("0.1")))
	require.True(t, points[2].Return.Equal(dec("0.21")))
	require.True(t, points[3].Return.Equal(dec("-0.45")))

	require.Equal(t, RollingReturn(results, 1), RollingReturn(results, 0))

	returns := PeriodReturns(results)
	require.Len(t, returns, 3)
	require.InDelta(t, -0.5, returns[2], 1e-9)
}

func TestMaxDrawdown(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	results := daily(start, "100", "120", "90", "110", "60", "130")

	drawdown := MaxDrawdown(results)
	require.True(t, drawdown.Ratio.Equal(dec("0.5")), "got %s", drawdown.Ratio)
	require.Equal(t, start.AddDate(0, 0, 1), drawdown.Peak)
	require.Equal(t, start.AddDate(0, 0, 4), drawdown.Trough)

	require.True(t, MaxDrawdown(daily(start, "1", "2", "3")).Ratio.IsZero())
}

func TestNewReport(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	results := daily(start, "1000", "1100", "990", "1210")

	fee := core.NewQuantity(btc, dec("0.0012"))
	orders := []core.Order{
		{ID: 1, Direction: core.DirectionBuy, Status: core.OrderStatusClosed, Fee: fee},
		{ID: 2, Direction: core.DirectionBuy, Status: core.OrderStatusClosed, Fee: fee},
		{ID: 3, Direction: core.DirectionSell, Status: core.OrderStatusClosed, Fee: core.NewQuantity(usd, dec("0.5"))},
		{ID: 4, Direction: core.DirectionSell, Status: core.OrderStatusOpen},
	}

	report, err := NewReport("dca", btcusd, results, orders)
	require.NoError(t, err)
	require.Equal(t, 4, report.Steps)
	require.Equal(t, 3, report.Trades)
	require.Equal(t, 2, report.Buys)
	require.Equal(t, 1, report.Sells)
	require.True(t, report.Return.Equal(dec("0.21")))
	require.True(t, report.Horizons[Inception].Equal(dec("0.21")))
	require.True(t, report.Drawdown.Ratio.Equal(dec("0.1")))
	require.Len(t, report.Fees, 2)
	require.Equal(t, "0.00240000 BTC", report.Fees[0].String())
	require.Len(t, report.Returns, 3)

	output := report.String()
	require.True(t, strings.Contains(output, "21.00 %"), output)
	require.Contains(t, output, "CONFIDENCE INTERVAL")
	require.Contains(t, output, "BTC/USD")

	empty, err := NewReport("hold", btcusd, nil, nil)
	require.NoError(t, err)
	require.Zero(t, empty.Steps)
}
