package exchange

import (
	"testing"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	usd = core.NewAsset("USD", "United States Dollar", decimal.RequireFromString("0.01"))
	btc = core.NewAsset("BTC", "Bitcoin", decimal.RequireFromString("0.00000001"))
	eth = core.NewAsset("ETH", "Ethereum", decimal.RequireFromString("0.00000001"))

	btcusd = core.NewPair(btc, usd)
	ethusd = core.NewPair(eth, usd)

	hourly = core.MustParsePeriod("1h")

	t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
	t2 = t0.Add(2 * time.Hour)
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func candle(at time.Time, open, high, low, close string) core.Candle {
	return core.Candle{
		Time:     at,
		Open:     dec(open),
		High:     dec(high),
		Low:      dec(low),
		Close:    dec(close),
		Volume:   dec("1"),
		Complete: true,
	}
}

// testSeries has BTCUSD means of 100, 110 and 100 at t0, t1 and t2
func testSeries() *PriceSeries {
	series := NewPriceSeries(hourly)
	series.Add(btcusd.Symbol(),
		candle(t0, "100", "110", "90", "100"),
		candle(t1, "100", "130", "95", "115"),
		candle(t2, "115", "120", "80", "85"),
	)
	series.Add(ethusd.Symbol(),
		candle(t0, "10", "10", "10", "10"),
		candle(t1, "12", "12", "12", "12"),
		candle(t2, "8", "8", "8", "8"),
	)
	return series
}

func testWallet(t *testing.T, initial ...core.Quantity) *PaperWallet {
	t.Helper()

	if len(initial) == 0 {
		initial = []core.Quantity{core.NewQuantity(usd, dec("1000"))}
	}

	ledger, err := NewLedger(initial)
	require.NoError(t, err)

	return NewPaperWallet(ledger, testSeries(), usd)
}

func newOrder(t *testing.T, cfg core.IntentConfig) *core.Order {
	t.Helper()

	if cfg.Pair.Base.Symbol == "" {
		cfg.Pair = btcusd
	}
	if cfg.Kind == "" {
		cfg.Kind = core.OrderKindMarket
	}
	if cfg.Unit == "" {
		cfg.Unit = core.UnitBase
	}
	if cfg.QuantityKind == "" {
		cfg.QuantityKind = core.QuantityAbsolute
	}

	intent, err := core.NewIntent(cfg)
	require.NoError(t, err)
	return core.NewOrder(intent)
}

func requireAmount(t *testing.T, expected string, quantity core.Quantity) {
	t.Helper()
	require.True(t, quantity.Amount().Equal(dec(expected)), "expected %s, got %s", expected, quantity)
}
