package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/exchange"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	usd    = core.NewAsset("USD", "United States Dollar", decimal.RequireFromString("0.01"))
	btc    = core.NewAsset("BTC", "Bitcoin", decimal.RequireFromString("0.00000001"))
	btcusd = core.NewPair(btc, usd)

	start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func TestNew(t *testing.T) {
	t.Run("unknown strategy", func(t *testing.T) {
		_, err := New("martingale", nil, Env{})
		require.ErrorContains(t, err, "unknown strategy")
	})

	t.Run("params are decoded", func(t *testing.T) {
		s, err := New("DCA", Params{"amount": "25", "every": "1d"}, Env{})
		require.NoError(t, err)
		require.Equal(t, "dca", s.Name())
		require.True(t, s.(*DCA).amount.Equal(decimal.NewFromInt(25)))
	})

	t.Run("unused params are rejected", func(t *testing.T) {
		_, err := New("hold", Params{"amount": 1}, Env{})
		require.Error(t, err)
	})

	t.Run("ma cross needs a feeder", func(t *testing.T) {
		_, err := New("ema_cross", nil, Env{})
		require.Error(t, err)
	})

	require.Contains(t, Names(), "ma_cross")
}

func TestHold(t *testing.T) {
	intent, err := NewHold().Decide(context.Background(), btcusd, start)
	require.NoError(t, err)
	require.True(t, intent.IsHold())
	require.Equal(t, start, intent.Time)
}

func TestDCA(t *testing.T) {
	t.Run("buys on every step", func(t *testing.T) {
		dca, err := NewDCA(DefaultDCAConfig())
		require.NoError(t, err)

		intent, err := dca.Decide(context.Background(), btcusd, start.Add(5*time.Hour))
		require.NoError(t, err)
		require.Equal(t, core.DirectionBuy, intent.Direction)
		require.Equal(t, core.OrderKindMarket, intent.Kind)
		require.Equal(t, core.UnitQuote, intent.Unit)
		require.Equal(t, core.QuantityAbsolute, intent.QuantityKind)
		require.Equal(t, "50", intent.Quantity.String())
	})

	t.Run("buys on period boundaries only", func(t *testing.T) {
		dca, err := NewDCA(DCAConfig{Amount: 10, Every: "1d"})
		require.NoError(t, err)

		intent, err := dca.Decide(context.Background(), btcusd, start.Add(5*time.Hour))
		require.NoError(t, err)
		require.True(t, intent.IsHold())

		intent, err = dca.Decide(context.Background(), btcusd, start.Add(24*time.Hour))
		require.NoError(t, err)
		require.Equal(t, core.DirectionBuy, intent.Direction)
	})

	t.Run("invalid amount", func(t *testing.T) {
		_, err := NewDCA(DCAConfig{Amount: 0})
		require.ErrorIs(t, err, core.ErrInvalidQuantity)
	})
}

func crossSeries() *exchange.PriceSeries {
	series := exchange.NewPriceSeries(core.MustParsePeriod("1h"))

	closes := make([]string, 0, 33)
	for i := 0; i < 30; i++ {
		closes = append(closes, "100")
	}
	closes = append(closes, "200", "200", "50")

	for i, price := range closes {
		value := decimal.RequireFromString(price)
		series.Add(btcusd.Symbol(), core.Candle{
			Time:     start.Add(time.Duration(i) * time.Hour),
			Open:     value,
			High:     value,
			Low:      value,
			Close:    value,
			Complete: true,
		})
	}
	return series
}

func TestMACross(t *testing.T) {
	cross, err := NewMACross(MACrossConfig{
		Fast: 2, Slow: 3, Type: "sma", BuyPercent: 50, SellPercent: 100,
	}, crossSeries(), nil)
	require.NoError(t, err)
	require.Equal(t, "sma_cross_2_3", cross.Name())

	decide := func(hours int) core.Intent {
		intent, err := cross.Decide(context.Background(), btcusd, start.Add(time.Duration(hours)*time.Hour))
		require.NoError(t, err)
		return intent
	}

	require.True(t, decide(2).IsHold(), "not enough candles")
	require.True(t, decide(20).IsHold(), "flat prices")

	buy := decide(31)
	require.Equal(t, core.DirectionBuy, buy.Direction)
	require.Equal(t, core.UnitQuote, buy.Unit)
	require.Equal(t, core.QuantityPercentage, buy.QuantityKind)
	require.Equal(t, "50", buy.Quantity.String())

	require.True(t, decide(32).IsHold())

	sell := decide(33)
	require.Equal(t, core.DirectionSell, sell.Direction)
	require.Equal(t, core.UnitBase, sell.Unit)
}

func TestNewMACross_Validation(t *testing.T) {
	feeder := crossSeries()

	_, err := NewMACross(MACrossConfig{Fast: 5, Slow: 5, Type: "ema", BuyPercent: 10, SellPercent: 10}, feeder, nil)
	require.Error(t, err)

	_, err = NewMACross(MACrossConfig{Fast: 2, Slow: 5, Type: "ema", BuyPercent: 150, SellPercent: 10}, feeder, nil)
	require.ErrorIs(t, err, core.ErrInvalidQuantity)

	_, err = NewMACross(MACrossConfig{Fast: 2, Slow: 5, Type: "hull", BuyPercent: 10, SellPercent: 10}, feeder, nil)
	require.Error(t, err)
}
