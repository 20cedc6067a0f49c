package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewIntent(t *testing.T) {
	at := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	limit := dec("90")

	base := IntentConfig{
		Pair:         btcusd,
		Direction:    DirectionBuy,
		Kind:         OrderKindMarket,
		Quantity:     dec("50"),
		Unit:         UnitQuote,
		QuantityKind: QuantityAbsolute,
		Time:         at,
	}

	t.Run("market", func(t *testing.T) {
		intent, err := NewIntent(base)
		require.NoError(t, err)
		require.False(t, intent.IsHold())
		require.Nil(t, intent.LimitPrice)
	})

	t.Run("limit quantizes price", func(t *testing.T) {
		cfg := base
		cfg.Kind = OrderKindLimit
		price := dec("90.129")
		cfg.LimitPrice = &price

		intent, err := NewIntent(cfg)
		require.NoError(t, err)
		require.True(t, intent.LimitPrice.Value().Equal(dec("90.13")))
	})

	t.Run("limit without price", func(t *testing.T) {
		cfg := base
		cfg.Kind = OrderKindLimit

		_, err := NewIntent(cfg)
		require.ErrorIs(t, err, ErrInvalidIntent)
	})

	t.Run("percentage above hundred", func(t *testing.T) {
		cfg := base
		cfg.QuantityKind = QuantityPercentage
		cfg.Quantity = dec("120")

		_, err := NewIntent(cfg)
		require.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("negative absolute", func(t *testing.T) {
		cfg := base
		cfg.Quantity = dec("-1")

		_, err := NewIntent(cfg)
		require.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("missing time", func(t *testing.T) {
		cfg := base
		cfg.Time = time.Time{}

		_, err := NewIntent(cfg)
		require.ErrorIs(t, err, ErrMissingTimestamp)
	})

	t.Run("hold ignores trade fields", func(t *testing.T) {
		cfg := base
		cfg.Direction = DirectionHold
		cfg.LimitPrice = &limit

		intent, err := NewIntent(cfg)
		require.NoError(t, err)
		require.True(t, intent.IsHold())
		require.True(t, NewOrder(intent).IsNoop())
	})
}

func TestNewOrderFromIntent(t *testing.T) {
	at := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	intent, err := NewIntent(IntentConfig{
		Pair:         btcusd,
		Direction:    DirectionSell,
		Kind:         OrderKindMarket,
		Quantity:     dec("25"),
		Unit:         UnitBase,
		QuantityKind: QuantityPercentage,
		Time:         at,
	})
	require.NoError(t, err)

	order := NewOrder(intent)
	require.Equal(t, OrderStatusCreated, order.Status)
	require.Equal(t, Unresolved, order.Resolution)
	require.False(t, order.IsNoop())

	order.Resolve(NewQuantity(btc, dec("0.025")), NewQuantity(btc, dec("0.025")))
	require.True(t, order.IsResolved())
	require.Equal(t, QuantityPercentage, order.QuantityKind)
}
