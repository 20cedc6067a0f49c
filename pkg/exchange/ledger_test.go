package exchange

import (
	"testing"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/stretchr/testify/require"
)

func TestNewLedger(t *testing.T) {
	t.Run("duplicated asset", func(t *testing.T) {
		_, err := NewLedger([]core.Quantity{
			core.NewQuantity(usd, dec("1")),
			core.NewQuantity(usd, dec("2")),
		})
		require.Error(t, err)
	})

	t.Run("negative initial balance", func(t *testing.T) {
		_, err := NewLedger([]core.Quantity{core.NewQuantity(usd, dec("-1"))})
		require.ErrorIs(t, err, core.ErrInsufficientBalance)

		ledger, err := NewLedger([]core.Quantity{core.NewQuantity(usd, dec("-1"))}, WithNegativeBalance(true))
		require.NoError(t, err)
		requireAmount(t, "-1", ledger.Balance(usd))
	})

	t.Run("unknown asset is zero", func(t *testing.T) {
		ledger, err := NewLedger(nil)
		require.NoError(t, err)
		require.True(t, ledger.Balance(eth).IsZero())
		require.Empty(t, ledger.Balances())
	})
}

func TestLedger_ApplyDelta(t *testing.T) {
	ledger, err := NewLedger([]core.Quantity{core.NewQuantity(usd, dec("100"))}, WithLedgerTime(t0))
	require.NoError(t, err)

	require.NoError(t, ledger.ApplyDelta(core.NewQuantity(usd, dec("-40")), t1))
	requireAmount(t, "60", ledger.Balance(usd))
	require.Equal(t, t1, ledger.UpdatedAt())

	t.Run("insufficient balance leaves ledger untouched", func(t *testing.T) {
		err := ledger.ApplyDelta(core.NewQuantity(usd, dec("-60.01")), t2)
		require.ErrorIs(t, err, core.ErrInsufficientBalance)
		requireAmount(t, "60", ledger.Balance(usd))
		require.Equal(t, t1, ledger.UpdatedAt())
	})

	t.Run("older delta keeps the timestamp", func(t *testing.T) {
		require.NoError(t, ledger.ApplyDelta(core.NewQuantity(usd, dec("1")), t0))
		requireAmount(t, "61", ledger.Balance(usd))
		require.Equal(t, t1, ledger.UpdatedAt())
	})

	t.Run("new asset entry", func(t *testing.T) {
		require.NoError(t, ledger.ApplyDelta(core.NewQuantity(btc, dec("0.5")), t2))
		requireAmount(t, "0.5", ledger.Balance(btc))
		require.Len(t, ledger.Balances(), 2)
		require.Equal(t, "BTC", ledger.Balances()[0].Asset().Symbol)
	})

	t.Run("negative allowed", func(t *testing.T) {
		ledger, err := NewLedger(nil, WithNegativeBalance(true))
		require.NoError(t, err)
		require.NoError(t, ledger.ApplyDelta(core.NewQuantity(btc, dec("-2")), t0))
		requireAmount(t, "-2", ledger.Balance(btc))
	})
}

func TestLedger_TotalValue(t *testing.T) {
	series := testSeries()

	ledger, err := NewLedger([]core.Quantity{
		core.NewQuantity(usd, dec("100")),
		core.NewQuantity(btc, dec("0.5")),
		core.NewQuantity(eth, dec("0")),
	})
	require.NoError(t, err)

	value, err := ledger.TotalValue(usd, series, t1)
	require.NoError(t, err)
	requireAmount(t, "155", value)

	t.Run("missing price", func(t *testing.T) {
		_, err := ledger.TotalValue(usd, series, t2.Add(hourly.Duration()))
		require.ErrorIs(t, err, core.ErrMissingCandle)
	})

	t.Run("snapshot", func(t *testing.T) {
		snapshot, err := ledger.Snapshot(usd, series, t0)
		require.NoError(t, err)
		require.Equal(t, t0, snapshot.Time)
		requireAmount(t, "150", snapshot.Value)
		requireAmount(t, "0.5", snapshot.Of(btc))
	})
}
