package exchange

import (
	"testing"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/stretchr/testify/require"
)

func limitPrice(value string) *core.Price {
	price := core.NewPrice(btcusd, dec(value))
	return &price
}

func TestPaperWallet_MarketOrders(t *testing.T) {
	wallet := testWallet(t)

	buy, err := wallet.SubmitOrder(t0, newOrder(t, core.IntentConfig{
		Direction: core.DirectionBuy, Quantity: dec("1"), Time: t0,
	}))
	require.NoError(t, err)
	require.Equal(t, int64(1), buy.ID)
	require.Equal(t, core.OrderStatusClosed, buy.Status)
	require.Equal(t, "100", buy.ExecutionPrice.Value().String())
	requireAmount(t, "100", buy.Cost)
	requireAmount(t, "0.0024", buy.Fee)
	requireAmount(t, "0.9976", buy.Executed)

	usdBalance, err := wallet.BalanceOf(t0, usd)
	require.NoError(t, err)
	requireAmount(t, "900", usdBalance)

	sell, err := wallet.SubmitOrder(t1, newOrder(t, core.IntentConfig{
		Direction: core.DirectionSell, Quantity: dec("0.5"), Time: t1,
	}))
	require.NoError(t, err)
	require.Equal(t, int64(2), sell.ID)
	require.Equal(t, core.OrderStatusClosed, sell.Status)
	requireAmount(t, "55", sell.Cost)
	requireAmount(t, "0.13", sell.Fee)
	requireAmount(t, "54.87", sell.Executed)

	snapshot, err := wallet.Balance(t1)
	require.NoError(t, err)
	requireAmount(t, "954.87", snapshot.Of(usd))
	requireAmount(t, "0.4976", snapshot.Of(btc))
	requireAmount(t, "1009.61", snapshot.Value)
	require.Equal(t, t1, wallet.Ledger().UpdatedAt())

	orders, err := wallet.Orders(t1, core.WithStatus(core.OrderStatusClosed))
	require.NoError(t, err)
	require.Len(t, orders, 2)
}

func TestPaperWallet_PercentageOrder(t *testing.T) {
	wallet := testWallet(t)

	order, err := wallet.SubmitOrder(t1, newOrder(t, core.IntentConfig{
		Direction: core.DirectionBuy, Quantity: dec("10"), Unit: core.UnitQuote,
		QuantityKind: core.QuantityPercentage, Time: t1,
	}))
	require.NoError(t, err)
	requireAmount(t, "0.909091", order.Quantity)
	requireAmount(t, "100", order.Cost)

	balance, err := wallet.BalanceOf(t1, usd)
	require.NoError(t, err)
	requireAmount(t, "900", balance)
}

func TestPaperWallet_LimitOrder(t *testing.T) {
	wallet := testWallet(t)

	order := newOrder(t, core.IntentConfig{Direction: core.DirectionBuy, Quantity: dec("1"), Time: t0})
	order.Kind = core.OrderKindLimit
	order.LimitPrice = limitPrice("85")

	placed, err := wallet.SubmitOrder(t0, order)
	require.NoError(t, err)
	require.Equal(t, core.OrderStatusOpen, placed.Status)
	requireAmount(t, "85", placed.Cost)

	t.Run("not filled while the low stays above the limit", func(t *testing.T) {
		open, err := wallet.OpenOrders(t1)
		require.NoError(t, err)
		require.Len(t, open, 1)

		btcBalance, err := wallet.BalanceOf(t1, btc)
		require.NoError(t, err)
		require.True(t, btcBalance.IsZero())
	})

	t.Run("filled once the low reaches the limit", func(t *testing.T) {
		snapshot, err := wallet.Balance(t2)
		require.NoError(t, err)
		requireAmount(t, "915", snapshot.Of(usd))
		requireAmount(t, "0.9976", snapshot.Of(btc))

		orders, err := wallet.OrdersInfo(t2, placed.ID)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		require.Equal(t, core.OrderStatusClosed, orders[0].Status)
		require.Equal(t, "85", orders[0].ExecutionPrice.Value().String())
	})

	t.Run("refresh is idempotent", func(t *testing.T) {
		require.NoError(t, wallet.RefreshStatus(t2))
		require.NoError(t, wallet.RefreshStatus(t2))

		balance, err := wallet.BalanceOf(t2, btc)
		require.NoError(t, err)
		requireAmount(t, "0.9976", balance)
	})

	t.Run("stale refresh is skipped", func(t *testing.T) {
		balance, err := wallet.BalanceOf(t0, btc)
		require.NoError(t, err)
		requireAmount(t, "0.9976", balance)
	})
}

func TestPaperWallet_LimitSell(t *testing.T) {
	wallet := testWallet(t, core.NewQuantity(btc, dec("1")))

	order := newOrder(t, core.IntentConfig{Direction: core.DirectionSell, Quantity: dec("1"), Time: t0})
	order.Kind = core.OrderKindLimit
	order.LimitPrice = limitPrice("125")

	_, err := wallet.AddOrder(t0, order)
	require.NoError(t, err)

	open, err := wallet.OpenOrders(t0)
	require.NoError(t, err)
	require.Len(t, open, 1)

	balance, err := wallet.BalanceOf(t1, usd)
	require.NoError(t, err)
	requireAmount(t, "124.7", balance)
}

func TestPaperWallet_CancelOrder(t *testing.T) {
	wallet := testWallet(t)

	order := newOrder(t, core.IntentConfig{Direction: core.DirectionBuy, Quantity: dec("1"), Time: t0})
	order.Kind = core.OrderKindLimit
	order.LimitPrice = limitPrice("85")

	placed, err := wallet.SubmitOrder(t0, order)
	require.NoError(t, err)

	canceled, err := wallet.CancelOrder(t1, placed.ID)
	require.NoError(t, err)
	require.Equal(t, core.OrderStatusCanceled, canceled.Status)

	balance, err := wallet.BalanceOf(t2, usd)
	require.NoError(t, err)
	requireAmount(t, "1000", balance)

	_, err = wallet.CancelOrder(t2, placed.ID)
	require.ErrorIs(t, err, core.ErrUnsupportedOrderStatus)

	_, err = wallet.CancelOrder(t2, 99)
	require.ErrorIs(t, err, core.ErrOrderNotFound)
}

func TestPaperWallet_Rejections(t *testing.T) {
	t.Run("insufficient balance", func(t *testing.T) {
		wallet := testWallet(t)
		_, err := wallet.SubmitOrder(t0, newOrder(t, core.IntentConfig{
			Direction: core.DirectionBuy, Quantity: dec("20"), Time: t0,
		}))
		require.ErrorIs(t, err, core.ErrInsufficientBalance)

		balance, err := wallet.BalanceOf(t0, usd)
		require.NoError(t, err)
		requireAmount(t, "1000", balance)

		orders, err := wallet.Orders(t0)
		require.NoError(t, err)
		require.Empty(t, orders)
	})

	t.Run("missing timestamp", func(t *testing.T) {
		wallet := testWallet(t)
		order := newOrder(t, core.IntentConfig{Direction: core.DirectionBuy, Quantity: dec("1"), Time: t0})

		_, err := wallet.SubmitOrder(time.Time{}, order)
		require.ErrorIs(t, err, core.ErrMissingTimestamp)
		require.ErrorIs(t, wallet.RefreshStatus(time.Time{}), core.ErrMissingTimestamp)
	})

	t.Run("unresolved order", func(t *testing.T) {
		wallet := testWallet(t)
		order := newOrder(t, core.IntentConfig{Direction: core.DirectionBuy, Quantity: dec("1"), Time: t0})

		_, err := wallet.AddOrder(t0, order)
		require.ErrorIs(t, err, core.ErrInvalidQuantity)
	})

	t.Run("unsupported kind", func(t *testing.T) {
		wallet := testWallet(t)
		order := newOrder(t, core.IntentConfig{Direction: core.DirectionBuy, Quantity: dec("1"), Time: t0})
		order.Kind = core.OrderKindStopLoss

		_, err := wallet.SubmitOrder(t0, order)
		require.ErrorIs(t, err, core.ErrUnsupportedOrderKind)
	})

	t.Run("unsupported status", func(t *testing.T) {
		wallet := testWallet(t)
		order := newOrder(t, core.IntentConfig{Direction: core.DirectionBuy, Quantity: dec("1"), Time: t0})
		order.Resolve(core.NewQuantity(btc, dec("1")), core.NewQuantity(btc, dec("1")))
		order.Status = core.OrderStatusClosed

		err := wallet.ApplyBalanceEffect(order, t0)
		require.ErrorIs(t, err, core.ErrUnsupportedOrderStatus)
	})
}

func TestPaperWallet_NoopOrders(t *testing.T) {
	wallet := testWallet(t)

	hold, err := wallet.SubmitOrder(t0, core.NewOrder(core.NewHoldIntent(btcusd, t0)))
	require.NoError(t, err)
	require.Zero(t, hold.ID)

	empty, err := wallet.SubmitOrder(t0, newOrder(t, core.IntentConfig{
		Direction: core.DirectionSell, Quantity: dec("100"), QuantityKind: core.QuantityPercentage, Time: t0,
	}))
	require.NoError(t, err)
	require.True(t, empty.IsNoop())
	require.Zero(t, empty.ID)

	orders, err := wallet.Orders(t0)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestPaperWallet_Fee(t *testing.T) {
	ledger, err := NewLedger([]core.Quantity{core.NewQuantity(usd, dec("1000"))})
	require.NoError(t, err)

	wallet := NewPaperWallet(ledger, testSeries(), usd, WithPaperFee(dec("0")))
	order, err := wallet.SubmitOrder(t0, newOrder(t, core.IntentConfig{
		Direction: core.DirectionBuy, Quantity: dec("2"), Time: t0,
	}))
	require.NoError(t, err)
	requireAmount(t, "2", order.Executed)
	require.True(t, order.Fee.IsZero())
}

func TestPaperWallet_QuoteMarketBuy(t *testing.T) {
	wallet := testWallet(t)

	order, err := wallet.SubmitOrder(t0, newOrder(t, core.IntentConfig{
		Direction: core.DirectionBuy, Quantity: dec("50"), Unit: core.UnitQuote, Time: t0,
	}))
	require.NoError(t, err)
	require.Equal(t, core.OrderStatusClosed, order.Status)
	requireAmount(t, "0.5", order.Quantity)
	requireAmount(t, "50", order.Cost)
	requireAmount(t, "0.4988", order.Executed)
	requireAmount(t, "0.0012", order.Fee)

	balance, err := wallet.BalanceOf(t0, btc)
	require.NoError(t, err)
	requireAmount(t, "0.4988", balance)
}

func TestPaperWallet_BuyFeeRoundsNetCredit(t *testing.T) {
	wallet := testWallet(t)

	// 0.00000625 * 0.9976 = 0.000006235, a half-lot tie
	order, err := wallet.SubmitOrder(t0, newOrder(t, core.IntentConfig{
		Direction: core.DirectionBuy, Quantity: dec("0.00000625"), Time: t0,
	}))
	require.NoError(t, err)
	requireAmount(t, "0.00000624", order.Executed)
	requireAmount(t, "0.00000001", order.Fee)

	balance, err := wallet.BalanceOf(t0, btc)
	require.NoError(t, err)
	requireAmount(t, "0.00000624", balance)
}

func TestPaperWallet_FullQuoteBuyOverdraws(t *testing.T) {
	series := NewPriceSeries(hourly)
	series.Add(btcusd.Symbol(), candle(t0, "60000", "60000", "60000", "60000"))

	ledger, err := NewLedger([]core.Quantity{core.NewQuantity(usd, dec("10000"))})
	require.NoError(t, err)
	wallet := NewPaperWallet(ledger, series, usd)

	full := core.IntentConfig{
		Direction: core.DirectionBuy, Quantity: dec("100"), Unit: core.UnitQuote,
		QuantityKind: core.QuantityPercentage, Time: t0,
	}

	// 10000 / 60000 resolves to 0.1667 BTC, which costs 10002 USD
	_, err = wallet.SubmitOrder(t0, newOrder(t, full))
	require.ErrorIs(t, err, core.ErrInsufficientBalance)

	balance, err := wallet.BalanceOf(t0, usd)
	require.NoError(t, err)
	requireAmount(t, "10000", balance)

	full.Quantity = dec("99")
	order, err := wallet.SubmitOrder(t0, newOrder(t, full))
	require.NoError(t, err)
	require.Equal(t, core.OrderStatusClosed, order.Status)
}
