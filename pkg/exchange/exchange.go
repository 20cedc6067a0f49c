package exchange

import (
	"fmt"
	"time"

	"github.com/raykavin/backsim/pkg/core"
)

// OrderError wraps an error raised while handling an order
type OrderError struct {
	Err      error
	ID       int64
	Pair     string
	Quantity string
}

// Error implements the error interface
func (o *OrderError) Error() string {
	return fmt.Sprintf("order error: %v, id: %d, pair: %s, quantity: %s", o.Err, o.ID, o.Pair, o.Quantity)
}

// Unwrap exposes the wrapped error to errors.Is and errors.As
func (o *OrderError) Unwrap() error { return o.Err }

func newOrderError(err error, order *core.Order) *OrderError {
	quantity := order.RawQuantity.String()
	if order.IsResolved() {
		quantity = order.Quantity.String()
	}

	return &OrderError{
		Err:      err,
		ID:       order.ID,
		Pair:     order.Pair.Symbol(),
		Quantity: quantity,
	}
}

// PriceReader reads instant prices
type PriceReader interface {
	InstantPrice(pair core.Pair, at time.Time) (core.Price, error)
}

// BalanceReader reads a refreshed ledger balance
type BalanceReader interface {
	BalanceOf(at time.Time, asset core.Asset) (core.Quantity, error)
}
