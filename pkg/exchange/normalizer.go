package exchange

import (
	"fmt"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Normalizer turns the raw quantity of an order into a base-asset quantity
type Normalizer struct {
	balances BalanceReader
	prices   PriceReader
}

// NewNormalizer creates a normalizer reading balances and prices from the given sources
func NewNormalizer(balances BalanceReader, prices PriceReader) *Normalizer {
	return &Normalizer{balances: balances, prices: prices}
}

// Validate checks the raw quantity against the quantity kind
func (n *Normalizer) Validate(order *core.Order) error {
	if !order.QuantityKind.Accepts(order.RawQuantity) {
		return newOrderError(fmt.Errorf("%w: %s %s", core.ErrInvalidQuantity, order.RawQuantity, order.QuantityKind), order)
	}
	if !order.Unit.Valid() {
		return newOrderError(fmt.Errorf("%w: unit %q", core.ErrInvalidQuantity, order.Unit), order)
	}
	return nil
}

// Absolute resolves percentages against the balance of the unit asset and
// returns the quantity in the unit asset. A percentage of a negative balance is zero.
func (n *Normalizer) Absolute(at time.Time, order *core.Order) (core.Quantity, error) {
	if err := n.Validate(order); err != nil {
		return core.Quantity{}, err
	}

	asset := order.Unit.Asset(order.Pair)
	if order.QuantityKind == core.QuantityAbsolute {
		return core.NewQuantity(asset, order.RawQuantity), nil
	}

	balance, err := n.balances.BalanceOf(at, asset)
	if err != nil {
		return core.Quantity{}, err
	}

	if balance.IsNegative() {
		return core.ZeroQuantity(asset), nil
	}

	return balance.Mul(order.RawQuantity.Div(hundred)), nil
}

// Base converts an absolute quantity of either pair leg into the base asset
func (n *Normalizer) Base(at time.Time, pair core.Pair, absolute core.Quantity) (core.Quantity, error) {
	if absolute.Asset().Equal(pair.Base) {
		return absolute, nil
	}

	price, err := n.prices.InstantPrice(pair, at)
	if err != nil {
		return core.Quantity{}, err
	}

	return absolute.DivideByPrice(price)
}

// Normalize resolves the order in place. Holds and already resolved orders
// are left as they are.
func (n *Normalizer) Normalize(at time.Time, order *core.Order) error {
	if order.IsHold() || order.IsResolved() {
		return nil
	}

	absolute, err := n.Absolute(at, order)
	if err != nil {
		return err
	}

	base, err := n.Base(at, order.Pair, absolute)
	if err != nil {
		return newOrderError(err, order)
	}

	order.Resolve(absolute, base)
	return nil
}
