package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quantity is an amount of a single asset, always quantized to the asset lot size
type Quantity struct {
	asset  Asset
	amount decimal.Decimal
}

// NewQuantity quantizes amount to the lot size of asset
func NewQuantity(asset Asset, amount decimal.Decimal) Quantity {
	return Quantity{asset: asset, amount: asset.Quantize(amount)}
}

// ZeroQuantity returns an empty quantity of asset
func ZeroQuantity(asset Asset) Quantity {
	return NewQuantity(asset, decimal.Zero)
}

// Asset returns the asset the quantity is denominated in
func (q Quantity) Asset() Asset { return q.asset }

// Amount returns the quantized decimal amount
func (q Quantity) Amount() decimal.Decimal { return q.amount }

func (q Quantity) IsZero() bool { return q.amount.IsZero() }
func (q Quantity) IsNegative() bool { return q.amount.IsNegative() }

// Neg returns the quantity with its sign flipped
func (q Quantity) Neg() Quantity {
	return Quantity{asset: q.asset, amount: q.amount.Neg()}
}

// Add sums two quantities of the same asset
func (q Quantity) Add(other Quantity) (Quantity, error) {
	if !q.asset.Equal(other.asset) {
		return Quantity{}, mismatch("add", q.asset, other.asset)
	}
	return NewQuantity(q.asset, q.amount.Add(other.amount)), nil
}

// Sub subtracts a quantity of the same asset
func (q Quantity) Sub(other Quantity) (Quantity, error) {
	if !q.asset.Equal(other.asset) {
		return Quantity{}, mismatch("sub", q.asset, other.asset)
	}
	return NewQuantity(q.asset, q.amount.Sub(other.amount)), nil
}

// Cmp compares two quantities of the same asset
func (q Quantity) Cmp(other Quantity) (int, error) {
	if !q.asset.Equal(other.asset) {
		return 0, mismatch("compare", q.asset, other.asset)
	}
	return q.amount.Cmp(other.amount), nil
}

// Mul scales the quantity by a unitless factor
func (q Quantity) Mul(factor decimal.Decimal) Quantity {
	return NewQuantity(q.asset, q.amount.Mul(factor))
}

// Div divides the quantity by a unitless factor
func (q Quantity) Div(factor decimal.Decimal) (Quantity, error) {
	if factor.IsZero() {
		return Quantity{}, fmt.Errorf("%w: %s / 0", ErrDivisionByZero, q)
	}
	return NewQuantity(q.asset, q.amount.Div(factor)), nil
}

// MultiplyByPrice converts a base quantity into the quote asset of price
func (q Quantity) MultiplyByPrice(price Price) (Quantity, error) {
	if !q.asset.Equal(price.pair.Base) {
		return Quantity{}, fmt.Errorf("%w: cannot multiply %s by %s price",
			ErrDimensionMismatch, q.asset, price.pair)
	}
	return NewQuantity(price.pair.Quote, q.amount.Mul(price.value)), nil
}

// DivideByPrice converts a quote quantity into the base asset of price.
// The conversion goes through the inverse price, which is quantized to the
// base asset lot size first, so precision is lost on coarse inverses.
func (q Quantity) DivideByPrice(price Price) (Quantity, error) {
	if !q.asset.Equal(price.pair.Quote) {
		return Quantity{}, fmt.Errorf("%w: cannot divide %s by %s price",
			ErrDimensionMismatch, q.asset, price.pair)
	}

	inverse, err := price.Inverse()
	if err != nil {
		return Quantity{}, err
	}

	return q.MultiplyByPrice(inverse)
}

// Equal reports whether both quantities have the same asset and amount
func (q Quantity) Equal(other Quantity) bool {
	return q.asset.Equal(other.asset) && q.amount.Equal(other.amount)
}

// String renders the amount with the asset places, e.g. "66.66 USD"
func (q Quantity) String() string {
	return fmt.Sprintf("%s %s", q.amount.StringFixed(q.asset.Places()), q.asset.Symbol)
}

func mismatch(op string, a, b Asset) error {
	return fmt.Errorf("%w: cannot %s %s and %s", ErrDimensionMismatch, op, a, b)
}
