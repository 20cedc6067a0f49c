package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is the value of one unit of a pair's base asset expressed in its quote
// asset. The value is quantized to the quote asset lot size.
type Price struct {
	pair  Pair
	value decimal.Decimal
}

// NewPrice quantizes value to the quote lot size of pair
func NewPrice(pair Pair, value decimal.Decimal) Price {
	return Price{pair: pair, value: pair.Quote.Quantize(value)}
}

func (p Price) Pair() Pair { return p.pair }
func (p Price) Value() decimal.Decimal { return p.value }
func (p Price) IsZero() bool { return p.value.IsZero() }

// Add sums two prices of the same pair
func (p Price) Add(other Price) (Price, error) {
	if !p.pair.Equal(other.pair) {
		return Price{}, fmt.Errorf("%w: cannot add %s and %s prices", ErrDimensionMismatch, p.pair, other.pair)
	}
	return NewPrice(p.pair, p.value.Add(other.value)), nil
}

// Sub subtracts a price of the same pair
func (p Price) Sub(other Price) (Price, error) {
	if !p.pair.Equal(other.pair) {
		return Price{}, fmt.Errorf("%w: cannot sub %s and %s prices", ErrDimensionMismatch, p.pair, other.pair)
	}
	return NewPrice(p.pair, p.value.Sub(other.value)), nil
}

// Mul scales the price by a unitless factor
func (p Price) Mul(factor decimal.Decimal) Price {
	return NewPrice(p.pair, p.value.Mul(factor))
}

// Div divides the price by a unitless factor
func (p Price) Div(factor decimal.Decimal) (Price, error) {
	if factor.IsZero() {
		return Price{}, fmt.Errorf("%w: %s / 0", ErrDivisionByZero, p)
	}
	return NewPrice(p.pair, p.value.Div(factor)), nil
}

// Ratio divides two prices of the same pair, giving a unitless factor
func (p Price) Ratio(other Price) (decimal.Decimal, error) {
	if !p.pair.Equal(other.pair) {
		return decimal.Zero, fmt.Errorf("%w: cannot divide %s by %s price", ErrDimensionMismatch, p.pair, other.pair)
	}
	if other.value.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s / %s", ErrDivisionByZero, p, other)
	}
	return p.value.Div(other.value).Round(p.pair.Quote.Places()), nil
}

// Inverse swaps the pair and inverts the value, quantizing to the new quote
// asset (the former base).
func (p Price) Inverse() (Price, error) {
	if p.value.IsZero() {
		return Price{}, fmt.Errorf("%w: inverse of %s", ErrDivisionByZero, p)
	}
	return NewPrice(p.pair.Inverse(), decimal.NewFromInt(1).Div(p.value)), nil
}

// Cmp compares two prices of the same pair
func (p Price) Cmp(other Price) (int, error) {
	if !p.pair.Equal(other.pair) {
		return 0, fmt.Errorf("%w: cannot compare %s and %s prices", ErrDimensionMismatch, p.pair, other.pair)
	}
	return p.value.Cmp(other.value), nil
}

// Equal reports whether both prices share pair and value
func (p Price) Equal(other Price) bool {
	return p.pair.Equal(other.pair) && p.value.Equal(other.value)
}

// String renders e.g. "1 BTC = 100.00 USD"
func (p Price) String() string {
	return fmt.Sprintf("1 %s = %s %s", p.pair.Base.Symbol, p.value.StringFixed(p.pair.Quote.Places()), p.pair.Quote.Symbol)
}
