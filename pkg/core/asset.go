package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Asset is a tradable token. Two assets are the same asset when their symbols match.
type Asset struct {
	Symbol  string
	Name    string
	LotSize decimal.Decimal
}

// NewAsset builds an asset with an upper-cased symbol. Trailing zeros of the
// lot size are dropped, so "0.00100000" and "0.001" give the same places.
func NewAsset(symbol, name string, lotSize decimal.Decimal) Asset {
	return Asset{
		Symbol:  strings.ToUpper(symbol),
		Name:    name,
		LotSize: decimal.RequireFromString(lotSize.String()),
	}
}

// Places returns the number of decimal places implied by the lot size
func (a Asset) Places() int32 {
	if exp := a.LotSize.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}

// Quantize rounds a value to the asset lot size, half away from zero
func (a Asset) Quantize(value decimal.Decimal) decimal.Decimal {
	return value.Round(a.Places())
}

// Equal compares assets by symbol
func (a Asset) Equal(other Asset) bool { return a.Symbol == other.Symbol }

func (a Asset) String() string { return a.Symbol }

// Pair is an ordered base/quote couple, e.g. BTC/USD
type Pair struct {
	Base  Asset
	Quote Asset
}

// NewPair creates a pair from its two assets
func NewPair(base, quote Asset) Pair {
	return Pair{Base: base, Quote: quote}
}

// Inverse swaps base and quote
func (p Pair) Inverse() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

// Symbol returns the exchange-style symbol, e.g. BTCUSD
func (p Pair) Symbol() string { return p.Base.Symbol + p.Quote.Symbol }

// Equal compares both legs of the pair by symbol
func (p Pair) Equal(other Pair) bool {
	return p.Base.Equal(other.Base) && p.Quote.Equal(other.Quote)
}

func (p Pair) String() string { return fmt.Sprintf("%s/%s", p.Base.Symbol, p.Quote.Symbol) }
