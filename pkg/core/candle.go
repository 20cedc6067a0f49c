package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var four = decimal.NewFromInt(4)

// Candle represents a trading candle with OHLCV data
type Candle struct {
	Pair     string
	Time     time.Time
	Open     decimal.Decimal
	Close    decimal.Decimal
	Low      decimal.Decimal
	High     decimal.Decimal
	Volume   decimal.Decimal
	Complete bool
}

// Mean returns the average of open, high, low and close
func (c Candle) Mean() decimal.Decimal {
	return c.Open.Add(c.High).Add(c.Low).Add(c.Close).Div(four)
}

// MeanPrice returns the candle mean as a price of pair
func (c Candle) MeanPrice(pair Pair) Price {
	return NewPrice(pair, c.Mean())
}

// IsEmpty checks if the candle contains no significant data
func (c Candle) IsEmpty() bool {
	return c.Pair == "" && c.Close.IsZero() && c.Open.IsZero() && c.Volume.IsZero()
}

// ToSlice converts a candle to a CSV row (time,open,close,low,high,volume)
// with the given number of decimal places
func (c Candle) ToSlice(places int32) []string {
	return []string{
		fmt.Sprintf("%d", c.Time.Unix()),
		c.Open.StringFixed(places),
		c.Close.StringFixed(places),
		c.Low.StringFixed(places),
		c.High.StringFixed(places),
		c.Volume.StringFixed(places),
	}
}
