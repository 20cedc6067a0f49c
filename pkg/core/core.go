package core

import (
	"context"
	"time"
)

// Feeder serves historical candles
type Feeder interface {
	// Candle returns the candle of pair covering at, truncated to the feed granularity
	Candle(pair Pair, at time.Time) (Candle, error)
	// Candles returns the candles of pair between from and to, both inclusive
	Candles(ctx context.Context, pair Pair, from, to time.Time) ([]Candle, error)
	// Granularity is the period of the served candles
	Granularity() Period
}

// AssetResolver resolves token metadata by symbol
type AssetResolver interface {
	Resolve(symbol string) (Asset, error)
	Pair(base, quote string) (Pair, error)
}

// Broker is the read and order surface strategies and the backtest see
type Broker interface {
	SubmitOrder(at time.Time, order *Order) (*Order, error)
	Balance(at time.Time) (Snapshot, error)
	BalanceOf(at time.Time, asset Asset) (Quantity, error)
	InstantPrice(pair Pair, at time.Time) (Price, error)
}

// Notifier reports the progress of a run to the outside world
type Notifier interface {
	Notify(string)
	OnOrder(order Order)
	OnError(err error)
}
