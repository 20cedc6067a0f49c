package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is an immutable copy of the ledger at a point in time, valued
// in a reference asset
type Snapshot struct {
	Time      time.Time
	Balances  []Quantity
	Reference Asset
	Value     Quantity
}

// Of returns the balance of asset, zero when it is not held
func (s Snapshot) Of(asset Asset) Quantity {
	for _, balance := range s.Balances {
		if balance.Asset().Equal(asset) {
			return balance
		}
	}
	return ZeroQuantity(asset)
}

// Result is what the backtest records for every step
type Result struct {
	Time     time.Time
	Snapshot Snapshot
	Intent   Intent
}

// Value returns the portfolio value of the result as a decimal
func (r Result) Value() decimal.Decimal { return r.Snapshot.Value.Amount() }

// ResultStorage persists the results of a backtest run
type ResultStorage interface {
	// SaveResult appends one step result to a run
	SaveResult(runID string, result Result) error

	// Results lists the results of a run ordered by time
	Results(runID string) ([]Result, error)
}
