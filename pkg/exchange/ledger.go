package exchange

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/samber/lo"
)

// Ledger holds one balance per asset and the time of its last change
type Ledger struct {
	mu            sync.RWMutex
	balances      map[string]core.Quantity
	updatedAt     time.Time
	allowNegative bool
}

// LedgerOption configures a Ledger
type LedgerOption func(*Ledger)

// WithNegativeBalance allows balances to go below zero
func WithNegativeBalance(allow bool) LedgerOption {
	return func(l *Ledger) {
		l.allowNegative = allow
	}
}

// WithLedgerTime sets the initial last-update time
func WithLedgerTime(at time.Time) LedgerOption {
	return func(l *Ledger) {
		l.updatedAt = at.UTC()
	}
}

// NewLedger creates a ledger from an initial allocation
func NewLedger(initial []core.Quantity, options ...LedgerOption) (*Ledger, error) {
	ledger := &Ledger{
		balances: make(map[string]core.Quantity, len(initial)),
	}

	for _, option := range options {
		option(ledger)
	}

	for _, quantity := range initial {
		if _, exists := ledger.balances[quantity.Asset().Symbol]; exists {
			return nil, fmt.Errorf("duplicated asset %s in initial balance", quantity.Asset())
		}
		if quantity.IsNegative() && !ledger.allowNegative {
			return nil, fmt.Errorf("%w: initial %s", core.ErrInsufficientBalance, quantity)
		}
		ledger.balances[quantity.Asset().Symbol] = quantity
	}

	return ledger, nil
}

// UpdatedAt returns the time of the last applied delta
func (l *Ledger) UpdatedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.updatedAt
}

// AllowNegative reports the negative-balance policy
func (l *Ledger) AllowNegative() bool { return l.allowNegative }

// Balance returns the amount held of asset, zero when not held
func (l *Ledger) Balance(asset core.Asset) core.Quantity {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if balance, ok := l.balances[asset.Symbol]; ok {
		return balance
	}
	return core.ZeroQuantity(asset)
}

// Balances returns every balance sorted by symbol
func (l *Ledger) Balances() []core.Quantity {
	l.mu.RLock()
	defer l.mu.RUnlock()

	balances := lo.Values(l.balances)
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Asset().Symbol < balances[j].Asset().Symbol
	})
	return balances
}

// ApplyDelta adds a signed quantity to its asset balance. When the result would
// be negative and negative balances are not allowed, the ledger is left untouched.
func (l *Ledger) ApplyDelta(delta core.Quantity, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.balances[delta.Asset().Symbol]
	if !ok {
		current = core.ZeroQuantity(delta.Asset())
	}

	next, err := current.Add(delta)
	if err != nil {
		return err
	}

	if next.IsNegative() && !l.allowNegative {
		return fmt.Errorf("%w: %s available, %s requested", core.ErrInsufficientBalance, current, delta.Neg())
	}

	l.balances[delta.Asset().Symbol] = next
	if !at.Before(l.updatedAt) {
		l.updatedAt = at.UTC()
	}

	return nil
}

// TotalValue sums every balance converted to the reference asset at the given time.
// Zero balances are skipped so uncovered pairs only matter when something is held.
func (l *Ledger) TotalValue(reference core.Asset, prices PriceReader, at time.Time) (core.Quantity, error) {
	total := core.ZeroQuantity(reference)

	for _, balance := range l.Balances() {
		if balance.IsZero() {
			continue
		}

		value := balance
		if !balance.Asset().Equal(reference) {
			price, err := prices.InstantPrice(core.NewPair(balance.Asset(), reference), at)
			if err != nil {
				return core.Quantity{}, err
			}

			if value, err = balance.MultiplyByPrice(price); err != nil {
				return core.Quantity{}, err
			}
		}

		var err error
		if total, err = total.Add(value); err != nil {
			return core.Quantity{}, err
		}
	}

	return total, nil
}

// Snapshot copies the ledger and values it in the reference asset
func (l *Ledger) Snapshot(reference core.Asset, prices PriceReader, at time.Time) (core.Snapshot, error) {
	value, err := l.TotalValue(reference, prices, at)
	if err != nil {
		return core.Snapshot{}, err
	}

	return core.Snapshot{
		Time:      at.UTC(),
		Balances:  l.Balances(),
		Reference: reference,
		Value:     value,
	}, nil
}
