package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// IntentConfig holds the fields a strategy fills to build an Intent
type IntentConfig struct {
	Pair         Pair
	Direction    Direction
	Kind         OrderKind
	Quantity     decimal.Decimal
	Unit         QuantityUnit
	QuantityKind QuantityKind
	LimitPrice   *decimal.Decimal
	Time         time.Time
}

// Intent is what a strategy decided to do at a given time.
// It is a value; once built it is never modified.
type Intent struct {
	Pair         Pair
	Direction    Direction
	Kind         OrderKind
	Quantity     decimal.Decimal
	Unit         QuantityUnit
	QuantityKind QuantityKind
	LimitPrice   *Price
	Time         time.Time
}

// NewIntent validates cfg and builds the intent
func NewIntent(cfg IntentConfig) (Intent, error) {
	if cfg.Time.IsZero() {
		return Intent{}, ErrMissingTimestamp
	}

	if cfg.Pair.Base.Symbol == "" || cfg.Pair.Quote.Symbol == "" {
		return Intent{}, fmt.Errorf("%w: pair is required", ErrInvalidIntent)
	}

	if cfg.Direction == DirectionHold {
		return NewHoldIntent(cfg.Pair, cfg.Time), nil
	}

	if !cfg.Direction.Valid() {
		return Intent{}, fmt.Errorf("%w: direction %q", ErrInvalidIntent, cfg.Direction)
	}

	if !cfg.Kind.Valid() {
		return Intent{}, fmt.Errorf("%w: order kind %q", ErrInvalidIntent, cfg.Kind)
	}

	if !cfg.Unit.Valid() {
		return Intent{}, fmt.Errorf("%w: quantity unit %q", ErrInvalidIntent, cfg.Unit)
	}

	if !cfg.QuantityKind.Accepts(cfg.Quantity) {
		return Intent{}, fmt.Errorf("%w: %s %s", ErrInvalidQuantity, cfg.Quantity, cfg.QuantityKind)
	}

	intent := Intent{
		Pair:         cfg.Pair,
		Direction:    cfg.Direction,
		Kind:         cfg.Kind,
		Quantity:     cfg.Quantity,
		Unit:         cfg.Unit,
		QuantityKind: cfg.QuantityKind,
		Time:         cfg.Time.UTC(),
	}

	if cfg.Kind == OrderKindLimit {
		if cfg.LimitPrice == nil || !cfg.LimitPrice.IsPositive() {
			return Intent{}, fmt.Errorf("%w: limit order needs a positive limit price", ErrInvalidIntent)
		}
	}

	if cfg.LimitPrice != nil {
		price := NewPrice(cfg.Pair, *cfg.LimitPrice)
		intent.LimitPrice = &price
	}

	return intent, nil
}

// NewHoldIntent builds an intent that does nothing
func NewHoldIntent(pair Pair, at time.Time) Intent {
	return Intent{
		Pair:      pair,
		Direction: DirectionHold,
		Time:      at.UTC(),
	}
}

// IsHold reports whether the intent carries no trade
func (i Intent) IsHold() bool { return i.Direction == DirectionHold }

func (i Intent) String() string {
	if i.IsHold() {
		return fmt.Sprintf("HOLD %s", i.Pair)
	}
	return fmt.Sprintf("%s %s %s %s %s %s", i.Direction, i.Kind, i.Pair, i.Quantity, i.Unit, i.QuantityKind)
}
