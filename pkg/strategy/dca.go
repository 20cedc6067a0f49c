package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/shopspring/decimal"
)

// DCAConfig holds the parameters of the dollar-cost-averaging strategy
type DCAConfig struct {
	Amount float64 `param:"amount"` // quote amount bought on every purchase
	Every  string  `param:"every"`  // purchase period, empty buys on every step
}

// DefaultDCAConfig buys 50 units of the quote asset on every step
func DefaultDCAConfig() DCAConfig {
	return DCAConfig{Amount: 50}
}

// DCA buys a fixed quote amount at market at a regular interval
type DCA struct {
	amount decimal.Decimal
	every  core.Period
}

// NewDCA creates the strategy from a validated config
func NewDCA(config DCAConfig) (*DCA, error) {
	if config.Amount <= 0 {
		return nil, fmt.Errorf("%w: dca amount must be positive, got %v", core.ErrInvalidQuantity, config.Amount)
	}

	dca := &DCA{amount: decimal.NewFromFloat(config.Amount)}
	if config.Every != "" {
		every, err := core.ParsePeriod(config.Every)
		if err != nil {
			return nil, err
		}
		dca.every = every
	}

	return dca, nil
}

func newDCAFromParams(params Params, _ Env) (Strategy, error) {
	config := DefaultDCAConfig()
	if err := decode(params, &config); err != nil {
		return nil, err
	}
	return NewDCA(config)
}

func (d *DCA) Name() string { return "dca" }

// Decide buys on every step, or only on the boundaries of the configured period
func (d *DCA) Decide(_ context.Context, pair core.Pair, at time.Time) (core.Intent, error) {
	if !d.every.IsZero() && !d.every.IsBoundary(at) {
		return core.NewHoldIntent(pair, at), nil
	}

	return core.NewIntent(core.IntentConfig{
		Pair:         pair,
		Direction:    core.DirectionBuy,
		Kind:         core.OrderKindMarket,
		Quantity:     d.amount,
		Unit:         core.UnitQuote,
		QuantityKind: core.QuantityAbsolute,
		Time:         at,
	})
}
