package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/indicator"
	"github.com/shopspring/decimal"
)

// MACrossConfig holds the parameters of the moving average cross strategy
type MACrossConfig struct {
	Fast        int     `param:"fast"`
	Slow        int     `param:"slow"`
	Type        string  `param:"type"`         // sma, ema, wma, dema or tema
	BuyPercent  float64 `param:"buy_percent"`  // share of the quote balance spent on a buy
	SellPercent float64 `param:"sell_percent"` // share of the base balance sold on a sell
}

// DefaultMACrossConfig returns a 9/21 EMA cross trading almost all the balance
func DefaultMACrossConfig() MACrossConfig {
	return MACrossConfig{
		Fast:        9,
		Slow:        21,
		Type:        "ema",
		BuyPercent:  99,
		SellPercent: 100,
	}
}

// MACross buys when the fast average crosses over the slow one and sells
// when it crosses under. Only candles closed before the decision time are used.
type MACross struct {
	config MACrossConfig
	maType indicator.MaType
	feeder core.Feeder
	broker core.Broker
}

// NewMACross creates the strategy reading candles from feeder. The broker is
// optional; when set, sells are skipped while no base asset is held.
func NewMACross(config MACrossConfig, feeder core.Feeder, broker core.Broker) (*MACross, error) {
	if feeder == nil {
		return nil, errors.New("ma cross needs a candle feeder")
	}

	if config.Fast < 2 || config.Slow <= config.Fast {
		return nil, fmt.Errorf("invalid ma cross periods fast=%d slow=%d", config.Fast, config.Slow)
	}

	for _, percent := range []float64{config.BuyPercent, config.SellPercent} {
		if percent <= 0 || percent > 100 {
			return nil, fmt.Errorf("%w: percent must be within (0, 100], got %v", core.ErrInvalidQuantity, percent)
		}
	}

	maType, err := indicator.ParseMaType(config.Type)
	if err != nil {
		return nil, err
	}

	return &MACross{
		config: config,
		maType: maType,
		feeder: feeder,
		broker: broker,
	}, nil
}

func newMACrossFromParams(params Params, env Env) (Strategy, error) {
	config := DefaultMACrossConfig()
	if err := decode(params, &config); err != nil {
		return nil, err
	}
	return NewMACross(config, env.Feeder, env.Broker)
}

func (m *MACross) Name() string {
	return fmt.Sprintf("%s_cross_%d_%d", m.config.Type, m.config.Fast, m.config.Slow)
}

// WarmupPeriod is the number of closed candles needed before the first signal
func (m *MACross) WarmupPeriod() int { return m.config.Slow * 3 }

func (m *MACross) Decide(ctx context.Context, pair core.Pair, at time.Time) (core.Intent, error) {
	hold := core.NewHoldIntent(pair, at)

	granularity := m.feeder.Granularity().Duration()
	last := m.feeder.Granularity().Truncate(at).Add(-granularity)
	first := last.Add(-time.Duration(m.WarmupPeriod()-1) * granularity)

	candles, err := m.feeder.Candles(ctx, pair, first, last)
	if err != nil {
		return core.Intent{}, err
	}

	if len(candles) < m.config.Slow+1 {
		return hold, nil
	}

	closes := indicator.Closes(candles)
	fast := core.Series[float64](indicator.MA(closes, m.config.Fast, m.maType))
	slow := core.Series[float64](indicator.MA(closes, m.config.Slow, m.maType))

	switch {
	case fast.Crossover(slow):
		return m.intent(pair, at, core.DirectionBuy, core.UnitQuote, m.config.BuyPercent)
	case fast.Crossunder(slow):
		if m.broker != nil {
			balance, err := m.broker.BalanceOf(at, pair.Base)
			if err != nil {
				return core.Intent{}, err
			}
			if !balance.Amount().IsPositive() {
				return hold, nil
			}
		}
		return m.intent(pair, at, core.DirectionSell, core.UnitBase, m.config.SellPercent)
	default:
		return hold, nil
	}
}

func (m *MACross) intent(pair core.Pair, at time.Time, direction core.Direction, unit core.QuantityUnit, percent float64) (core.Intent, error) {
	return core.NewIntent(core.IntentConfig{
		Pair:         pair,
		Direction:    direction,
		Kind:         core.OrderKindMarket,
		Quantity:     decimal.NewFromFloat(percent),
		Unit:         unit,
		QuantityKind: core.QuantityPercentage,
		Time:         at,
	})
}
