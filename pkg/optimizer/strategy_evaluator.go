package optimizer

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/raykavin/backsim/pkg/backtest"
	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/exchange"
	"github.com/raykavin/backsim/pkg/logger"
	"github.com/raykavin/backsim/pkg/logger/zerolog"
	"github.com/raykavin/backsim/pkg/metric"
	"github.com/raykavin/backsim/pkg/strategy"
	"github.com/shopspring/decimal"
)

// BacktestConfig is the fixed part of every evaluated backtest
type BacktestConfig struct {
	Strategy      string
	Params        strategy.Params // fixed parameters, overridden by the searched ones
	Pair          core.Pair
	Start         time.Time
	End           time.Time
	Period        core.Period
	Feeder        core.Feeder
	Initial       []core.Quantity
	Reference     core.Asset
	Fee           decimal.Decimal
	AllowNegative bool
}

// BacktestStrategyEvaluator scores a parameter set by running a full backtest
// on a fresh ledger and wallet
type BacktestStrategyEvaluator struct {
	config BacktestConfig
	log    logger.Logger
}

// NewBacktestStrategyEvaluator creates a new evaluator for backtesting strategies
func NewBacktestStrategyEvaluator(config BacktestConfig, log logger.Logger) (*BacktestStrategyEvaluator, error) {
	if !slices.Contains(strategy.Names(), strings.ToLower(config.Strategy)) {
		return nil, fmt.Errorf("unknown strategy %q", config.Strategy)
	}
	if config.Feeder == nil {
		return nil, errors.New("evaluator needs a candle feeder")
	}
	if log == nil {
		log = zerolog.Nop()
	}

	return &BacktestStrategyEvaluator{config: config, log: log}, nil
}

// Evaluate runs a backtest with the given parameters and returns performance metrics
func (e *BacktestStrategyEvaluator) Evaluate(ctx context.Context, params ParameterSet) (*Result, error) {
	startTime := time.Now()

	ledger, err := exchange.NewLedger(e.config.Initial, exchange.WithNegativeBalance(e.config.AllowNegative))
	if err != nil {
		return nil, err
	}

	wallet := exchange.NewPaperWallet(ledger, e.config.Feeder, e.config.Reference,
		exchange.WithPaperFee(e.config.Fee))

	merged := maps.Clone(e.config.Params)
	if merged == nil {
		merged = make(strategy.Params, len(params))
	}
	maps.Copy(merged, params)

	strat, err := strategy.New(e.config.Strategy, merged, strategy.Env{Feeder: e.config.Feeder, Broker: wallet})
	if err != nil {
		return nil, fmt.Errorf("failed to create strategy: %w", err)
	}

	tester, err := backtest.New(backtest.Config{
		Pair:     e.config.Pair,
		Start:    e.config.Start,
		End:      e.config.End,
		Period:   e.config.Period,
		Strategy: strat,
		Broker:   wallet,
	}, backtest.WithLogger(e.log))
	if err != nil {
		return nil, err
	}

	results, err := tester.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("backtest failed: %w", err)
	}

	var orders []core.Order
	if len(results) > 0 {
		if orders, err = wallet.Orders(results[len(results)-1].Time); err != nil {
			return nil, err
		}
	}

	report, err := metric.NewReport(strat.Name(), e.config.Pair, results, orders)
	if err != nil {
		return nil, fmt.Errorf("failed to collect metrics: %w", err)
	}

	return &Result{
		Parameters: params,
		Metrics:    collectMetrics(report),
		Duration:   time.Since(startTime),
	}, nil
}

// collectMetrics extracts the optimizable metrics of a report
func collectMetrics(report metric.Report) map[string]float64 {
	profit := report.FinalValue.Amount().Sub(report.InitialValue.Amount())

	return map[string]float64{
		string(MetricProfit):       profit.InexactFloat64(),
		string(MetricReturn):       report.Return.Mul(decimal.NewFromInt(100)).InexactFloat64(),
		string(MetricFinalValue):   report.FinalValue.Amount().InexactFloat64(),
		string(MetricDrawdown):     report.Drawdown.Ratio.Mul(decimal.NewFromInt(100)).InexactFloat64(),
		string(MetricSharpeRatio):  report.Sharpe,
		string(MetricVolatility):   report.Volatility,
		string(MetricPayoff):       metric.Payoff(report.Returns),
		string(MetricProfitFactor): metric.ProfitFactor(report.Returns),
		string(MetricTradeCount):   float64(report.Trades),
	}
}

// MACrossParameters returns the search space of the moving average cross strategy
func MACrossParameters() []Parameter {
	return []Parameter{
		{
			Name:        "fast",
			Description: "Length of the fast moving average",
			Default:     9,
			Min:         5,
			Max:         15,
			Step:        2,
			Type:        TypeInt,
		},
		{
			Name:        "slow",
			Description: "Length of the slow moving average",
			Default:     21,
			Min:         20,
			Max:         40,
			Step:        5,
			Type:        TypeInt,
		},
		{
			Name:        "type",
			Description: "Moving average type",
			Default:     "ema",
			Options:     []any{"sma", "ema"},
			Type:        TypeCategorical,
		},
	}
}

// DCAParameters returns the search space of the dollar cost averaging strategy
func DCAParameters() []Parameter {
	return []Parameter{
		{
			Name:        "amount",
			Description: "Quote amount bought on every purchase",
			Default:     50.0,
			Min:         25.0,
			Max:         100.0,
			Step:        25.0,
			Type:        TypeFloat,
		},
		{
			Name:        "every",
			Description: "Purchase period",
			Default:     "",
			Options:     []any{"", "1d", "1w"},
			Type:        TypeCategorical,
		},
	}
}

// StrategyParameters returns the default search space of a registered strategy
func StrategyParameters(name string) ([]Parameter, error) {
	switch strings.ToLower(name) {
	case "ma_cross", "ema_cross":
		return MACrossParameters(), nil
	case "dca":
		return DCAParameters(), nil
	default:
		return nil, fmt.Errorf("strategy %q has no parameters to optimize", name)
	}
}
