package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/logger"
	"github.com/raykavin/backsim/pkg/logger/zerolog"
	"github.com/raykavin/backsim/pkg/strategy"
	"github.com/schollz/progressbar/v3"
)

// Config describes one backtest run
type Config struct {
	Pair     core.Pair
	Start    time.Time
	End      time.Time
	Period   core.Period
	Strategy strategy.Strategy
	Broker   core.Broker
}

// Validate checks that the run can start
func (c Config) Validate() error {
	switch {
	case c.Pair.Base.Symbol == "" || c.Pair.Quote.Symbol == "":
		return errors.New("backtest pair is required")
	case c.Start.IsZero() || c.End.IsZero():
		return core.ErrMissingTimestamp
	case c.End.Before(c.Start):
		return fmt.Errorf("backtest end %s is before start %s", c.End.Format(time.RFC3339), c.Start.Format(time.RFC3339))
	case c.Period.IsZero():
		return fmt.Errorf("%w: backtest period is required", core.ErrInvalidPeriod)
	case c.Strategy == nil:
		return errors.New("backtest strategy is required")
	case c.Broker == nil:
		return errors.New("backtest broker is required")
	}
	return nil
}

// Tester replays a strategy over a time range, one step per period
type Tester struct {
	config   Config
	log      logger.Logger
	storage  core.ResultStorage
	runID    string
	progress bool
	notifier core.Notifier
	results  []core.Result
}

// Option configures a Tester
type Option func(*Tester)

// WithLogger sets the tester logger
func WithLogger(log logger.Logger) Option {
	return func(t *Tester) {
		t.log = log
	}
}

// WithResultStorage saves every step result under runID
func WithResultStorage(storage core.ResultStorage, runID string) Option {
	return func(t *Tester) {
		t.storage = storage
		t.runID = runID
	}
}

// WithProgressBar shows a progress bar on stdout while running
func WithProgressBar(enabled bool) Option {
	return func(t *Tester) {
		t.progress = enabled
	}
}

// WithNotifier reports filled orders, failures and the final value
func WithNotifier(notifier core.Notifier) Option {
	return func(t *Tester) {
		t.notifier = notifier
	}
}

// New validates config and creates a tester
func New(config Config, options ...Option) (*Tester, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tester := &Tester{
		config: config,
		log:    zerolog.Nop(),
	}

	for _, option := range options {
		option(tester)
	}

	return tester, nil
}

// Steps returns the execution times: period boundaries from start rounded up
// to end rounded down, both inclusive
func (t *Tester) Steps() []time.Time {
	return t.config.Period.Range(t.config.Start, t.config.End)
}

// Results returns the results recorded by the last run
func (t *Tester) Results() []core.Result {
	return t.results
}

// Run executes every step in order. On the first failure it stops and
// returns the results recorded so far along with the error.
func (t *Tester) Run(ctx context.Context) ([]core.Result, error) {
	steps := t.Steps()
	t.results = make([]core.Result, 0, len(steps))

	t.log.WithFields(map[string]any{
		"pair":     t.config.Pair.String(),
		"strategy": t.config.Strategy.Name(),
		"period":   t.config.Period.String(),
		"steps":    len(steps),
	}).Info("[SETUP] Starting backtesting")

	bar := progressbar.DefaultSilent(int64(len(steps)))
	if t.progress {
		bar = progressbar.Default(int64(len(steps)), t.config.Strategy.Name())
	}
	defer bar.Close()

	for _, at := range steps {
		if err := ctx.Err(); err != nil {
			return t.results, err
		}

		result, err := t.step(ctx, at)
		if err != nil {
			err = fmt.Errorf("step %s: %w", at.Format(time.RFC3339), err)
			t.log.WithError(err).Error("backtest stopped")
			if t.notifier != nil {
				t.notifier.OnError(err)
			}
			return t.results, err
		}

		t.results = append(t.results, result)

		if t.storage != nil {
			if err := t.storage.SaveResult(t.runID, result); err != nil {
				return t.results, fmt.Errorf("save result %s: %w", at.Format(time.RFC3339), err)
			}
		}

		if err := bar.Add(1); err != nil {
			t.log.Warnf("update progressbar fail: %v", err)
		}
	}

	if len(t.results) > 0 {
		last := t.results[len(t.results)-1]
		t.log.WithField("value", last.Snapshot.Value).Info("Backtesting finished")

		if t.notifier != nil {
			t.notifier.Notify(fmt.Sprintf("Backtest %s %s finished\nSteps: %d\nValue: %s",
				t.config.Strategy.Name(), t.config.Pair, len(t.results), last.Snapshot.Value))
		}
	}

	return t.results, nil
}

// step decides, submits and snapshots one execution time
func (t *Tester) step(ctx context.Context, at time.Time) (core.Result, error) {
	intent, err := t.config.Strategy.Decide(ctx, t.config.Pair, at)
	if err != nil {
		return core.Result{}, fmt.Errorf("%s decide: %w", t.config.Strategy.Name(), err)
	}

	order, err := t.config.Broker.SubmitOrder(at, core.NewOrder(intent))
	if err != nil {
		return core.Result{}, err
	}

	if !order.IsNoop() {
		t.log.Debugf("%s %s", at.Format(time.RFC3339), order)
		if t.notifier != nil {
			t.notifier.OnOrder(*order)
		}
	}

	snapshot, err := t.config.Broker.Balance(at)
	if err != nil {
		return core.Result{}, err
	}

	return core.Result{Time: at, Snapshot: snapshot, Intent: intent}, nil
}
