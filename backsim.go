package backsim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/backsim/internal/config"
	"github.com/raykavin/backsim/pkg/backtest"
	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/exchange"
	"github.com/raykavin/backsim/pkg/logger"
	"github.com/raykavin/backsim/pkg/logger/zerolog"
	"github.com/raykavin/backsim/pkg/metric"
	"github.com/raykavin/backsim/pkg/notification"
	"github.com/raykavin/backsim/pkg/optimizer"
	"github.com/raykavin/backsim/pkg/storage"
	"github.com/raykavin/backsim/pkg/strategy"
	"github.com/samber/lo"
)

// Storage keeps the orders and step results of a run
type Storage interface {
	core.OrderStorage
	core.ResultStorage
	RunID() string
	Close() error
}

// Simulator wires a configured backtest: assets, candle feed, ledger, paper
// wallet, strategy, storage and notifiers
type Simulator struct {
	config    *config.Config
	log       logger.Logger
	assets    *exchange.AssetRegistry
	feeder    core.Feeder
	storage   Storage
	notifiers []core.Notifier
	telegram  *notification.Telegram
	progress  bool

	pair      core.Pair
	reference core.Asset
	initial   []core.Quantity
	period    core.Period
	start     time.Time
	end       time.Time

	wallet   *exchange.PaperWallet
	strategy strategy.Strategy
	tester   *backtest.Tester
}

// New builds a simulator from a loaded configuration
func New(cfg *config.Config, options ...Option) (*Simulator, error) {
	s, err := prepare(cfg, options)
	if err != nil {
		return nil, err
	}

	if err := initializeStorage(s); err != nil {
		return nil, err
	}

	if err := initializeNotifications(s); err != nil {
		return nil, err
	}

	ledger, err := exchange.NewLedger(s.initial,
		exchange.WithNegativeBalance(cfg.AllowNegativeBalance),
		exchange.WithLedgerTime(s.start),
	)
	if err != nil {
		return nil, err
	}

	s.wallet = exchange.NewPaperWallet(ledger, s.feeder, s.reference,
		exchange.WithPaperFee(cfg.Fee()),
		exchange.WithOrderStorage(s.storage),
		exchange.WithPaperLogger(s.log),
	)

	s.strategy, err = strategy.New(cfg.Strategy.Name, cfg.Strategy.Params, strategy.Env{
		Feeder: s.feeder,
		Broker: s.wallet,
	})
	if err != nil {
		return nil, err
	}

	testerOptions := []backtest.Option{
		backtest.WithLogger(s.log),
		backtest.WithResultStorage(s.storage, s.storage.RunID()),
		backtest.WithProgressBar(s.progress),
	}
	if len(s.notifiers) > 0 {
		testerOptions = append(testerOptions, backtest.WithNotifier(notification.Multi(s.notifiers)))
	}

	s.tester, err = backtest.New(backtest.Config{
		Pair:     s.pair,
		Start:    s.start,
		End:      s.end,
		Period:   s.period,
		Strategy: s.strategy,
		Broker:   s.wallet,
	}, testerOptions...)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// NewEvaluator builds an optimizer evaluator that replays the configured run
// on a fresh ledger for every parameter set. Storage and notifiers are not used.
func NewEvaluator(cfg *config.Config, options ...Option) (*optimizer.BacktestStrategyEvaluator, error) {
	s, err := prepare(cfg, options)
	if err != nil {
		return nil, err
	}

	return optimizer.NewBacktestStrategyEvaluator(optimizer.BacktestConfig{
		Strategy:      cfg.Strategy.Name,
		Params:        cfg.Strategy.Params,
		Pair:          s.pair,
		Start:         s.start,
		End:           s.end,
		Period:        s.period,
		Feeder:        s.feeder,
		Initial:       s.initial,
		Reference:     s.reference,
		Fee:           cfg.Fee(),
		AllowNegative: cfg.AllowNegativeBalance,
	}, s.log)
}

// prepare validates cfg and resolves what every run needs: logger, assets,
// pair, time range and candle feed
func prepare(cfg *config.Config, options []Option) (*Simulator, error) {
	s := &Simulator{config: cfg}

	for _, option := range options {
		option(s)
	}

	if err := cfg.Validate(); err != nil && !(errors.Is(err, config.ErrMissingFeeds) && s.feeder != nil) {
		return nil, err
	}

	if err := initializeLogger(s); err != nil {
		return nil, err
	}

	if err := initializeAssets(s); err != nil {
		return nil, err
	}

	var err error
	if s.period, err = cfg.Interval(); err != nil {
		return nil, err
	}

	if s.start, s.end, err = cfg.Range(); err != nil {
		return nil, err
	}

	if s.pair, err = s.assets.Pair(cfg.Pair.Base, cfg.Pair.Quote); err != nil {
		return nil, err
	}

	if s.reference, err = s.assets.Resolve(cfg.ReferenceAsset); err != nil {
		return nil, err
	}

	if s.initial, err = cfg.Initial(s.assets); err != nil {
		return nil, err
	}

	if err := initializeFeeder(s); err != nil {
		return nil, err
	}

	return s, nil
}

// initializeLogger builds the run logger from the log section unless one was given
func initializeLogger(s *Simulator) error {
	if s.log != nil {
		return nil
	}

	if s.config.Log.Level == "" {
		s.log = DefaultLog
		return nil
	}

	log, err := zerolog.New(zerolog.Config{
		Level:          s.config.Log.Level,
		DateTimeLayout: s.config.Log.TimeFormat,
		Colored:        s.config.Log.Colored,
		JSON:           s.config.Log.JSON,
	})
	if err != nil {
		return err
	}
	s.log = log
	return nil
}

// initializeAssets loads the embedded asset list and the user overrides
func initializeAssets(s *Simulator) error {
	if s.assets == nil {
		assets, err := exchange.DefaultAssetRegistry()
		if err != nil {
			return err
		}
		s.assets = assets
	}

	if s.config.AssetsFile != "" {
		return s.assets.LoadFile(s.config.AssetsFile)
	}
	return nil
}

// initializeFeeder reads the configured CSV feeds unless a feeder was given
func initializeFeeder(s *Simulator) error {
	if s.feeder != nil {
		return nil
	}

	feeds := lo.Map(s.config.Feeds, func(feed config.FeedConfig, _ int) exchange.PairFeed {
		return exchange.PairFeed{Pair: feed.Pair, File: feed.File, Timeframe: feed.Timeframe}
	})

	feed, err := exchange.NewCSVFeed(s.period, feeds...)
	if err != nil {
		return err
	}
	s.feeder = feed
	return nil
}

// initializeStorage opens the configured order and result storage
func initializeStorage(s *Simulator) error {
	if s.storage != nil {
		return nil
	}

	runID := storage.WithRunID(storage.NewRunID())

	var err error
	switch s.config.Storage.Driver {
	case "", "memory":
		s.storage, err = storage.FromMemory(s.assets, runID)
	case "buntdb":
		s.storage, err = storage.FromFile(s.config.Storage.Path, s.assets, runID)
	case "sqlite":
		s.storage, err = storage.FromSQLite(s.config.Storage.Path, s.assets, runID)
	default:
		err = fmt.Errorf("unknown storage driver %q", s.config.Storage.Driver)
	}
	return err
}

// Pair returns the simulated pair
func (s *Simulator) Pair() core.Pair { return s.pair }

// Wallet returns the paper wallet orders are filled by
func (s *Simulator) Wallet() *exchange.PaperWallet { return s.wallet }

// Storage returns the order and result storage of the run
func (s *Simulator) Storage() Storage { return s.storage }

// RunID identifies the run in the storage
func (s *Simulator) RunID() string { return s.storage.RunID() }

// Run replays the strategy and summarizes it. When the backtest stops early
// the report covers the steps completed before the failure.
func (s *Simulator) Run(ctx context.Context) (metric.Report, error) {
	results, runErr := s.tester.Run(ctx)

	var orders []core.Order
	if len(results) > 0 {
		var err error
		if orders, err = s.wallet.Orders(results[len(results)-1].Time); err != nil {
			return metric.Report{}, errors.Join(runErr, err)
		}
	}

	report, err := metric.NewReport(s.strategy.Name(), s.pair, results, orders)
	if err != nil {
		return report, errors.Join(runErr, err)
	}

	s.log.WithFields(map[string]any{
		"run":    s.RunID(),
		"steps":  report.Steps,
		"trades": report.Trades,
		"return": report.Return.String(),
	}).Info("Run summary")

	if s.telegram != nil && runErr == nil {
		s.telegram.Summary(fmt.Sprintf("%s %s", s.strategy.Name(), s.pair), report.String())
	}

	return report, runErr
}

// Close releases the storage
func (s *Simulator) Close() error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Close()
}
