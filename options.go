package backsim

import (
	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/exchange"
	"github.com/raykavin/backsim/pkg/logger"
)

// Option is a functional option for configuring a Simulator
type Option func(*Simulator)

// WithLogger replaces the logger built from the log section of the config
func WithLogger(log logger.Logger) Option {
	return func(s *Simulator) {
		s.log = log
	}
}

// WithStorage sets the order and result storage, overriding the storage section of the config
func WithStorage(storage Storage) Option {
	return func(s *Simulator) {
		s.storage = storage
	}
}

// WithNotifier registers an extra notifier, next to the configured Telegram and mail ones
func WithNotifier(notifier core.Notifier) Option {
	return func(s *Simulator) {
		s.notifiers = append(s.notifiers, notifier)
	}
}

// WithFeeder replaces the CSV feeds of the config
func WithFeeder(feeder core.Feeder) Option {
	return func(s *Simulator) {
		s.feeder = feeder
	}
}

// WithAssets replaces the default asset registry
func WithAssets(assets *exchange.AssetRegistry) Option {
	return func(s *Simulator) {
		s.assets = assets
	}
}

// WithProgressBar shows the backtest progress on stdout
func WithProgressBar(enabled bool) Option {
	return func(s *Simulator) {
		s.progress = enabled
	}
}
