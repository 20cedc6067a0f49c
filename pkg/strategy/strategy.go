package strategy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/raykavin/backsim/pkg/core"
	"github.com/samber/lo"
)

// Strategy decides what to do for a pair at a point in time
type Strategy interface {
	// Name identifies the strategy in logs and reports
	Name() string
	// Decide returns the intent for pair at at. It must not use candles
	// that start after at.
	Decide(ctx context.Context, pair core.Pair, at time.Time) (core.Intent, error)
}

// Params are the raw strategy parameters read from configuration
type Params map[string]any

// Env holds what a strategy may read while deciding
type Env struct {
	Feeder core.Feeder
	Broker core.Broker
}

// Factory builds a strategy from its parameters
type Factory func(params Params, env Env) (Strategy, error)

var factories = map[string]Factory{
	"hold":      newHoldFromParams,
	"dca":       newDCAFromParams,
	"ma_cross":  newMACrossFromParams,
	"ema_cross": newMACrossFromParams,
}

// Register adds a named strategy factory
func Register(name string, factory Factory) {
	factories[strings.ToLower(name)] = factory
}

// Names lists the registered strategy names
func Names() []string {
	names := lo.Keys(factories)
	sort.Strings(names)
	return names
}

// New builds the strategy registered under name
func New(name string, params Params, env Env) (Strategy, error) {
	factory, ok := factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q, available: %s", name, strings.Join(Names(), ", "))
	}
	return factory(params, env)
}

// decode fills a config struct from params, accepting numbers given as strings
func decode(params Params, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "param",
		Result:           target,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(map[string]any(params)); err != nil {
		return fmt.Errorf("invalid strategy params: %w", err)
	}
	return nil
}
