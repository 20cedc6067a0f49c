package strategy

import (
	"context"
	"time"

	"github.com/raykavin/backsim/pkg/core"
)

// Hold never trades
type Hold struct{}

func NewHold() *Hold { return &Hold{} }

func newHoldFromParams(params Params, _ Env) (Strategy, error) {
	if err := decode(params, &struct{}{}); err != nil {
		return nil, err
	}
	return NewHold(), nil
}

func (h *Hold) Name() string { return "hold" }

func (h *Hold) Decide(_ context.Context, pair core.Pair, at time.Time) (core.Intent, error) {
	return core.NewHoldIntent(pair, at), nil
}
