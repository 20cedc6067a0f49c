package exchange

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/StudioSol/set"
	"github.com/raykavin/backsim/pkg/core"
	"github.com/samber/lo"
)

// PriceSeries is an in-memory candle store keyed by pair symbol and by the
// candle start truncated to the series granularity
type PriceSeries struct {
	mu          sync.RWMutex
	granularity core.Period
	pairs       *set.LinkedHashSetString
	candles     map[string][]core.Candle
	index       map[string]map[int64]int
}

// NewPriceSeries creates an empty series for the given granularity
func NewPriceSeries(granularity core.Period) *PriceSeries {
	return &PriceSeries{
		granularity: granularity,
		pairs:       set.NewLinkedHashSetString(),
		candles:     make(map[string][]core.Candle),
		index:       make(map[string]map[int64]int),
	}
}

// Add stores candles for a pair symbol. Candles are re-sorted by time and a
// later candle for the same slot replaces an earlier one.
func (s *PriceSeries) Add(pair string, candles ...core.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pairs.Add(pair)

	bySlot := make(map[int64]core.Candle, len(s.candles[pair])+len(candles))
	for _, candle := range s.candles[pair] {
		bySlot[candle.Time.Unix()] = candle
	}
	for _, candle := range candles {
		candle.Pair = pair
		candle.Time = s.granularity.Truncate(candle.Time)
		bySlot[candle.Time.Unix()] = candle
	}

	s.rebuild(pair, lo.Values(bySlot))
}

// rebuild sorts the candles of pair and refreshes its time index
func (s *PriceSeries) rebuild(pair string, candles []core.Candle) {
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	index := make(map[int64]int, len(candles))
	for i, candle := range candles {
		index[candle.Time.Unix()] = i
	}

	s.candles[pair] = candles
	s.index[pair] = index
}

// Granularity returns the period of the stored candles
func (s *PriceSeries) Granularity() core.Period { return s.granularity }

// Pairs returns the stored pair symbols in insertion order
func (s *PriceSeries) Pairs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pairs := make([]string, 0, len(s.candles))
	for pair := range s.pairs.Iter() {
		pairs = append(pairs, pair)
	}
	return pairs
}

// Candle returns the candle covering at. It never returns a candle that
// starts after at.
func (s *PriceSeries) Candle(pair core.Pair, at time.Time) (core.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot := s.granularity.Truncate(at)
	position, ok := s.index[pair.Symbol()][slot.Unix()]
	if !ok {
		return core.Candle{}, fmt.Errorf("%w: %s at %s", core.ErrMissingCandle, pair.Symbol(), slot.Format(time.RFC3339))
	}

	return s.candles[pair.Symbol()][position], nil
}

// Candles returns the candles of pair between from and to, both inclusive
func (s *PriceSeries) Candles(_ context.Context, pair core.Pair, from, to time.Time) ([]core.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candles := s.candles[pair.Symbol()]
	first := sort.Search(len(candles), func(i int) bool {
		return !candles[i].Time.Before(from)
	})

	result := make([]core.Candle, 0)
	for _, candle := range candles[first:] {
		if candle.Time.After(to) {
			break
		}
		result = append(result, candle)
	}

	return result, nil
}

// Limit keeps only the candles of the last duration of each pair
func (s *PriceSeries) Limit(duration time.Duration) *PriceSeries {
	s.mu.Lock()
	defer s.mu.Unlock()

	for pair, candles := range s.candles {
		if len(candles) == 0 {
			continue
		}

		start := candles[len(candles)-1].Time.Add(-duration)
		s.rebuild(pair, lo.Filter(candles, func(candle core.Candle, _ int) bool {
			return candle.Time.After(start)
		}))
	}
	return s
}

// InstantPrice returns the mean of the candle covering at
func (s *PriceSeries) InstantPrice(pair core.Pair, at time.Time) (core.Price, error) {
	candle, err := s.Candle(pair, at)
	if err != nil {
		return core.Price{}, err
	}
	return candle.MeanPrice(pair), nil
}
