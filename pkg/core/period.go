package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

// periodAliases maps the long period codes to timeframe strings.
// A month is four weeks and a year is fifty-two weeks.
var periodAliases = map[string]string{
	"1HRS": "1h",
	"4HRS": "4h",
	"1DAY": "1d",
	"3DAY": "3d",
	"1WKS": "1w",
	"1MNT": "4w",
	"1YRS": "52w",
}

// Period is the granularity of a candle series and of the backtest steps
type Period struct {
	timeframe string
	duration  time.Duration
}

// ParsePeriod accepts a timeframe (1h, 4h, 1d, 1w) or a period code (1HRS, 1DAY, 1MNT)
func ParsePeriod(value string) (Period, error) {
	timeframe := strings.TrimSpace(value)
	if alias, ok := periodAliases[strings.ToUpper(timeframe)]; ok {
		timeframe = alias
	}

	duration, err := str2duration.ParseDuration(timeframe)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %s: %v", ErrInvalidPeriod, value, err)
	}

	if duration <= 0 {
		return Period{}, fmt.Errorf("%w: %s must be positive", ErrInvalidPeriod, value)
	}

	return Period{timeframe: timeframe, duration: duration}, nil
}

// MustParsePeriod is like ParsePeriod but panics on error
func MustParsePeriod(value string) Period {
	period, err := ParsePeriod(value)
	if err != nil {
		panic(err)
	}
	return period
}

func (p Period) String() string { return p.timeframe }
func (p Period) Duration() time.Duration { return p.duration }
func (p Period) IsZero() bool { return p.duration == 0 }

// Truncate returns the start of the period containing t, in UTC
func (p Period) Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(p.duration)
}

// Ceil returns the first period boundary at or after t
func (p Period) Ceil(t time.Time) time.Time {
	floor := p.Truncate(t)
	if floor.Equal(t) {
		return floor
	}
	return floor.Add(p.duration)
}

// IsBoundary reports whether t starts a period
func (p Period) IsBoundary(t time.Time) bool {
	return p.Truncate(t).Equal(t)
}

// PreviousEnd returns the last period boundary at or before t
func (p Period) PreviousEnd(t time.Time) time.Time {
	return p.Truncate(t)
}

// Range lists every period boundary between start and end, both inclusive
func (p Period) Range(start, end time.Time) []time.Time {
	first := p.Ceil(start)
	last := p.PreviousEnd(end)
	if last.Before(first) {
		return nil
	}

	steps := make([]time.Time, 0, int(last.Sub(first)/p.duration)+1)
	for t := first; !t.After(last); t = t.Add(p.duration) {
		steps = append(steps, t)
	}
	return steps
}
