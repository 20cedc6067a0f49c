package metric

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Horizon is the window a time-weighted return is measured over
type Horizon string

const (
	YearToDate    Horizon = "YTD"
	QuarterToDate Horizon = "QTD"
	MonthToDate   Horizon = "MTD"
	WeekToDate    Horizon = "WTD"
	Inception     Horizon = "INC"
	Halvening     Horizon = "HLV"
)

// Horizons lists the supported horizons in report order
var Horizons = []Horizon{Inception, YearToDate, QuarterToDate, MonthToDate, WeekToDate}

// ParseHorizon converts a name such as "ytd" into a horizon
func ParseHorizon(name string) (Horizon, error) {
	horizon := Horizon(strings.ToUpper(name))
	if horizon != Halvening && !lo.Contains(Horizons, horizon) {
		return "", fmt.Errorf("unknown horizon %q", name)
	}
	return horizon, nil
}

// Start returns the beginning of the horizon containing t, in UTC.
// Inception starts at the zero time, that is at the first result.
func (h Horizon) Start(t time.Time) (time.Time, error) {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	switch h {
	case YearToDate:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), nil
	case QuarterToDate:
		month := time.Month((int(t.Month())-1)/3*3 + 1)
		return time.Date(t.Year(), month, 1, 0, 0, 0, 0, time.UTC), nil
	case MonthToDate:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	case WeekToDate:
		offset := (int(t.Weekday()) + 6) % 7 // monday is day zero
		return midnight.AddDate(0, 0, -offset), nil
	case Inception:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("horizon %s is not supported", h)
	}
}

// Point is a return measured at a point in time
type Point struct {
	Time   time.Time
	Return decimal.Decimal
}

// Float returns the point return as a float
func (p Point) Float() float64 { return p.Return.InexactFloat64() }

// RateOfReturn is (end - start) / start, zero when start is zero
func RateOfReturn(start, end decimal.Decimal) decimal.Decimal {
	if start.IsZero() {
		return decimal.Zero
	}
	return end.Sub(start).Div(start)
}

// TimeWeightedReturn measures every result against the first result inside
// its horizon window. Results must be ordered by time.
func TimeWeightedReturn(results []core.Result, horizon Horizon) ([]Point, error) {
	points := make([]Point, 0, len(results))

	for _, result := range results {
		start, err := horizon.Start(result.Time)
		if err != nil {
			return nil, err
		}

		first := sort.Search(len(results), func(i int) bool {
			return !results[i].Time.Before(start)
		})

		points = append(points, Point{
			Time:   result.Time,
			Return: RateOfReturn(results[first].Value(), result.Value()),
		})
	}

	return points, nil
}

// RollingReturn measures every result against the one window steps before.
// The first results are measured against the first one.
func RollingReturn(results []core.Result, window int) []Point {
	if window < 1 {
		window = 1
	}

	return lo.Map(results, func(result core.Result, i int) Point {
		start := results[max(0, i-window)]
		return Point{
			Time:   result.Time,
			Return: RateOfReturn(start.Value(), result.Value()),
		}
	})
}

// PeriodReturns are the step over step returns, without the first step
func PeriodReturns(results []core.Result) []float64 {
	if len(results) < 2 {
		return nil
	}

	return lo.Map(RollingReturn(results, 1)[1:], func(point Point, _ int) float64 {
		return point.Float()
	})
}

// Drawdown is the largest relative fall from a peak value
type Drawdown struct {
	Ratio  decimal.Decimal
	Peak   time.Time
	Trough time.Time
}

// MaxDrawdown finds the largest peak to trough fall of the portfolio value
func MaxDrawdown(results []core.Result) Drawdown {
	var (
		worst Drawdown
		peak  decimal.Decimal
		since time.Time
	)

	for i, result := range results {
		value := result.Value()
		if i == 0 || value.GreaterThan(peak) {
			peak, since = value, result.Time
			continue
		}

		if peak.IsPositive() {
			if ratio := peak.Sub(value).Div(peak); ratio.GreaterThan(worst.Ratio) {
				worst = Drawdown{Ratio: ratio, Peak: since, Trough: result.Time}
			}
		}
	}

	return worst
}
