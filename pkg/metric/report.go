package metric

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/backsim/pkg/core"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	bootstrapSamples    = 10000
	bootstrapConfidence = 0.95
)

// Report summarizes a backtest run
type Report struct {
	Strategy string
	Pair     core.Pair
	Start    time.Time
	End      time.Time
	Steps    int

	InitialValue core.Quantity
	FinalValue   core.Quantity
	Return       decimal.Decimal
	Horizons     map[Horizon]decimal.Decimal
	Drawdown     Drawdown

	Trades     int
	Buys       int
	Sells      int
	Fees       []core.Quantity
	RoundTrips TradeSummary

	Returns      []float64
	Volatility   float64
	Sharpe       float64
	ReturnRange  BootstrapInterval
	PayoffRange  BootstrapInterval
	ProfitFactor BootstrapInterval
}

// NewReport computes the run summary from its results and orders
func NewReport(strategy string, pair core.Pair, results []core.Result, orders []core.Order) (Report, error) {
	report := Report{
		Strategy: strategy,
		Pair:     pair,
		Steps:    len(results),
		Horizons: make(map[Horizon]decimal.Decimal),
	}

	if len(results) == 0 {
		return report, nil
	}

	first, last := results[0], results[len(results)-1]
	report.Start, report.End = first.Time, last.Time
	report.InitialValue, report.FinalValue = first.Snapshot.Value, last.Snapshot.Value
	report.Return = RateOfReturn(first.Value(), last.Value())
	report.Drawdown = MaxDrawdown(results)

	for _, horizon := range Horizons {
		points, err := TimeWeightedReturn(results, horizon)
		if err != nil {
			return report, err
		}
		report.Horizons[horizon] = points[len(points)-1].Return
	}

	closed := lo.Filter(orders, func(order core.Order, _ int) bool {
		return order.Status == core.OrderStatusClosed
	})
	report.Trades = len(closed)
	report.Buys = lo.CountBy(closed, func(order core.Order) bool { return order.Direction == core.DirectionBuy })
	report.Sells = report.Trades - report.Buys
	report.Fees = sumFees(closed)
	report.RoundTrips = NewTradeSummary(pair, closed)

	report.Returns = PeriodReturns(results)
	report.Volatility = Volatility(report.Returns)
	report.Sharpe = Sharpe(report.Returns)
	report.ReturnRange = Bootstrap(report.Returns, Mean, bootstrapSamples, bootstrapConfidence)
	report.PayoffRange = Bootstrap(report.Returns, Payoff, bootstrapSamples, bootstrapConfidence)
	report.ProfitFactor = Bootstrap(report.Returns, ProfitFactor, bootstrapSamples, bootstrapConfidence)

	return report, nil
}

// sumFees adds the fees of the orders per asset, sorted by symbol
func sumFees(orders []core.Order) []core.Quantity {
	bySymbol := make(map[string]core.Quantity)
	for _, order := range orders {
		fee := order.Fee
		if fee.IsZero() {
			continue
		}

		total, ok := bySymbol[fee.Asset().Symbol]
		if !ok {
			bySymbol[fee.Asset().Symbol] = fee
			continue
		}

		if sum, err := total.Add(fee); err == nil {
			bySymbol[fee.Asset().Symbol] = sum
		}
	}

	symbols := lo.Keys(bySymbol)
	sort.Strings(symbols)
	return lo.Map(symbols, func(symbol string, _ int) core.Quantity {
		return bySymbol[symbol]
	})
}

func percent(value decimal.Decimal) string {
	return value.Mul(decimal.NewFromInt(100)).StringFixed(2) + " %"
}

// Render writes the summary table, the histogram of step returns and the
// bootstrap confidence intervals
func (r Report) Render(w io.Writer) error {
	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"Strategy", "Pair", "Steps", "Trades", "Buy", "Sell", "Initial", "Final", "Return", "Max DD"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.Append([]string{
		r.Strategy,
		r.Pair.String(),
		fmt.Sprint(r.Steps),
		fmt.Sprint(r.Trades),
		fmt.Sprint(r.Buys),
		fmt.Sprint(r.Sells),
		r.InitialValue.String(),
		r.FinalValue.String(),
		percent(r.Return),
		percent(r.Drawdown.Ratio),
	})
	table.Render()

	horizons := tablewriter.NewWriter(buffer)
	horizons.SetHeader(lo.Map(Horizons, func(horizon Horizon, _ int) string { return string(horizon) }))
	horizons.Append(lo.Map(Horizons, func(horizon Horizon, _ int) string { return percent(r.Horizons[horizon]) }))
	horizons.Render()

	if _, err := io.Copy(w, buffer); err != nil {
		return err
	}

	if len(r.Fees) > 0 {
		fees := lo.Map(r.Fees, func(fee core.Quantity, _ int) string { return fee.String() })
		fmt.Fprintf(w, "FEES: %v\n", fees)
	}

	if len(r.RoundTrips.Trades) > 0 {
		fmt.Fprint(w, r.RoundTrips.String())
	}

	if len(r.Returns) == 0 {
		return nil
	}

	fmt.Fprintln(w, "------ RETURN -------")
	returnsPercent := lo.Map(r.Returns, func(value float64, _ int) float64 { return value * 100 })
	if err := histogram.Fprint(w, histogram.Hist(15, returnsPercent), histogram.Linear(10)); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n------ CONFIDENCE INTERVAL (%.0f%%) -------\n", bootstrapConfidence*100)
	fmt.Fprintf(w, "RETURN:      %.4f%% (%.4f%% ~ %.4f%%)\n",
		r.ReturnRange.Mean*100, r.ReturnRange.Lower*100, r.ReturnRange.Upper*100)
	fmt.Fprintf(w, "PAYOFF:      %.2f (%.2f ~ %.2f)\n",
		r.PayoffRange.Mean, r.PayoffRange.Lower, r.PayoffRange.Upper)
	fmt.Fprintf(w, "PROF.FACTOR: %.2f (%.2f ~ %.2f)\n",
		r.ProfitFactor.Mean, r.ProfitFactor.Lower, r.ProfitFactor.Upper)
	fmt.Fprintf(w, "VOLATILITY:  %.4f%%  SHARPE: %.3f\n", r.Volatility*100, r.Sharpe)

	return nil
}

// String renders the report, ignoring write errors
func (r Report) String() string {
	var buffer bytes.Buffer
	_ = r.Render(&buffer)
	return buffer.String()
}
