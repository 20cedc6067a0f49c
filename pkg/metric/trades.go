package metric

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/backsim/pkg/core"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Trade is the outcome of closing all or part of a position
type Trade struct {
	Direction     core.Direction // buy for a long position, sell for a short one
	Opened        time.Time
	Closed        time.Time
	EntryPrice    decimal.Decimal
	ExitPrice     decimal.Decimal
	Quantity      decimal.Decimal
	Profit        decimal.Decimal // in the quote asset
	ProfitPercent float64
}

// position is the open exposure of a pair, averaged over its entries
type position struct {
	direction core.Direction
	opened    time.Time
	avgPrice  decimal.Decimal
	quantity  decimal.Decimal
}

// update applies a filled order. It returns the trade closed by the order, if
// any, and whether the position is now flat.
func (p *position) update(direction core.Direction, price, quantity decimal.Decimal, at time.Time) (*Trade, bool) {
	if p.direction == direction {
		total := p.quantity.Add(quantity)
		p.avgPrice = p.avgPrice.Mul(p.quantity).Add(price.Mul(quantity)).Div(total)
		p.quantity = total
		return nil, false
	}

	closed := decimal.Min(p.quantity, quantity)

	profit := price.Sub(p.avgPrice).Mul(closed)
	if p.direction == core.DirectionSell {
		profit = profit.Neg()
	}

	trade := &Trade{
		Direction:  p.direction,
		Opened:     p.opened,
		Closed:     at,
		EntryPrice: p.avgPrice,
		ExitPrice:  price,
		Quantity:   closed,
		Profit:     profit,
	}
	if invested := p.avgPrice.Mul(closed); !invested.IsZero() {
		trade.ProfitPercent = profit.Div(invested).InexactFloat64()
	}

	switch p.quantity.Cmp(quantity) {
	case 0:
		return trade, true
	case 1:
		p.quantity = p.quantity.Sub(quantity)
	default:
		// the order reverses the position
		p.direction = direction
		p.opened = at
		p.avgPrice = price
		p.quantity = quantity.Sub(p.quantity)
	}

	return trade, false
}

// TradeSummary collects the round trips of a run
type TradeSummary struct {
	Pair   core.Pair
	Trades []Trade
	Volume decimal.Decimal // traded quote volume
}

// NewTradeSummary replays the closed orders of pair in fill order
func NewTradeSummary(pair core.Pair, orders []core.Order) TradeSummary {
	summary := TradeSummary{Pair: pair, Volume: decimal.Zero}

	filled := lo.Filter(orders, func(order core.Order, _ int) bool {
		return order.Status == core.OrderStatusClosed && order.ExecutionPrice != nil &&
			order.Pair.Equal(pair) && !order.Quantity.Amount().IsZero()
	})
	sort.SliceStable(filled, func(i, j int) bool {
		if filled[i].UpdatedAt.Equal(filled[j].UpdatedAt) {
			return filled[i].ID < filled[j].ID
		}
		return filled[i].UpdatedAt.Before(filled[j].UpdatedAt)
	})

	var open *position
	for _, order := range filled {
		price := order.ExecutionPrice.Value()
		quantity := order.Quantity.Amount()
		summary.Volume = summary.Volume.Add(price.Mul(quantity))

		if open == nil {
			open = &position{direction: order.Direction, opened: order.UpdatedAt, avgPrice: price, quantity: quantity}
			continue
		}

		trade, flat := open.update(order.Direction, price, quantity, order.UpdatedAt)
		if trade != nil {
			summary.Trades = append(summary.Trades, *trade)
		}
		if flat {
			open = nil
		}
	}

	return summary
}

// Win returns the winning trades
func (s TradeSummary) Win() []Trade {
	return lo.Filter(s.Trades, func(trade Trade, _ int) bool { return trade.Profit.Sign() >= 0 })
}

// Lose returns the losing trades
func (s TradeSummary) Lose() []Trade {
	return lo.Filter(s.Trades, func(trade Trade, _ int) bool { return trade.Profit.Sign() < 0 })
}

func profits(trades []Trade) []float64 {
	return lo.Map(trades, func(trade Trade, _ int) float64 { return trade.Profit.InexactFloat64() })
}

func profitPercents(trades []Trade) []float64 {
	return lo.Map(trades, func(trade Trade, _ int) float64 { return trade.ProfitPercent })
}

// Profit calculates the total profit across all trades
func (s TradeSummary) Profit() decimal.Decimal {
	return lo.Reduce(s.Trades, func(total decimal.Decimal, trade Trade, _ int) decimal.Decimal {
		return total.Add(trade.Profit)
	}, decimal.Zero)
}

// SQN (System Quality Number) = sqrt(n) * (average profit / standard deviation)
func (s TradeSummary) SQN() float64 {
	values := profits(s.Trades)
	if len(values) == 0 {
		return 0
	}

	avgProfit := lo.Sum(values) / float64(len(values))

	variance := 0.0
	for _, profit := range values {
		variance += math.Pow(profit-avgProfit, 2)
	}

	stdDev := math.Sqrt(variance / float64(len(values)))
	if stdDev == 0 {
		return 0
	}

	return math.Sqrt(float64(len(values))) * (avgProfit / stdDev)
}

// Payoff calculates the ratio of the average win to the average loss, in percent of the entry
func (s TradeSummary) Payoff() float64 {
	wins, losses := profitPercents(s.Win()), profitPercents(s.Lose())
	if len(wins) == 0 || len(losses) == 0 {
		return 0
	}

	avgLoss := lo.Sum(losses) / float64(len(losses))
	if avgLoss == 0 {
		return 0
	}

	return (lo.Sum(wins) / float64(len(wins))) / math.Abs(avgLoss)
}

// ProfitFactor calculates the ratio of gross profits to gross losses, in percent of the entry
func (s TradeSummary) ProfitFactor() float64 {
	grossLoss := lo.Sum(profitPercents(s.Lose()))
	if grossLoss == 0 {
		return 0
	}

	return lo.Sum(profitPercents(s.Win())) / math.Abs(grossLoss)
}

// WinPercentage calculates the percentage of winning trades
func (s TradeSummary) WinPercentage() float64 {
	if len(s.Trades) == 0 {
		return 0
	}
	return float64(len(s.Win())) / float64(len(s.Trades)) * 100
}

// String formats the trade summary as a text table
func (s TradeSummary) String() string {
	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)

	quote := s.Pair.Quote.Symbol
	table.AppendBulk([][]string{
		{"Pair", s.Pair.String()},
		{"Round trips", strconv.Itoa(len(s.Trades))},
		{"Win", strconv.Itoa(len(s.Win()))},
		{"Loss", strconv.Itoa(len(s.Lose()))},
		{"% Win", fmt.Sprintf("%.1f", s.WinPercentage())},
		{"Payoff", fmt.Sprintf("%.2f", s.Payoff())},
		{"Pr.Fact", fmt.Sprintf("%.2f", s.ProfitFactor())},
		{"SQN", fmt.Sprintf("%.2f", s.SQN())},
		{"Profit", fmt.Sprintf("%s %s", s.Profit().StringFixed(s.Pair.Quote.Places()), quote)},
		{"Volume", fmt.Sprintf("%s %s", s.Volume.StringFixed(s.Pair.Quote.Places()), quote)},
	})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Render()

	return tableString.String()
}
