package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raykavin/backsim/pkg/core"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// NewRunID returns a fresh identifier for a backtest run
func NewRunID() string {
	return uuid.NewString()
}

// OrderRecord is the persisted form of an order. Quantities are stored as
// "amount SYMBOL" and resolved back through the asset registry.
type OrderRecord struct {
	RunID          string    `json:"run_id" gorm:"primaryKey"`
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Base           string    `json:"base"`
	Quote          string    `json:"quote"`
	Direction      string    `json:"direction"`
	Kind           string    `json:"kind"`
	Status         string    `json:"status" gorm:"index"`
	Unit           string    `json:"unit"`
	QuantityKind   string    `json:"quantity_kind"`
	RawQuantity    string    `json:"raw_quantity"`
	LimitPrice     *string   `json:"limit_price,omitempty"`
	Resolution     string    `json:"resolution"`
	Absolute       string    `json:"absolute"`
	Quantity       string    `json:"quantity"`
	ExecutionPrice *string   `json:"execution_price,omitempty"`
	Cost           string    `json:"cost"`
	Fee            string    `json:"fee"`
	Executed       string    `json:"executed"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime:false"`
}

func (OrderRecord) TableName() string { return "orders" }

// ResultRecord is the persisted form of one backtest step
type ResultRecord struct {
	RunID     string    `json:"run_id" gorm:"primaryKey"`
	Time      time.Time `json:"time" gorm:"primaryKey;autoCreateTime:false"`
	Reference string    `json:"reference"`
	Value     string    `json:"value"`
	Balances  string    `json:"balances"`
	Base      string    `json:"base"`
	Quote     string    `json:"quote"`
	Direction string    `json:"direction"`
	Kind      string    `json:"kind"`
	Quantity  string    `json:"quantity"`
	Unit      string    `json:"unit"`
	QtyKind   string    `json:"quantity_kind" gorm:"column:quantity_kind"`
	Limit     *string   `json:"limit_price,omitempty" gorm:"column:limit_price"`
}

func (ResultRecord) TableName() string { return "results" }

// codec converts between domain values and records
type codec struct {
	assets core.AssetResolver
}

func encodeQuantity(quantity core.Quantity) string {
	if quantity.Asset().Symbol == "" {
		return ""
	}
	return quantity.Amount().String() + " " + quantity.Asset().Symbol
}

func (c codec) quantity(value string) (core.Quantity, error) {
	if value == "" {
		return core.Quantity{}, nil
	}

	amount, symbol, found := strings.Cut(value, " ")
	if !found {
		return core.Quantity{}, fmt.Errorf("malformed quantity %q", value)
	}

	asset, err := c.assets.Resolve(symbol)
	if err != nil {
		return core.Quantity{}, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Quantity{}, fmt.Errorf("malformed quantity %q: %w", value, err)
	}

	return core.NewQuantity(asset, parsed), nil
}

func encodePrice(price *core.Price) *string {
	if price == nil {
		return nil
	}
	return lo.ToPtr(price.Value().String())
}

func (c codec) price(pair core.Pair, value *string) (*core.Price, error) {
	if value == nil {
		return nil, nil
	}

	parsed, err := decimal.NewFromString(*value)
	if err != nil {
		return nil, fmt.Errorf("malformed price %q: %w", *value, err)
	}

	return lo.ToPtr(core.NewPrice(pair, parsed)), nil
}

func (c codec) encodeOrder(runID string, order *core.Order) OrderRecord {
	return OrderRecord{
		RunID:          runID,
		ID:             order.ID,
		Base:           order.Pair.Base.Symbol,
		Quote:          order.Pair.Quote.Symbol,
		Direction:      string(order.Direction),
		Kind:           string(order.Kind),
		Status:         string(order.Status),
		Unit:           string(order.Unit),
		QuantityKind:   string(order.QuantityKind),
		RawQuantity:    order.RawQuantity.String(),
		LimitPrice:     encodePrice(order.LimitPrice),
		Resolution:     string(order.Resolution),
		Absolute:       encodeQuantity(order.Absolute),
		Quantity:       encodeQuantity(order.Quantity),
		ExecutionPrice: encodePrice(order.ExecutionPrice),
		Cost:           encodeQuantity(order.Cost),
		Fee:            encodeQuantity(order.Fee),
		Executed:       encodeQuantity(order.Executed),
		CreatedAt:      order.CreatedAt.UTC(),
		UpdatedAt:      order.UpdatedAt.UTC(),
	}
}

func (c codec) decodeOrder(record OrderRecord) (*core.Order, error) {
	pair, err := c.assets.Pair(record.Base, record.Quote)
	if err != nil {
		return nil, err
	}

	raw, err := decimal.NewFromString(record.RawQuantity)
	if err != nil {
		return nil, fmt.Errorf("order %d: malformed raw quantity: %w", record.ID, err)
	}

	order := &core.Order{
		ID:           record.ID,
		Pair:         pair,
		Direction:    core.Direction(record.Direction),
		Kind:         core.OrderKind(record.Kind),
		Status:       core.OrderStatus(record.Status),
		Unit:         core.QuantityUnit(record.Unit),
		QuantityKind: core.QuantityKind(record.QuantityKind),
		RawQuantity:  raw,
		Resolution:   core.Resolution(record.Resolution),
		CreatedAt:    record.CreatedAt.UTC(),
		UpdatedAt:    record.UpdatedAt.UTC(),
	}

	if order.LimitPrice, err = c.price(pair, record.LimitPrice); err != nil {
		return nil, err
	}
	if order.ExecutionPrice, err = c.price(pair, record.ExecutionPrice); err != nil {
		return nil, err
	}

	quantities := []struct {
		target *core.Quantity
		value  string
	}{
		{&order.Absolute, record.Absolute},
		{&order.Quantity, record.Quantity},
		{&order.Cost, record.Cost},
		{&order.Fee, record.Fee},
		{&order.Executed, record.Executed},
	}

	for _, quantity := range quantities {
		if *quantity.target, err = c.quantity(quantity.value); err != nil {
			return nil, fmt.Errorf("order %d: %w", record.ID, err)
		}
	}

	return order, nil
}

func (c codec) encodeResult(runID string, result core.Result) ResultRecord {
	intent := result.Intent
	return ResultRecord{
		RunID:     runID,
		Time:      result.Time.UTC(),
		Reference: result.Snapshot.Reference.Symbol,
		Value:     encodeQuantity(result.Snapshot.Value),
		Balances:  strings.Join(lo.Map(result.Snapshot.Balances, func(q core.Quantity, _ int) string { return encodeQuantity(q) }), ","),
		Base:      intent.Pair.Base.Symbol,
		Quote:     intent.Pair.Quote.Symbol,
		Direction: string(intent.Direction),
		Kind:      string(intent.Kind),
		Quantity:  intent.Quantity.String(),
		Unit:      string(intent.Unit),
		QtyKind:   string(intent.QuantityKind),
		Limit:     encodePrice(intent.LimitPrice),
	}
}

func (c codec) decodeResult(record ResultRecord) (core.Result, error) {
	reference, err := c.assets.Resolve(record.Reference)
	if err != nil {
		return core.Result{}, err
	}

	value, err := c.quantity(record.Value)
	if err != nil {
		return core.Result{}, err
	}

	balances := make([]core.Quantity, 0)
	for _, encoded := range strings.Split(record.Balances, ",") {
		if encoded == "" {
			continue
		}
		balance, err := c.quantity(encoded)
		if err != nil {
			return core.Result{}, err
		}
		balances = append(balances, balance)
	}

	pair, err := c.assets.Pair(record.Base, record.Quote)
	if err != nil {
		return core.Result{}, err
	}

	at := record.Time.UTC()
	intent := core.NewHoldIntent(pair, at)
	if core.Direction(record.Direction) != core.DirectionHold {
		intent.Direction = core.Direction(record.Direction)
		intent.Kind = core.OrderKind(record.Kind)
		intent.Unit = core.QuantityUnit(record.Unit)
		intent.QuantityKind = core.QuantityKind(record.QtyKind)

		if intent.Quantity, err = decimal.NewFromString(record.Quantity); err != nil {
			return core.Result{}, fmt.Errorf("result %s: malformed quantity: %w", at.Format(time.RFC3339), err)
		}
		if intent.LimitPrice, err = c.price(pair, record.Limit); err != nil {
			return core.Result{}, err
		}
	}

	return core.Result{
		Time: at,
		Snapshot: core.Snapshot{
			Time:      at,
			Balances:  balances,
			Reference: reference,
			Value:     value,
		},
		Intent: intent,
	}, nil
}
