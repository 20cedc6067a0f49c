package core

import "github.com/shopspring/decimal"

// Direction is the side of an intent or order
type Direction string

// OrderKind is the execution type of an order (MARKET, LIMIT, ...)
type OrderKind string

// OrderStatus is the lifecycle state of an order
type OrderStatus string

// QuantityUnit names which asset of the pair a raw quantity is expressed in
type QuantityUnit string

// QuantityKind tells whether a raw quantity is a percentage of the balance or an absolute amount
type QuantityKind string

// Resolution records whether an order quantity has been turned into a base quantity
type Resolution string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionHold Direction = "HOLD"
)

const (
	OrderKindMarket                  OrderKind = "MARKET"
	OrderKindLimit                   OrderKind = "LIMIT"
	OrderKindStopLoss                OrderKind = "STOP_LOSS"
	OrderKindStopLossLimit           OrderKind = "STOP_LOSS_LIMIT"
	OrderKindTakeProfit              OrderKind = "TAKE_PROFIT"
	OrderKindTakeProfitLimit         OrderKind = "TAKE_PROFIT_LIMIT"
	OrderKindTakeProfitStopLossLimit OrderKind = "TAKE_PROFIT_STOP_LOSS_LIMIT"
)

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusOpening   OrderStatus = "OPENING"
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusClosing   OrderStatus = "CLOSING"
	OrderStatusClosed    OrderStatus = "CLOSED"
	OrderStatusCanceling OrderStatus = "CANCELING"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

const (
	UnitBase  QuantityUnit = "BASE"
	UnitQuote QuantityUnit = "QUOTE"
)

const (
	QuantityPercentage QuantityKind = "PERCENTAGE"
	QuantityAbsolute   QuantityKind = "ABSOLUTE"
)

const (
	Unresolved Resolution = "UNRESOLVED"
	Resolved   Resolution = "RESOLVED"
)

var hundred = decimal.NewFromInt(100)

// Valid reports whether the direction is known
func (d Direction) Valid() bool {
	switch d {
	case DirectionBuy, DirectionSell, DirectionHold:
		return true
	}
	return false
}

// Valid reports whether the order kind is known. Known does not mean the
// paper wallet can fill it.
func (k OrderKind) Valid() bool {
	switch k {
	case OrderKindMarket, OrderKindLimit, OrderKindStopLoss, OrderKindStopLossLimit,
		OrderKindTakeProfit, OrderKindTakeProfitLimit, OrderKindTakeProfitStopLossLimit:
		return true
	}
	return false
}

// Valid reports whether the unit is BASE or QUOTE
func (u QuantityUnit) Valid() bool {
	return u == UnitBase || u == UnitQuote
}

// Asset returns the pair leg the unit points at
func (u QuantityUnit) Asset(pair Pair) Asset {
	if u == UnitQuote {
		return pair.Quote
	}
	return pair.Base
}

// Accepts validates a raw quantity: percentages must be within [0, 100],
// absolute amounts must not be negative.
func (k QuantityKind) Accepts(raw decimal.Decimal) bool {
	switch k {
	case QuantityPercentage:
		return !raw.IsNegative() && raw.LessThanOrEqual(hundred)
	case QuantityAbsolute:
		return !raw.IsNegative()
	}
	return false
}
