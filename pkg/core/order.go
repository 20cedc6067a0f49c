package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderFilter defines a function type for filtering orders
type OrderFilter func(order Order) bool

// Order is a trackable trade built from an Intent. Only the paper wallet
// changes it after creation.
type Order struct {
	ID           int64
	Pair         Pair
	Direction    Direction
	Kind         OrderKind
	Status       OrderStatus
	Unit         QuantityUnit
	QuantityKind QuantityKind
	RawQuantity  decimal.Decimal
	LimitPrice   *Price

	// Resolution tells whether Absolute and Quantity have been computed.
	// Absolute is the raw quantity in the unit asset once percentages are applied,
	// Quantity the base-asset amount that is actually traded.
	Resolution Resolution
	Absolute   Quantity
	Quantity   Quantity

	// Fill details, set by the balance legs
	ExecutionPrice *Price
	Cost           Quantity
	Fee            Quantity
	Executed       Quantity

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder copies an intent into a fresh CREATED order
func NewOrder(intent Intent) *Order {
	return &Order{
		Pair:         intent.Pair,
		Direction:    intent.Direction,
		Kind:         intent.Kind,
		Status:       OrderStatusCreated,
		Unit:         intent.Unit,
		QuantityKind: intent.QuantityKind,
		RawQuantity:  intent.Quantity,
		LimitPrice:   intent.LimitPrice,
		Resolution:   Unresolved,
		CreatedAt:    intent.Time,
		UpdatedAt:    intent.Time,
	}
}

// IsHold reports whether the order carries no trade
func (o Order) IsHold() bool { return o.Direction == DirectionHold }

// IsResolved reports whether the base quantity is known
func (o Order) IsResolved() bool { return o.Resolution == Resolved }

// IsNoop is true for holds and resolved orders of zero quantity
func (o Order) IsNoop() bool {
	return o.IsHold() || (o.IsResolved() && o.Quantity.IsZero())
}

// Resolve stores the normalized quantities and marks the order resolved
func (o *Order) Resolve(absolute, base Quantity) {
	o.Absolute = absolute
	o.Quantity = base
	o.Resolution = Resolved
}

func (o Order) String() string {
	if o.IsHold() {
		return fmt.Sprintf("[%d] HOLD %s", o.ID, o.Pair)
	}

	quantity := fmt.Sprintf("%s %s %s", o.RawQuantity, o.Unit, o.QuantityKind)
	if o.IsResolved() {
		quantity = o.Quantity.String()
	}

	return fmt.Sprintf("[%d] %s %s %s %s %s", o.ID, o.Status, o.Direction, o.Kind, o.Pair, quantity)
}
