package core

import (
	"slices"
	"time"
)

// OrderStorage defines the interface for order storage operations
type OrderStorage interface {
	// CreateOrder stores a new order
	CreateOrder(order *Order) error

	// UpdateOrder updates an existing order
	UpdateOrder(order *Order) error

	// Orders retrieves orders based on provided filters
	Orders(filters ...OrderFilter) ([]*Order, error)
}

func WithStatusIn(status ...OrderStatus) OrderFilter {
	return func(order Order) bool {
		return slices.Contains(status, order.Status)
	}
}

func WithStatus(status OrderStatus) OrderFilter {
	return func(order Order) bool {
		return order.Status == status
	}
}

func WithPair(pair Pair) OrderFilter {
	return func(order Order) bool {
		return order.Pair.Equal(pair)
	}
}

func WithIDs(ids ...int64) OrderFilter {
	return func(order Order) bool {
		return slices.Contains(ids, order.ID)
	}
}

func WithUpdateAtBeforeOrEqual(time time.Time) OrderFilter {
	return func(order Order) bool {
		return !order.UpdatedAt.After(time)
	}
}
