// Package notification provides implementations for various notification services
package notification

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/exchange"
)

// orderTitle returns the headline of an order notification
func orderTitle(order core.Order) string {
	switch order.Status {
	case core.OrderStatusClosed:
		return fmt.Sprintf("✅ ORDER FILLED - %s", order.Pair)
	case core.OrderStatusCreated, core.OrderStatusOpen:
		return fmt.Sprintf("🆕 NEW ORDER - %s", order.Pair)
	case core.OrderStatusCanceled:
		return fmt.Sprintf("❌ ORDER CANCELED - %s", order.Pair)
	default:
		return fmt.Sprintf("ORDER %s - %s", order.Status, order.Pair)
	}
}

// orderBody lists the fill details of an order
func orderBody(order core.Order) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ID: %d\n", order.ID)
	fmt.Fprintf(&sb, "Side: %s %s\n", order.Direction, order.Kind)
	fmt.Fprintf(&sb, "Quantity: %s\n", order.Quantity)
	if order.ExecutionPrice != nil {
		fmt.Fprintf(&sb, "Price: %s\n", order.ExecutionPrice)
	}
	if order.Fee.Asset().Symbol != "" {
		fmt.Fprintf(&sb, "Fee: %s\n", order.Fee)
	}
	fmt.Fprintf(&sb, "Time: %s", order.UpdatedAt.Format("2006-01-02 15:04"))
	return sb.String()
}

// errorMessage renders an error, with the order details when it carries them
func errorMessage(err error) string {
	var sb strings.Builder
	sb.WriteString("🛑 ERROR\n-----\n")

	var orderError *exchange.OrderError
	if errors.As(err, &orderError) {
		fmt.Fprintf(&sb, "Order: %d\n", orderError.ID)
		fmt.Fprintf(&sb, "Pair: %s\n", orderError.Pair)
		fmt.Fprintf(&sb, "Quantity: %s\n", orderError.Quantity)
		sb.WriteString("-----\n")
		sb.WriteString(orderError.Err.Error())
		return sb.String()
	}

	sb.WriteString(err.Error())
	return sb.String()
}

// Multi fans notifications out to several notifiers
type Multi []core.Notifier

func (m Multi) Notify(text string) {
	for _, notifier := range m {
		notifier.Notify(text)
	}
}

func (m Multi) OnOrder(order core.Order) {
	for _, notifier := range m {
		notifier.OnOrder(order)
	}
}

func (m Multi) OnError(err error) {
	for _, notifier := range m {
		notifier.OnError(err)
	}
}
