package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaidLine carries the item/quantity pair the inventory side needs; the
// full pricing snapshot stays on the order.
type PaidLine struct {
	ItemID   string
	Quantity int
}

// OrderPaidEvent is emitted after a successful payment confirmation.
// The inventory context deducts stock from it, best-effort.
type OrderPaidEvent struct {
	OrderID    int64
	CustomerID string
	Lines      []PaidLine
	Amount     decimal.Decimal
	OccurredAt time.Time
}

func (OrderPaidEvent) EventName() string { return "order.paid" }

func NewOrderPaidEvent(o *Order) OrderPaidEvent {
	lines := make([]PaidLine, 0, len(o.lines))
	for _, l := range o.lines {
		lines = append(lines, PaidLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return OrderPaidEvent{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Lines:      lines,
		Amount:     o.Total,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderShippedEvent is emitted when a paid order is handed to fulfillment.
type OrderShippedEvent struct {
	OrderID    int64
	OccurredAt time.Time
}

func (OrderShippedEvent) EventName() string { return "order.shipped" }

func NewOrderShippedEvent(o *Order) OrderShippedEvent {
	return OrderShippedEvent{
		OrderID:    o.ID,
		OccurredAt: time.Now().UTC(),
	}
}
