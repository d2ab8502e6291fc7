package catalog

import "time"

const (
	FailureReasonNotFound          = "not_found"
	FailureReasonInsufficientStock = "insufficient_stock"
)

// StockDeductedEvent is emitted when on-hand stock was deducted for a paid order.
type StockDeductedEvent struct {
	OrderID    int64
	ItemID     string
	Quantity   int
	Remaining  int
	OccurredAt time.Time
}

func (StockDeductedEvent) EventName() string { return "catalog.stock_deducted" }

func NewStockDeductedEvent(orderID int64, itemID string, quantity, remaining int) StockDeductedEvent {
	return StockDeductedEvent{
		OrderID:    orderID,
		ItemID:     itemID,
		Quantity:   quantity,
		Remaining:  remaining,
		OccurredAt: time.Now().UTC(),
	}
}

// StockDeductionFailedEvent is emitted when stock could not be deducted for a
// paid order. Orders and stock are deliberately decoupled, so this is a
// reporting signal, not a rollback trigger.
type StockDeductionFailedEvent struct {
	OrderID    int64
	ItemID     string
	Quantity   int
	Reason     string
	OccurredAt time.Time
}

func (StockDeductionFailedEvent) EventName() string { return "catalog.stock_deduction_failed" }

func NewStockDeductionFailedEvent(orderID int64, itemID string, quantity int, reason string) StockDeductionFailedEvent {
	return StockDeductionFailedEvent{
		OrderID:    orderID,
		ItemID:     itemID,
		Quantity:   quantity,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}
