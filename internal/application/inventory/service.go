package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/candyshop/internal/domain/catalog"
	"github.com/Zhima-Mochi/candyshop/internal/domain/event"
	domorder "github.com/Zhima-Mochi/candyshop/internal/domain/order"
	"github.com/Zhima-Mochi/candyshop/internal/observability"
	"github.com/Zhima-Mochi/candyshop/internal/observability/logctx"
)

const inventoryService = "inventory-service"

// DeductionResult reports the per-line outcome of a stock deduction run.
type DeductionResult struct {
	Deducted int
	Failed   int
	Reasons  []string
}

// StockService is the inventory-manager side of the shop: restocking,
// reports, and event-driven stock deduction for paid orders.
//
// Deduction is deliberately decoupled from the order lifecycle: a failure
// here is recorded and published but never unwinds a paid order.
type StockService struct {
	cat        *catalog.Catalog
	orders     domorder.Repository
	publisher  event.Publisher
	log        observability.Logger
	deductions observability.Counter // stock_deductions_total{outcome}
}

func NewStockService(cat *catalog.Catalog, orders domorder.Repository, publisher event.Publisher, tel observability.Observability) *StockService {
	if tel == nil {
		tel = observability.Nop()
	}
	return &StockService{
		cat:        cat,
		orders:     orders,
		publisher:  publisher,
		log:        tel.Logger().With(observability.F("service", inventoryService)),
		deductions: tel.Metrics().Counter(observability.MStockDeductions),
	}
}

// Execute deducts stock for every line of a paid order. Lines are handled
// independently; one short item does not block the others.
func (s *StockService) Execute(ctx context.Context, e domorder.OrderPaidEvent) (*DeductionResult, error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("order_id", e.OrderID))
	result := &DeductionResult{}

	var errs []error
	for _, line := range e.Lines {
		remaining, err := s.deductLine(ctx, e.OrderID, line)
		if err != nil {
			result.Failed++
			result.Reasons = append(result.Reasons, failureReason(err))
			errs = append(errs, err)
			s.deductions.Add(1, observability.L("outcome", "failed"))
			continue
		}
		result.Deducted++
		s.deductions.Add(1, observability.L("outcome", "success"))
		logger.Info("stock_deducted",
			observability.F("item_id", line.ItemID),
			observability.F("quantity", line.Quantity),
			observability.F("remaining", remaining),
		)
	}

	if len(errs) > 0 {
		return result, fmt.Errorf("inventory: deduct for order %d: %w", e.OrderID, errors.Join(errs...))
	}
	return result, nil
}

func (s *StockService) deductLine(ctx context.Context, orderID int64, line domorder.PaidLine) (int, error) {
	if err := s.cat.ReduceStock(line.ItemID, line.Quantity); err != nil {
		s.publishFailure(ctx, orderID, line, failureReason(err))
		return 0, err
	}

	remaining := 0
	if item, err := s.cat.Get(line.ItemID); err == nil {
		remaining = item.Quantity
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, catalog.NewStockDeductedEvent(orderID, line.ItemID, line.Quantity, remaining)); err != nil {
			logctx.FromOr(ctx, s.log).Warn("event_publish_failed",
				observability.F("event", "catalog.stock_deducted"),
				observability.F("error", err.Error()),
			)
		}
	}
	return remaining, nil
}

func (s *StockService) publishFailure(ctx context.Context, orderID int64, line domorder.PaidLine, reason string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, catalog.NewStockDeductionFailedEvent(orderID, line.ItemID, line.Quantity, reason)); err != nil {
		logctx.FromOr(ctx, s.log).Warn("event_publish_failed",
			observability.F("event", "catalog.stock_deduction_failed"),
			observability.F("error", err.Error()),
		)
	}
}

// Restock increments an item's on-hand quantity and returns the new level.
func (s *StockService) Restock(ctx context.Context, itemID string, amount int) (int, error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("item_id", itemID),
		observability.F("amount", amount),
	)

	quantity, err := s.cat.Restock(itemID, amount)
	if err != nil {
		logger.Warn("restock_rejected", observability.F("error", err.Error()))
		return 0, err
	}

	logger.Info("restocked", observability.F("quantity", quantity))
	return quantity, nil
}

// StockLevel is one row of the inventory report.
type StockLevel struct {
	ItemID   string
	Name     string
	Quantity int
}

// InventoryReport lists current stock levels in catalog order.
func (s *StockService) InventoryReport(ctx context.Context) []StockLevel {
	_ = ctx
	items := s.cat.Items()
	report := make([]StockLevel, 0, len(items))
	for _, item := range items {
		report = append(report, StockLevel{ItemID: item.ID, Name: item.Name, Quantity: item.Quantity})
	}
	return report
}

// SalesReport sums the totals of orders that have actually been paid
// (including shipped and refunded ones, which were paid at some point).
func (s *StockService) SalesReport(ctx context.Context) (decimal.Decimal, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, o := range orders {
		switch o.Status() {
		case domorder.StatusPaid, domorder.StatusShipped, domorder.StatusRefunded:
			total = total.Add(o.Total)
		}
	}
	return total, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return catalog.FailureReasonNotFound
	case errors.Is(err, catalog.ErrInsufficientStock):
		return catalog.FailureReasonInsufficientStock
	default:
		return err.Error()
	}
}
