package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/candyshop/internal/domain/event"
	domain "github.com/Zhima-Mochi/candyshop/internal/domain/order"
	"github.com/Zhima-Mochi/candyshop/internal/observability"
	"github.com/Zhima-Mochi/candyshop/internal/observability/logctx"
)

// FulfillmentService covers the post-payment order operations: shipping and
// refunds.
type FulfillmentService struct {
	repo      domain.Repository
	publisher event.Publisher
	log       observability.Logger
}

func NewFulfillmentService(repo domain.Repository, publisher event.Publisher, tel observability.Observability) *FulfillmentService {
	if tel == nil {
		tel = observability.Nop()
	}
	return &FulfillmentService{
		repo:      repo,
		publisher: publisher,
		log:       tel.Logger().With(observability.F("service", orderService)),
	}
}

// Ship marks a paid order as shipped. Shipping an unpaid order fails with
// ErrInvalidStateTransition.
func (s *FulfillmentService) Ship(ctx context.Context, orderID int64) (*domain.Order, error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("order_id", orderID))

	entity, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}

	if err := entity.Ship(); err != nil {
		logger.Warn("ship_rejected", observability.F("error", err.Error()))
		return nil, err
	}

	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, wrapRepositoryError(err)
	}

	if s.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		if err := s.publisher.Publish(pubCtx, domain.NewOrderShippedEvent(entity)); err != nil {
			logger.Warn("event_publish_failed",
				observability.F("event", "order.shipped"),
				observability.F("error", err.Error()),
			)
		}
	}

	logger.Info("order_shipped")
	return entity, nil
}

// Refund returns money through the order's payment method and moves the
// order to refunded. Allowed from paid or shipped only.
func (s *FulfillmentService) Refund(ctx context.Context, orderID int64, amount decimal.Decimal) (*domain.Order, error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("order_id", orderID),
		observability.F("amount", amount.StringFixed(2)),
	)

	entity, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}

	if err := entity.Refund(ctx, amount); err != nil {
		logger.Warn("refund_rejected", observability.F("error", err.Error()))
		return nil, err
	}

	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, wrapRepositoryError(err)
	}

	logger.Info("order_refunded")
	return entity, nil
}

// Get exposes order lookup to the presentation layer.
func (s *FulfillmentService) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	entity, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return entity, nil
}
