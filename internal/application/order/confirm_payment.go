package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/candyshop/internal/domain/event"
	domain "github.com/Zhima-Mochi/candyshop/internal/domain/order"
	"github.com/Zhima-Mochi/candyshop/internal/observability"
	"github.com/Zhima-Mochi/candyshop/internal/observability/logctx"
)

const (
	orderService          = "order-service"
	useCaseConfirmPayment = "order.confirm_payment"
	spanPrefix            = "UC."
	publishPeer           = "eventbus"
	publishEndpoint       = "order.paid"
	publishTimeout        = 300 * time.Millisecond
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrRepository = errors.New("order: repository failure")
)

// ConfirmPaymentUseCase drives an order's payment transition and, on
// success, announces it on the event bus so the inventory context can deduct
// stock. The announcement is best-effort; the order stays paid even if stock
// later turns out to be short.
type ConfirmPaymentUseCase struct {
	repo      domain.Repository
	publisher event.Publisher
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewConfirmPaymentUseCase(repo domain.Repository, publisher event.Publisher, tel observability.Observability) *ConfirmPaymentUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	return &ConfirmPaymentUseCase{
		repo:         repo,
		publisher:    publisher,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", orderService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
		extCounter:   tel.Metrics().Counter(observability.MExternalRequests),
		extHistogram: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

type ConfirmPaymentInput struct {
	OrderID int64
}

type ConfirmPaymentResult struct {
	OrderID int64
	Paid    bool
	Status  domain.Status
}

// Execute loads the order, confirms payment, persists the new status, and
// publishes order.paid when the charge succeeded.
func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, cmd ConfirmPaymentInput) (_ *ConfirmPaymentResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseConfirmPayment),
		observability.F("order_id", cmd.OrderID),
	)

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"ConfirmPayment",
		attribute.String("use_case", useCaseConfirmPayment),
		attribute.Int64("order.id", cmd.OrderID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var publishErr error
	result := &ConfirmPaymentResult{OrderID: cmd.OrderID}

	defer func() {
		lat := time.Since(start).Seconds()

		span.SetAttributes(attribute.String("order.status", string(result.Status)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseConfirmPayment),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseConfirmPayment),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("paid", result.Paid),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if cmd.OrderID <= 0 {
		outcome, statusText = "error", "ORDER_ID_REQUIRED"
		return nil, errors.New("order: id is required")
	}

	entity, err := uc.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		outcome, statusText = "error", "ORDER_LOOKUP_FAILED"
		return nil, wrapRepositoryError(err)
	}

	paid, err := entity.ConfirmPayment(ctx)
	if err != nil {
		outcome, statusText = "error", "STATE_TRANSITION_FAILED"
		result.Status = entity.Status()
		return result, err
	}
	result.Paid = paid
	result.Status = entity.Status()
	if !paid {
		statusText = "DECLINED"
	}

	if err := uc.repo.Update(ctx, entity); err != nil {
		outcome, statusText = "error", "ORDER_UPDATE_FAILED"
		return result, wrapRepositoryError(err)
	}

	if paid && uc.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		pubStart := time.Now()
		pubOutcome := "success"

		publishErr = uc.publisher.Publish(pubCtx, domain.NewOrderPaidEvent(entity))
		if publishErr != nil {
			pubOutcome = "error"
			statusText = "EVENT_PUBLISH_FAILED"
		}
		cancel()

		uc.extCounter.Add(1,
			observability.L("peer", publishPeer),
			observability.L("endpoint", publishEndpoint),
			observability.L("outcome", pubOutcome),
		)
		uc.extHistogram.Observe(time.Since(pubStart).Seconds(),
			observability.L("peer", publishPeer),
			observability.L("endpoint", publishEndpoint),
		)
	}

	return result, nil
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
