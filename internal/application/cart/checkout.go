package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domcart "github.com/Zhima-Mochi/candyshop/internal/domain/cart"
	"github.com/Zhima-Mochi/candyshop/internal/domain/customer"
	domorder "github.com/Zhima-Mochi/candyshop/internal/domain/order"
	"github.com/Zhima-Mochi/candyshop/internal/domain/payment"
	"github.com/Zhima-Mochi/candyshop/internal/observability"
	"github.com/Zhima-Mochi/candyshop/internal/observability/logctx"
)

const (
	cartService     = "cart-service"
	useCaseCheckout = "cart.checkout"
	spanPrefix      = "UC."
)

var (
	ErrEmptyCart  = domcart.ErrEmptyCart
	ErrRepository = errors.New("cart: repository failure")
)

// CheckoutUseCase converts a customer's cart into a pending order and
// persists it. Stock is neither checked nor reserved during checkout.
type CheckoutUseCase struct {
	repo domorder.Repository
	seq  *domorder.Sequence
	tel  observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewCheckoutUseCase(repo domorder.Repository, seq *domorder.Sequence, tel observability.Observability) *CheckoutUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	return &CheckoutUseCase{
		repo:         repo,
		seq:          seq,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", cartService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

type CheckoutInput struct {
	Customer *customer.Customer
	Method   payment.Method
}

type CheckoutResult struct {
	OrderID int64
	Status  domorder.Status
	Total   string
}

// Execute performs the checkout flow.
func (uc *CheckoutUseCase) Execute(ctx context.Context, cmd CheckoutInput) (_ *CheckoutResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseCheckout))

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"Checkout",
		attribute.String("use_case", useCaseCheckout),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var orderID int64

	defer func() {
		lat := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseCheckout),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseCheckout),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if orderID != 0 {
			fields = append(fields, observability.F("order_id", orderID))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if cmd.Customer == nil {
		outcome, statusText = "error", "CUSTOMER_REQUIRED"
		return nil, errors.New("cart: customer is required")
	}
	if cmd.Method == nil {
		outcome, statusText = "error", "PAYMENT_METHOD_REQUIRED"
		return nil, domorder.ErrMethodRequired
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	span.SetAttributes(
		attribute.String("cart.customer_id", cmd.Customer.ID),
		attribute.String("payment.method", cmd.Method.Name()),
	)

	entity, derr := cmd.Customer.Checkout(uc.seq, cmd.Method)
	if derr != nil {
		outcome, statusText = "error", "CHECKOUT_REJECTED"
		if errors.Is(derr, domcart.ErrEmptyCart) || errors.Is(derr, customer.ErrNoCart) {
			statusText = "EMPTY_CART"
		}
		return nil, derr
	}
	orderID = entity.ID

	if err := uc.repo.Insert(ctx, entity); err != nil {
		outcome, statusText = "error", "REPO_INSERT_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	span.SetAttributes(attribute.String("order.status", string(entity.Status())))
	span.AddEvent("order.created",
		trace.WithAttributes(attribute.Int64("order.id", orderID)),
	)

	return &CheckoutResult{
		OrderID: entity.ID,
		Status:  entity.Status(),
		Total:   entity.Total.StringFixed(2),
	}, nil
}
