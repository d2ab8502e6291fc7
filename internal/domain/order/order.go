package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/candyshop/internal/domain/payment"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: id already exists")
	ErrNoLines                = errors.New("order: at least one line is required")
	ErrInvalidAmount          = errors.New("order: amount must be greater than zero")
	ErrMethodRequired         = errors.New("order: payment method is required")
	ErrRefundDeclined         = errors.New("order: refund declined by payment method")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
)

const FailureReasonDeclined = "payment_declined"

// Line is a frozen snapshot of a cart line. Unit price and subtotal are
// captured at order-creation time and never change, even if the catalog
// item is repriced later.
type Line struct {
	ItemID    string
	ItemName  string
	UnitPrice decimal.Decimal
	Quantity  int
	Subtotal  decimal.Decimal
}

// Order is the immutable record of a completed checkout. Only its status
// metadata changes after construction, via the state machine in state.go.
type Order struct {
	ID            int64
	CustomerID    string
	CustomerName  string
	Total         decimal.Decimal
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	lines  []Line
	method payment.Method
	state  State
}

func New(id int64, customerID, customerName string, lines []Line, total decimal.Decimal, method payment.Method) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	if total.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if method == nil {
		return nil, ErrMethodRequired
	}

	now := time.Now().UTC()
	return &Order{
		ID:           id,
		CustomerID:   customerID,
		CustomerName: customerName,
		Total:        total,
		CreatedAt:    now,
		UpdatedAt:    now,
		lines:        append([]Line(nil), lines...),
		method:       method,
		state:        pendingState{},
	}, nil
}

func (o *Order) Status() Status {
	return o.state.Status()
}

// Lines returns a copy; callers cannot mutate the snapshot.
func (o *Order) Lines() []Line {
	return append([]Line(nil), o.lines...)
}

func (o *Order) Method() payment.Method {
	return o.method
}

// ConfirmPayment charges the order total through the payment method and
// advances the state machine. Confirming an already paid order is a no-op
// returning true; a failed payment may be retried by calling again. The
// state is checked first so a shipped or refunded order is never charged.
func (o *Order) ConfirmPayment(ctx context.Context) (bool, error) {
	switch o.Status() {
	case StatusPaid:
		return true, nil
	case StatusPending, StatusPaymentFailed:
	default:
		return false, fmt.Errorf("%w: confirm payment from %s", ErrInvalidStateTransition, o.Status())
	}

	if o.method.Process(ctx, o.Total) {
		next, err := o.state.OnPaymentSucceeded(o)
		if err != nil {
			return false, err
		}
		o.transition(next)
		return true, nil
	}

	next, err := o.state.OnPaymentFailed(o, FailureReasonDeclined)
	if err != nil {
		return false, err
	}
	o.transition(next)
	return false, nil
}

// Ship marks a paid order as shipped.
func (o *Order) Ship() error {
	next, err := o.state.OnShipped(o)
	if err != nil {
		return fmt.Errorf("%w: ship from %s", err, o.Status())
	}
	o.transition(next)
	return nil
}

// Refund returns money through the payment method and moves the order to
// refunded. Allowed from paid or shipped only; the status changes only when
// the method reports success.
func (o *Order) Refund(ctx context.Context, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if s := o.Status(); s != StatusPaid && s != StatusShipped {
		return fmt.Errorf("%w: refund from %s", ErrInvalidStateTransition, s)
	}
	if !o.method.Refund(ctx, amount) {
		return ErrRefundDeclined
	}

	next, err := o.state.OnRefunded(o)
	if err != nil {
		return err
	}
	o.transition(next)
	return nil
}

// Clone is used by repositories to keep stored state isolated from callers.
func (o *Order) Clone() *Order {
	clone := *o
	clone.lines = append([]Line(nil), o.lines...)
	return &clone
}

func (o *Order) transition(next State) {
	o.state = next
	o.touch()
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
