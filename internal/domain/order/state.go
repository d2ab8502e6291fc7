package order

type Status string

const (
	StatusPending       Status = "pending"
	StatusPaid          Status = "paid"
	StatusPaymentFailed Status = "payment_failed"
	StatusShipped       Status = "shipped"
	StatusRefunded      Status = "refunded"
)

// State implements the state pattern for order lifecycle transitions.
type State interface {
	Status() Status
	OnPaymentSucceeded(o *Order) (State, error)
	OnPaymentFailed(o *Order, reason string) (State, error)
	OnShipped(o *Order) (State, error)
	OnRefunded(o *Order) (State, error)
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }

func (pendingState) OnPaymentSucceeded(o *Order) (State, error) {
	o.FailureReason = ""
	return paidState{}, nil
}

func (pendingState) OnPaymentFailed(o *Order, reason string) (State, error) {
	o.FailureReason = reason
	return paymentFailedState{}, nil
}

func (pendingState) OnShipped(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (pendingState) OnRefunded(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}

type paidState struct{}

func (paidState) Status() Status { return StatusPaid }

func (paidState) OnPaymentSucceeded(*Order) (State, error) {
	return paidState{}, nil
}

func (paidState) OnPaymentFailed(*Order, string) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (paidState) OnShipped(*Order) (State, error) {
	return shippedState{}, nil
}

func (paidState) OnRefunded(*Order) (State, error) {
	return refundedState{}, nil
}

type paymentFailedState struct{}

func (paymentFailedState) Status() Status { return StatusPaymentFailed }

func (paymentFailedState) OnPaymentSucceeded(o *Order) (State, error) {
	o.FailureReason = ""
	return paidState{}, nil
}

func (paymentFailedState) OnPaymentFailed(o *Order, reason string) (State, error) {
	o.FailureReason = reason
	return paymentFailedState{}, nil
}

func (paymentFailedState) OnShipped(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (paymentFailedState) OnRefunded(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}

type shippedState struct{}

func (shippedState) Status() Status { return StatusShipped }

func (shippedState) OnPaymentSucceeded(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (shippedState) OnPaymentFailed(*Order, string) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (shippedState) OnShipped(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (shippedState) OnRefunded(*Order) (State, error) {
	return refundedState{}, nil
}

type refundedState struct{}

func (refundedState) Status() Status { return StatusRefunded }

func (refundedState) OnPaymentSucceeded(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (refundedState) OnPaymentFailed(*Order, string) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (refundedState) OnShipped(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}

func (refundedState) OnRefunded(*Order) (State, error) {
	return nil, ErrInvalidStateTransition
}
