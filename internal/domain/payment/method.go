package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Method is the capability the order lifecycle needs from a payment
// instrument. Concrete instruments (card, account) live in infrastructure;
// the core never depends on their fields.
type Method interface {
	Name() string
	Process(ctx context.Context, amount decimal.Decimal) bool
	Refund(ctx context.Context, amount decimal.Decimal) bool
}
