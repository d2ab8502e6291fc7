package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAccount = errors.New("payment: account email is malformed")

// PayPal charges an account-based instrument identified by an email address.
type PayPal struct {
	email string
}

func NewPayPal(email string) (*PayPal, error) {
	if !validEmail(email) {
		return nil, ErrInvalidAccount
	}
	return &PayPal{email: email}, nil
}

func (p *PayPal) Name() string { return "PayPal" }

func (p *PayPal) Process(ctx context.Context, amount decimal.Decimal) bool {
	if ctx.Err() != nil {
		return false
	}
	return amount.Sign() > 0
}

func (p *PayPal) Refund(ctx context.Context, amount decimal.Decimal) bool {
	if ctx.Err() != nil {
		return false
	}
	return amount.Sign() > 0
}

func (p *PayPal) Email() string { return p.email }

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at != strings.LastIndex(email, "@") {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
