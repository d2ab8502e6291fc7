package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidCardNumber = errors.New("payment: card number must be 16 digits")

const cardNumberLength = 16

// CreditCard charges a card-based instrument. The number is validated once,
// at construction; processing any positive amount then succeeds.
type CreditCard struct {
	number string
	holder string
}

func NewCreditCard(number, holder string) (*CreditCard, error) {
	if !validCardNumber(number) {
		return nil, ErrInvalidCardNumber
	}
	return &CreditCard{number: number, holder: holder}, nil
}

func (c *CreditCard) Name() string { return "Credit Card" }

func (c *CreditCard) Process(ctx context.Context, amount decimal.Decimal) bool {
	if ctx.Err() != nil {
		return false
	}
	return amount.Sign() > 0
}

func (c *CreditCard) Refund(ctx context.Context, amount decimal.Decimal) bool {
	if ctx.Err() != nil {
		return false
	}
	return amount.Sign() > 0
}

// MaskedNumber keeps only the last four digits for display.
func (c *CreditCard) MaskedNumber() string {
	return "************" + c.number[cardNumberLength-4:]
}

func validCardNumber(number string) bool {
	if len(number) != cardNumberLength {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
