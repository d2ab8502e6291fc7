package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainpayment "github.com/Zhima-Mochi/candyshop/internal/domain/payment"
)

var (
	_ domainpayment.Method = (*CreditCard)(nil)
	_ domainpayment.Method = (*PayPal)(nil)
)

func TestNewCreditCard_Validation(t *testing.T) {
	for _, number := range []string{
		"",
		"1234",
		"12345678901234567",
		"123456789012345x",
		"1234-5678-9012-34",
	} {
		_, err := NewCreditCard(number, "Keanu")
		assert.ErrorIs(t, err, ErrInvalidCardNumber, "number %q", number)
	}

	card, err := NewCreditCard("4111111111111111", "Keanu")
	require.NoError(t, err)
	assert.Equal(t, "Credit Card", card.Name())
	assert.Equal(t, "************1111", card.MaskedNumber())
}

func TestCreditCard_ProcessAndRefund(t *testing.T) {
	card, err := NewCreditCard("4111111111111111", "Keanu")
	require.NoError(t, err)

	ctx := context.Background()
	assert.True(t, card.Process(ctx, decimal.RequireFromString("7.50")))
	assert.False(t, card.Process(ctx, decimal.Zero))
	assert.False(t, card.Process(ctx, decimal.NewFromInt(-1)))
	assert.True(t, card.Refund(ctx, decimal.NewFromInt(1)))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, card.Process(cancelled, decimal.NewFromInt(1)))
	assert.False(t, card.Refund(cancelled, decimal.NewFromInt(1)))
}

func TestNewPayPal_Validation(t *testing.T) {
	for _, email := range []string{
		"",
		"no-at-sign",
		"@example.com",
		"two@@example.com",
		"a@b@example.com",
		"keanu@nodot",
		"keanu@.com",
		"keanu@example.",
	} {
		_, err := NewPayPal(email)
		assert.ErrorIs(t, err, ErrInvalidAccount, "email %q", email)
	}

	account, err := NewPayPal("keanu@example.com")
	require.NoError(t, err)
	assert.Equal(t, "PayPal", account.Name())
	assert.Equal(t, "keanu@example.com", account.Email())
}

func TestPayPal_ProcessAndRefund(t *testing.T) {
	account, err := NewPayPal("keanu@example.com")
	require.NoError(t, err)

	ctx := context.Background()
	assert.True(t, account.Process(ctx, decimal.NewFromInt(5)))
	assert.False(t, account.Process(ctx, decimal.Zero))
	assert.True(t, account.Refund(ctx, decimal.NewFromInt(5)))
	assert.False(t, account.Refund(ctx, decimal.Zero))
}
