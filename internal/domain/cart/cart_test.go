package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/candyshop/internal/domain/catalog"
	"github.com/Zhima-Mochi/candyshop/internal/domain/order"
)

type approvingMethod struct{}

func (approvingMethod) Name() string                                      { return "test" }
func (approvingMethod) Process(_ context.Context, _ decimal.Decimal) bool { return true }
func (approvingMethod) Refund(_ context.Context, _ decimal.Decimal) bool  { return true }

func gummyBear(t *testing.T) *catalog.Item {
	t.Helper()
	item, err := catalog.NewItem("candy-001", "GummyBear", decimal.RequireFromString("2.50"), 10, "strawberry")
	require.NoError(t, err)
	return item
}

func chocoBar(t *testing.T) *catalog.Item {
	t.Helper()
	item, err := catalog.NewItem("candy-002", "ChocoBar", decimal.RequireFromString("3.25"), 8, "dark chocolate")
	require.NoError(t, err)
	return item
}

func TestCart_AddItemMergesLines(t *testing.T) {
	c := New("cust-1", "Keanu")

	require.NoError(t, c.AddItem(gummyBear(t), 2))
	require.NoError(t, c.AddItem(gummyBear(t), 3))

	lines := c.Lines()
	require.Len(t, lines, 1, "same item must merge into one line")
	assert.Equal(t, 5, lines[0].Quantity)
	assert.True(t, lines[0].Subtotal().Equal(decimal.RequireFromString("12.50")))
}

func TestCart_AddItemRejectsNonPositiveQuantity(t *testing.T) {
	c := New("cust-1", "Keanu")
	assert.ErrorIs(t, c.AddItem(gummyBear(t), 0), ErrInvalidQuantity)
	assert.ErrorIs(t, c.AddItem(gummyBear(t), -1), ErrInvalidQuantity)
	assert.True(t, c.Empty())
}

func TestCart_Total(t *testing.T) {
	c := New("cust-1", "Keanu")
	require.NoError(t, c.AddItem(gummyBear(t), 3))
	require.NoError(t, c.AddItem(chocoBar(t), 2))

	// 2.50*3 + 3.25*2 = 14.00
	assert.True(t, c.Total().Equal(decimal.RequireFromString("14.00")))
}

func TestCart_RemoveItem(t *testing.T) {
	c := New("cust-1", "Keanu")
	require.NoError(t, c.AddItem(gummyBear(t), 1))

	assert.False(t, c.RemoveItem("Licorice"), "removing an absent item is benign")
	assert.True(t, c.RemoveItem("gummybear"), "removal matches name case-insensitively")
	assert.True(t, c.Empty())
}

func TestCart_CheckoutFreezesOrderAndClearsCart(t *testing.T) {
	c := New("cust-1", "Keanu")
	item := gummyBear(t)
	require.NoError(t, c.AddItem(item, 3))

	seq := order.NewSequence()
	o, err := c.Checkout(seq, approvingMethod{})
	require.NoError(t, err)

	assert.Equal(t, int64(1000), o.ID)
	assert.Equal(t, order.StatusPending, o.Status())
	assert.True(t, o.Total.Equal(decimal.RequireFromString("7.50")))
	assert.True(t, c.Empty(), "checkout must leave the cart empty")

	lines := o.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "candy-001", lines[0].ItemID)
	assert.Equal(t, "GummyBear", lines[0].ItemName)
	assert.Equal(t, 3, lines[0].Quantity)

	// The order keeps a snapshot: later price changes must not leak in.
	item.Price = decimal.RequireFromString("9.99")
	assert.True(t, o.Lines()[0].UnitPrice.Equal(decimal.RequireFromString("2.50")))
	assert.True(t, o.Total.Equal(decimal.RequireFromString("7.50")))
}

func TestCart_CheckoutEmptyCartFails(t *testing.T) {
	c := New("cust-1", "Keanu")
	_, err := c.Checkout(order.NewSequence(), approvingMethod{})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCart_SequentialCheckoutsGetIncreasingIDs(t *testing.T) {
	seq := order.NewSequence()

	first := New("cust-1", "Keanu")
	require.NoError(t, first.AddItem(gummyBear(t), 1))
	second := New("cust-2", "Trinity")
	require.NoError(t, second.AddItem(chocoBar(t), 1))

	a, err := first.Checkout(seq, approvingMethod{})
	require.NoError(t, err)
	b, err := second.Checkout(seq, approvingMethod{})
	require.NoError(t, err)

	assert.Less(t, a.ID, b.ID)
}
