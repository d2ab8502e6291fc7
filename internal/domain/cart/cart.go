package cart

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/candyshop/internal/domain/catalog"
	"github.com/Zhima-Mochi/candyshop/internal/domain/order"
	"github.com/Zhima-Mochi/candyshop/internal/domain/payment"
)

var (
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
	ErrEmptyCart       = errors.New("cart: no lines to check out")
)

// Line pairs a catalog item with a quantity. It references the item; the
// subtotal is derived from the current price until checkout freezes it.
type Line struct {
	Item     *catalog.Item
	Quantity int
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is a customer's mutable pre-order basket. It holds at most one line
// per distinct item; re-adding merges quantities. A cart is owned by exactly
// one customer and is not safe for concurrent mutation.
type Cart struct {
	ownerID   string
	ownerName string
	lines     []Line
}

func New(ownerID, ownerName string) *Cart {
	return &Cart{
		ownerID:   ownerID,
		ownerName: ownerName,
	}
}

func (c *Cart) OwnerID() string { return c.ownerID }

// AddItem appends a line or merges into an existing one for the same item.
// Stock is not checked here; availability is only enforced downstream, at
// stock deduction time.
func (c *Cart) AddItem(item *catalog.Item, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.lines {
		if c.lines[i].Item.ID == item.ID {
			c.lines[i].Quantity += quantity
			return nil
		}
	}
	c.lines = append(c.lines, Line{Item: item, Quantity: quantity})
	return nil
}

// RemoveItem drops the first line whose item name matches, case-insensitively.
// Absence is benign: it returns false instead of an error so cart editing
// stays safely retryable.
func (c *Cart) RemoveItem(name string) bool {
	for i := range c.lines {
		if strings.EqualFold(c.lines[i].Item.Name, name) {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Clear removes all lines. Idempotent.
func (c *Cart) Clear() {
	c.lines = nil
}

// Checkout snapshots the cart into a new pending order and clears the cart.
// Quantities and subtotals are frozen into order lines; later price changes
// on catalog items do not affect the order. Stock is neither validated nor
// reserved here.
func (c *Cart) Checkout(seq *order.Sequence, method payment.Method) (*order.Order, error) {
	if c.Empty() {
		return nil, ErrEmptyCart
	}

	lines := make([]order.Line, 0, len(c.lines))
	for _, l := range c.lines {
		lines = append(lines, order.Line{
			ItemID:    l.Item.ID,
			ItemName:  l.Item.Name,
			UnitPrice: l.Item.Price,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		})
	}

	entity, err := order.New(seq.Next(), c.ownerID, c.ownerName, lines, c.Total(), method)
	if err != nil {
		return nil, err
	}

	c.Clear()
	return entity, nil
}
