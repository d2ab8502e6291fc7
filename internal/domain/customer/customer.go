package customer

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Zhima-Mochi/candyshop/internal/domain/cart"
	"github.com/Zhima-Mochi/candyshop/internal/domain/catalog"
	"github.com/Zhima-Mochi/candyshop/internal/domain/order"
	"github.com/Zhima-Mochi/candyshop/internal/domain/payment"
)

var ErrNoCart = errors.New("customer: no cart to check out")

// Identity is the shared identity record. The shopper capability (Customer)
// and the inventory-manager capability embed it instead of inheriting from
// each other.
type Identity struct {
	ID    string
	Name  string
	Email string
}

func NewIdentity(name, email string) Identity {
	return Identity{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
	}
}

// MaskedEmail hides the local part for display, keeping the first rune.
func (id Identity) MaskedEmail() string {
	at := strings.Index(id.Email, "@")
	if at < 1 {
		return id.Email
	}
	return id.Email[:1] + "***@" + id.Email[at+1:]
}

// Customer owns at most one cart, created lazily on first add, and its
// order history. Authentication is a plain pass/fail check.
type Customer struct {
	Identity

	password string
	cart     *cart.Cart
	orders   []*order.Order
}

func New(name, email, password string) *Customer {
	return &Customer{
		Identity: NewIdentity(name, email),
		password: password,
	}
}

func (c *Customer) Login(email, password string) bool {
	return c.Email == email && c.password == password
}

func (c *Customer) UpdatePassword(old, updated string) bool {
	if c.password != old {
		return false
	}
	c.password = updated
	return true
}

// Cart returns the customer's cart, or nil when none has been created yet.
func (c *Customer) Cart() *cart.Cart {
	return c.cart
}

func (c *Customer) AddToCart(item *catalog.Item, quantity int) error {
	if c.cart == nil {
		c.cart = cart.New(c.ID, c.Name)
	}
	return c.cart.AddItem(item, quantity)
}

// Checkout converts the cart into a pending order and records it in the
// customer's history. The cart is cleared, not destroyed.
func (c *Customer) Checkout(seq *order.Sequence, method payment.Method) (*order.Order, error) {
	if c.cart == nil {
		return nil, ErrNoCart
	}
	entity, err := c.cart.Checkout(seq, method)
	if err != nil {
		return nil, err
	}
	c.orders = append(c.orders, entity)
	return entity, nil
}

// Orders returns a copy of the order history.
func (c *Customer) Orders() []*order.Order {
	return append([]*order.Order(nil), c.orders...)
}
