package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("catalog: item not found")
	ErrInvalidItem       = errors.New("catalog: item is required")
	ErrConflict          = errors.New("catalog: item id already exists")
	ErrInvalidPrice      = errors.New("catalog: price must be zero or greater")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
)

// Item is a stocked product. Quantity never goes negative; any reduction
// beyond the available quantity fails and leaves stock unchanged.
type Item struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Flavor    string
	Reviews   []string
	UpdatedAt time.Time
}

func NewItem(id, name string, price decimal.Decimal, quantity int, flavor string) (*Item, error) {
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: initial stock %d", ErrInvalidQuantity, quantity)
	}
	return &Item{
		ID:        id,
		Name:      name,
		Price:     price,
		Quantity:  quantity,
		Flavor:    flavor,
		Reviews:   []string{},
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (i *Item) IsAvailable() bool {
	return i.Quantity > 0
}

func (i *Item) ReduceStock(amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	if amount > i.Quantity {
		return fmt.Errorf("%w: want %d, have %d", ErrInsufficientStock, amount, i.Quantity)
	}
	i.Quantity -= amount
	i.touch()
	return nil
}

func (i *Item) Restock(amount int) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	i.Quantity += amount
	i.touch()
	return nil
}

func (i *Item) AddReview(text string) {
	i.Reviews = append(i.Reviews, text)
	i.touch()
}

func (i *Item) Description() string {
	return i.Flavor + " flavor"
}

func (i *Item) touch() {
	i.UpdatedAt = time.Now().UTC()
}
