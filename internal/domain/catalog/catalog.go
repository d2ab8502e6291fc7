package catalog

import (
	"strings"
	"sync"
)

// Catalog owns the set of stocked items, unique by id, in insertion order.
// Reads and writes are serialized so stock mutations are safe when workers
// and HTTP handlers touch the same item.
type Catalog struct {
	mu    sync.RWMutex
	items []*Item
	byID  map[string]*Item
}

func New() *Catalog {
	return &Catalog{
		byID: make(map[string]*Item),
	}
}

func (c *Catalog) Add(item *Item) error {
	if item == nil {
		return ErrInvalidItem
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[item.ID]; exists {
		return ErrConflict
	}
	c.items = append(c.items, item)
	c.byID[item.ID] = item
	return nil
}

func (c *Catalog) Get(id string) (*Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return item, nil
}

// Search returns items whose name contains the keyword, case-insensitively,
// preserving catalog order. May return an empty slice.
func (c *Catalog) Search(keyword string) []*Item {
	needle := strings.ToLower(keyword)

	c.mu.RLock()
	defer c.mu.RUnlock()

	matches := make([]*Item, 0)
	for _, item := range c.items {
		if strings.Contains(strings.ToLower(item.Name), needle) {
			matches = append(matches, item)
		}
	}
	return matches
}

// Items returns a snapshot of the item list for reporting.
func (c *Catalog) Items() []*Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]*Item(nil), c.items...)
}

// ReduceStock deducts stock for a single item under the catalog lock.
func (c *Catalog) ReduceStock(id string, amount int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.byID[id]
	if !ok {
		return ErrNotFound
	}
	return item.ReduceStock(amount)
}

// Restock increments stock for a single item under the catalog lock.
func (c *Catalog) Restock(id string, amount int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.byID[id]
	if !ok {
		return 0, ErrNotFound
	}
	if err := item.Restock(amount); err != nil {
		return 0, err
	}
	return item.Quantity, nil
}
