package client

import (
	"encoding/json"
	"sort"
	"sync"
)

const cartKey = "cart"

// CartItem is one line of the local cart.
type CartItem struct {
	BookID   string  `json:"book"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Cart holds line items keyed by book id, persisted independently of the
// session: it survives logout and is only emptied explicitly or after a
// successful checkout.
type Cart struct {
	storage Storage

	mu    sync.Mutex
	items map[string]CartItem
}

// NewCart loads any previously saved cart from storage.
func NewCart(storage Storage) *Cart {
	c := &Cart{storage: storage, items: make(map[string]CartItem)}
	data, err := storage.Get(cartKey)
	if err != nil || data == nil {
		return c
	}
	var items []CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		_ = storage.Delete(cartKey)
		return c
	}
	for _, item := range items {
		c.items[item.BookID] = item
	}
	return c
}

// Add puts one more unit of a book in the cart.
func (c *Cart) Add(bookID, title string, price float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[bookID]
	if !ok {
		item = CartItem{BookID: bookID, Title: title, Price: price}
	}
	item.Quantity++
	c.items[bookID] = item
	return c.persist()
}

// SetQuantity sets a line's quantity; zero or less removes the line.
func (c *Cart) SetQuantity(bookID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if quantity <= 0 {
		delete(c.items, bookID)
		return c.persist()
	}
	item, ok := c.items[bookID]
	if !ok {
		return nil
	}
	item.Quantity = quantity
	c.items[bookID] = item
	return c.persist()
}

// Remove drops a line from the cart.
func (c *Cart) Remove(bookID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, bookID)
	return c.persist()
}

// Items returns the cart lines ordered by book id.
func (c *Cart) Items() []CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]CartItem, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].BookID < items[j].BookID })
	return items
}

// Total is the sum of price times quantity over all lines.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, item := range c.items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Clear empties the cart.
func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]CartItem)
	return c.storage.Delete(cartKey)
}

// persist writes the cart lines; callers hold the lock.
func (c *Cart) persist() error {
	items := make([]CartItem, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].BookID < items[j].BookID })
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.storage.Set(cartKey, data)
}
