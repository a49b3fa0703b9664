package cart

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"frameshop/domain"
	"frameshop/internal/pricing"
)

var (
	// ErrNotFound is returned when a cart cannot be found in the store.
	ErrNotFound = errors.New("cart not found")
	// ErrItemNotFound is returned when a cart has no item with the given id.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrInvalidQuantity is returned for a quantity above domain.MaxQuantity.
	ErrInvalidQuantity = domain.ErrInvalidQuantity
)

// Cart checkout items collected from one or more customizer sessions.
type Cart struct {
	ID        string                `json:"id"`
	Items     []domain.CheckoutItem `json:"items"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Subtotal sum of line totals, before promotions and shipping.
func (c *Cart) Subtotal() int {
	return pricing.Subtotal(c.Items)
}

// Store defines the operations on carts. MemoryStore implements it.
type Store interface {
	// Create makes an empty cart and returns it.
	Create() *Cart

	// Get returns a copy of the cart. Returns ErrNotFound if missing.
	Get(cartID string) (*Cart, error)

	// AddItems appends items; an item with the same configuration as one
	// already in the cart increases that item's quantity instead.
	AddItems(cartID string, items ...domain.CheckoutItem) (*Cart, error)

	// UpdateQuantity sets the quantity of an item, a quantity below one removes it
	// and one above domain.MaxQuantity is rejected.
	UpdateQuantity(cartID, itemID string, quantity int) (*Cart, error)

	// Remove deletes one item.
	Remove(cartID, itemID string) (*Cart, error)

	// Clear removes all items but keeps the cart.
	Clear(cartID string) error

	// Delete forgets the cart.
	Delete(cartID string) error
}

// MemoryStore is an in-memory implementation of Store.
// It is safe for concurrent use via internal RWMutex.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]*Cart
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts: make(map[string]*Cart),
		now:   time.Now,
	}
}

func (s *MemoryStore) Create() *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := &Cart{
		ID:        uuid.NewString(),
		Items:     []domain.CheckoutItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.carts[c.ID] = c
	return clone(c)
}

func (s *MemoryStore) Get(cartID string) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[cartID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

func (s *MemoryStore) AddItems(cartID string, items ...domain.CheckoutItem) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[cartID]
	if !ok {
		return nil, ErrNotFound
	}

next:
	for _, item := range items {
		item.Quantity = domain.ClampQuantity(item.Quantity)
		// same frame configured twice: bump the quantity of the existing line
		for i, existing := range c.Items {
			if existing.SameConfiguration(item) {
				c.Items[i].Quantity = domain.ClampQuantity(existing.Quantity + item.Quantity)
				c.Items[i].LineTotal = pricing.LineTotal(c.Items[i].UnitPrice, c.Items[i].Quantity)
				continue next
			}
		}
		item.ID = uuid.NewString()
		item.LineTotal = pricing.LineTotal(item.UnitPrice, item.Quantity)
		c.Items = append(c.Items, item)
	}
	c.UpdatedAt = s.now()
	return clone(c), nil
}

func (s *MemoryStore) UpdateQuantity(cartID, itemID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return s.Remove(cartID, itemID)
	}
	if quantity > domain.MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[cartID]
	if !ok {
		return nil, ErrNotFound
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			c.Items[i].LineTotal = pricing.LineTotal(c.Items[i].UnitPrice, quantity)
			c.UpdatedAt = s.now()
			return clone(c), nil
		}
	}
	return nil, ErrItemNotFound
}

func (s *MemoryStore) Remove(cartID, itemID string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[cartID]
	if !ok {
		return nil, ErrNotFound
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = s.now()
			return clone(c), nil
		}
	}
	return nil, ErrItemNotFound
}

func (s *MemoryStore) Clear(cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[cartID]
	if !ok {
		return ErrNotFound
	}
	c.Items = []domain.CheckoutItem{}
	c.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) Delete(cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[cartID]; !ok {
		return ErrNotFound
	}
	delete(s.carts, cartID)
	return nil
}

// clone keeps callers from mutating the stored cart.
func clone(c *Cart) *Cart {
	cp := *c
	cp.Items = make([]domain.CheckoutItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}
