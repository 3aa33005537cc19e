// Package cart holds the per-session shopping cart.
package cart

import (
	"sync"

	"pharmago/internal/model"

	"github.com/shopspring/decimal"
)

// Store is an in-memory cart keyed by (product, pharmacy).
// Lines keep their insertion order. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	items []model.CartItem
	index map[model.CartKey]int
}

// NewStore creates an empty cart.
func NewStore() *Store {
	return &Store{
		index: make(map[model.CartKey]int),
	}
}

// Add puts one unit of item into the cart. An existing line for the same
// product and pharmacy has its quantity incremented; otherwise a new line
// with quantity 1 is appended. The quantity carried by item is ignored.
func (s *Store) Add(item model.CartItem) model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := item.Key()
	if i, exists := s.index[key]; exists {
		s.items[i].Quantity++
		return s.items[i]
	}

	item.Quantity = 1
	s.index[key] = len(s.items)
	s.items = append(s.items, item)
	return item
}

// Remove deletes the line for key.
func (s *Store) Remove(key model.CartKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, exists := s.index[key]
	if !exists {
		return model.ErrCartItemNotFound
	}
	s.removeAt(i)
	return nil
}

// SetQuantity sets the quantity of the line for key. A quantity of zero or
// less removes the line.
func (s *Store) SetQuantity(key model.CartKey, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, exists := s.index[key]
	if !exists {
		return model.ErrCartItemNotFound
	}

	if quantity <= 0 {
		s.removeAt(i)
		return nil
	}

	s.items[i].Quantity = quantity
	return nil
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.index = make(map[model.CartKey]int)
}

// Get returns the line for key.
func (s *Store) Get(key model.CartKey) (model.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, exists := s.index[key]
	if !exists {
		return model.CartItem{}, false
	}
	return s.items[i], true
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []model.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.CartItem, len(s.items))
	copy(items, s.items)
	return items
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// TotalItems returns the sum of all quantities.
func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice returns the sum of unit price times quantity over all lines.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Groups splits the cart by pharmacy, in the order pharmacies were first added.
func (s *Store) Groups() []model.PharmacyGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []model.PharmacyGroup
	position := make(map[string]int)

	for _, item := range s.items {
		i, exists := position[item.PharmacyID]
		if !exists {
			i = len(groups)
			position[item.PharmacyID] = i
			groups = append(groups, model.PharmacyGroup{
				PharmacyID:   item.PharmacyID,
				PharmacyName: item.PharmacyName,
				Subtotal:     decimal.Zero,
			})
		}
		groups[i].Items = append(groups[i].Items, item)
		groups[i].Subtotal = groups[i].Subtotal.Add(item.LineTotal())
	}

	return groups
}

// Snapshot returns the lines and total under a single lock.
func (s *Store) Snapshot() ([]model.CartItem, decimal.Decimal) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.CartItem, len(s.items))
	copy(items, s.items)

	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return items, total
}

// removeAt deletes line i and reindexes the lines after it. Caller holds the lock.
func (s *Store) removeAt(i int) {
	delete(s.index, s.items[i].Key())
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].Key()] = j
	}
}
