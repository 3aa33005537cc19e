// Package order holds the orders placed during a session.
package order

import (
	"sync"

	"pharmago/internal/model"
)

// Store keeps orders in placement order. Orders are never removed;
// cancellation is a status. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	orders []model.Order
	index  map[string]int
}

// NewStore creates an empty order store.
func NewStore() *Store {
	return &Store{
		index: make(map[string]int),
	}
}

// Create appends a fully formed order. The store keeps its own copy of the
// items. It does not check the order against any cart.
func (s *Store) Create(order model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[order.ID]; exists {
		return model.ErrOrderExists
	}

	s.index[order.ID] = len(s.orders)
	s.orders = append(s.orders, order.Clone())
	return nil
}

// SetStatus overwrites the status of the order with the given ID.
func (s *Store) SetStatus(id string, status model.OrderStatus) error {
	if !status.Valid() {
		return model.ErrInvalidOrderStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, exists := s.index[id]
	if !exists {
		return model.ErrOrderNotFound
	}
	s.orders[i].Status = status
	return nil
}

// Cancel marks the order as cancelled.
func (s *Store) Cancel(id string) error {
	return s.SetStatus(id, model.OrderStatusCancelled)
}

// Get returns a copy of the order with the given ID.
func (s *Store) Get(id string) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, exists := s.index[id]
	if !exists {
		return model.Order{}, model.ErrOrderNotFound
	}
	return s.orders[i].Clone(), nil
}

// Exists reports whether an order with the given ID was created.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.index[id]
	return exists
}

// List returns copies of the orders with the given status, or all orders
// when status is empty or "all".
func (s *Store) List(status model.OrderStatus) []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if status == "" || status == "all" || o.Status == status {
			orders = append(orders, o.Clone())
		}
	}
	return orders
}

// Len returns the number of orders.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.orders)
}
