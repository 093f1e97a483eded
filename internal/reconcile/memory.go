package reconcile

import (
	"context"
	"sync"

	"orderflow/internal/model"
)

// MemoryStore keeps order aggregates in process with the same conditional
// write semantics as the Postgres store. Used by tests and local runs.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[model.OrderKey]model.OrderAggregate
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[model.OrderKey]model.OrderAggregate)}
}

func (s *MemoryStore) Put(_ context.Context, order model.OrderAggregate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.OrderKey{OrderID: order.OrderID, ChainID: order.ChainID}
	existing, ok := s.orders[key]
	if ok {
		if existing.Status >= order.Status {
			return false, nil
		}
		order.CreatedAt = existing.CreatedAt
	}
	s.orders[key] = order
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, key model.OrderKey) (model.OrderAggregate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[key]
	return order, ok, nil
}

// Len reports stored aggregates.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}
