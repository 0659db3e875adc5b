package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"techaura/gatekeeper/pkg/order"
)

// MemoryRepository implements order.Repository with an in-process map.
// All data is lost when the process exits.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[string]*order.Order),
	}
}

// Save inserts or updates an order keyed by order number.
func (m *MemoryRepository) Save(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order cannot be nil")
	}
	if o.Number == "" {
		return fmt.Errorf("order number cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *o
	cp.History = append([]order.Transition(nil), o.History...)
	m.orders[o.Number] = &cp
	return nil
}

// Find returns the order with the given number, or nil when absent.
func (m *MemoryRepository) Find(ctx context.Context, number string) (*order.Order, error) {
	if number == "" {
		return nil, fmt.Errorf("order number cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[number]
	if !ok {
		return nil, nil
	}
	cp := *o
	cp.History = append([]order.Transition(nil), o.History...)
	return &cp, nil
}

// FindByPhone returns all orders for a phone, newest first.
func (m *MemoryRepository) FindByPhone(ctx context.Context, phone string) ([]*order.Order, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*order.Order
	for _, o := range m.orders {
		if o.Phone == phone {
			cp := *o
			cp.History = append([]order.Transition(nil), o.History...)
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Size returns the number of stored orders. Useful for tests.
func (m *MemoryRepository) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

// Close is a no-op for the memory repository.
func (m *MemoryRepository) Close() error {
	return nil
}
