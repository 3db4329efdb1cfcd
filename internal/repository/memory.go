package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/graindesk/grainbroker/internal/domain"
)

// MemoryOrderRepository is an in-process OrderRepository with the same
// filtering, ordering and pagination semantics as the Postgres
// implementation. It backs the test suite and lets the server run without a
// database.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	nextID int64
	orders map[int64]domain.Order
}

// NewMemoryOrderRepository creates an empty in-memory repository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{nextID: 1, orders: make(map[int64]domain.Order)}
}

// BulkInsert assigns IDs in arrival order and stores the whole batch.
func (m *MemoryOrderRepository) BulkInsert(ctx context.Context, orders []domain.Order) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range orders {
		order.ID = m.nextID
		m.nextID++
		m.orders[order.ID] = order
	}
	return len(orders), nil
}

// GetByID retrieves an order by ID.
func (m *MemoryOrderRepository) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// List returns one page of matching orders plus the total match count.
func (m *MemoryOrderRepository) List(ctx context.Context, filter domain.OrderFilter, limit, offset int) ([]domain.Order, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	matched := m.matching(filter)
	total := len(matched)

	if offset >= len(matched) {
		return []domain.Order{}, total, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// Delete removes an order and reports whether it existed.
func (m *MemoryOrderRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return false, nil
	}
	delete(m.orders, id)
	return true, nil
}

// Latest returns the n most recent orders.
func (m *MemoryOrderRepository) Latest(ctx context.Context, n int) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched := m.matching(domain.OrderFilter{})
	if n < len(matched) {
		matched = matched[:n]
	}
	return matched, nil
}

// matching snapshots every matching order, newest first, ties broken by id
// descending.
func (m *MemoryOrderRepository) matching(filter domain.OrderFilter) []domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]domain.Order, 0, len(m.orders))
	for _, order := range m.orders {
		if matchesFilter(order, filter) {
			matched = append(matched, order)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].OrderDate.Equal(matched[j].OrderDate) {
			return matched[i].OrderDate.After(matched[j].OrderDate)
		}
		return matched[i].ID > matched[j].ID
	})
	return matched
}

func matchesFilter(order domain.Order, filter domain.OrderFilter) bool {
	if filter.Search != "" && !matchesSearch(order, filter.Search) {
		return false
	}
	if filter.From != nil && order.OrderDate.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !order.OrderDate.Before(filter.To.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// matchesSearch applies the case-sensitive substring filter across the
// identifier and location fields.
func matchesSearch(order domain.Order, term string) bool {
	fields := []string{
		order.PurchaseOrderID.String(),
		order.CustomerID.String(),
	}
	if order.CustomerLocation != nil {
		fields = append(fields, *order.CustomerLocation)
	}
	if order.FulfilledByID != nil {
		fields = append(fields, order.FulfilledByID.String())
	}
	if order.FulfilledByLocation != nil {
		fields = append(fields, *order.FulfilledByLocation)
	}
	for _, field := range fields {
		if strings.Contains(field, term) {
			return true
		}
	}
	return false
}
