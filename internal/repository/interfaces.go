package repository

import (
	"context"

	"github.com/graindesk/grainbroker/internal/domain"
)

// OrderRepository defines the storage boundary for grain orders. The import
// pipeline never issues per-row writes; BulkInsert is the single
// all-or-nothing commit for one import call.
type OrderRepository interface {
	BulkInsert(ctx context.Context, orders []domain.Order) (int, error)
	GetByID(ctx context.Context, id int64) (domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter, limit, offset int) ([]domain.Order, int, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Latest(ctx context.Context, n int) ([]domain.Order, error)
}
