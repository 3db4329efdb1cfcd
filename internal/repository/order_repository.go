package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/graindesk/grainbroker/internal/domain"
)

const orderColumns = `id, order_date, purchase_order_id, customer_id, customer_location,
	requested_tons::text, supplied_tons::text, fulfilled_by_id, fulfilled_by_location,
	delivery_cost::text`

// orderRepository implements OrderRepository over Postgres.
type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new Postgres-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

// BulkInsert writes every order inside one transaction. Either the whole
// batch commits or none of it does.
func (r *orderRepository) BulkInsert(ctx context.Context, orders []domain.Order) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, order := range orders {
		batch.Queue(
			`INSERT INTO grain_orders (
				order_date, purchase_order_id, customer_id, customer_location,
				requested_tons, supplied_tons, fulfilled_by_id, fulfilled_by_location,
				delivery_cost
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			order.OrderDate,
			order.PurchaseOrderID,
			order.CustomerID,
			order.CustomerLocation,
			order.RequestedTons.String(),
			order.SuppliedTons.String(),
			order.FulfilledByID,
			order.FulfilledByLocation,
			order.DeliveryCost.String(),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range orders {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("failed to insert order: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to flush order batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit order batch: %w", err)
	}
	return len(orders), nil
}

// GetByID retrieves an order by ID.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM grain_orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// List retrieves one page of matching orders plus the total match count.
// Ordering is always order date descending, id descending on ties.
func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter, limit, offset int) ([]domain.Order, int, error) {
	where, args := buildOrderFilter(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM grain_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM grain_orders%s ORDER BY order_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)+1, len(args)+2,
	)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read order rows: %w", err)
	}

	return orders, total, nil
}

// Delete removes an order and reports whether it existed.
func (r *orderRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM grain_orders WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete order: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Latest returns the n most recent orders in the same ordering the list path
// uses.
func (r *orderRepository) Latest(ctx context.Context, n int) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM grain_orders ORDER BY order_date DESC, id DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order rows: %w", err)
	}
	return orders, nil
}

// buildOrderFilter renders the WHERE clause shared by the count and page
// queries. Substring matching is deliberately case-sensitive.
func buildOrderFilter(filter domain.OrderFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			`(purchase_order_id::text LIKE $%d
			OR customer_id::text LIKE $%d
			OR COALESCE(customer_location, '') LIKE $%d
			OR COALESCE(fulfilled_by_id::text, '') LIKE $%d
			OR COALESCE(fulfilled_by_location, '') LIKE $%d)`,
			n, n, n, n, n,
		))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("order_date >= $%d", len(args)))
	}
	if filter.To != nil {
		// Upper bound is the start of the next day so the To day is
		// inclusive despite time-of-day components.
		args = append(args, filter.To.AddDate(0, 0, 1))
		clauses = append(clauses, fmt.Sprintf("order_date < $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		order                     domain.Order
		requested, supplied, cost string
		fulfilledBy               *uuid.UUID
	)
	err := row.Scan(
		&order.ID,
		&order.OrderDate,
		&order.PurchaseOrderID,
		&order.CustomerID,
		&order.CustomerLocation,
		&requested,
		&supplied,
		&fulfilledBy,
		&order.FulfilledByLocation,
		&cost,
	)
	if err != nil {
		return domain.Order{}, err
	}
	order.FulfilledByID = fulfilledBy

	if order.RequestedTons, err = decimal.NewFromString(requested); err != nil {
		return domain.Order{}, fmt.Errorf("invalid requested_tons for order %d: %w", order.ID, err)
	}
	if order.SuppliedTons, err = decimal.NewFromString(supplied); err != nil {
		return domain.Order{}, fmt.Errorf("invalid supplied_tons for order %d: %w", order.ID, err)
	}
	if order.DeliveryCost, err = decimal.NewFromString(cost); err != nil {
		return domain.Order{}, fmt.Errorf("invalid delivery_cost for order %d: %w", order.ID, err)
	}
	return order, nil
}
