package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/graindesk/grainbroker/internal/domain"
	"github.com/graindesk/grainbroker/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Service is the read side over stored orders.
type Service struct {
	repo repository.OrderRepository
	log  *logrus.Logger
}

// NewService creates a new order query service.
func NewService(repo repository.OrderRepository, log *logrus.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ListParams describes one listing request before clamping.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	From     *time.Time
	To       *time.Time
}

// List returns one page of matching orders, always ordered by order date
// descending with id descending on ties. Page clamps to >= 1 and PageSize
// into [1, 200]; Total counts every match before pagination.
func (s *Service) List(ctx context.Context, params ListParams) (domain.PagedResult[domain.Order], error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	filter := domain.OrderFilter{
		Search: strings.TrimSpace(params.Search),
		From:   truncateToDay(params.From),
		To:     truncateToDay(params.To),
	}

	items, total, err := s.repo.List(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return domain.PagedResult[domain.Order]{}, fmt.Errorf("failed to list orders: %w", err)
	}

	return domain.PagedResult[domain.Order]{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Items:    items,
	}, nil
}

// Get retrieves one order, or domain.ErrOrderNotFound.
func (s *Service) Get(ctx context.Context, id int64) (domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes an order and reports whether it existed.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	existed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if existed {
		s.log.WithField("id", id).Info("order deleted")
	}
	return existed, nil
}

func truncateToDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return &day
}
