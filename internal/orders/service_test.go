package orders

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/graindesk/grainbroker/internal/domain"
	"github.com/graindesk/grainbroker/internal/repository"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestListClampsPageAndPageSize(t *testing.T) {
	cases := []struct {
		name       string
		page       int
		pageSize   int
		wantPage   int
		wantSize   int
		wantOffset int
	}{
		{"zero page", 0, 50, 1, 50, 0},
		{"negative page", -3, 50, 1, 50, 0},
		{"page two", 2, 50, 2, 50, 50},
		{"zero page size", 1, 0, 1, 20, 0},
		{"oversized page size", 1, 500, 1, 200, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &recordingRepo{}
			service := NewService(repo, testLogger())

			result, err := service.List(context.Background(), ListParams{Page: tc.page, PageSize: tc.pageSize})
			if err != nil {
				t.Fatalf("list returned error: %v", err)
			}
			if result.Page != tc.wantPage || result.PageSize != tc.wantSize {
				t.Fatalf("expected page %d size %d, got %d %d", tc.wantPage, tc.wantSize, result.Page, result.PageSize)
			}
			if repo.limit != tc.wantSize || repo.offset != tc.wantOffset {
				t.Fatalf("expected limit %d offset %d, got %d %d", tc.wantSize, tc.wantOffset, repo.limit, repo.offset)
			}
		})
	}
}

func TestListTrimsSearchAndTruncatesDates(t *testing.T) {
	repo := &recordingRepo{}
	service := NewService(repo, testLogger())

	from := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
	to := time.Date(2024, 5, 12, 9, 0, 0, 0, time.UTC)

	_, err := service.List(context.Background(), ListParams{
		Page:     1,
		PageSize: 20,
		Search:   "  Omaha  ",
		From:     &from,
		To:       &to,
	})
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}

	if repo.filter.Search != "Omaha" {
		t.Fatalf("expected trimmed search term, got %q", repo.filter.Search)
	}
	if !repo.filter.From.Equal(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected From truncated to day, got %s", repo.filter.From)
	}
	if !repo.filter.To.Equal(time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected To truncated to day, got %s", repo.filter.To)
	}
}

func TestGetPropagatesNotFound(t *testing.T) {
	repo := &recordingRepo{getErr: domain.ErrOrderNotFound}
	service := NewService(repo, testLogger())

	if _, err := service.Get(context.Background(), 42); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	repo := &recordingRepo{deleteExisted: true}
	service := NewService(repo, testLogger())

	existed, err := service.Delete(context.Background(), 7)
	if err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if !existed {
		t.Fatalf("expected delete to report existence")
	}
	if repo.deletedID != 7 {
		t.Fatalf("expected delete of id 7, got %d", repo.deletedID)
	}
}

type recordingRepo struct {
	filter        domain.OrderFilter
	limit         int
	offset        int
	getErr        error
	deleteExisted bool
	deletedID     int64
}

func (r *recordingRepo) BulkInsert(ctx context.Context, orders []domain.Order) (int, error) {
	return 0, errors.New("not implemented")
}

func (r *recordingRepo) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	if r.getErr != nil {
		return domain.Order{}, r.getErr
	}
	return domain.Order{ID: id}, nil
}

func (r *recordingRepo) List(ctx context.Context, filter domain.OrderFilter, limit, offset int) ([]domain.Order, int, error) {
	r.filter = filter
	r.limit = limit
	r.offset = offset
	return []domain.Order{}, 0, nil
}

func (r *recordingRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.deletedID = id
	return r.deleteExisted, nil
}

func (r *recordingRepo) Latest(ctx context.Context, n int) ([]domain.Order, error) {
	return nil, errors.New("not implemented")
}

var _ repository.OrderRepository = (*recordingRepo)(nil)
