package insights

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/graindesk/grainbroker/internal/domain"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleOrders() []domain.Order {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	order := func(req, sup, cost string) domain.Order {
		return domain.Order{
			OrderDate:       base,
			PurchaseOrderID: uuid.New(),
			CustomerID:      uuid.New(),
			RequestedTons:   dec(req),
			SuppliedTons:    dec(sup),
			DeliveryCost:    dec(cost),
		}
	}
	return []domain.Order{
		order("10.50", "7.25", "120.00"),
		order("20.00", "20.00", "80.00"),
		order("0", "5.00", "200.00"),
		order("8.00", "4.00", "100.00"),
	}
}

func TestComputeBaseline(t *testing.T) {
	baseline := computeBaseline(sampleOrders())

	if got := baseline.TotalRequestedTons.StringFixed(2); got != "38.50" {
		t.Fatalf("expected total requested 38.50, got %s", got)
	}
	if got := baseline.TotalSuppliedTons.StringFixed(2); got != "36.25" {
		t.Fatalf("expected total supplied 36.25, got %s", got)
	}

	// Fill rates: 0.690476..., 1, 0 (requested is zero), 0.5 -> mean 0.547619...
	if got := baseline.AvgFillRate.StringFixed(6); got != "0.547619" {
		t.Fatalf("expected avg fill rate 0.547619, got %s", got)
	}
	if got := baseline.AvgDeliveryCost.StringFixed(2); got != "125.00" {
		t.Fatalf("expected avg delivery cost 125.00, got %s", got)
	}
	// Sorted costs 80, 100, 120, 200: even count averages the middle pair.
	if got := baseline.MedianDeliveryCost.StringFixed(2); got != "110.00" {
		t.Fatalf("expected median delivery cost 110.00, got %s", got)
	}
}

func TestComputeBaselineOddMedian(t *testing.T) {
	orders := sampleOrders()[:3]
	baseline := computeBaseline(orders)
	// Sorted costs 80, 120, 200.
	if got := baseline.MedianDeliveryCost.StringFixed(2); got != "120.00" {
		t.Fatalf("expected median 120.00, got %s", got)
	}
}

func TestComputeBaselineEmpty(t *testing.T) {
	baseline := computeBaseline(nil)
	if !baseline.TotalRequestedTons.IsZero() || !baseline.MedianDeliveryCost.IsZero() {
		t.Fatalf("expected zero baseline, got %+v", baseline)
	}
}

func TestAnalyzeLatestFallsBackWhenAnalyzerFails(t *testing.T) {
	source := &stubSource{orders: sampleOrders()}
	analyzer := &stubAnalyzer{err: errors.New("upstream 503")}
	service := NewService(source, analyzer, testLogger())

	result, err := service.AnalyzeLatest(context.Background())
	if err != nil {
		t.Fatalf("expected fallback, got error: %v", err)
	}
	if result.Summary != unavailableSummary {
		t.Fatalf("unexpected summary %q", result.Summary)
	}
	if got := result.MedianDeliveryCost.StringFixed(2); got != "110.00" {
		t.Fatalf("expected baseline median, got %s", got)
	}
	if source.requested != recordLimit {
		t.Fatalf("expected snapshot of %d records, requested %d", recordLimit, source.requested)
	}
}

func TestAnalyzeLatestWithoutAnalyzer(t *testing.T) {
	service := NewService(&stubSource{orders: sampleOrders()}, nil, testLogger())

	result, err := service.AnalyzeLatest(context.Background())
	if err != nil {
		t.Fatalf("analyze returned error: %v", err)
	}
	if result.Summary != unavailableSummary {
		t.Fatalf("unexpected summary %q", result.Summary)
	}
}

func TestAnalyzeLatestBackfillsOmittedFields(t *testing.T) {
	source := &stubSource{orders: sampleOrders()}
	analyzer := &stubAnalyzer{
		result: domain.OrderInsights{
			Summary:         "Fill rates trending down.",
			KeyFindings:     []string{"two customers drive most volume"},
			AvgDeliveryCost: dec("130.00"),
		},
	}
	service := NewService(source, analyzer, testLogger())

	result, err := service.AnalyzeLatest(context.Background())
	if err != nil {
		t.Fatalf("analyze returned error: %v", err)
	}

	if result.Summary != "Fill rates trending down." {
		t.Fatalf("collaborator summary overwritten: %q", result.Summary)
	}
	if got := result.AvgDeliveryCost.StringFixed(2); got != "130.00" {
		t.Fatalf("collaborator value overwritten: %s", got)
	}
	// Omitted numbers come from the baseline.
	if got := result.TotalRequestedTons.StringFixed(2); got != "38.50" {
		t.Fatalf("expected baseline backfill, got %s", got)
	}
	if got := result.MedianDeliveryCost.StringFixed(2); got != "110.00" {
		t.Fatalf("expected baseline backfill, got %s", got)
	}
}

func TestAnalyzeLatestSourceErrorPropagates(t *testing.T) {
	service := NewService(&stubSource{err: errors.New("db down")}, nil, testLogger())

	if _, err := service.AnalyzeLatest(context.Background()); err == nil {
		t.Fatalf("expected source error to propagate")
	}
}

type stubSource struct {
	orders    []domain.Order
	err       error
	requested int
}

func (s *stubSource) Latest(ctx context.Context, n int) ([]domain.Order, error) {
	s.requested = n
	if s.err != nil {
		return nil, s.err
	}
	return s.orders, nil
}

type stubAnalyzer struct {
	result domain.OrderInsights
	err    error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, orders []domain.Order) (domain.OrderInsights, error) {
	if s.err != nil {
		return domain.OrderInsights{}, s.err
	}
	return s.result, nil
}
