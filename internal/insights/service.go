package insights

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/graindesk/grainbroker/internal/domain"
)

// recordLimit bounds the snapshot handed to the analytics collaborator.
const recordLimit = 200

const unavailableSummary = "AI analysis unavailable. Returning baseline metrics only."

// Analyzer is the external analytics collaborator. Implementations receive a
// read-only snapshot of recent orders and return a summary; any failure makes
// the caller fall back to locally computed baseline metrics.
type Analyzer interface {
	Analyze(ctx context.Context, orders []domain.Order) (domain.OrderInsights, error)
}

// OrderSource is the slice of the storage boundary the insights path needs.
type OrderSource interface {
	Latest(ctx context.Context, n int) ([]domain.Order, error)
}

// Service produces insights over the most recent orders.
type Service struct {
	source   OrderSource
	analyzer Analyzer
	log      *logrus.Logger
}

// NewService creates an insights service. analyzer may be nil, in which case
// only baseline metrics are returned.
func NewService(source OrderSource, analyzer Analyzer, log *logrus.Logger) *Service {
	return &Service{source: source, analyzer: analyzer, log: log}
}

// AnalyzeLatest summarizes the most recent orders. The collaborator output is
// merged into the locally computed baseline field by field, so numbers the
// collaborator omits are backfilled rather than reported as zero.
func (s *Service) AnalyzeLatest(ctx context.Context) (domain.OrderInsights, error) {
	orders, err := s.source.Latest(ctx, recordLimit)
	if err != nil {
		return domain.OrderInsights{}, fmt.Errorf("failed to load recent orders: %w", err)
	}

	baseline := computeBaseline(orders)
	if s.analyzer == nil {
		baseline.Summary = unavailableSummary
		return baseline, nil
	}

	analyzed, err := s.analyzer.Analyze(ctx, orders)
	if err != nil {
		s.log.WithError(err).Warn("analytics collaborator unavailable, returning baseline")
		baseline.Summary = unavailableSummary
		return baseline, nil
	}

	return merge(analyzed, baseline), nil
}

// merge backfills zero numeric fields and a blank summary from the baseline.
func merge(analyzed, baseline domain.OrderInsights) domain.OrderInsights {
	if analyzed.TotalRequestedTons.IsZero() {
		analyzed.TotalRequestedTons = baseline.TotalRequestedTons
	}
	if analyzed.TotalSuppliedTons.IsZero() {
		analyzed.TotalSuppliedTons = baseline.TotalSuppliedTons
	}
	if analyzed.AvgFillRate.IsZero() {
		analyzed.AvgFillRate = baseline.AvgFillRate
	}
	if analyzed.AvgDeliveryCost.IsZero() {
		analyzed.AvgDeliveryCost = baseline.AvgDeliveryCost
	}
	if analyzed.MedianDeliveryCost.IsZero() {
		analyzed.MedianDeliveryCost = baseline.MedianDeliveryCost
	}
	if analyzed.Summary == "" {
		analyzed.Summary = "Latest orders analyzed. See key findings below."
	}
	if analyzed.KeyFindings == nil {
		analyzed.KeyFindings = []string{}
	}
	return analyzed
}

// computeBaseline derives summary statistics locally: totals, mean fill rate,
// and mean plus standard median of the sorted delivery costs.
func computeBaseline(orders []domain.Order) domain.OrderInsights {
	baseline := domain.OrderInsights{KeyFindings: []string{}}
	if len(orders) == 0 {
		return baseline
	}

	count := decimal.NewFromInt(int64(len(orders)))
	var totalFill, totalCost decimal.Decimal
	costs := make([]decimal.Decimal, len(orders))

	for i, order := range orders {
		baseline.TotalRequestedTons = baseline.TotalRequestedTons.Add(order.RequestedTons)
		baseline.TotalSuppliedTons = baseline.TotalSuppliedTons.Add(order.SuppliedTons)
		totalFill = totalFill.Add(order.FillRate())
		totalCost = totalCost.Add(order.DeliveryCost)
		costs[i] = order.DeliveryCost
	}

	sort.Slice(costs, func(i, j int) bool { return costs[i].LessThan(costs[j]) })

	baseline.AvgFillRate = totalFill.Div(count)
	baseline.AvgDeliveryCost = totalCost.Div(count)

	mid := len(costs) / 2
	if len(costs)%2 == 0 {
		baseline.MedianDeliveryCost = costs[mid-1].Add(costs[mid]).Div(decimal.NewFromInt(2))
	} else {
		baseline.MedianDeliveryCost = costs[mid]
	}
	return baseline
}
