package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrOrderNotFound is returned when an order id does not exist in storage.
var ErrOrderNotFound = errors.New("order not found")

// Order represents one validated grain order line. Orders are created by the
// import pipeline, assigned an ID by storage on commit, and never updated in
// place afterwards.
type Order struct {
	ID                  int64           `json:"id"`
	OrderDate           time.Time       `json:"orderDate"`
	PurchaseOrderID     uuid.UUID       `json:"purchaseOrderId"`
	CustomerID          uuid.UUID       `json:"customerId"`
	CustomerLocation    *string         `json:"customerLocation,omitempty"`
	RequestedTons       decimal.Decimal `json:"requestedTons"`
	SuppliedTons        decimal.Decimal `json:"suppliedTons"`
	FulfilledByID       *uuid.UUID      `json:"fulfilledById,omitempty"`
	FulfilledByLocation *string         `json:"fulfilledByLocation,omitempty"`
	DeliveryCost        decimal.Decimal `json:"deliveryCost"`
}

// FillRate returns SuppliedTons / RequestedTons, or zero when nothing was
// requested so callers never divide by zero.
func (o Order) FillRate() decimal.Decimal {
	if o.RequestedTons.IsZero() {
		return decimal.Zero
	}
	return o.SuppliedTons.Div(o.RequestedTons)
}

// ImportFailure captures one rejected input row for operator diagnostics.
// Row is 1-based and includes the header row, so the first data row is 2.
type ImportFailure struct {
	Row    int               `json:"row"`
	Reason string            `json:"reason"`
	Raw    map[string]string `json:"raw"`
}

// ImportResult summarizes one import call. Imported + Failed always equals
// the number of data rows read from the stream.
type ImportResult struct {
	Imported int             `json:"imported"`
	Failed   int             `json:"failed"`
	Failures []ImportFailure `json:"failures"`
}
