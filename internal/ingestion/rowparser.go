package ingestion

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/graindesk/grainbroker/internal/domain"
)

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006/01/02",
	"01/02/2006",
	"01/02/2006 15:04",
	"1/2/2006",
	"1/2/2006 15:04",
}

// parseRow turns one row, keyed by trimmed header name, into either a valid
// order or the list of rules it violates. Validation runs in two phases:
// parse and presence checks first, then identifier shape and sign checks only
// when every field parsed cleanly, so a blank purchase order is reported as
// missing rather than as a malformed GUID and sign checks never run on
// garbage values. All violations for the row are collected, not just the
// first one.
func parseRow(row map[string]string) (domain.Order, []string) {
	rawOrderDate := row[colOrderDate]
	rawPurchaseOrder := row[colPurchaseOrder]
	rawCustomerID := row[colCustomerID]
	rawRequested := row[colRequestedTons]
	rawSupplied := row[colSuppliedTons]
	rawCost := row[colDeliveryCost]

	var reasons []string

	orderDate, err := parseTimestamp(rawOrderDate)
	if err != nil {
		reasons = append(reasons, "Order Date invalid")
	}
	if strings.TrimSpace(rawPurchaseOrder) == "" {
		reasons = append(reasons, "Purchase Order required")
	}
	if strings.TrimSpace(rawCustomerID) == "" {
		reasons = append(reasons, "Customer ID required")
	}
	requested, err := parseDecimal(rawRequested)
	if err != nil {
		reasons = append(reasons, "Order Req Amt (Ton) invalid")
	}
	supplied, err := parseDecimal(rawSupplied)
	if err != nil {
		reasons = append(reasons, "Supplied Amt (Ton) invalid")
	}
	cost, err := parseDecimal(rawCost)
	if err != nil {
		reasons = append(reasons, "Cost Of Delivery ($) invalid")
	}

	var purchaseOrderID, customerID uuid.UUID
	var fulfilledByID *uuid.UUID

	if len(reasons) == 0 {
		purchaseOrderID, err = uuid.Parse(strings.TrimSpace(rawPurchaseOrder))
		if err != nil {
			reasons = append(reasons, "Purchase Order must be a valid GUID")
		}
		customerID, err = uuid.Parse(strings.TrimSpace(rawCustomerID))
		if err != nil {
			reasons = append(reasons, "Customer ID must be a valid GUID")
		}
		if rawFulfilled := row[colFulfilledByID]; strings.TrimSpace(rawFulfilled) != "" {
			parsed, err := uuid.Parse(strings.TrimSpace(rawFulfilled))
			if err != nil {
				reasons = append(reasons, "Fullfilled By ID must be a valid GUID")
			} else {
				fulfilledByID = &parsed
			}
		}

		if requested.IsNegative() {
			reasons = append(reasons, "RequestedTons cannot be negative")
		}
		if supplied.IsNegative() {
			reasons = append(reasons, "SuppliedTons cannot be negative")
		}
		if cost.IsNegative() {
			reasons = append(reasons, "DeliveryCost cannot be negative")
		}
	}

	if len(reasons) > 0 {
		return domain.Order{}, reasons
	}

	return domain.Order{
		OrderDate:           orderDate,
		PurchaseOrderID:     purchaseOrderID,
		CustomerID:          customerID,
		CustomerLocation:    optionalText(row[colCustomerLocation]),
		RequestedTons:       requested,
		SuppliedTons:        supplied,
		FulfilledByID:       fulfilledByID,
		FulfilledByLocation: optionalText(row[colFulfilledByLocation]),
		DeliveryCost:        cost,
	}, nil
}

// rawFields snapshots every contract column of the row for failure
// diagnostics, values exactly as read.
func rawFields(row map[string]string) map[string]string {
	raw := make(map[string]string, len(requiredColumns))
	for _, name := range requiredColumns {
		raw[name] = row[name]
	}
	return raw
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var err error
	for _, layout := range timeLayouts {
		var ts time.Time
		if ts, err = time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}

// parseDecimal accepts invariant-culture numbers, including thousands
// separators as the source spreadsheets sometimes carry them.
func parseDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	return decimal.NewFromString(raw)
}

// optionalText trims free-text fields and collapses blanks to absent.
func optionalText(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
