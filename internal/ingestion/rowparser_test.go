package ingestion

import (
	"strings"
	"testing"
)

const (
	poGUID        = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"
	customerGUID  = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	fulfilledGUID = "6ba7b811-9dad-11d1-80b4-00c04fd430c8"
)

func validRow() map[string]string {
	return map[string]string{
		colOrderDate:           "2024-03-15",
		colPurchaseOrder:       poGUID,
		colCustomerID:          customerGUID,
		colCustomerLocation:    " Omaha, NE ",
		colRequestedTons:       "10.50",
		colSuppliedTons:        "7.25",
		colFulfilledByID:       fulfilledGUID,
		colFulfilledByLocation: "Lincoln, NE",
		colDeliveryCost:        "120.00",
	}
}

func TestParseRowValid(t *testing.T) {
	order, reasons := parseRow(validRow())
	if len(reasons) != 0 {
		t.Fatalf("expected no reasons, got %v", reasons)
	}

	if order.PurchaseOrderID.String() != poGUID {
		t.Fatalf("unexpected purchase order id %s", order.PurchaseOrderID)
	}
	if order.CustomerLocation == nil || *order.CustomerLocation != "Omaha, NE" {
		t.Fatalf("expected trimmed customer location, got %v", order.CustomerLocation)
	}
	if order.FulfilledByID == nil || order.FulfilledByID.String() != fulfilledGUID {
		t.Fatalf("expected fulfilled-by id, got %v", order.FulfilledByID)
	}

	fill := order.FillRate()
	if got := fill.StringFixed(6); got != "0.690476" {
		t.Fatalf("expected fill rate 0.690476, got %s", got)
	}
}

func TestParseRowZeroRequestedTonsFillRate(t *testing.T) {
	row := validRow()
	row[colRequestedTons] = "0"

	order, reasons := parseRow(row)
	if len(reasons) != 0 {
		t.Fatalf("expected no reasons, got %v", reasons)
	}
	if !order.FillRate().IsZero() {
		t.Fatalf("expected zero fill rate, got %s", order.FillRate())
	}
}

func TestParseRowCollectsAllReasonsInRuleOrder(t *testing.T) {
	row := validRow()
	row[colOrderDate] = "not-a-date"
	row[colPurchaseOrder] = "   "
	row[colSuppliedTons] = "abc"

	_, reasons := parseRow(row)
	joined := strings.Join(reasons, "; ")
	want := "Order Date invalid; Purchase Order required; Supplied Amt (Ton) invalid"
	if joined != want {
		t.Fatalf("expected %q, got %q", want, joined)
	}
}

func TestParseRowBlankOptionalFieldsCollapse(t *testing.T) {
	row := validRow()
	row[colCustomerLocation] = "   "
	row[colFulfilledByID] = ""
	row[colFulfilledByLocation] = ""

	order, reasons := parseRow(row)
	if len(reasons) != 0 {
		t.Fatalf("expected no reasons, got %v", reasons)
	}
	if order.CustomerLocation != nil {
		t.Fatalf("expected blank customer location to collapse, got %v", *order.CustomerLocation)
	}
	if order.FulfilledByID != nil || order.FulfilledByLocation != nil {
		t.Fatalf("expected absent fulfilled-by fields")
	}
}

func TestParseRowInvalidFulfilledByGUID(t *testing.T) {
	row := validRow()
	row[colFulfilledByID] = "not-a-guid"

	_, reasons := parseRow(row)
	if len(reasons) != 1 || reasons[0] != "Fullfilled By ID must be a valid GUID" {
		t.Fatalf("unexpected reasons: %v", reasons)
	}
}

func TestParseRowGUIDCheckSkippedWhenFieldBlank(t *testing.T) {
	// A blank purchase order must be reported as missing, never as a
	// malformed GUID.
	row := validRow()
	row[colPurchaseOrder] = ""

	_, reasons := parseRow(row)
	if len(reasons) != 1 || reasons[0] != "Purchase Order required" {
		t.Fatalf("unexpected reasons: %v", reasons)
	}
}

func TestParseRowNegativeValues(t *testing.T) {
	row := validRow()
	row[colRequestedTons] = "-1.00"
	row[colSuppliedTons] = "-2"
	row[colDeliveryCost] = "-5.00"

	_, reasons := parseRow(row)
	want := []string{
		"RequestedTons cannot be negative",
		"SuppliedTons cannot be negative",
		"DeliveryCost cannot be negative",
	}
	if len(reasons) != len(want) {
		t.Fatalf("expected %d reasons, got %v", len(want), reasons)
	}
	for i, reason := range want {
		if reasons[i] != reason {
			t.Fatalf("expected reason %q at %d, got %q", reason, i, reasons[i])
		}
	}
}

func TestParseRowSignChecksGatedOnParsePhase(t *testing.T) {
	// When any field fails to parse, sign checks must not run on the
	// garbage values.
	row := validRow()
	row[colOrderDate] = "garbage"
	row[colDeliveryCost] = "-5.00"

	_, reasons := parseRow(row)
	if len(reasons) != 1 || reasons[0] != "Order Date invalid" {
		t.Fatalf("unexpected reasons: %v", reasons)
	}
}

func TestParseRowInvalidGUIDsReported(t *testing.T) {
	row := validRow()
	row[colPurchaseOrder] = "PO-2024-0001"
	row[colCustomerID] = "CUST-7"

	_, reasons := parseRow(row)
	joined := strings.Join(reasons, "; ")
	want := "Purchase Order must be a valid GUID; Customer ID must be a valid GUID"
	if joined != want {
		t.Fatalf("expected %q, got %q", want, joined)
	}
}

func TestParseRowThousandsSeparators(t *testing.T) {
	row := validRow()
	row[colRequestedTons] = "1,250.50"

	order, reasons := parseRow(row)
	if len(reasons) != 0 {
		t.Fatalf("expected no reasons, got %v", reasons)
	}
	if order.RequestedTons.StringFixed(2) != "1250.50" {
		t.Fatalf("unexpected requested tons %s", order.RequestedTons)
	}
}
