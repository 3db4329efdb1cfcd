package ingestion

import (
	"errors"
	"fmt"
	"strings"
)

// Column names the import contract requires, in the order they are reported
// when absent. Matching is trim-only; header case must match the source files.
var requiredColumns = []string{
	colOrderDate,
	colPurchaseOrder,
	colCustomerID,
	colCustomerLocation,
	colRequestedTons,
	colFulfilledByID,
	colFulfilledByLocation,
	colSuppliedTons,
	colDeliveryCost,
}

const (
	colOrderDate           = "Order Date"
	colPurchaseOrder       = "Purchase Order"
	colCustomerID          = "Customer ID"
	colCustomerLocation    = "Customer Location"
	colRequestedTons       = "Order Req Amt (Ton)"
	colFulfilledByID       = "Fullfilled By ID"
	colFulfilledByLocation = "Fullfilled By Location"
	colSuppliedTons        = "Supplied Amt (Ton)"
	colDeliveryCost        = "Cost Of Delivery ($)"
)

// ErrNoHeader is returned when the input stream has no rows at all.
var ErrNoHeader = errors.New("input has no header row")

// MissingColumnsError names every required column absent from the header row.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing columns: " + strings.Join(e.Columns, ", ")
}

// checkHeader validates the header row against the required column set and
// returns trimmed header names positionally. Extra columns are ignored;
// order does not matter. It runs once, before any data row is parsed.
func checkHeader(header []string) ([]string, error) {
	if len(header) == 0 {
		return nil, ErrNoHeader
	}

	trimmed := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		trimmed[i] = name
		present[name] = true
	}

	var missing []string
	for _, required := range requiredColumns {
		if !present[required] {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	return trimmed, nil
}

// rowValues maps one positional data row onto the trimmed header names,
// padding short rows with empty strings.
func rowValues(headers []string, row []string) map[string]string {
	values := make(map[string]string, len(headers))
	for i, name := range headers {
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if i < len(row) {
			values[name] = row[i]
		} else {
			values[name] = ""
		}
	}
	return values
}
