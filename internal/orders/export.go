package orders

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/graindesk/grainbroker/internal/domain"
)

// exportPageSize bounds how many orders are held in memory while streaming.
// It matches the listing clamp ceiling.
const exportPageSize = maxPageSize

var exportHeader = []string{
	"Id", "Order Date", "Purchase Order", "Customer ID", "Customer Location",
	"Order Req Amt (Ton)", "Fullfilled By ID", "Fullfilled By Location",
	"Supplied Amt (Ton)", "Cost Of Delivery ($)", "Fill Rate",
}

// export streams every matching order as CSV, paging through storage so the
// response never buffers the full result set.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := ListParams{Search: query.Get("q")}
	for name, target := range map[string]**time.Time{"from": &params.From, "to": &params.To} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, name+" must be formatted as YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		*target = &parsed
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.csv"`)

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return
	}

	params.PageSize = exportPageSize
	for page := 1; ; page++ {
		params.Page = page
		result, err := h.service.List(r.Context(), params)
		if err != nil {
			// Headers are already sent; abort the stream.
			return
		}
		for _, order := range result.Items {
			if err := writer.Write(exportRow(order)); err != nil {
				return
			}
		}
		writer.Flush()
		if page*result.PageSize >= result.Total {
			break
		}
	}
}

func exportRow(order domain.Order) []string {
	row := []string{
		fmt.Sprintf("%d", order.ID),
		order.OrderDate.Format("2006-01-02 15:04:05"),
		order.PurchaseOrderID.String(),
		order.CustomerID.String(),
		"",
		order.RequestedTons.StringFixed(2),
		"",
		"",
		order.SuppliedTons.StringFixed(2),
		order.DeliveryCost.StringFixed(2),
		order.FillRate().StringFixed(6),
	}
	if order.CustomerLocation != nil {
		row[4] = *order.CustomerLocation
	}
	if order.FulfilledByID != nil {
		row[6] = order.FulfilledByID.String()
	}
	if order.FulfilledByLocation != nil {
		row[7] = *order.FulfilledByLocation
	}
	return row
}
