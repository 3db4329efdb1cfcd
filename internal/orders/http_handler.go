package orders

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/graindesk/grainbroker/internal/domain"
)

// Handler exposes the order read path as REST endpoints.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the query service.
func NewHTTPHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the order routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/orders", h.list)
	mux.HandleFunc("GET /api/orders/export", h.export)
	mux.HandleFunc("GET /api/orders/{id}", h.get)
	mux.HandleFunc("DELETE /api/orders/{id}", h.delete)
}

// orderPayload is the transport shape of one order, with the derived fill
// rate included.
type orderPayload struct {
	ID                  int64           `json:"id"`
	OrderDate           time.Time       `json:"orderDate"`
	PurchaseOrderID     string          `json:"purchaseOrderId"`
	CustomerID          string          `json:"customerId"`
	CustomerLocation    *string         `json:"customerLocation"`
	RequestedTons       decimal.Decimal `json:"requestedTons"`
	SuppliedTons        decimal.Decimal `json:"suppliedTons"`
	FulfilledByID       *string         `json:"fulfilledById"`
	FulfilledByLocation *string         `json:"fulfilledByLocation"`
	DeliveryCost        decimal.Decimal `json:"deliveryCost"`
	FillRate            decimal.Decimal `json:"fillRate"`
}

func toPayload(order domain.Order) orderPayload {
	payload := orderPayload{
		ID:                  order.ID,
		OrderDate:           order.OrderDate,
		PurchaseOrderID:     order.PurchaseOrderID.String(),
		CustomerID:          order.CustomerID.String(),
		CustomerLocation:    order.CustomerLocation,
		RequestedTons:       order.RequestedTons,
		SuppliedTons:        order.SuppliedTons,
		FulfilledByLocation: order.FulfilledByLocation,
		DeliveryCost:        order.DeliveryCost,
		FillRate:            order.FillRate(),
	}
	if order.FulfilledByID != nil {
		id := order.FulfilledByID.String()
		payload.FulfilledByID = &id
	}
	return payload
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := ListParams{
		Search: query.Get("q"),
	}
	if raw := query.Get("page"); raw != "" {
		params.Page, _ = strconv.Atoi(raw)
	}
	if raw := query.Get("pageSize"); raw != "" {
		params.PageSize, _ = strconv.Atoi(raw)
	}
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

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	payload := domain.PagedResult[orderPayload]{
		Page:     result.Page,
		PageSize: result.PageSize,
		Total:    result.Total,
		Items:    make([]orderPayload, len(result.Items)),
	}
	for i, order := range result.Items {
		payload.Items[i] = toPayload(order)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toPayload(order))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	existed, err := h.service.Delete(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !existed {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
