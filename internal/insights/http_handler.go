package insights

import (
	"encoding/json"
	"net/http"
)

// Handler exposes the insights summary endpoint.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the insights service.
func NewHTTPHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the insights route on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/orders/insights", h.analyze)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.AnalyzeLatest(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}
