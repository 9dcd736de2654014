package rebalancing

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers provides HTTP handlers for rebalancing endpoints
type Handlers struct {
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates a new rebalancing handlers instance
func NewHandlers(service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		log:     log.With().Str("module", "rebalancing_handlers").Logger(),
	}
}

// RegisterRoutes registers all rebalancing routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/rebalancing", func(r chi.Router) {
		r.Get("/drift", h.GetDrift)
		r.Get("/preview", h.GetPreview)
		r.Post("/execute", h.Execute)
	})
}

// GetDrift returns current drift per ticker and the trigger status.
func (h *Handlers) GetDrift(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.DriftReport()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute drift")
		http.Error(w, "Failed to compute drift", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status)
}

// GetPreview returns the trades a rebalance would place, without executing.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.service.PreviewRebalance()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute rebalance preview")
		http.Error(w, "Failed to compute rebalance preview", http.StatusInternalServerError)
		return
	}
	writeJSON(w, preview)
}

// Execute computes and applies a rebalance against stored holdings.
func (h *Handlers) Execute(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ExecuteRebalance()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to execute rebalance")
		http.Error(w, "Failed to execute rebalance", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
