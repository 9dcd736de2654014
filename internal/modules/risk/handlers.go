package risk

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// TickerSource lists the tickers to model when none are requested.
type TickerSource interface {
	Tickers() ([]string, error)
}

// Handlers provides HTTP handlers for risk endpoints
type Handlers struct {
	service *Service
	source  TickerSource
	log     zerolog.Logger
}

// NewHandlers creates a new risk handlers instance
func NewHandlers(service *Service, source TickerSource, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		source:  source,
		log:     log.With().Str("module", "risk_handlers").Logger(),
	}
}

// RegisterRoutes registers all risk routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Get("/model", h.GetModel)
	})
}

// GetModel builds and returns the risk model. Tickers default to all
// held tickers; lookback defaults to one trading year.
func (h *Handlers) GetModel(w http.ResponseWriter, r *http.Request) {
	tickers := splitParam(r.URL.Query().Get("tickers"))
	if len(tickers) == 0 {
		held, err := h.source.Tickers()
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to list tickers")
			http.Error(w, "Failed to list tickers", http.StatusInternalServerError)
			return
		}
		tickers = held
	}
	if len(tickers) == 0 {
		http.Error(w, "No tickers to model", http.StatusBadRequest)
		return
	}

	lookback, _ := strconv.Atoi(r.URL.Query().Get("lookback"))

	model, err := h.service.BuildModel(tickers, lookback)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build risk model")
		http.Error(w, "Failed to build risk model", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(model)
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
