package portfolio

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/bcutrell/dumbfi/internal/modules/taxlots"
)

// Handlers provides HTTP handlers for portfolio endpoints
type Handlers struct {
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates a new portfolio handlers instance
func NewHandlers(service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		log:     log.With().Str("module", "portfolio_handlers").Logger(),
	}
}

// RegisterRoutes registers all portfolio routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/holdings", h.GetHoldings)
		r.Put("/holdings/{ticker}", h.SetTarget)
		r.Delete("/holdings/{ticker}", h.DeleteHolding)
		r.Post("/holdings/{ticker}/lots", h.AddLot)
		r.Get("/trades", h.GetTrades)
	})
}

// GetHoldings returns all holdings with their lots.
func (h *Handlers) GetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.service.Holdings()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get holdings")
		http.Error(w, "Failed to get holdings", http.StatusInternalServerError)
		return
	}
	if holdings == nil {
		holdings = []taxlots.Holding{}
	}
	writeJSON(w, holdings)
}

// SetTargetRequest is the body for target weight updates
type SetTargetRequest struct {
	TargetWeight float64 `json:"target_weight"`
}

// SetTarget creates or updates a holding's target weight.
func (h *Handlers) SetTarget(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	var req SetTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.SetTarget(ticker, req.TargetWeight); err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to set target weight")
		http.Error(w, "Failed to set target weight", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

// DeleteHolding removes a holding and its lots.
func (h *Handlers) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	if err := h.service.Remove(ticker); err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to delete holding")
		http.Error(w, "Failed to delete holding", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

// AddLotRequest is the body for lot creation
type AddLotRequest struct {
	Shares       float64   `json:"shares"`
	CostBasis    float64   `json:"cost_basis"`
	PurchaseDate time.Time `json:"purchase_date"`
}

// AddLot records a purchase lot against a holding.
func (h *Handlers) AddLot(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	var req AddLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PurchaseDate.IsZero() {
		req.PurchaseDate = time.Now()
	}

	lot := taxlots.TaxLot{
		Shares:       req.Shares,
		CostBasis:    req.CostBasis,
		PurchaseDate: req.PurchaseDate,
	}
	if err := h.service.AddLot(ticker, lot); err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to add lot")
		http.Error(w, "Failed to add lot", http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

// GetTrades returns the executed-trade ledger.
func (h *Handlers) GetTrades(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	trades, err := h.service.Trades(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list trades")
		http.Error(w, "Failed to list trades", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []ExecutedTrade{}
	}
	writeJSON(w, trades)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
