package marketdata

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/bcutrell/dumbfi/pkg/formulas"
)

// Handlers provides HTTP handlers for market data endpoints
type Handlers struct {
	service *Service
	source  TickerSource
	log     zerolog.Logger
}

// NewHandlers creates a new market data handlers instance
func NewHandlers(service *Service, source TickerSource, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		source:  source,
		log:     log.With().Str("module", "marketdata_handlers").Logger(),
	}
}

// RegisterRoutes registers all market data routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/marketdata", func(r chi.Router) {
		r.Get("/prices/{ticker}", h.GetPrices)
		r.Get("/indicators/{ticker}", h.GetIndicators)
		r.Get("/quotes", h.GetQuotes)
		r.Post("/sync", h.TriggerSync)
	})
}

// GetPrices returns stored daily prices for a ticker, ascending by date.
func (h *Handlers) GetPrices(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	prices, err := h.service.History(ticker, limit)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get prices")
		http.Error(w, "Failed to get prices", http.StatusInternalServerError)
		return
	}
	if prices == nil {
		prices = []DailyPrice{}
	}
	writeJSON(w, prices)
}

// IndicatorsResponse carries point-in-time indicators for a ticker.
// Indicators with insufficient history are null rather than zero.
type IndicatorsResponse struct {
	Ticker               string   `json:"ticker"`
	RSI14                *float64 `json:"rsi_14"`
	SMA50                *float64 `json:"sma_50"`
	AnnualizedVolatility float64  `json:"annualized_volatility"`
	Observations         int      `json:"observations"`
}

// GetIndicators computes technical indicators from stored daily closes.
func (h *Handlers) GetIndicators(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	closes, err := h.service.CloseSeries(ticker, 252)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to load closes")
		http.Error(w, "Failed to load closes", http.StatusInternalServerError)
		return
	}

	writeJSON(w, IndicatorsResponse{
		Ticker:               ticker,
		RSI14:                formulas.CalculateRSI(closes, 14),
		SMA50:                formulas.CalculateSMA(closes, 50),
		AnnualizedVolatility: formulas.AnnualizedVolatility(formulas.CalculateReturns(closes)),
		Observations:         len(closes),
	})
}

// GetQuotes returns the latest close per ticker. With no tickers query
// parameter, every held ticker is included.
func (h *Handlers) GetQuotes(w http.ResponseWriter, r *http.Request) {
	tickers := splitTickers(r.URL.Query().Get("tickers"))
	if len(tickers) == 0 {
		held, err := h.source.Tickers()
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to list tickers")
			http.Error(w, "Failed to list tickers", http.StatusInternalServerError)
			return
		}
		tickers = held
	}

	prices, err := h.service.LatestPrices(tickers)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get quotes")
		http.Error(w, "Failed to get quotes", http.StatusInternalServerError)
		return
	}
	writeJSON(w, prices)
}

// TriggerSync runs a price sync for all held tickers.
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.source.Tickers()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list tickers")
		http.Error(w, "Failed to list tickers", http.StatusInternalServerError)
		return
	}

	if err := h.service.Sync(r.Context(), tickers); err != nil {
		h.log.Error().Err(err).Msg("Failed to sync prices")
		http.Error(w, "Failed to sync prices", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"status": "ok", "tickers": len(tickers)})
}

func splitTickers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tickers := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
