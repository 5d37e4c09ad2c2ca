package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bimakw/token-explorer/internal/application/services"
	"github.com/bimakw/token-explorer/internal/domain/entities"
)

// ExchangeRateHandler serves the market price table
type ExchangeRateHandler struct {
	service *services.ExchangeService
	logger  *zap.Logger
}

// NewExchangeRateHandler creates a new exchange rate handler
func NewExchangeRateHandler(service *services.ExchangeService, logger *zap.Logger) *ExchangeRateHandler {
	return &ExchangeRateHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the exchange rate routes
func (h *ExchangeRateHandler) RegisterRoutes(r chi.Router) {
	r.Route("/exchange-rates", func(r chi.Router) {
		r.Get("/", h.GetExchangeRates)
		r.Get("/symbol/{symbol}", h.GetBySymbol)
		r.Get("/{address}", h.GetByAddress)
	})
}

// GetExchangeRates handles GET /api/v1/exchange-rates
func (h *ExchangeRateHandler) GetExchangeRates(w http.ResponseWriter, r *http.Request) {
	filter := entities.ExchangeRateFilter{
		SortBy:    "market_cap",
		SortOrder: "desc",
	}
	filter.Limit, filter.Offset = parsePagination(r, 100)

	if v := r.URL.Query().Get("sort_by"); v != "" {
		filter.SortBy = strings.ToLower(v)
	}
	if v := r.URL.Query().Get("sort_order"); v != "" {
		v = strings.ToLower(v)
		if v == "asc" || v == "desc" {
			filter.SortOrder = v
		}
	}

	response, err := h.service.GetExchangeRates(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to get exchange rates", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to get exchange rates")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// GetByAddress handles GET /api/v1/exchange-rates/{address}
func (h *ExchangeRateHandler) GetByAddress(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	if !isValidAddress(address) {
		h.respondError(w, http.StatusBadRequest, "Invalid address format")
		return
	}

	response, err := h.service.GetByAddress(r.Context(), strings.ToLower(address))
	if err != nil {
		h.logger.Error("Failed to get exchange rate", zap.Error(err), zap.String("address", address))
		h.respondError(w, http.StatusInternalServerError, "Failed to get exchange rate")
		return
	}

	if response == nil {
		h.respondError(w, http.StatusNotFound, "exchange rate not found")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// GetBySymbol handles GET /api/v1/exchange-rates/symbol/{symbol}
func (h *ExchangeRateHandler) GetBySymbol(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(chi.URLParam(r, "symbol"))
	if symbol == "" || len(symbol) > 32 {
		h.respondError(w, http.StatusBadRequest, "Invalid symbol")
		return
	}

	response, err := h.service.GetBySymbol(r.Context(), symbol)
	if err != nil {
		h.logger.Error("Failed to get exchange rate", zap.Error(err), zap.String("symbol", symbol))
		h.respondError(w, http.StatusInternalServerError, "Failed to get exchange rate")
		return
	}

	if response == nil {
		h.respondError(w, http.StatusNotFound, "exchange rate not found")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

func (h *ExchangeRateHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *ExchangeRateHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
