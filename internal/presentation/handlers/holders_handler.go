package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bimakw/token-explorer/internal/application/services"
	"github.com/bimakw/token-explorer/internal/domain/valuation"
)

// HoldersHandler handles HTTP requests for token holders
type HoldersHandler struct {
	service *services.HoldersService
	logger  *zap.Logger
}

// NewHoldersHandler creates a new holders handler
func NewHoldersHandler(service *services.HoldersService, logger *zap.Logger) *HoldersHandler {
	return &HoldersHandler{
		service: service,
		logger:  logger,
	}
}

// GetTopHolders handles GET /api/v1/tokens/{address}/holders?sort=<mode>
func (h *HoldersHandler) GetTopHolders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := chi.URLParam(r, "address")

	if !isValidAddress(address) {
		h.respondError(w, http.StatusBadRequest, "Invalid address format")
		return
	}

	address = strings.ToLower(address)

	limit, offset := parsePagination(r, 100)

	sort := r.URL.Query().Get("sort")
	if sort == "" {
		sort = valuation.SortAmountHigh
	}

	response, err := h.service.GetTopHolders(ctx, address, limit, offset, valuation.ParseSortMode(sort))
	if err != nil {
		h.logger.Error("Failed to get top holders", zap.Error(err), zap.String("address", address))
		h.respondError(w, http.StatusInternalServerError, "Failed to get top holders")
		return
	}

	if response == nil {
		h.respondError(w, http.StatusNotFound, "token not found")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// GetHolderBalance handles GET /api/v1/tokens/{address}/holders/{holder_address}
func (h *HoldersHandler) GetHolderBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenAddress := chi.URLParam(r, "address")
	holderAddress := chi.URLParam(r, "holder_address")

	if !isValidAddress(tokenAddress) {
		h.respondError(w, http.StatusBadRequest, "Invalid token address format")
		return
	}

	if !isValidAddress(holderAddress) {
		h.respondError(w, http.StatusBadRequest, "Invalid holder address format")
		return
	}

	tokenAddress = strings.ToLower(tokenAddress)
	holderAddress = strings.ToLower(holderAddress)

	response, err := h.service.GetHolderBalance(ctx, tokenAddress, holderAddress)
	if err != nil {
		h.logger.Error("Failed to get holder balance",
			zap.Error(err),
			zap.String("token", tokenAddress),
			zap.String("holder", holderAddress),
		)
		h.respondError(w, http.StatusInternalServerError, "Failed to get holder balance")
		return
	}

	if response == nil {
		h.respondError(w, http.StatusNotFound, "token not found")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

func (h *HoldersHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *HoldersHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
