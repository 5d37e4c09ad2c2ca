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

// TokenHandler handles HTTP requests for tokens
type TokenHandler struct {
	service *services.TokenService
	logger  *zap.Logger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(service *services.TokenService, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the token routes
func (h *TokenHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tokens", h.GetAllTokens)
	r.Get("/tokens/{address}", h.GetByAddress)
}

// GetAllTokens handles GET /api/v1/tokens?standard=erc20|erc721
func (h *TokenHandler) GetAllTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := entities.TokenFilter{
		SortBy:    "total_indexed_transfers",
		SortOrder: "desc",
	}
	filter.Limit, filter.Offset = parsePagination(r, 100)

	if v := r.URL.Query().Get("standard"); v != "" {
		v = strings.ToLower(v)
		if v != entities.StandardERC20 && v != entities.StandardERC721 {
			h.respondError(w, http.StatusBadRequest, "Invalid standard, expected erc20 or erc721")
			return
		}
		filter.Standard = v
	}
	if v := r.URL.Query().Get("sort_by"); v != "" {
		filter.SortBy = v
	}
	if v := r.URL.Query().Get("sort_order"); v != "" {
		v = strings.ToLower(v)
		if v == "asc" || v == "desc" {
			filter.SortOrder = v
		}
	}

	response, err := h.service.GetAllTokens(ctx, filter)
	if err != nil {
		h.logger.Error("Failed to get tokens", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to get tokens")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// GetByAddress handles GET /api/v1/tokens/{address}
func (h *TokenHandler) GetByAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := chi.URLParam(r, "address")

	if !isValidAddress(address) {
		h.respondError(w, http.StatusBadRequest, "Invalid address format")
		return
	}

	address = strings.ToLower(address)

	response, err := h.service.GetByAddress(ctx, address)
	if err != nil {
		h.logger.Error("Failed to get token", zap.Error(err), zap.String("address", address))
		h.respondError(w, http.StatusInternalServerError, "Failed to get token")
		return
	}

	if response == nil {
		h.respondError(w, http.StatusNotFound, "token not found")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

func (h *TokenHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *TokenHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
