package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthChecker defines the interface for health checking components
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PriceFeedSource reports when the exchange rate table was last written
type PriceFeedSource interface {
	LatestPriceUpdate(ctx context.Context) (*time.Time, error)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db    HealthChecker
	cache HealthChecker

	priceFeed   PriceFeedSource
	priceMaxAge time.Duration
	now         func() time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db, cache HealthChecker) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cache,
		now:   time.Now,
	}
}

// WithPriceFeed makes /health report exchange rate freshness. Prices older
// than maxAge, or an empty table, degrade the status.
func (h *HealthHandler) WithPriceFeed(source PriceFeedSource, maxAge time.Duration) *HealthHandler {
	h.priceFeed = source
	h.priceMaxAge = maxAge
	return h
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status          string            `json:"status"`
	Timestamp       string            `json:"timestamp"`
	Services        map[string]string `json:"services"`
	PricesUpdatedAt string            `json:"prices_updated_at,omitempty"`
	PriceAgeSeconds *int64            `json:"price_age_seconds,omitempty"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
	}

	// Check database
	if err := h.db.HealthCheck(ctx); err != nil {
		response.Status = "unhealthy"
		response.Services["database"] = "unhealthy: " + err.Error()
	} else {
		response.Services["database"] = "healthy"
	}

	// Check cache
	if h.cache != nil {
		if err := h.cache.HealthCheck(ctx); err != nil {
			if response.Status == "healthy" {
				response.Status = "degraded"
			}
			response.Services["cache"] = "unhealthy: " + err.Error()
		} else {
			response.Services["cache"] = "healthy"
		}
	}

	if h.priceFeed != nil {
		h.checkPriceFeed(ctx, &response)
	}

	status := http.StatusOK
	if response.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// Ready handles GET /ready (Kubernetes readiness check)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// Live handles GET /live (Kubernetes liveness check)
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}

func (h *HealthHandler) checkPriceFeed(ctx context.Context, response *HealthResponse) {
	degrade := func(state string) {
		if response.Status == "healthy" {
			response.Status = "degraded"
		}
		response.Services["price_feed"] = state
	}

	latest, err := h.priceFeed.LatestPriceUpdate(ctx)
	if err != nil {
		degrade("unhealthy: " + err.Error())
		return
	}
	if latest == nil {
		degrade("empty")
		return
	}

	age := h.now().Sub(*latest)
	if age < 0 {
		age = 0
	}
	seconds := int64(age / time.Second)
	response.PricesUpdatedAt = latest.UTC().Format(time.RFC3339)
	response.PriceAgeSeconds = &seconds

	if h.priceMaxAge > 0 && age > h.priceMaxAge {
		degrade("stale")
		return
	}
	response.Services["price_feed"] = "healthy"
}
