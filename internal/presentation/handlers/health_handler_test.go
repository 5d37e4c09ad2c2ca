package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/token-explorer/internal/application/services"
	"github.com/bimakw/token-explorer/internal/testutil"
)

func TestNewHealthHandler(t *testing.T) {
	db := testutil.NewMockHealthChecker(true)
	cache := testutil.NewMockHealthChecker(true)

	handler := NewHealthHandler(db, cache)
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}
}

func TestHealthHandler_Health_AllHealthy(t *testing.T) {
	db := testutil.NewMockHealthChecker(true)
	cache := testutil.NewMockHealthChecker(true)
	handler := NewHealthHandler(db, cache)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "healthy" {
		t.Errorf("expected status healthy, got %s", response.Status)
	}
	if response.Services["database"] != "healthy" {
		t.Errorf("expected database healthy, got %s", response.Services["database"])
	}
	if response.Services["cache"] != "healthy" {
		t.Errorf("expected cache healthy, got %s", response.Services["cache"])
	}
	if response.Timestamp == "" {
		t.Error("expected non-empty timestamp")
	}
}

func TestHealthHandler_Health_DatabaseUnhealthy(t *testing.T) {
	db := testutil.NewMockHealthChecker(false)
	cache := testutil.NewMockHealthChecker(true)
	handler := NewHealthHandler(db, cache)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.Health(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}

	var response HealthResponse
	json.NewDecoder(rec.Body).Decode(&response)

	if response.Status != "unhealthy" {
		t.Errorf("expected status unhealthy, got %s", response.Status)
	}
	if response.Services["database"] == "healthy" {
		t.Error("expected database to be unhealthy")
	}
}

func TestHealthHandler_Health_CacheUnhealthy(t *testing.T) {
	db := testutil.NewMockHealthChecker(true)
	cache := testutil.NewMockHealthChecker(false)
	handler := NewHealthHandler(db, cache)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.Health(rec, req)

	// Cache unhealthy should result in "degraded" status, not "unhealthy"
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200 for degraded, got %d", rec.Code)
	}

	var response HealthResponse
	json.NewDecoder(rec.Body).Decode(&response)

	if response.Status != "degraded" {
		t.Errorf("expected status degraded, got %s", response.Status)
	}
	if response.Services["cache"] == "healthy" {
		t.Error("expected cache to be unhealthy")
	}
}

func TestHealthHandler_Health_BothUnhealthy(t *testing.T) {
	db := testutil.NewMockHealthChecker(false)
	cache := testutil.NewMockHealthChecker(false)
	handler := NewHealthHandler(db, cache)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.Health(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}

	var response HealthResponse
	json.NewDecoder(rec.Body).Decode(&response)

	// a failing cache must not mask the database failure
	if response.Status != "unhealthy" {
		t.Errorf("expected status unhealthy, got %s", response.Status)
	}
}

func TestHealthHandler_Health_NoCache(t *testing.T) {
	db := testutil.NewMockHealthChecker(true)
	handler := NewHealthHandler(db, nil) // No cache

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var response HealthResponse
	json.NewDecoder(rec.Body).Decode(&response)

	if response.Status != "healthy" {
		t.Errorf("expected status healthy, got %s", response.Status)
	}
	// Cache should not be in services
	if _, exists := response.Services["cache"]; exists {
		t.Error("cache should not be in services when nil")
	}
}

func TestHealthHandler_Health_ContentType(t *testing.T) {
	db := testutil.NewMockHealthChecker(true)
	handler := NewHealthHandler(db, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.Health(rec, req)

	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}
}

func TestHealthHandler_Ready_Healthy(t *testing.T) {
	db := testutil.NewMockHealthChecker(true)
	handler := NewHealthHandler(db, nil)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()

	handler.Ready(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if body != "ready" {
		t.Errorf("expected body 'ready', got '%s'", body)
	}
}

func TestHealthHandler_Ready_Unhealthy(t *testing.T) {
	db := testutil.NewMockHealthChecker(false)
	handler := NewHealthHandler(db, nil)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()

	handler.Ready(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}

func TestHealthHandler_Live(t *testing.T) {
	db := testutil.NewMockHealthChecker(true)
	handler := NewHealthHandler(db, nil)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()

	handler.Live(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if body != "alive" {
		t.Errorf("expected body 'alive', got '%s'", body)
	}
}

func TestHealthHandler_Live_AlwaysAlive(t *testing.T) {
	// Even when DB is unhealthy, liveness should pass
	db := testutil.NewMockHealthChecker(false)
	handler := NewHealthHandler(db, nil)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()

	handler.Live(rec, req)

	// Liveness should always return 200
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestHealthResponse_Structure(t *testing.T) {
	db := testutil.NewMockHealthChecker(true)
	cache := testutil.NewMockHealthChecker(true)
	handler := NewHealthHandler(db, cache)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.Health(rec, req)

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)

	// Check required fields
	requiredFields := []string{"status", "timestamp", "services"}
	for _, field := range requiredFields {
		if _, exists := response[field]; !exists {
			t.Errorf("missing required field: %s", field)
		}
	}

	// Check services structure
	services, ok := response["services"].(map[string]interface{})
	if !ok {
		t.Fatal("services should be a map")
	}
	if _, exists := services["database"]; !exists {
		t.Error("missing database in services")
	}
}

func TestHealthHandler_Health_PriceFeed(t *testing.T) {
	// CreateTestExchangeRate stamps rates at 2024-01-15 10:30 UTC
	lastUpdate := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name           string
		now            time.Time
		seed           bool
		repoErr        error
		expectedStatus string
		expectedFeed   string
		expectedAge    int64
	}{
		{
			name:           "fresh prices",
			now:            lastUpdate.Add(5 * time.Minute),
			seed:           true,
			expectedStatus: "healthy",
			expectedFeed:   "healthy",
			expectedAge:    300,
		},
		{
			name:           "stale prices",
			now:            lastUpdate.Add(time.Hour),
			seed:           true,
			expectedStatus: "degraded",
			expectedFeed:   "stale",
			expectedAge:    3600,
		},
		{
			name:           "empty rate table",
			now:            lastUpdate,
			expectedStatus: "degraded",
			expectedFeed:   "empty",
		},
		{
			name:           "query failure",
			now:            lastUpdate,
			repoErr:        errors.New("connection refused"),
			expectedStatus: "degraded",
			expectedFeed:   "unhealthy: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rateRepo := testutil.NewMockExchangeRateRepository()
			if tt.seed {
				rateRepo.AddRates(
					testutil.CreateTestExchangeRate(testutil.USDTAddress, "usdt", "1", "0.1"),
					testutil.CreateTestExchangeRate(testutil.USDCAddress, "usdc", "1", "0"),
				)
			}
			if tt.repoErr != nil {
				rateRepo.LatestUpdateFunc = func(ctx context.Context) (*time.Time, error) {
					return nil, tt.repoErr
				}
			}
			prices := services.NewExchangeService(rateRepo, nil, time.Minute, zap.NewNop())

			handler := NewHealthHandler(testutil.NewMockHealthChecker(true), nil).
				WithPriceFeed(prices, 15*time.Minute)
			handler.now = func() time.Time { return tt.now }

			rec := httptest.NewRecorder()
			handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			// a degraded price feed still serves traffic
			if rec.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", rec.Code)
			}

			var response HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if response.Status != tt.expectedStatus {
				t.Errorf("expected status %s, got %s", tt.expectedStatus, response.Status)
			}
			if response.Services["price_feed"] != tt.expectedFeed {
				t.Errorf("expected price_feed %q, got %q", tt.expectedFeed, response.Services["price_feed"])
			}

			if tt.seed {
				if response.PriceAgeSeconds == nil || *response.PriceAgeSeconds != tt.expectedAge {
					t.Errorf("expected price age %d, got %v", tt.expectedAge, response.PriceAgeSeconds)
				}
				if response.PricesUpdatedAt != "2024-01-15T10:30:00Z" {
					t.Errorf("unexpected prices_updated_at %s", response.PricesUpdatedAt)
				}
			} else if response.PriceAgeSeconds != nil {
				t.Errorf("expected no price age, got %d", *response.PriceAgeSeconds)
			}
		})
	}
}

func TestHealthHandler_Health_PriceFeedDoesNotMaskDatabase(t *testing.T) {
	prices := services.NewExchangeService(testutil.NewMockExchangeRateRepository(), nil, time.Minute, zap.NewNop())
	handler := NewHealthHandler(testutil.NewMockHealthChecker(false), nil).
		WithPriceFeed(prices, 15*time.Minute)

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}

	var response HealthResponse
	json.NewDecoder(rec.Body).Decode(&response)

	if response.Status != "unhealthy" {
		t.Errorf("expected status unhealthy, got %s", response.Status)
	}
	if response.Services["price_feed"] != "empty" {
		t.Errorf("expected price_feed empty, got %s", response.Services["price_feed"])
	}
}
