package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Metrics returns a middleware that collects Prometheus metrics
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.status)

			path := normalizePath(r)

			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// normalizePath labels a request with its matched chi route so wallet and
// token addresses do not explode the label cardinality.
func normalizePath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// IndexerMetrics holds Prometheus metrics for the indexer
type IndexerMetrics struct {
	BlocksIndexed    prometheus.Counter
	TransfersIndexed prometheus.Counter
	LastIndexedBlock prometheus.Gauge
	TokenLag         *prometheus.GaugeVec
	IndexingLatency  prometheus.Histogram
	ErrorsTotal      prometheus.Counter
}

// NewIndexerMetrics creates new indexer metrics
func NewIndexerMetrics() *IndexerMetrics {
	return &IndexerMetrics{
		BlocksIndexed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "indexer_blocks_indexed_total",
			Help: "Total number of blocks indexed",
		}),
		TransfersIndexed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "indexer_transfers_indexed_total",
			Help: "Total number of transfers indexed",
		}),
		LastIndexedBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_last_indexed_block",
			Help: "Last indexed block number",
		}),
		TokenLag: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "indexer_token_lag_blocks",
			Help: "Confirmed blocks a token's derived balances trail the chain by",
		}, []string{"token"}),
		IndexingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "indexer_indexing_latency_seconds",
			Help:    "Time taken by one indexing round",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "indexer_errors_total",
			Help: "Total number of indexing errors",
		}),
	}
}

// ObserveBatch records one indexed block range of a token
func (m *IndexerMetrics) ObserveBatch(blocks, transfers, lastBlock int64) {
	m.BlocksIndexed.Add(float64(blocks))
	m.TransfersIndexed.Add(float64(transfers))
	m.LastIndexedBlock.Set(float64(lastBlock))
}

// ObserveLag records the sync lag of one token
func (m *IndexerMetrics) ObserveLag(tokenAddress string, blocks int64) {
	m.TokenLag.WithLabelValues(tokenAddress).Set(float64(blocks))
}

// ObserveLatency records the duration of one indexing round
func (m *IndexerMetrics) ObserveLatency(d time.Duration) {
	m.IndexingLatency.Observe(d.Seconds())
}

// ObserveError counts a failed fetch or store
func (m *IndexerMetrics) ObserveError() {
	m.ErrorsTotal.Inc()
}
