package metrics

import (
	"net/http"
	"strconv"
	"time"

	"simplecache/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation results
const (
	ResultOK              = "ok"
	ResultInvalidArgument = "invalid_argument"
	ResultCacheFailure    = "cache_failure"
)

var (
	// CacheOperations counts facade calls by operation and result
	CacheOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simplecache_operations_total",
		Help: "Total number of cache operations",
	}, []string{"operation", "result"})

	// CacheOperationDuration tracks facade call latency
	CacheOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simplecache_operation_duration_seconds",
		Help:    "Duration of cache operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// BatchKeys tracks how many keys each batch operation carries
	BatchKeys = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simplecache_batch_keys",
		Help:    "Number of keys per batch operation",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	}, []string{"operation"})

	// HTTPRequests counts served requests by method and status code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simplecache_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "status"})

	// RateLimited counts requests rejected by the rate limiter
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simplecache_rate_limited_total",
		Help: "Total number of rate limited requests",
	})
)

// Result classifies an operation error into a result label
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case models.IsInvalidArgument(err):
		return ResultInvalidArgument
	default:
		return ResultCacheFailure
	}
}

// RecordOperation counts one facade call and observes its duration
func RecordOperation(operation string, err error, started time.Time) {
	CacheOperations.WithLabelValues(operation, Result(err)).Inc()
	CacheOperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// RecordBatchKeys observes the size of a batch operation
func RecordBatchKeys(operation string, count int) {
	BatchKeys.WithLabelValues(operation).Observe(float64(count))
}

// RecordHTTPRequest counts a served request
func RecordHTTPRequest(method string, status int) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// RecordRateLimited counts a rejected request
func RecordRateLimited() {
	RateLimited.Inc()
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
