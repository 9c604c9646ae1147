// Package metrics defines the Prometheus collectors exported by repoconfig.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repoconfig_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repoconfig_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Config updates
	ConfigUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repoconfig_config_updates_total",
			Help: "Repository config update attempts by result.",
		},
		[]string{"result"}, // result: ok|not_found|invalid|error
	)

	// Store
	StoreWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repoconfig_store_writes_total",
			Help: "Persist operations performed by the repository store.",
		},
		[]string{"backend", "result"}, // backend: json|sqlite, result: ok|error
	)
)

// Results used as label values.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPRequestDuration,
		ConfigUpdates,
		StoreWrites,
	)
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest records one served request. route should be the matched
// mux pattern, not the raw path, to keep label cardinality bounded.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func IncConfigUpdate(result string) {
	ConfigUpdates.WithLabelValues(result).Inc()
}

func IncStoreWrite(backend, result string) {
	StoreWrites.WithLabelValues(backend, result).Inc()
}
