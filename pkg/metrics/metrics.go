// Package metrics provides Prometheus metrics for the vsh server.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsh_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vsh_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	grpcRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsh_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "code"},
	)

	// Shell metrics
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsh_commands_total",
			Help: "Total shell commands dispatched",
		},
		[]string{"command", "kind"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vsh_active_sessions",
			Help: "Number of hosted shell sessions",
		},
	)

	// Sandbox metrics
	sandboxRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsh_sandbox_runs_total",
			Help: "Total sandbox executions",
		},
		[]string{"kind", "outcome"},
	)

	sandboxRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vsh_sandbox_run_duration_seconds",
			Help:    "Sandbox execution duration in seconds",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2, 3, 5},
		},
		[]string{"kind"},
	)

	catalogReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vsh_catalog_reloads_total",
			Help: "Total package catalog reloads",
		},
		[]string{"status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordGRPCRequest records a gRPC call and its status code name.
func RecordGRPCRequest(method, code string) {
	grpcRequestsTotal.WithLabelValues(method, code).Inc()
}

// RecordCommand records one shell dispatch. Unknown commands share a single
// label value.
func RecordCommand(name, kind string, found bool) {
	if !found {
		name, kind = "unknown", "none"
	}
	commandsTotal.WithLabelValues(name, kind).Inc()
}

// SetActiveSessions sets the number of hosted sessions.
func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

// RecordSandboxRun records a sandbox execution.
func RecordSandboxRun(kind, outcome string, duration time.Duration) {
	sandboxRunsTotal.WithLabelValues(kind, outcome).Inc()
	sandboxRunDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordCatalogReload records a package catalog reload.
func RecordCatalogReload(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	catalogReloadsTotal.WithLabelValues(status).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the wrapper.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware returns HTTP middleware that records request metrics under a
// fixed route label.
func Middleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
	})
}
