// Package metrics provides Prometheus instrumentation for the ledger
// service: HTTP request metrics, per-operation outcome counters, and
// escrow gauges, served from a dedicated listener.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	operationTotal  *prometheus.CounterVec
	eventsTotal     prometheus.Counter
	escrowBalance   prometheus.Gauge
}

// New registers the service collectors on a fresh registry. The service
// name becomes the metric namespace, with hyphens mapped to underscores.
func New(service string) *Metrics {
	service = strings.ReplaceAll(service, "-", "_")
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: service,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	operationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: service,
		Name:      "ledger_operations_total",
		Help:      "Ledger operations by name and outcome",
	}, []string{"operation", "outcome"})

	eventsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: service,
		Name:      "ledger_events_total",
		Help:      "Events appended to the durable event log",
	})

	escrowBalance := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: service,
		Name:      "escrow_balance_wei",
		Help:      "Current escrowed verification-fee balance",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: service,
		Name:      "goroutines_total",
		Help:      "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, operationTotal, eventsTotal, escrowBalance, goroutines)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		operationTotal:  operationTotal,
		eventsTotal:     eventsTotal,
		escrowBalance:   escrowBalance,
	}
}

// Handler exposes the Prometheus scrape handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one handled HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveOperation records the outcome of one ledger operation. Outcome is
// "ok" or the short name of the failure class.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operationTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveEvent counts one appended event.
func (m *Metrics) ObserveEvent() {
	if m == nil {
		return
	}
	m.eventsTotal.Inc()
}

// SetEscrowBalance updates the escrow balance gauge.
func (m *Metrics) SetEscrowBalance(wei float64) {
	if m == nil {
		return
	}
	m.escrowBalance.Set(wei)
}

// Server serves the scrape endpoint on its own listener so operational
// traffic stays off the API port.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server for addr exposing m at /metrics.
func NewServer(addr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe blocks serving scrapes until Shutdown is called.
func (s *Server) ListenAndServe() error {
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
