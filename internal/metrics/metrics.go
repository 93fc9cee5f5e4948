// Package metrics holds the Prometheus collectors for the invoicing service.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "invoicing"

var (
	// Registry holds the application-specific collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
	}, []string{"method", "route"})

	invoicesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "invoices",
		Name:      "created_total",
		Help:      "Invoices created.",
	})

	statusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "invoices",
		Name:      "status_transitions_total",
		Help:      "Applied invoice status changes by target status.",
	}, []string{"to"})

	allocationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "invoices",
		Name:      "number_allocation_failures_total",
		Help:      "Invoice creations that failed while allocating a number.",
	})

	txRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "tx_retries_total",
		Help:      "Transactions re-run after a serialization failure or deadlock.",
	})

	emailSends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "email",
		Name:      "sends_total",
		Help:      "Invoice emails handed to the provider, by result.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		invoicesCreated,
		statusTransitions,
		allocationFailures,
		txRetries,
		emailSends,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one finished request. route should be the router
// pattern, not the raw path, to keep label cardinality bounded.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// InFlight tracks a request for the in-flight gauge. Call the returned func when done.
func InFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

func InvoiceCreated() { invoicesCreated.Inc() }

func StatusChanged(to string) { statusTransitions.WithLabelValues(to).Inc() }

func AllocationFailed() { allocationFailures.Inc() }

func TxRetried() { txRetries.Inc() }

// EmailSent records a provider call; result is "ok" or "error".
func EmailSent(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	emailSends.WithLabelValues(result).Inc()
}
