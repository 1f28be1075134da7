package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agencyops/events"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "agencyops",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agencyops",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agencyops",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	domainEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agencyops",
			Subsystem: "events",
			Name:      "emitted_total",
			Help:      "Domain events emitted after commit, by type.",
		},
		[]string{"type"},
	)

	ledgerAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agencyops",
			Subsystem: "ledger",
			Name:      "amount_cents_total",
			Help:      "Sum of recorded ledger amounts in cents.",
		},
		[]string{"entry_type", "direction"},
	)

	reconciliationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agencyops",
			Subsystem: "reconciliation",
			Name:      "runs_total",
			Help:      "Reconciliation passes, by trigger and outcome.",
		},
		[]string{"trigger", "success"},
	)

	reconciliationDrift = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agencyops",
			Subsystem: "reconciliation",
			Name:      "drifted_records_total",
			Help:      "Billing records found with drifted totals.",
		},
	)

	reconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "agencyops",
			Subsystem: "reconciliation",
			Name:      "duration_seconds",
			Help:      "Duration of reconciliation passes.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		domainEvents,
		ledgerAmount,
		reconciliationRuns,
		reconciliationDrift,
		reconciliationDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps next with HTTP metrics collection. Paths are labelled with the
// chi route pattern so ids do not explode cardinality.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := routePattern(r)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.Status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// Register counts every event emitted on bus
func Register(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		domainEvents.WithLabelValues(string(event.Type())).Inc()
		if recorded, ok := event.(events.LedgerEntryRecordedEvent); ok {
			ledgerAmount.WithLabelValues(string(recorded.EntryType), string(recorded.Direction)).Add(float64(recorded.Amount))
		}
	})
}

// RecordReconciliation records one reconciliation pass
func RecordReconciliation(trigger string, duration time.Duration, drifted int, err error) {
	reconciliationRuns.WithLabelValues(trigger, strconv.FormatBool(err == nil)).Inc()
	reconciliationDuration.Observe(duration.Seconds())
	reconciliationDrift.Add(float64(drifted))
}

// StatusRecorder captures the status code written through it
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *StatusRecorder) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
