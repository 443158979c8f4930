// Package metrics registers the Prometheus collectors for coverage
// computation, dataset loading and the HTTP surface.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/coverage-cli/internal/dataset"
)

// Collector bundles the process metrics. A nil *Collector is a no-op.
type Collector struct {
	gatherer prometheus.Gatherer

	Computations   *prometheus.CounterVec
	Duration       prometheus.Histogram
	CacheLookups   *prometheus.CounterVec
	Superseded     prometheus.Counter
	DatasetRows    *prometheus.GaugeVec
	DatasetDropped *prometheus.GaugeVec
	SnapshotLoaded prometheus.Gauge
	HTTPRequests   *prometheus.CounterVec
}

// New registers metrics on reg, defaulting to the global registry when nil.
// Registering twice on the same registry reuses the existing collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Computations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coverage_computations_total",
		Help: "Coverage computations by outcome (ok, cancelled, error).",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if c.Duration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "coverage_computation_duration_seconds",
		Help:    "Time spent computing coverage for one radius.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})); err != nil {
		return nil, err
	}
	if c.CacheLookups, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coverage_cache_lookups_total",
		Help: "Result cache lookups by result (hit, miss).",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if c.Superseded, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coverage_superseded_total",
		Help: "Computations cancelled because the same session asked for a newer radius.",
	})); err != nil {
		return nil, err
	}
	if c.DatasetRows, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dataset_rows_loaded",
		Help: "Rows loaded into the current snapshot, by dataset.",
	}, []string{"dataset"})); err != nil {
		return nil, err
	}
	if c.DatasetDropped, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dataset_rows_dropped",
		Help: "Rows dropped for invalid coordinates in the current snapshot, by dataset.",
	}, []string{"dataset"})); err != nil {
		return nil, err
	}
	if c.SnapshotLoaded, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dataset_snapshot_loaded_timestamp_seconds",
		Help: "Unix time the current snapshot was loaded.",
	})); err != nil {
		return nil, err
	}
	if c.HTTPRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "code"})); err != nil {
		return nil, err
	}
	return c, nil
}

// Handler exposes the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveComputation records one finished computation.
func (c *Collector) ObserveComputation(outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Computations.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		c.Duration.Observe(elapsed.Seconds())
	}
}

// CacheHit records a result cache lookup.
func (c *Collector) CacheHit(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	c.CacheLookups.WithLabelValues("miss").Inc()
}

// IncSuperseded records a superseded computation.
func (c *Collector) IncSuperseded() {
	if c == nil {
		return
	}
	c.Superseded.Inc()
}

// SetSnapshot updates the dataset gauges. It matches the dataset.Holder
// subscriber signature.
func (c *Collector) SetSnapshot(s *dataset.Snapshot) {
	if c == nil || s == nil {
		return
	}
	for _, r := range s.Reports {
		c.DatasetRows.WithLabelValues(r.Dataset).Set(float64(r.Loaded))
		c.DatasetDropped.WithLabelValues(r.Dataset).Set(float64(r.Dropped()))
	}
	c.SnapshotLoaded.Set(float64(s.LoadedAt.Unix()))
}

// Middleware counts requests by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, eris.Wrap(err, "metrics: register collector")
	}
	return col, nil
}
