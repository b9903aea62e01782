// Package metrics exports registry activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rpggio/projreg/internal/domain/event"
	"github.com/rpggio/projreg/internal/domain/project"
)

var (
	_ project.MetricsRecorder = (*Recorder)(nil)
	_ project.Observer        = (*Recorder)(nil)
)

// Recorder counts operations and committed events.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	events     *prometheus.CounterVec
}

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "projreg",
			Name:      "operations_total",
			Help:      "Registry operations by outcome.",
		}, []string{"op", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "projreg",
			Name:      "operation_duration_seconds",
			Help:      "Registry operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "projreg",
			Name:      "events_total",
			Help:      "Committed notification log entries.",
		}, []string{"kind", "status"}),
	}
	r.registry.MustRegister(
		r.operations,
		r.durations,
		r.events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe implements project.MetricsRecorder.
func (r *Recorder) Observe(_ context.Context, operation string, err error, duration time.Duration) {
	r.operations.WithLabelValues(operation, Result(err)).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// Notify implements project.Observer.
func (r *Recorder) Notify(_ context.Context, evt event.Event) {
	r.events.WithLabelValues(string(evt.Kind), evt.Status).Inc()
}

// Handler serves the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Result labels an operation outcome: "ok", a lowercased error kind, or
// "error" for failures without a kind.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	if kind, ok := project.KindOf(err); ok {
		return strings.ToLower(string(kind))
	}
	return "error"
}
