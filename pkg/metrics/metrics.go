// Package metrics exposes Prometheus instrumentation for manipd calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/aretw0/manipd/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts remote calls per front-end and operation.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry  *prometheus.Registry
	calls     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	obstacles prometheus.Gauge
	problems  prometheus.Gauge
}

// New creates a Recorder on its own registry, with Go and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manipd_calls_total",
				Help: "Total number of remote calls by front-end, operation and result kind",
			},
			[]string{"service", "operation", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "manipd_call_duration_seconds",
				Help:    "Duration of remote calls, lock wait included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),
		obstacles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "manipd_obstacles",
			Help: "Obstacles in the active problem after the last mutation",
		}),
		problems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "manipd_problems",
			Help: "Problems held by the registry",
		}),
	}
	r.registry.MustRegister(
		r.calls, r.duration, r.obstacles, r.problems,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records one call. result is the error kind, or "ok".
func (r *Recorder) Observe(service, operation, result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.calls.WithLabelValues(service, operation, result).Inc()
	r.duration.WithLabelValues(service, operation).Observe(elapsed.Seconds())
}

// Result labels the outcome of a call: "ok" or the error kind.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	return domain.KindOf(err)
}

// SetWorld publishes registry and active problem sizes.
func (r *Recorder) SetWorld(problems, obstacles int) {
	if r == nil {
		return
	}
	r.problems.Set(float64(problems))
	r.obstacles.Set(float64(obstacles))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, e.g. for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }
