package observe

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports operation and cache metrics through a
// Prometheus registry.
type PrometheusRecorder struct {
	ops       *prometheus.CounterVec
	durations *prometheus.HistogramVec
	cache     *prometheus.CounterVec
}

// NewPrometheusRecorder registers the cryostore collectors with reg and
// returns the recorder. Passing prometheus.DefaultRegisterer wires into
// the process-global registry.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryostore_operations_total",
			Help: "Catalog and store operations by outcome.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cryostore_operation_duration_seconds",
			Help:    "Catalog and store operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cryostore_identity_cache_lookups_total",
			Help: "Identity cache lookups by result.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{r.ops, r.durations, r.cache} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records an operation outcome.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.ops.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveCache records an identity-cache lookup.
func (r *PrometheusRecorder) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cache.WithLabelValues(result).Inc()
}
