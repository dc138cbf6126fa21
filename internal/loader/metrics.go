package loader

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolution outcomes recorded by Metrics.
const (
	OutcomeResolver = "resolver" // claimed by a protocol resolver
	OutcomeDefault  = "default"  // handled by the default strategy
	OutcomeFailure  = "failure"  // a protocol resolver failed
	OutcomeError    = "error"    // the default strategy failed
)

// Metrics records resolution counts and latency.
// A nil *Metrics records nothing.
type Metrics struct {
	resolutions *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics creates the resolution collectors and registers them with reg.
// Collectors already registered by another loader are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	resolutions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resio_resolutions_total",
			Help: "Total number of resource resolutions by outcome.",
		},
		[]string{"outcome"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resio_resolution_duration_seconds",
			Help:    "Time taken to resolve a resource location.",
			Buckets: prometheus.DefBuckets,
		},
	)

	var err error
	if resolutions, err = register(reg, resolutions); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}

	return &Metrics{resolutions: resolutions, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}

		return c, err
	}

	return c, nil
}

func (m *Metrics) observe(outcome string, start time.Time) {
	if m == nil {
		return
	}

	m.resolutions.WithLabelValues(outcome).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}
