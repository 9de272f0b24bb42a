// Package metrics exposes Prometheus collectors for inference runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics reports inference activity.
type Metrics struct {
	calls      *prometheus.CounterVec
	sweeps     prometheus.Counter
	duration   *prometheus.HistogramVec
	freeEnergy prometheus.Gauge
}

// MustNew constructs the collectors and registers them with reg. Collectors
// already registered under the same names are reused.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	calls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mmp",
			Subsystem: "inference",
			Name:      "calls_total",
			Help:      "Inference calls by update rule and outcome.",
		},
		[]string{"rule", "status"},
	)
	sweeps := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mmp",
			Subsystem: "inference",
			Name:      "sweeps_total",
			Help:      "Full message-passing sweeps executed.",
		},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mmp",
			Subsystem: "inference",
			Name:      "duration_seconds",
			Help:      "Wall time of one inference call.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		},
		[]string{"rule"},
	)
	freeEnergy := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mmp",
			Subsystem: "inference",
			Name:      "last_free_energy",
			Help:      "Accumulated free energy of the most recent successful call.",
		},
	)

	return &Metrics{
		calls:      register(reg, calls),
		sweeps:     register(reg, sweeps),
		duration:   register(reg, duration),
		freeEnergy: register(reg, freeEnergy),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveSuccess records a completed call.
func (m *Metrics) ObserveSuccess(rule string, sweeps int, d time.Duration, freeEnergy float64) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(rule, "ok").Inc()
	m.sweeps.Add(float64(sweeps))
	m.duration.WithLabelValues(rule).Observe(d.Seconds())
	m.freeEnergy.Set(freeEnergy)
}

// ObserveFailure records a rejected call.
func (m *Metrics) ObserveFailure(rule string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(rule, "error").Inc()
}

// WriteTextfile writes everything gathered by g to path in the text
// exposition format, for node-exporter style textfile collection.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
