package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "sdk_provisioner"

	// Label values for the result label.
	ResultDone    = "done"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Metrics holds the collectors of a single run. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	stepsTotal      *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
	componentsTotal *prometheus.CounterVec
	lastRun         prometheus.Gauge
}

// New creates collectors registered in a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "step",
				Name:      "total",
				Help:      "Provisioning steps by step name and result",
			},
			[]string{"step", "result"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "step",
				Name:      "duration_seconds",
				Help:      "Duration of provisioning steps in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10), // 10ms to ~43min
			},
			[]string{"step"},
		),
		componentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "component",
				Name:      "updates_total",
				Help:      "SDK component updates by component type and result",
			},
			[]string{"type", "result"},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last provisioning run finished",
			},
		),
	}

	m.registry.MustRegister(m.stepsTotal, m.stepDuration, m.componentsTotal, m.lastRun)

	return m
}

// ObserveStep records the result and duration of a step.
func (m *Metrics) ObserveStep(step, result string, duration time.Duration) {
	if m == nil {
		return
	}

	m.stepsTotal.WithLabelValues(step, result).Inc()
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// ObserveComponent records the result of a component update.
func (m *Metrics) ObserveComponent(componentType, result string) {
	if m == nil {
		return
	}

	m.componentsTotal.WithLabelValues(componentType, result).Inc()
}

// MarkFinished stores the completion time of the run.
func (m *Metrics) MarkFinished(at time.Time) {
	if m == nil {
		return
	}

	m.lastRun.Set(float64(at.Unix()))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}
