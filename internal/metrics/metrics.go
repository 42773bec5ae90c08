// Package metrics counts scenario, step and session outcomes in a private
// Prometheus registry that can be written to a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the run metrics. A nil *Recorder is valid and records
// nothing, so callers never need to guard.
type Recorder struct {
	registry *prometheus.Registry

	scenarios        *prometheus.CounterVec
	steps            *prometheus.CounterVec
	stepDuration     *prometheus.HistogramVec
	sessionsReleased prometheus.Counter
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		scenarios: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mobilindo",
				Subsystem: "e2e",
				Name:      "scenarios_total",
				Help:      "Total number of scenarios executed, by outcome.",
			},
			[]string{"scenario", "status"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mobilindo",
				Subsystem: "e2e",
				Name:      "steps_total",
				Help:      "Total number of scenario steps executed, by action and outcome.",
			},
			[]string{"action", "status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mobilindo",
				Subsystem: "e2e",
				Name:      "step_duration_seconds",
				Help:      "Step execution time in seconds, including settle delays.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"action"},
		),
		sessionsReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mobilindo",
			Subsystem: "e2e",
			Name:      "sessions_released_total",
			Help:      "Browser sessions released after a scenario.",
		}),
	}
	r.registry.MustRegister(r.scenarios, r.steps, r.stepDuration, r.sessionsReleased)
	return r
}

// ObserveStep records one executed step.
func (r *Recorder) ObserveStep(action, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.steps.WithLabelValues(action, status).Inc()
	r.stepDuration.WithLabelValues(action).Observe(d.Seconds())
}

// ScenarioFinished records a scenario outcome (PASS or FAIL).
func (r *Recorder) ScenarioFinished(scenario, status string) {
	if r == nil {
		return
	}
	r.scenarios.WithLabelValues(scenario, status).Inc()
}

// SessionReleased records a completed session teardown.
func (r *Recorder) SessionReleased() {
	if r == nil {
		return
	}
	r.sessionsReleased.Inc()
}

// Registry exposes the underlying registry as a gatherer.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes every metric in the Prometheus text format to path,
// atomically, for the node exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
