// Package metrics records validation activity as Prometheus metrics.
//
// Metrics:
//   - message_contract_validations_total: validator runs by validator name and outcome
//   - message_contract_validation_duration_seconds: time spent in a validator's comparison
//   - message_contract_cases_total: suite cases by result
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "message_contract"

// Recorder holds the collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	validations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	cases       *prometheus.CounterVec
}

// NewRecorder creates a Recorder whose collectors are registered with a new registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Total number of validator runs",
			},
			[]string{"validator", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Duration of a validator's comparison in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10), // 1µs to ~260ms
			},
			[]string{"validator"},
		),
		cases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cases_total",
				Help:      "Total number of suite cases by result",
			},
			[]string{"result"},
		),
	}
	r.registry.MustRegister(r.validations, r.duration, r.cases)
	return r
}

// ObserveValidation records one validator run.
func (r *Recorder) ObserveValidation(validator, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.validations.WithLabelValues(validator, outcome).Inc()
	r.duration.WithLabelValues(validator).Observe(elapsed.Seconds())
}

// ObserveCase records the result of one suite case: "passed", "failed" or "skipped".
func (r *Recorder) ObserveCase(result string) {
	if r == nil {
		return
	}
	r.cases.WithLabelValues(result).Inc()
}

// Registry returns the registry the collectors belong to.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteFile writes the current values in the Prometheus text format, for use with the node
// exporter's textfile collector.
func (r *Recorder) WriteFile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
