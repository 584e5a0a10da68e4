// Package metrics records compilation runs as Prometheus metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rules_compiler"

// Recorder holds the collectors for compilation runs. A nil *Recorder is a
// valid no-op recorder.
type Recorder struct {
	runs          *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	engineSeconds prometheus.Histogram
	rules         *prometheus.GaugeVec
	lastSuccess   *prometheus.GaugeVec
	publishes     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Compilation runs by outcome",
			},
			[]string{"status"},
		),
		stageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_failures_total",
				Help:      "Aborted runs by the state they aborted from",
			},
			[]string{"stage"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of a full compilation run",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"status"},
		),
		engineSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "engine_duration_seconds",
				Help:      "Wall time of the engine subprocess",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		),
		rules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rules",
				Help:      "Rule count of the last successful compilation",
			},
			[]string{"config"},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful compilation",
			},
			[]string{"config"},
		),
		publishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "publish_total",
				Help:      "Publish copies by outcome",
			},
			[]string{"status"},
		),
	}

	r.registry.MustRegister(r.runs, r.stageFailures, r.runDuration, r.engineSeconds, r.rules, r.lastSuccess, r.publishes)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RunFinished records the outcome of a run. stage is the last state reached
// before an abort and is ignored on success.
func (r *Recorder) RunFinished(config string, success bool, stage string, rules int, d time.Duration, at time.Time) {
	if r == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
		r.stageFailures.WithLabelValues(stage).Inc()
	}
	r.runs.WithLabelValues(status).Inc()
	r.runDuration.WithLabelValues(status).Observe(d.Seconds())
	if success {
		r.rules.WithLabelValues(config).Set(float64(rules))
		r.lastSuccess.WithLabelValues(config).Set(float64(at.Unix()))
	}
}

// EngineFinished records the engine's wall time.
func (r *Recorder) EngineFinished(d time.Duration) {
	if r == nil {
		return
	}
	r.engineSeconds.Observe(d.Seconds())
}

// Published records a publish attempt.
func (r *Recorder) Published(ok bool) {
	if r == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	r.publishes.WithLabelValues(status).Inc()
}

// WriteTextfile writes the current values in the text exposition format,
// suitable for node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
