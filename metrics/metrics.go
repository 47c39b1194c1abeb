// Package metrics records build run statistics in Prometheus format.
//
// Build runs are short-lived, so metrics are written to a file for the node_exporter textfile collector rather than served.
// All methods of a nil [*Recorder] are no-ops, so recording can be disabled by not creating one.
package metrics

import (
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/saylorsolutions/tispbuild/task"
)

const (
	Namespace = "tispbuild"

	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Recorder holds the metrics of one run in a private registry.
type Recorder struct {
	registry       *prometheus.Registry
	taskDuration   *prometheus.HistogramVec
	tasksTotal     *prometheus.CounterVec
	packagesTested *prometheus.CounterVec
	coverageRatio  prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of task actions",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"task", "status"}),
		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tasks_total",
			Help:      "Count of task actions run",
		}, []string{"task", "status"}),
		packagesTested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "packages_tested_total",
			Help:      "Count of packages run through the coverage pipeline",
		}, []string{"status"}),
		coverageRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "coverage_ratio",
			Help:      "Fraction of statements covered in the merged coverage report",
		}),
	}
	r.registry.MustRegister(r.taskDuration, r.tasksTotal, r.packagesTested, r.coverageRatio)
	return r
}

func status(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}

// RecordTasks records the results of a run.
// Grouping tasks do no work of their own, so they aren't recorded.
func (r *Recorder) RecordTasks(results []task.Result) {
	if r == nil {
		return
	}
	for _, result := range results {
		if result.Group {
			continue
		}
		s := status(result.Err)
		r.taskDuration.WithLabelValues(result.Task, s).Observe(result.Duration.Seconds())
		r.tasksTotal.WithLabelValues(result.Task, s).Inc()
	}
}

// RecordPackage counts a package test step.
func (r *Recorder) RecordPackage(err error) {
	if r == nil {
		return
	}
	r.packagesTested.WithLabelValues(status(err)).Inc()
}

// RecordCoverage sets the overall coverage ratio.
func (r *Recorder) RecordCoverage(ratio float64) {
	if r == nil {
		return
	}
	r.coverageRatio.Set(ratio)
}

// Gatherer exposes the registry, mostly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.Gatherers{}
	}
	return r.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically, so a collector never reads a partial file.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || len(path) == 0 {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
