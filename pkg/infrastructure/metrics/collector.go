// Package metrics provides metrics collection for benchmark runs.
package metrics

import (
	"time"
)

// Metric names recorded by a benchmark run.
const (
	StatementDuration = "rsbench_statement_duration_seconds"
	StatementsTotal   = "rsbench_statements_total"
	RowsLoaded        = "rsbench_rows_loaded"
	ScenarioWall      = "rsbench_scenario_wall_seconds"
	ScenarioSQL       = "rsbench_scenario_sql_seconds"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncrementCounter increments a counter metric.
	IncrementCounter(name string, labels ...string)

	// RecordHistogram records a value in a histogram metric.
	RecordHistogram(name string, value float64, labels ...string)

	// RecordGauge records a gauge metric value.
	RecordGauge(name string, value float64, labels ...string)

	// StartTimer starts a timer for measuring duration.
	StartTimer(name string) Timer
}

// Timer represents a timing measurement.
type Timer interface {
	// Stop stops the timer and returns the duration in seconds.
	Stop() float64
}

// NoOpCollector is a no-op implementation of Collector.
type NoOpCollector struct{}

// NewNoOpCollector creates a new no-op collector.
func NewNoOpCollector() Collector {
	return &NoOpCollector{}
}

// IncrementCounter does nothing.
func (n *NoOpCollector) IncrementCounter(name string, labels ...string) {}

// RecordHistogram does nothing.
func (n *NoOpCollector) RecordHistogram(name string, value float64, labels ...string) {}

// RecordGauge does nothing.
func (n *NoOpCollector) RecordGauge(name string, value float64, labels ...string) {}

// StartTimer returns a timer that only measures.
func (n *NoOpCollector) StartTimer(name string) Timer {
	return &wallTimer{start: time.Now()}
}

// wallTimer measures elapsed wall-clock time.
type wallTimer struct {
	start time.Time
}

// Stop returns the elapsed time in seconds.
func (t *wallTimer) Stop() float64 {
	return time.Since(t.start).Seconds()
}
