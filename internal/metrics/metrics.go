// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes per-run counters in the node_exporter textfile
// format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"grimm.is/yamato/internal/errors"
)

// Metrics holds the Prometheus collectors for one invocation.
type Metrics struct {
	registry *prometheus.Registry

	// Lifecycle
	WorkersStarted prometheus.Counter
	WorkerFailures *prometheus.CounterVec
	FleetSize      prometheus.Gauge
	ReadyLatency   prometheus.Histogram

	// Stop sweep
	Signals          *prometheus.CounterVec
	LivenessFailures prometheus.Counter

	// Log mining
	LinesScanned  prometheus.Gauge
	LinesRetained prometheus.Gauge
	ConnectEvents prometheus.Counter
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		WorkersStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yamato_workers_started_total",
			Help: "Total number of workers that reported an identity after spawn",
		}),
		WorkerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yamato_worker_failures_total",
			Help: "Total number of workers that failed to start, by reason",
		}, []string{"reason"}),
		FleetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yamato_fleet_size",
			Help: "Number of records in the persisted process map",
		}),
		ReadyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "yamato_worker_ready_seconds",
			Help:    "Time from spawn until the worker identity file was readable",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yamato_stop_signals_total",
			Help: "Total number of termination signals attempted, by result",
		}, []string{"result"}),
		LivenessFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yamato_liveness_failures_total",
			Help: "Total number of liveness probes that found no process",
		}),
		LinesScanned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yamato_log_lines_scanned",
			Help: "Number of lines read from the log source",
		}),
		LinesRetained: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yamato_log_lines_retained",
			Help: "Number of log lines carrying the worker tag",
		}),
		ConnectEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yamato_connect_events_total",
			Help: "Total number of connection events reconstructed from the log",
		}),
	}

	m.registry.MustRegister(
		m.WorkersStarted,
		m.WorkerFailures,
		m.FleetSize,
		m.ReadyLatency,
		m.Signals,
		m.LivenessFailures,
		m.LinesScanned,
		m.LinesRetained,
		m.ConnectEvents,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics to path for the textfile collector.
// The write goes through a temporary file and rename.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Attr(errors.Wrap(err, errors.KindInternal, "failed to write metrics textfile"), "path", path)
	}
	return nil
}
