// Package metrics instruments console commands and lifecycle transitions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns its registry so several services, or tests, can coexist in
// one process.
type Recorder struct {
	registry *prometheus.Registry

	Commands             *prometheus.CounterVec
	CommandDuration      *prometheus.HistogramVec
	LifecycleTransitions *prometheus.CounterVec
	AgreementTransitions *prometheus.CounterVec
	Clients              *prometheus.GaugeVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		Commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_commands_total",
				Help: "Total number of console commands by outcome",
			},
			[]string{"command", "result"}, // result: ok, not_found, invalid, error
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_command_duration_seconds",
				Help:    "Console command duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 100µs to ~200ms
			},
			[]string{"command"},
		),
		LifecycleTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_lifecycle_transitions_total",
				Help: "Client lifecycle status transitions",
			},
			[]string{"from", "to"},
		),
		AgreementTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_agreement_transitions_total",
				Help: "Client agreement status transitions",
			},
			[]string{"to"},
		),
		Clients: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "console_clients",
				Help: "Number of clients by lifecycle status",
			},
			[]string{"status"},
		),
	}
}

// Registry exposes the recorder's registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) RecordCommand(command, result string, duration time.Duration) {
	r.Commands.WithLabelValues(command, result).Inc()
	r.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func (r *Recorder) RecordLifecycle(from, to string) {
	r.LifecycleTransitions.WithLabelValues(from, to).Inc()
}

func (r *Recorder) RecordAgreement(to string) {
	r.AgreementTransitions.WithLabelValues(to).Inc()
}

// SetClients replaces the per-status client gauge values.
func (r *Recorder) SetClients(counts map[string]int) {
	r.Clients.Reset()
	for status, n := range counts {
		r.Clients.WithLabelValues(status).Set(float64(n))
	}
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
