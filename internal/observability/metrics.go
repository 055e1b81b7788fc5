package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch kinds.
const (
	KindClassJob = "classjob"
	KindPhantom  = "phantom"
	KindIgnored  = "ignored"
)

// Dispatch outcomes.
const (
	OutcomeEquipped       = "equipped"
	OutcomeSwitched       = "switched"
	OutcomeNotFound       = "not_found"
	OutcomeWrongTerritory = "wrong_territory"
	OutcomeFailed         = "failed"
	OutcomeIgnored        = "ignored"
)

const (
	metricNameCommandsDispatched = "jobswitch_commands_dispatched_total"
	metricNameRegisteredCommands = "jobswitch_registered_commands"
	metricNameDuplicateCommands  = "jobswitch_duplicate_commands_total"

	labelKind    = "kind"
	labelOutcome = "outcome"
)

// Metrics holds the dispatcher's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	CommandsDispatched *prometheus.CounterVec
	RegisteredCommands prometheus.Gauge
	DuplicateCommands  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
//
// Precondition: reg must be non-nil and must not already hold these collectors.
// Postcondition: Returns Metrics whose collectors are registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CommandsDispatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricNameCommandsDispatched,
				Help: "Job commands handled, by command kind and outcome.",
			},
			[]string{labelKind, labelOutcome},
		),
		RegisteredCommands: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: metricNameRegisteredCommands,
				Help: "Number of job commands currently registered.",
			},
		),
		DuplicateCommands: factory.NewCounter(
			prometheus.CounterOpts{
				Name: metricNameDuplicateCommands,
				Help: "Command registrations skipped because the string was already taken.",
			},
		),
	}
}

// Dispatched counts one handled command.
func (m *Metrics) Dispatched(kind, outcome string) {
	if m == nil {
		return
	}
	m.CommandsDispatched.WithLabelValues(kind, outcome).Inc()
}

// SetRegistered records the size of the tracked command set.
func (m *Metrics) SetRegistered(n int) {
	if m == nil {
		return
	}
	m.RegisteredCommands.Set(float64(n))
}

// Duplicate counts one skipped registration.
func (m *Metrics) Duplicate() {
	if m == nil {
		return
	}
	m.DuplicateCommands.Inc()
}
