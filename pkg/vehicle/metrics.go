package vehicle

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CommandsTotal counts command invocations by wire name and outcome (skipped, issued,
	// verified, unverified, failed).
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vehiclepass_commands_total",
			Help: "Total number of vehicle commands by outcome.",
		},
		[]string{"command", "outcome"},
	)

	// CommandDuration observes the time from sending a command to its final outcome, including
	// any verification delay.
	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vehiclepass_command_duration_seconds",
			Help:    "Time taken to issue and optionally verify vehicle commands.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"command"},
	)
)

const (
	outcomeUnverified = "unverified"
	outcomeFailed     = "failed"
)

// RegisterMetrics registers the command metrics with r. Registering the same collectors twice is
// not an error.
func RegisterMetrics(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{CommandsTotal, CommandDuration} {
		if err := r.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	return nil
}
