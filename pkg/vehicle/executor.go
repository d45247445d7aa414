package vehicle

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vehiclepass/vehicle-command/internal/log"
	"github.com/vehiclepass/vehicle-command/pkg/protocol"
)

// Executor issues commands on behalf of a [Vehicle]. Commands are only sent when the vehicle
// isn't already in the target state (unless forced) and can optionally be verified by refreshing
// the vehicle status after a fixed delay.
//
// Verification is a single check. If the vehicle hasn't reached the target state after the delay,
// the Executor returns a *protocol.CommandVerificationError rather than retrying, since the
// command may still take effect and resending it could count against server-side limits.
type Executor struct {
	vehicle      *Vehicle
	remoteStarts atomic.Int64
}

func newExecutor(v *Vehicle) *Executor {
	return &Executor{vehicle: v}
}

// RemoteStartCount returns the number of remote start commands successfully issued since the
// Executor was created or last reset.
func (e *Executor) RemoteStartCount() int {
	return int(e.remoteStarts.Load())
}

// ResetRemoteStartCount sets the remote start count to zero. The server's own count resets when
// the vehicle is driven, which the client cannot observe.
func (e *Executor) ResetRemoteStartCount() {
	e.remoteStarts.Store(0)
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func record(req *CommandRequest, outcome string, started time.Time) {
	CommandsTotal.WithLabelValues(req.Command.String(), outcome).Inc()
	if !started.IsZero() {
		CommandDuration.WithLabelValues(req.Command.String()).Observe(time.Since(started).Seconds())
	}
}

func logMessage(message string) {
	if message != "" {
		log.Info("%s", message)
	}
}

// Execute runs req. Errors returned by the TelemetryClient while sending the command are returned
// unmodified; callers can inspect them (for example, with errors.As and *inet.HttpError).
func (e *Executor) Execute(ctx context.Context, req CommandRequest) (CommandResult, error) {
	result := CommandResult{Command: req.Command, Outcome: OutcomeSkipped}
	if req.Verify && req.Guard == nil {
		record(&req, outcomeFailed, time.Time{})
		return result, &protocol.ConfigurationError{
			Message: "verification of " + req.Command.String() + " requested without a predicate",
		}
	}

	if req.Guard != nil {
		satisfied, err := req.Guard(e.vehicle.Status())
		if err != nil {
			record(&req, outcomeFailed, time.Time{})
			return result, err
		}
		if satisfied {
			if !req.Force {
				logMessage(req.NotIssuedMessage)
				result.Message = req.NotIssuedMessage
				record(&req, OutcomeSkipped.String(), time.Time{})
				return result, nil
			}
			logMessage(req.ForcedMessage)
		}
	}

	started := time.Now()
	ack, err := e.vehicle.client.SendCommand(ctx, e.vehicle.vin, req.Command.String())
	if err != nil {
		log.Errorw("Command failed", "command", req.Command.String(), "error", err)
		record(&req, outcomeFailed, started)
		return result, err
	}
	if req.Command.IsRemoteStart() {
		e.remoteStarts.Add(1)
	}
	result.Outcome = OutcomeIssued
	result.Response = ack
	log.Infow("Command issued", "command", req.Command.String(), "vin", e.vehicle.vin)

	if !req.Verify {
		record(&req, OutcomeIssued.String(), started)
		return result, nil
	}

	log.Info("Waiting %s before verifying %s command...", req.VerifyDelay, req.Command)
	if err := sleepContext(ctx, req.VerifyDelay); err != nil {
		record(&req, outcomeFailed, started)
		return result, err
	}
	if err := e.vehicle.Refresh(ctx); err != nil {
		record(&req, outcomeFailed, started)
		return result, err
	}
	satisfied, err := req.Guard(e.vehicle.Status())
	if err != nil {
		record(&req, outcomeFailed, started)
		return result, err
	}
	if !satisfied {
		log.Error("%s", req.FailureMessage)
		record(&req, outcomeUnverified, started)
		return result, &protocol.CommandVerificationError{Command: req.Command.String(), Message: req.FailureMessage}
	}
	logMessage(req.SuccessMessage)
	result.Outcome = OutcomeVerified
	result.Message = req.SuccessMessage
	record(&req, OutcomeVerified.String(), started)
	return result, nil
}
