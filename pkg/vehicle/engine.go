package vehicle

import (
	"context"
	"fmt"
	"time"

	"github.com/vehiclepass/vehicle-command/internal/log"
	"github.com/vehiclepass/vehicle-command/pkg/protocol"
	"github.com/vehiclepass/vehicle-command/pkg/status"
	"github.com/vehiclepass/vehicle-command/pkg/units"
)

// MaxRemoteStarts is the number of remote start requests the server accepts before the vehicle
// must be driven. The initial remote start and one shutoff extension each count as one request.
const MaxRemoteStarts = 2

// Engine exposes engine status and the remote start commands.
type Engine struct {
	vehicle *Vehicle
}

// isRunning is true if the ignition is on or the vehicle was remotely started.
func isRunning(s *status.Snapshot) (bool, error) {
	on, err := s.IsIgnitionOn()
	if err != nil {
		return false, err
	}
	if on {
		return true, nil
	}
	return s.IsRemotelyStarted()
}

// isNotRunning is true if the ignition is off and the vehicle was not remotely started. An
// ignition status such as ACCESSORY is neither running nor not running.
func isNotRunning(s *status.Snapshot) (bool, error) {
	off, err := s.IsIgnitionOff()
	if err != nil || !off {
		return false, err
	}
	remote, err := s.IsRemotelyStarted()
	if err != nil {
		return false, err
	}
	return !remote, nil
}

func (e *Engine) IsRunning() (bool, error) {
	return isRunning(e.vehicle.Status())
}

func (e *Engine) IsNotRunning() (bool, error) {
	return isNotRunning(e.vehicle.Status())
}

// IsRemotelyStarted returns true if the engine is running because of a remote start command.
func (e *Engine) IsRemotelyStarted() (bool, error) {
	return e.vehicle.Status().IsRemotelyStarted()
}

// IsIgnitionStarted returns true if the engine was started with the ignition rather than
// remotely.
func (e *Engine) IsIgnitionStarted() (bool, error) {
	return e.vehicle.Status().IsIgnitionOn()
}

// ShutoffCountdown returns the time remaining before a remotely started vehicle shuts off.
func (e *Engine) ShutoffCountdown() (units.Duration, error) {
	return e.vehicle.Status().RemoteStartCountdown()
}

// ShutoffTime returns the time at which a remotely started vehicle will shut off, relative to now.
// It returns the zero time if the countdown is zero.
func (e *Engine) ShutoffTime(now time.Time) (time.Time, error) {
	countdown, err := e.ShutoffCountdown()
	if err != nil {
		return time.Time{}, err
	}
	if countdown.Std() == 0 {
		return time.Time{}, nil
	}
	return now.Add(countdown.Std()), nil
}

func (e *Engine) CoolantTemperature() (units.Temperature, error) {
	return e.vehicle.Status().EngineCoolantTemperature()
}

// RPM returns the current engine speed.
func (e *Engine) RPM() (int, error) {
	return e.vehicle.Status().EngineSpeed()
}

// Start remotely starts the vehicle. Verification is enabled by default. If WithExtendShutoff is
// set, a shutoff extension is requested after the start (see ExtendShutoff).
func (e *Engine) Start(ctx context.Context, opts ...Option) (CommandResult, error) {
	o := e.vehicle.resolve(true, opts)
	result, err := e.vehicle.Execute(ctx, CommandRequest{
		Command:          CommandRemoteStart,
		Guard:            isRunning,
		Force:            o.force,
		Verify:           o.verify,
		VerifyDelay:      o.verifyDelay,
		SuccessMessage:   "Vehicle is now running",
		FailureMessage:   "Vehicle failed to start",
		NotIssuedMessage: "Vehicle is already running, no command issued",
		ForcedMessage:    "Vehicle is already running but force flag enabled, issuing command anyway...",
	})
	if err != nil {
		return result, err
	}

	if o.extendShutoff {
		if _, err := e.extendShutoff(ctx, o); err != nil {
			log.Errorw("Failed to extend shutoff time", "vin", e.vehicle.vin, "error", err)
			return result, err
		}
	}

	if o.verify {
		e.logShutoffTime()
	}
	return result, nil
}

func (e *Engine) logShutoffTime() {
	countdown, err := e.ShutoffCountdown()
	if err != nil {
		log.Warning("Unable to determine vehicle shutoff time: %s", err)
		return
	}
	shutoff, _ := e.ShutoffTime(time.Now())
	if shutoff.IsZero() {
		log.Warning("Unable to determine vehicle shutoff time")
		return
	}
	log.Info("Vehicle will shut off at %s local time (in %s)", shutoff.Local().Format(time.DateTime), countdown.HumanReadable())
}

// ExtendShutoff requests a second remote start, which extends the shutoff time of a remotely
// started vehicle. Verification is disabled by default.
//
// Unless forced, the request is skipped if the vehicle is not running or if MaxRemoteStarts
// requests have already been issued. The request is sent after WithExtendShutoffDelay (default
// [DefaultExtendShutoffDelay]).
func (e *Engine) ExtendShutoff(ctx context.Context, opts ...Option) (CommandResult, error) {
	return e.extendShutoff(ctx, e.vehicle.resolve(false, opts))
}

func (e *Engine) extendShutoff(ctx context.Context, o resolvedOptions) (CommandResult, error) {
	skipped := CommandResult{Command: CommandRemoteStart, Outcome: OutcomeSkipped}

	running, err := e.IsRunning()
	if err != nil {
		return skipped, err
	}
	if !running {
		if !o.force {
			skipped.Message = "Vehicle is not running, shutoff extension command not issued"
			log.Info("%s", skipped.Message)
			return skipped, nil
		}
		log.Info("Vehicle is not running, but force flag enabled, issuing shutoff extension command anyway...")
	}

	if count := e.vehicle.RemoteStartCount(); count >= MaxRemoteStarts {
		if !o.force {
			skipped.Message = fmt.Sprintf("%s, shutoff extension command not issued", protocol.ErrRemoteStartLimit)
			log.Info("%s", skipped.Message)
			return skipped, nil
		}
		log.Info("%s, but force flag enabled, issuing shutoff extension command anyway...", protocol.ErrRemoteStartLimit)
	}

	if o.extendDelay > 0 {
		log.Info("Waiting %s before requesting shutoff extension...", o.extendDelay)
		if err := sleepContext(ctx, o.extendDelay); err != nil {
			return skipped, err
		}
	}

	// The vehicle is expected to be running, so the guard is forced; it is only used to verify.
	return e.vehicle.Execute(ctx, CommandRequest{
		Command:        CommandRemoteStart,
		Guard:          isRunning,
		Force:          true,
		Verify:         o.verify,
		VerifyDelay:    o.verifyDelay,
		SuccessMessage: "Shutoff time extended successfully",
		FailureMessage: "Shutoff time extension failed",
	})
}

// Stop cancels a remote start. Verification is enabled by default.
func (e *Engine) Stop(ctx context.Context, opts ...Option) (CommandResult, error) {
	o := e.vehicle.resolve(true, opts)
	return e.vehicle.Execute(ctx, CommandRequest{
		Command:          CommandCancelRemoteStart,
		Guard:            isNotRunning,
		Force:            o.force,
		Verify:           o.verify,
		VerifyDelay:      o.verifyDelay,
		SuccessMessage:   "Vehicle's engine is now stopped",
		FailureMessage:   "Vehicle's engine failed to stop",
		NotIssuedMessage: "Vehicle is already stopped, no command issued",
		ForcedMessage:    "Vehicle is already stopped but force flag enabled, issuing command anyway...",
	})
}
