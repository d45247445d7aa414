package vehicle

import (
	"context"

	"github.com/vehiclepass/vehicle-command/pkg/status"
)

// Doors exposes door status and the lock and unlock commands.
type Doors struct {
	vehicle *Vehicle
}

func areLocked(s *status.Snapshot) (bool, error) {
	return s.IsLocked()
}

func areUnlocked(s *status.Snapshot) (bool, error) {
	locked, err := s.IsLocked()
	return !locked, err
}

// AreLocked returns true if the aggregate lock state of the vehicle is LOCKED.
func (d *Doors) AreLocked() (bool, error) {
	return areLocked(d.vehicle.Status())
}

// AreUnlocked returns true if the aggregate lock state of the vehicle is anything other than
// LOCKED.
func (d *Doors) AreUnlocked() (bool, error) {
	return areUnlocked(d.vehicle.Status())
}

// Status returns the open/closed state of the door at position.
func (d *Doors) Status(position status.DoorPosition) (string, error) {
	return d.vehicle.Status().DoorStatus(position)
}

// LockStatus returns the lock state reported for position.
func (d *Doors) LockStatus(position status.DoorPosition) (string, error) {
	return d.vehicle.Status().DoorLockStatus(position)
}

// Positions returns the doors reported by the vehicle.
func (d *Doors) Positions() ([]status.DoorPosition, error) {
	return d.vehicle.Status().Doors()
}

// Lock locks the vehicle. Verification is disabled by default.
func (d *Doors) Lock(ctx context.Context, opts ...Option) (CommandResult, error) {
	o := d.vehicle.resolve(false, opts)
	return d.vehicle.Execute(ctx, CommandRequest{
		Command:          CommandLock,
		Guard:            areLocked,
		Force:            o.force,
		Verify:           o.verify,
		VerifyDelay:      o.verifyDelay,
		SuccessMessage:   "Doors are now locked",
		FailureMessage:   "Doors failed to lock",
		NotIssuedMessage: "Doors are already locked, no command issued",
		ForcedMessage:    "Doors are already locked but force flag enabled, issuing command anyway...",
	})
}

// Unlock unlocks the vehicle. Verification is disabled by default.
func (d *Doors) Unlock(ctx context.Context, opts ...Option) (CommandResult, error) {
	o := d.vehicle.resolve(false, opts)
	return d.vehicle.Execute(ctx, CommandRequest{
		Command:          CommandUnlock,
		Guard:            areUnlocked,
		Force:            o.force,
		Verify:           o.verify,
		VerifyDelay:      o.verifyDelay,
		SuccessMessage:   "Doors are now unlocked",
		FailureMessage:   "Doors failed to unlock",
		NotIssuedMessage: "Doors are already unlocked, no command issued",
		ForcedMessage:    "Doors are already unlocked but force flag enabled, issuing command anyway...",
	})
}
