// Package vehicle provides a facade for checking the status of a vehicle and sending it commands.
//
// A [Vehicle] caches the most recently fetched [status.Snapshot]. Accessors on the Vehicle and its
// [Doors], [Engine], [Tires], and [SeatBelts] read from that snapshot and never trigger a network
// request; call [Vehicle.Refresh] to fetch a new one. Commands that verify their effect refresh the
// snapshot themselves.
package vehicle

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vehiclepass/vehicle-command/pkg/protocol"
	"github.com/vehiclepass/vehicle-command/pkg/status"
	"github.com/vehiclepass/vehicle-command/pkg/units"
)

const (
	// DefaultVerifyDelay is how long commands wait before checking whether they took effect.
	DefaultVerifyDelay = 30 * time.Second
	// DefaultExtendShutoffDelay is how long Engine.Start waits before requesting a shutoff
	// extension.
	DefaultExtendShutoffDelay = 30 * time.Second
)

//go:generate mockgen -destination ../../mocks/telemetry_client.go -package mocks -mock_names TelemetryClient=TelemetryClient github.com/vehiclepass/vehicle-command/pkg/vehicle TelemetryClient

// TelemetryClient fetches vehicle status and sends commands on behalf of an authenticated account.
type TelemetryClient interface {
	// FetchStatus returns the raw telemetry document for vin.
	FetchStatus(ctx context.Context, vin string) ([]byte, error)
	// SendCommand sends command (a wire name such as "lock") to vin and returns the server's
	// acknowledgement.
	SendCommand(ctx context.Context, vin, command string) ([]byte, error)
}

// A Vehicle represents a single vehicle belonging to an account.
type Vehicle struct {
	// VerifyDelay is the default delay before verifying a command.
	VerifyDelay time.Duration
	// ExtendShutoffDelay is the default delay before requesting a shutoff extension.
	ExtendShutoffDelay time.Duration

	Doors     *Doors
	Engine    *Engine
	Tires     *Tires
	SeatBelts *SeatBelts

	client   TelemetryClient
	vin      string
	prefs    units.Preferences
	snapshot atomic.Pointer[status.Snapshot]
	executor *Executor
}

// New creates a Vehicle with an empty status. Call Refresh before reading status.
func New(client TelemetryClient, vin string, prefs units.Preferences) (*Vehicle, error) {
	if client == nil {
		return nil, &protocol.ConfigurationError{Message: "telemetry client is required"}
	}
	if vin == "" {
		return nil, &protocol.ConfigurationError{Message: "VIN is required"}
	}
	if err := prefs.Validate(); err != nil {
		return nil, &protocol.ConfigurationError{Message: err.Error()}
	}
	v := &Vehicle{
		VerifyDelay:        DefaultVerifyDelay,
		ExtendShutoffDelay: DefaultExtendShutoffDelay,
		client:             client,
		vin:                vin,
		prefs:              prefs,
	}
	v.snapshot.Store(status.Empty(prefs))
	v.executor = newExecutor(v)
	v.Doors = &Doors{vehicle: v}
	v.Engine = &Engine{vehicle: v}
	v.Tires = &Tires{vehicle: v}
	v.SeatBelts = &SeatBelts{vehicle: v}
	return v, nil
}

func (v *Vehicle) VIN() string {
	return v.vin
}

func (v *Vehicle) Preferences() units.Preferences {
	return v.prefs
}

// Status returns the most recently fetched snapshot. It never returns nil.
func (v *Vehicle) Status() *status.Snapshot {
	return v.snapshot.Load()
}

// Refresh fetches the vehicle status and replaces the cached snapshot. The cached snapshot is left
// unchanged if the request fails.
func (v *Vehicle) Refresh(ctx context.Context) error {
	body, err := v.client.FetchStatus(ctx, v.vin)
	if err != nil {
		return err
	}
	snapshot, err := status.Parse(body, v.prefs)
	if err != nil {
		return err
	}
	v.snapshot.Store(snapshot)
	return nil
}

// Execute runs a command request. Most callers should use the methods of [Doors] and [Engine],
// which supply the appropriate guard and messages.
func (v *Vehicle) Execute(ctx context.Context, req CommandRequest) (CommandResult, error) {
	return v.executor.Execute(ctx, req)
}

// RemoteStartCount returns the number of remote start requests issued by this client. The server
// rejects further remote start requests once two have been issued without the vehicle being
// driven.
func (v *Vehicle) RemoteStartCount() int {
	return v.executor.RemoteStartCount()
}

// ResetRemoteStartCount resets the remote start count, for example after the vehicle has been
// driven. Stopping the engine does not reset the count.
func (v *Vehicle) ResetRemoteStartCount() {
	v.executor.ResetRemoteStartCount()
}

func (v *Vehicle) OutsideTemperature() (units.Temperature, error) {
	return v.Status().OutsideTemperature()
}

func (v *Vehicle) Odometer() (units.Distance, error) {
	return v.Status().Odometer()
}

func (v *Vehicle) FuelLevel() (units.Percentage, error) {
	return v.Status().FuelLevel()
}

func (v *Vehicle) FuelRange() (units.Distance, error) {
	return v.Status().FuelRange()
}

func (v *Vehicle) BatteryVoltage() (units.ElectricPotential, error) {
	return v.Status().BatteryVoltage()
}

func (v *Vehicle) AlarmStatus() (string, error) {
	return v.Status().AlarmStatus()
}
