package vehicle

import (
	"github.com/vehiclepass/vehicle-command/pkg/status"
	"github.com/vehiclepass/vehicle-command/pkg/units"
)

// Tires exposes tire pressure readings.
type Tires struct {
	vehicle *Vehicle
}

func (t *Tires) Pressure(position status.WheelPosition) (units.Pressure, error) {
	return t.vehicle.Status().TirePressure(position)
}

// Status returns the warning state of the tire at position, such as NORMAL or LOW.
func (t *Tires) Status(position status.WheelPosition) (string, error) {
	return t.vehicle.Status().TirePressureStatus(position)
}

// SystemStatus returns the state of the tire pressure monitoring system.
func (t *Tires) SystemStatus() (string, error) {
	return t.vehicle.Status().TirePressureSystemStatus()
}

// Positions returns the wheels with a pressure reading.
func (t *Tires) Positions() ([]status.WheelPosition, error) {
	return t.vehicle.Status().Wheels()
}
