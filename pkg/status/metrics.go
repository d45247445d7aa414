package status

import (
	"strings"
	"time"

	"github.com/vehiclepass/vehicle-command/pkg/protocol"
	"github.com/vehiclepass/vehicle-command/pkg/units"
)

// Metric names used by the telemetry API.
const (
	MetricOutsideTemperature       = "outsideTemperature"
	MetricEngineCoolantTemperature = "engineCoolantTemp"
	MetricOdometer                 = "odometer"
	MetricFuelLevel                = "fuelLevel"
	MetricFuelRange                = "fuelRange"
	MetricBatteryVoltage           = "batteryVoltage"
	MetricBatteryStateOfCharge     = "batteryStateOfCharge"
	MetricEngineSpeed              = "engineSpeed"
	MetricIgnitionStatus           = "ignitionStatus"
	MetricAlarmStatus              = "alarmStatus"
	MetricHoodStatus               = "hoodStatus"
	MetricCompassDirection         = "compassDirection"
	MetricGearLeverPosition        = "gearLeverPosition"
	MetricRemoteStartCountdown     = "remoteStartCountdownTimer"
	MetricDoorLockStatus           = "doorLockStatus"
	MetricDoorStatus               = "doorStatus"
	MetricTirePressure             = "tirePressure"
	MetricTirePressureStatus       = "tirePressureStatus"
	MetricTirePressureSystemStatus = "tirePressureSystemStatus"
	MetricSeatBeltStatus           = "seatBeltStatus"
)

const (
	IgnitionOn  = "ON"
	IgnitionOff = "OFF"
	Locked      = "LOCKED"
	Unlocked    = "UNLOCKED"

	remoteStartRunning = "RUNNING"
)

// UpdateTime returns the server timestamp of the response.
func (s *Snapshot) UpdateTime() (time.Time, error) {
	value, ok := s.raw["updateTime"].(string)
	if !ok {
		return time.Time{}, protocol.NewStatusError("updateTime", "not found in status response")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, protocol.NewStatusError("updateTime", "%s", err)
	}
	return t, nil
}

func (s *Snapshot) OutsideTemperature() (units.Temperature, error) {
	v, err := s.number(MetricOutsideTemperature)
	if err != nil {
		return units.Temperature{}, err
	}
	return s.prefs.NewTemperature(v), nil
}

func (s *Snapshot) EngineCoolantTemperature() (units.Temperature, error) {
	v, err := s.number(MetricEngineCoolantTemperature)
	if err != nil {
		return units.Temperature{}, err
	}
	return s.prefs.NewTemperature(v), nil
}

func (s *Snapshot) Odometer() (units.Distance, error) {
	v, err := s.number(MetricOdometer)
	if err != nil {
		return units.Distance{}, err
	}
	return s.prefs.NewDistance(v), nil
}

func (s *Snapshot) FuelLevel() (units.Percentage, error) {
	v, err := s.number(MetricFuelLevel)
	if err != nil {
		return units.Percentage{}, err
	}
	return s.prefs.NewPercentage(v), nil
}

func (s *Snapshot) FuelRange() (units.Distance, error) {
	v, err := s.number(MetricFuelRange)
	if err != nil {
		return units.Distance{}, err
	}
	return s.prefs.NewDistance(v), nil
}

func (s *Snapshot) BatteryVoltage() (units.ElectricPotential, error) {
	v, err := s.number(MetricBatteryVoltage)
	if err != nil {
		return units.ElectricPotential{}, err
	}
	return s.prefs.NewElectricPotential(v), nil
}

// BatteryStateOfCharge returns the 12V battery charge in percent.
func (s *Snapshot) BatteryStateOfCharge() (float64, error) {
	return s.Float(MetricBatteryStateOfCharge)
}

// EngineSpeed returns the engine speed in RPM.
func (s *Snapshot) EngineSpeed() (int, error) {
	return s.Int(MetricEngineSpeed)
}

func (s *Snapshot) IgnitionStatus() (string, error) {
	return s.String(MetricIgnitionStatus)
}

func (s *Snapshot) AlarmStatus() (string, error) {
	return s.String(MetricAlarmStatus)
}

func (s *Snapshot) HoodStatus() (string, error) {
	return s.String(MetricHoodStatus)
}

func (s *Snapshot) CompassDirection() (string, error) {
	return s.String(MetricCompassDirection)
}

func (s *Snapshot) GearLeverPosition() (string, error) {
	return s.String(MetricGearLeverPosition)
}

// IsIgnitionOn returns true if the ignition status is ON. A remotely started vehicle reports its
// ignition as OFF.
func (s *Snapshot) IsIgnitionOn() (bool, error) {
	status, err := s.IgnitionStatus()
	if err != nil {
		return false, err
	}
	return strings.EqualFold(status, IgnitionOn), nil
}

// IsIgnitionOff returns true if the ignition status is OFF. Other values (such as ACCESSORY) are
// neither on nor off.
func (s *Snapshot) IsIgnitionOff() (bool, error) {
	status, err := s.IgnitionStatus()
	if err != nil {
		return false, err
	}
	return strings.EqualFold(status, IgnitionOff), nil
}

// RemoteStartCountdown returns the time remaining until a remotely started vehicle shuts off.
func (s *Snapshot) RemoteStartCountdown() (units.Duration, error) {
	v, err := s.number(MetricRemoteStartCountdown)
	if err != nil {
		return units.Duration{}, err
	}
	if v < 0 {
		return units.Duration{}, protocol.NewStatusError(MetricRemoteStartCountdown, "negative duration (%v)", v)
	}
	return s.prefs.NewDuration(v), nil
}

// IsRemotelyStarted returns true if the engine is running because of a remote start command.
func (s *Snapshot) IsRemotelyStarted() (bool, error) {
	conditions, err := s.path("events", "remoteStartEvent", "conditions")
	if err != nil {
		return false, err
	}
	began, ok := conditions["remoteStartBegan"]
	if !ok {
		return false, nil
	}
	beganObj, ok := began.(map[string]interface{})
	if !ok {
		return false, protocol.NewStatusError("remoteStartBegan", "expected object, got %T", began)
	}
	device, ok := beganObj["remoteStartDeviceStatus"].(map[string]interface{})
	if !ok {
		return false, protocol.NewStatusError("remoteStartBegan", "remoteStartDeviceStatus not found")
	}
	value, ok := device["value"].(string)
	if !ok {
		return false, protocol.NewStatusError("remoteStartDeviceStatus", "value not found")
	}
	return value == remoteStartRunning, nil
}

// DoorLockStatus returns the lock state of a door. Most vehicles only report DoorAll.
func (s *Snapshot) DoorLockStatus(position DoorPosition) (string, error) {
	value, err := s.tagged(MetricDoorLockStatus, doorTag, string(position), KindString)
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// IsLocked returns true if the aggregate lock state of all doors is LOCKED.
func (s *Snapshot) IsLocked() (bool, error) {
	status, err := s.DoorLockStatus(DoorAll)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(status, Locked), nil
}

// DoorStatus returns the open/closed state of a door.
func (s *Snapshot) DoorStatus(position DoorPosition) (string, error) {
	value, err := s.tagged(MetricDoorStatus, doorTag, string(position), KindString)
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// Doors returns the individual door positions reported by the vehicle, in the order of
// [DoorPositions]. Unrecognized tags are omitted.
func (s *Snapshot) Doors() ([]DoorPosition, error) {
	tags, err := s.tags(MetricDoorStatus, doorTag)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool)
	for _, t := range tags {
		present[t] = true
	}
	var positions []DoorPosition
	for _, p := range DoorPositions {
		if present[string(p)] {
			positions = append(positions, p)
		}
	}
	return positions, nil
}

func (s *Snapshot) TirePressure(position WheelPosition) (units.Pressure, error) {
	value, err := s.tagged(MetricTirePressure, wheelTag, string(position), KindNumber)
	if err != nil {
		return units.Pressure{}, err
	}
	return s.prefs.NewPressure(value.(float64)), nil
}

func (s *Snapshot) TirePressureStatus(position WheelPosition) (string, error) {
	value, err := s.tagged(MetricTirePressureStatus, wheelTag, string(position), KindString)
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// TirePressureSystemStatus returns the state of the tire pressure monitoring system. The metric is
// a list with a single untagged record.
func (s *Snapshot) TirePressureSystemStatus() (string, error) {
	records, err := s.records(MetricTirePressureSystemStatus)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", protocol.NewStatusError(MetricTirePressureSystemStatus, "no records")
	}
	value, ok := records[0]["value"].(string)
	if !ok {
		return "", protocol.NewStatusError(MetricTirePressureSystemStatus, "value not found")
	}
	return value, nil
}

// Wheels returns the wheel positions with a tire pressure reading, in the order of
// [WheelPositions].
func (s *Snapshot) Wheels() ([]WheelPosition, error) {
	tags, err := s.tags(MetricTirePressure, wheelTag)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool)
	for _, t := range tags {
		present[t] = true
	}
	var positions []WheelPosition
	for _, p := range WheelPositions {
		if present[string(p)] {
			positions = append(positions, p)
		}
	}
	return positions, nil
}

func (s *Snapshot) SeatBeltStatus(role OccupantRole) (string, error) {
	value, err := s.tagged(MetricSeatBeltStatus, occupantTag, string(role), KindString)
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// SeatBelts returns the occupant roles with a seat belt reading, in the order of [OccupantRoles].
func (s *Snapshot) SeatBelts() ([]OccupantRole, error) {
	tags, err := s.tags(MetricSeatBeltStatus, occupantTag)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool)
	for _, t := range tags {
		present[t] = true
	}
	var roles []OccupantRole
	for _, r := range OccupantRoles {
		if present[string(r)] {
			roles = append(roles, r)
		}
	}
	return roles, nil
}
