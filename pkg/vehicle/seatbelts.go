package vehicle

import "github.com/vehiclepass/vehicle-command/pkg/status"

type SeatBelts struct {
	vehicle *Vehicle
}

func (s *SeatBelts) Status(role status.OccupantRole) (string, error) {
	return s.vehicle.Status().SeatBeltStatus(role)
}

func (s *SeatBelts) Roles() ([]status.OccupantRole, error) {
	return s.vehicle.Status().SeatBelts()
}
