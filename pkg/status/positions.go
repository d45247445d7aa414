package status

import "strings"

// Tag keys used by list-shaped metrics to identify the entity a record applies to.
const (
	doorTag     = "vehicleDoor"
	wheelTag    = "vehicleWheel"
	occupantTag = "vehicleOccupantRole"
)

// DoorPosition identifies a door (or the aggregate of all doors) in door metrics.
type DoorPosition string

const (
	// DoorAll is the aggregate tag used for whole-vehicle state, such as the lock status.
	DoorAll              DoorPosition = "ALL_DOORS"
	DoorUnspecifiedFront DoorPosition = "UNSPECIFIED_FRONT"
	DoorFrontLeft        DoorPosition = "FRONT_LEFT"
	DoorFrontRight       DoorPosition = "FRONT_RIGHT"
	DoorRearLeft         DoorPosition = "REAR_LEFT"
	DoorRearRight        DoorPosition = "REAR_RIGHT"
	DoorHood             DoorPosition = "HOOD_DOOR"
	DoorTailgate         DoorPosition = "TAILGATE"
	DoorInnerTailgate    DoorPosition = "INNER_TAILGATE"
)

// DoorPositions lists every individual door position, excluding DoorAll.
var DoorPositions = []DoorPosition{
	DoorUnspecifiedFront,
	DoorFrontLeft,
	DoorFrontRight,
	DoorRearLeft,
	DoorRearRight,
	DoorHood,
	DoorTailgate,
	DoorInnerTailgate,
}

func (d DoorPosition) String() string {
	return strings.ToLower(string(d))
}

// ParseDoorPosition accepts either the API tag (FRONT_LEFT) or its lower-case form (front_left).
func ParseDoorPosition(s string) (DoorPosition, bool) {
	p := DoorPosition(strings.ToUpper(s))
	if p == DoorAll {
		return p, true
	}
	for _, known := range DoorPositions {
		if known == p {
			return p, true
		}
	}
	return "", false
}

// WheelPosition identifies a wheel in tire metrics.
type WheelPosition string

const (
	WheelFrontLeft      WheelPosition = "FRONT_LEFT"
	WheelFrontRight     WheelPosition = "FRONT_RIGHT"
	WheelRearLeft       WheelPosition = "REAR_LEFT"
	WheelRearRight      WheelPosition = "REAR_RIGHT"
	WheelInnerRearLeft  WheelPosition = "INNER_REAR_LEFT"
	WheelInnerRearRight WheelPosition = "INNER_REAR_RIGHT"
)

var WheelPositions = []WheelPosition{
	WheelFrontLeft,
	WheelFrontRight,
	WheelRearLeft,
	WheelRearRight,
	WheelInnerRearLeft,
	WheelInnerRearRight,
}

func (w WheelPosition) String() string {
	return strings.ToLower(string(w))
}

func ParseWheelPosition(s string) (WheelPosition, bool) {
	p := WheelPosition(strings.ToUpper(s))
	for _, known := range WheelPositions {
		if known == p {
			return p, true
		}
	}
	return "", false
}

// OccupantRole identifies a seat in seat belt metrics.
type OccupantRole string

const (
	OccupantDriver     OccupantRole = "DRIVER"
	OccupantPassenger  OccupantRole = "PASSENGER"
	OccupantRearLeft   OccupantRole = "REAR_LEFT"
	OccupantRearMiddle OccupantRole = "REAR_MIDDLE"
	OccupantRearRight  OccupantRole = "REAR_RIGHT"
)

var OccupantRoles = []OccupantRole{
	OccupantDriver,
	OccupantPassenger,
	OccupantRearLeft,
	OccupantRearMiddle,
	OccupantRearRight,
}

func (o OccupantRole) String() string {
	return strings.ToLower(string(o))
}
