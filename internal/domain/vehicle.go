package domain

import "time"

// VehicleStatus enumerates lifecycle states for vehicles.
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusAssigned    VehicleStatus = "assigned"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
)

// ValidVehicleStatus reports whether s names a known status.
func ValidVehicleStatus(s VehicleStatus) bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusAssigned, VehicleStatusMaintenance:
		return true
	}
	return false
}

// Vehicle is a fleet vehicle. Status is owned by the assignment coordinator
// once the vehicle participates in assignment; the remaining attributes may
// be edited directly. Version is the optimistic-concurrency token checked on
// every write.
type Vehicle struct {
	ID        string
	Brand     string
	Model     string
	Plate     string
	Status    VehicleStatus
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
