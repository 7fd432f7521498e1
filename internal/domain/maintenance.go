package domain

import "time"

// MaintenanceStatus enumerates schedule entry states.
type MaintenanceStatus string

const (
	MaintenanceStatusPending   MaintenanceStatus = "pending"
	MaintenanceStatusCompleted MaintenanceStatus = "completed"
	MaintenanceStatusCancelled MaintenanceStatus = "cancelled"
)

// MaintenanceTypeRegular is the type recorded for entries created as a
// side effect of a status change.
const MaintenanceTypeRegular = "regular"

// MaintenanceSchedule is a scheduled maintenance entry for a vehicle.
type MaintenanceSchedule struct {
	ID              string
	VehicleID       string
	ScheduledDate   time.Time
	MaintenanceType string
	Description     string
	Status          MaintenanceStatus
	CreatedAt       time.Time
}
