package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventVehicleAssigned      EventType = "vehicle_assigned"
	EventVehicleUnassigned    EventType = "vehicle_unassigned"
	EventVehicleStatusChanged EventType = "vehicle_status_changed"
	EventMaintenanceScheduled EventType = "maintenance_scheduled"
	EventVehicleDeleted       EventType = "vehicle_deleted"
	EventDriverDeleted        EventType = "driver_deleted"
)

// Event represents a fleet event emitted by the assignment coordinator.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	VehicleID string      `json:"vehicle_id,omitempty"`
	DriverID  string      `json:"driver_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// StatusChangedPayload carries the status transition.
type StatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// MaintenanceScheduledPayload carries the created schedule entry reference.
type MaintenanceScheduledPayload struct {
	ScheduleID    string    `json:"schedule_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Description   string    `json:"description"`
}
