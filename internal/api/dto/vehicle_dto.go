package dto

import (
	"time"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
)

// CreateVehicleRequest registers a vehicle.
type CreateVehicleRequest struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Plate string `json:"plate"`
}

// UpdateVehicleRequest patches vehicle attributes and, optionally, the
// assignment relationship via the tri-state driverId field.
type UpdateVehicleRequest struct {
	Brand    *string        `json:"brand"`
	Model    *string        `json:"model"`
	Plate    *string        `json:"plate"`
	DriverID OptionalString `json:"driverId"`
}

// AssignmentRequest drives assign (driverId set) and unassign (driverId
// null) through one endpoint.
type AssignmentRequest struct {
	DriverID *string `json:"driverId"`
}

// SetVehicleStatusRequest changes the vehicle status explicitly.
type SetVehicleStatusRequest struct {
	Status          string           `json:"status"`
	MaintenanceData *MaintenanceData `json:"maintenanceData"`
}

// MaintenanceData carries optional fields for the triggered entry.
type MaintenanceData struct {
	ScheduledDate *time.Time `json:"scheduledDate"`
	Description   string     `json:"description"`
}

// VehicleResponse is the wire shape of a vehicle.
type VehicleResponse struct {
	ID        string    `json:"id"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	Plate     string    `json:"plate"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MergedVehicleResponse is the merged vehicle+driver view returned by
// coordinator operations.
type MergedVehicleResponse struct {
	Vehicle *VehicleResponse `json:"vehicle"`
	Driver  *DriverResponse  `json:"driver"`
}

// MaintenanceResponse is the wire shape of a schedule entry.
type MaintenanceResponse struct {
	ID              string    `json:"id"`
	VehicleID       string    `json:"vehicle_id"`
	ScheduledDate   time.Time `json:"scheduled_date"`
	MaintenanceType string    `json:"maintenance_type"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// StatusChangeResponse pairs the updated vehicle with the maintenance entry
// created as a side effect, when any.
type StatusChangeResponse struct {
	Vehicle     *VehicleResponse     `json:"vehicle"`
	Maintenance *MaintenanceResponse `json:"maintenance,omitempty"`
}

// NewVehicleResponse maps a domain vehicle.
func NewVehicleResponse(vehicle *domain.Vehicle) *VehicleResponse {
	if vehicle == nil {
		return nil
	}
	return &VehicleResponse{
		ID:        vehicle.ID,
		Brand:     vehicle.Brand,
		Model:     vehicle.Model,
		Plate:     vehicle.Plate,
		Status:    string(vehicle.Status),
		CreatedAt: vehicle.CreatedAt,
		UpdatedAt: vehicle.UpdatedAt,
	}
}

// NewMaintenanceResponse maps a domain schedule entry.
func NewMaintenanceResponse(entry *domain.MaintenanceSchedule) *MaintenanceResponse {
	if entry == nil {
		return nil
	}
	return &MaintenanceResponse{
		ID:              entry.ID,
		VehicleID:       entry.VehicleID,
		ScheduledDate:   entry.ScheduledDate,
		MaintenanceType: entry.MaintenanceType,
		Description:     entry.Description,
		Status:          string(entry.Status),
		CreatedAt:       entry.CreatedAt,
	}
}
