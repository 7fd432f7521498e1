package dto

import (
	"time"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
)

// CreateDriverRequest registers a driver bound to an external user identity.
type CreateDriverRequest struct {
	UserID        string     `json:"userId"`
	Name          string     `json:"name"`
	LastName      string     `json:"lastName"`
	Phone         *string    `json:"phone"`
	LicenseType   *string    `json:"licenseType"`
	LicenseExpiry *time.Time `json:"licenseExpiry"`
}

// UpdateDriverRequest patches driver attributes and, optionally, the
// assignment relationship via the tri-state vehicleId field.
type UpdateDriverRequest struct {
	Name          *string        `json:"name"`
	LastName      *string        `json:"lastName"`
	Phone         *string        `json:"phone"`
	LicenseType   *string        `json:"licenseType"`
	LicenseExpiry *time.Time     `json:"licenseExpiry"`
	Status        *string        `json:"status"`
	VehicleID     OptionalString `json:"vehicleId"`
}

// DriverResponse is the wire shape of a driver.
type DriverResponse struct {
	ID                string     `json:"id"`
	UserID            string     `json:"userId"`
	Name              string     `json:"name"`
	LastName          string     `json:"lastName"`
	Phone             *string    `json:"phone,omitempty"`
	LicenseType       *string    `json:"licenseType,omitempty"`
	LicenseExpiry     *time.Time `json:"licenseExpiry,omitempty"`
	Status            string     `json:"status"`
	AssignedVehicleID *string    `json:"assignedVehicleId"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// MergedDriverResponse is the merged driver+vehicle view returned by
// coordinator operations on drivers.
type MergedDriverResponse struct {
	Driver  *DriverResponse  `json:"driver"`
	Vehicle *VehicleResponse `json:"vehicle"`
}

// NewDriverResponse maps a domain driver.
func NewDriverResponse(driver *domain.Driver) *DriverResponse {
	if driver == nil {
		return nil
	}
	return &DriverResponse{
		ID:                driver.ID,
		UserID:            driver.UserID,
		Name:              driver.Name,
		LastName:          driver.LastName,
		Phone:             driver.Phone,
		LicenseType:       driver.LicenseType,
		LicenseExpiry:     driver.LicenseExpiry,
		Status:            string(driver.Status),
		AssignedVehicleID: driver.AssignedVehicleID,
		CreatedAt:         driver.CreatedAt,
		UpdatedAt:         driver.UpdatedAt,
	}
}
