package domain

import "time"

// DriverStatus enumerates driver availability states.
type DriverStatus string

const (
	DriverStatusActive   DriverStatus = "active"
	DriverStatusInactive DriverStatus = "inactive"
)

// ValidDriverStatus reports whether s names a known status.
func ValidDriverStatus(s DriverStatus) bool {
	return s == DriverStatusActive || s == DriverStatusInactive
}

// Driver models a fleet driver bound to an external user identity.
// AssignedVehicleID is owned exclusively by the assignment coordinator; an
// inactive driver never holds one.
type Driver struct {
	ID                string
	UserID            string
	Name              string
	LastName          string
	Phone             *string
	LicenseType       *string
	LicenseExpiry     *time.Time
	Status            DriverStatus
	AssignedVehicleID *string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
