package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/repository"
	apperrors "github.com/FleetTrackPigs/fleet-track-sub000/pkg/util"
)

// DriverService is the driver directory: plain CRUD over the driver
// collection. The assigned-vehicle reference is owned by the assignment
// coordinator and never written here.
type DriverService struct {
	drivers repository.DriverRepository
}

// NewDriverService creates the service.
func NewDriverService(drivers repository.DriverRepository) *DriverService {
	return &DriverService{drivers: drivers}
}

// DriverCreateInput describes driver creation payload. A driver is always
// created bound to an existing user identity with no vehicle reference.
type DriverCreateInput struct {
	UserID        string
	Name          string
	LastName      string
	Phone         *string
	LicenseType   *string
	LicenseExpiry *time.Time
}

// Create registers a new driver in active status.
func (s *DriverService) Create(ctx context.Context, input DriverCreateInput) (*domain.Driver, error) {
	userID := strings.TrimSpace(input.UserID)
	name := strings.TrimSpace(input.Name)
	lastName := strings.TrimSpace(input.LastName)
	if userID == "" || name == "" || lastName == "" {
		return nil, apperrors.NewValidationError("userId, name, lastName required", nil)
	}

	driver := &domain.Driver{
		UserID:        userID,
		Name:          name,
		LastName:      lastName,
		Phone:         input.Phone,
		LicenseType:   input.LicenseType,
		LicenseExpiry: input.LicenseExpiry,
		Status:        domain.DriverStatusActive,
	}
	if err := s.drivers.Create(ctx, driver); err != nil {
		return nil, apperrors.NewUpstreamStore("create driver", err)
	}
	return driver, nil
}

// Get fetches a driver by id.
func (s *DriverService) Get(ctx context.Context, id string) (*domain.Driver, error) {
	driver, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("driver", map[string]any{"driver_id": id})
		}
		return nil, apperrors.NewUpstreamStore("load driver", err)
	}
	return driver, nil
}

// List returns drivers matching the filter.
func (s *DriverService) List(ctx context.Context, filter repository.DriverFilter) ([]domain.Driver, error) {
	drivers, err := s.drivers.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewUpstreamStore("list drivers", err)
	}
	return drivers, nil
}
