package service

import (
	"context"
	"time"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/repository"
	apperrors "github.com/FleetTrackPigs/fleet-track-sub000/pkg/util"
)

const defaultMaintenanceDescription = "Scheduled maintenance"

// MaintenanceService creates schedule entries when a vehicle enters
// maintenance. It never retries; a creation failure is returned to the
// assignment coordinator, which downgrades it to a warning.
type MaintenanceService struct {
	entries repository.MaintenanceRepository
}

// NewMaintenanceService creates the service.
func NewMaintenanceService(entries repository.MaintenanceRepository) *MaintenanceService {
	return &MaintenanceService{entries: entries}
}

// MaintenanceDetails carries optional fields for a triggered entry.
type MaintenanceDetails struct {
	ScheduledDate *time.Time
	Description   string
}

// ScheduleForVehicle records a pending maintenance entry for the vehicle,
// applying defaults for missing fields.
func (s *MaintenanceService) ScheduleForVehicle(ctx context.Context, vehicleID string, details MaintenanceDetails) (*domain.MaintenanceSchedule, error) {
	scheduled := time.Now()
	if details.ScheduledDate != nil {
		scheduled = *details.ScheduledDate
	}
	description := details.Description
	if description == "" {
		description = defaultMaintenanceDescription
	}

	entry := &domain.MaintenanceSchedule{
		VehicleID:       vehicleID,
		ScheduledDate:   scheduled,
		MaintenanceType: domain.MaintenanceTypeRegular,
		Description:     description,
		Status:          domain.MaintenanceStatusPending,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, apperrors.NewUpstreamStore("create maintenance entry", err)
	}
	return entry, nil
}

// ListForVehicle returns schedule entries for a vehicle, newest first.
func (s *MaintenanceService) ListForVehicle(ctx context.Context, vehicleID string) ([]domain.MaintenanceSchedule, error) {
	entries, err := s.entries.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, apperrors.NewUpstreamStore("list maintenance entries", err)
	}
	return entries, nil
}
