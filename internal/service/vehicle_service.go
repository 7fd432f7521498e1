package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/repository"
	apperrors "github.com/FleetTrackPigs/fleet-track-sub000/pkg/util"
)

// VehicleService is the vehicle directory: plain CRUD over the vehicle
// collection. Status and relationship changes go through the assignment
// coordinator; this service never writes them.
type VehicleService struct {
	vehicles repository.VehicleRepository
}

// NewVehicleService creates the service.
func NewVehicleService(vehicles repository.VehicleRepository) *VehicleService {
	return &VehicleService{vehicles: vehicles}
}

// VehicleCreateInput describes vehicle creation payload.
type VehicleCreateInput struct {
	Brand string
	Model string
	Plate string
}

// Create registers a new vehicle. Vehicles always start available.
func (s *VehicleService) Create(ctx context.Context, input VehicleCreateInput) (*domain.Vehicle, error) {
	brand := strings.TrimSpace(input.Brand)
	model := strings.TrimSpace(input.Model)
	plate := strings.TrimSpace(input.Plate)
	if brand == "" || model == "" || plate == "" {
		return nil, apperrors.NewValidationError("brand, model, plate required", nil)
	}

	existing, err := s.vehicles.GetByPlate(ctx, plate)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewUpstreamStore("check plate uniqueness", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflict("plate already registered", map[string]any{"plate": plate})
	}

	vehicle := &domain.Vehicle{
		Brand:  brand,
		Model:  model,
		Plate:  plate,
		Status: domain.VehicleStatusAvailable,
	}
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, apperrors.NewUpstreamStore("create vehicle", err)
	}
	return vehicle, nil
}

// Get fetches a vehicle by id.
func (s *VehicleService) Get(ctx context.Context, id string) (*domain.Vehicle, error) {
	vehicle, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("vehicle", map[string]any{"vehicle_id": id})
		}
		return nil, apperrors.NewUpstreamStore("load vehicle", err)
	}
	return vehicle, nil
}

// List returns vehicles matching the filter.
func (s *VehicleService) List(ctx context.Context, filter repository.VehicleFilter) ([]domain.Vehicle, error) {
	vehicles, err := s.vehicles.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewUpstreamStore("list vehicles", err)
	}
	return vehicles, nil
}
