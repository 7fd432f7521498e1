package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/config"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/events"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/observability"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/repository"
	apperrors "github.com/FleetTrackPigs/fleet-track-sub000/pkg/util"
)

// AssignmentLookup is the reverse-index fast path (vehicle id → holding
// driver) maintained alongside coordinator writes. Implemented by
// cache.AssignmentIndex.
type AssignmentLookup interface {
	Lookup(ctx context.Context, vehicleID string) (*domain.Driver, error)
	Set(ctx context.Context, vehicleID, driverID string)
	Clear(ctx context.Context, vehicleID string)
}

// AssignmentService is the only component that writes the vehicle↔driver
// cross-reference fields and the assignment-derived vehicle status. The
// store offers no multi-row transactions, so each operation is an ordered
// sequence of single-row writes: the driver reference moves first, the
// vehicle status second, and a failed second step is compensated by
// reverting the first. Every write carries the version read at the start of
// the sequence; a version conflict restarts the whole read-decide-write
// sequence up to the configured retry budget.
type AssignmentService struct {
	vehicles     repository.VehicleRepository
	drivers      repository.DriverRepository
	maintenance  *MaintenanceService
	index        AssignmentLookup
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	maxRetries   int
	storeTimeout time.Duration
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	VehicleRepo repository.VehicleRepository
	DriverRepo  repository.DriverRepository
	Maintenance *MaintenanceService
	Index       AssignmentLookup
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewAssignmentService creates the coordinator.
func NewAssignmentService(cfg config.FleetConfig, deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	retries := cfg.AssignMaxRetries
	if retries < 0 {
		retries = 0
	}
	return &AssignmentService{
		vehicles:     deps.VehicleRepo,
		drivers:      deps.DriverRepo,
		maintenance:  deps.Maintenance,
		index:        deps.Index,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       logger,
		maxRetries:   retries,
		storeTimeout: cfg.StoreTimeout(),
	}
}

// AssignmentView merges vehicle and driver state after an operation.
// Warning is set when a secondary step of the sequence failed after the
// primary state change landed; the operation still counts as a success.
type AssignmentView struct {
	Vehicle *domain.Vehicle
	Driver  *domain.Driver
	Warning string
}

// StatusChangeView is the result of an explicit status change.
type StatusChangeView struct {
	Vehicle     *domain.Vehicle
	Maintenance *domain.MaintenanceSchedule
	Warning     string
}

// VehiclePatch combines attribute edits with an optional relationship
// change. DriverIDSet distinguishes an absent driverId (no relationship
// change) from an explicit null (force unassignment).
type VehiclePatch struct {
	Brand       *string
	Model       *string
	Plate       *string
	DriverID    *string
	DriverIDSet bool
}

// DriverPatch is the symmetric counterpart for drivers.
type DriverPatch struct {
	Name          *string
	LastName      *string
	Phone         *string
	LicenseType   *string
	LicenseExpiry *time.Time
	Status        *domain.DriverStatus
	VehicleID     *string
	VehicleIDSet  bool
}

// Assign links the driver to the vehicle: the driver's reference is written
// first, then the vehicle moves to assigned. Re-asserting an existing
// assignment of the same pair succeeds.
func (s *AssignmentService) Assign(ctx context.Context, vehicleID, driverID string) (*AssignmentView, error) {
	return s.retrySequence(ctx, "assign", func(ctx context.Context) (*AssignmentView, error) {
		return s.assignOnce(ctx, vehicleID, driverID)
	})
}

func (s *AssignmentService) assignOnce(ctx context.Context, vehicleID, driverID string) (*AssignmentView, error) {
	vehicle, err := s.loadVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	driver, err := s.loadDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver.Status != domain.DriverStatusActive {
		return nil, apperrors.NewInvalidState("driver is not active", map[string]any{"driver_id": driverID})
	}
	if driver.AssignedVehicleID != nil && *driver.AssignedVehicleID != vehicleID {
		return nil, apperrors.NewConflict("driver already assigned to another vehicle", map[string]any{
			"driver_id":  driverID,
			"vehicle_id": *driver.AssignedVehicleID,
		})
	}
	holder, err := s.reverseLookup(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if holder != nil && holder.ID != driverID {
		return nil, apperrors.NewConflict("vehicle already assigned to driver", map[string]any{
			"vehicle_id": vehicleID,
			"driver_id":  holder.ID,
		})
	}

	newStatus, err := domain.NextStatus(vehicle.Status, domain.StatusEventAssign, true)
	if err != nil {
		return nil, apperrors.NewInvalidState(err.Error(), map[string]any{"vehicle_id": vehicleID})
	}

	previousRef := driver.AssignedVehicleID
	driver.AssignedVehicleID = &vehicle.ID
	if err := s.writeDriver(ctx, driver, "write driver reference"); err != nil {
		return nil, err
	}

	warning := ""
	if vehicle.Status != newStatus {
		vehicle.Status = newStatus
		if err := s.writeVehicle(ctx, vehicle, "write vehicle status"); err != nil {
			// Compensate: revert the driver reference so the pair is
			// consistent again, then let the caller see the real error.
			driver.AssignedVehicleID = previousRef
			if cerr := s.writeDriver(ctx, driver, "revert driver reference"); cerr != nil {
				s.logger.Error("assign compensation failed",
					zap.String("vehicle_id", vehicleID),
					zap.String("driver_id", driverID),
					zap.Error(cerr),
				)
				warning = "driver reference recorded, but vehicle status update failed and could not be reverted"
				view, verr := s.mergedView(ctx, vehicleID)
				if verr != nil {
					return nil, verr
				}
				view.Warning = warning
				return view, nil
			}
			return nil, err
		}
	}

	s.indexSet(ctx, vehicle.ID, driver.ID)
	s.publish(ctx, events.Event{
		Type:      events.EventVehicleAssigned,
		VehicleID: vehicle.ID,
		DriverID:  driver.ID,
	})
	return s.mergedView(ctx, vehicleID)
}

// Unassign clears the assignment of the vehicle. Calling it for a vehicle
// with no holder deterministically fails with an invalid-state error.
func (s *AssignmentService) Unassign(ctx context.Context, vehicleID string) (*AssignmentView, error) {
	return s.retrySequence(ctx, "unassign", func(ctx context.Context) (*AssignmentView, error) {
		return s.unassignOnce(ctx, vehicleID)
	})
}

func (s *AssignmentService) unassignOnce(ctx context.Context, vehicleID string) (*AssignmentView, error) {
	vehicle, err := s.loadVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	holder, err := s.reverseLookup(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if holder == nil {
		return nil, apperrors.NewInvalidState("vehicle is not currently assigned", map[string]any{"vehicle_id": vehicleID})
	}

	newStatus, err := domain.NextStatus(vehicle.Status, domain.StatusEventUnassign, false)
	if err != nil {
		return nil, apperrors.NewInvalidState(err.Error(), map[string]any{"vehicle_id": vehicleID})
	}

	previousRef := holder.AssignedVehicleID
	holder.AssignedVehicleID = nil
	if err := s.writeDriver(ctx, holder, "clear driver reference"); err != nil {
		return nil, err
	}
	s.indexClear(ctx, vehicleID)

	warning := ""
	if vehicle.Status != newStatus {
		vehicle.Status = newStatus
		if err := s.writeVehicle(ctx, vehicle, "write vehicle status"); err != nil {
			holder.AssignedVehicleID = previousRef
			if cerr := s.writeDriver(ctx, holder, "restore driver reference"); cerr != nil {
				s.logger.Error("unassign compensation failed",
					zap.String("vehicle_id", vehicleID),
					zap.String("driver_id", holder.ID),
					zap.Error(cerr),
				)
				warning = "driver reference cleared, but vehicle status update failed and could not be reverted"
				view, verr := s.mergedView(ctx, vehicleID)
				if verr != nil {
					return nil, verr
				}
				view.Driver = nil
				view.Warning = warning
				return view, nil
			}
			s.indexSet(ctx, vehicleID, holder.ID)
			return nil, err
		}
	}

	s.publish(ctx, events.Event{
		Type:      events.EventVehicleUnassigned,
		VehicleID: vehicle.ID,
		DriverID:  holder.ID,
	})

	view, err := s.mergedView(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	view.Driver = nil
	return view, nil
}

// UpdateVehicle applies attribute edits and, when the patch carries a
// driverId, a relationship change in one call. Vehicle attributes are
// written first, relationship changes second, and the returned view is
// assembled from a final re-read so it is self-consistent even though the
// writes are not atomic.
func (s *AssignmentService) UpdateVehicle(ctx context.Context, vehicleID string, patch VehiclePatch) (*AssignmentView, error) {
	return s.retrySequence(ctx, "update vehicle", func(ctx context.Context) (*AssignmentView, error) {
		return s.updateVehicleOnce(ctx, vehicleID, patch)
	})
}

func (s *AssignmentService) updateVehicleOnce(ctx context.Context, vehicleID string, patch VehiclePatch) (*AssignmentView, error) {
	vehicle, err := s.loadVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if patch.Plate != nil && *patch.Plate != vehicle.Plate {
		existing, perr := s.vehicleByPlate(ctx, *patch.Plate)
		if perr != nil {
			return nil, perr
		}
		if existing != nil && existing.ID != vehicleID {
			return nil, apperrors.NewConflict("plate already registered", map[string]any{"plate": *patch.Plate})
		}
	}

	holder, err := s.reverseLookup(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	// Validate the target driver before any write lands so a bad target
	// cannot strand the vehicle in a half-updated state.
	var target *domain.Driver
	if patch.DriverIDSet && patch.DriverID != nil {
		target, err = s.loadDriver(ctx, *patch.DriverID)
		if err != nil {
			return nil, err
		}
		if target.Status != domain.DriverStatusActive {
			return nil, apperrors.NewInvalidState("driver is not active", map[string]any{"driver_id": target.ID})
		}
		if target.AssignedVehicleID != nil && *target.AssignedVehicleID != vehicleID {
			return nil, apperrors.NewConflict("driver already assigned to another vehicle", map[string]any{
				"driver_id":  target.ID,
				"vehicle_id": *target.AssignedVehicleID,
			})
		}
	}

	finalStatus, err := s.deriveFinalStatus(vehicle, holder, patch)
	if err != nil {
		return nil, err
	}

	if patch.Brand != nil {
		vehicle.Brand = *patch.Brand
	}
	if patch.Model != nil {
		vehicle.Model = *patch.Model
	}
	if patch.Plate != nil {
		vehicle.Plate = *patch.Plate
	}
	vehicle.Status = finalStatus
	if err := s.writeVehicle(ctx, vehicle, "write vehicle attributes"); err != nil {
		return nil, err
	}

	warning := ""
	if patch.DriverIDSet {
		releasePrevious := holder != nil && (patch.DriverID == nil || holder.ID != *patch.DriverID)
		if releasePrevious {
			holder.AssignedVehicleID = nil
			if err := s.writeDriver(ctx, holder, "clear previous driver reference"); err != nil {
				if errors.Is(err, repository.ErrVersionConflict) {
					return nil, err
				}
				warning = "vehicle updated, but unassigning the previous driver failed"
				return s.viewWithWarning(ctx, vehicleID, warning)
			}
			s.indexClear(ctx, vehicleID)
			s.publish(ctx, events.Event{
				Type:      events.EventVehicleUnassigned,
				VehicleID: vehicleID,
				DriverID:  holder.ID,
			})
		}
		if patch.DriverID != nil && (holder == nil || holder.ID != *patch.DriverID) {
			target.AssignedVehicleID = &vehicle.ID
			if err := s.writeDriver(ctx, target, "write driver reference"); err != nil {
				if errors.Is(err, repository.ErrVersionConflict) {
					return nil, err
				}
				warning = "vehicle updated, but assigning the requested driver failed"
				return s.viewWithWarning(ctx, vehicleID, warning)
			}
			s.indexSet(ctx, vehicle.ID, target.ID)
			s.publish(ctx, events.Event{
				Type:      events.EventVehicleAssigned,
				VehicleID: vehicle.ID,
				DriverID:  target.ID,
			})
		}
	}

	return s.mergedView(ctx, vehicleID)
}

// deriveFinalStatus computes the status written together with the vehicle
// attributes. Maintenance is preserved: attribute edits and unassignment
// never pull a vehicle out of maintenance, and attaching a new driver while
// under maintenance is rejected.
func (s *AssignmentService) deriveFinalStatus(vehicle *domain.Vehicle, holder *domain.Driver, patch VehiclePatch) (domain.VehicleStatus, error) {
	if vehicle.Status == domain.VehicleStatusMaintenance {
		if patch.DriverIDSet && patch.DriverID != nil && (holder == nil || holder.ID != *patch.DriverID) {
			return vehicle.Status, apperrors.NewInvalidState("vehicle is under maintenance", map[string]any{"vehicle_id": vehicle.ID})
		}
		return domain.VehicleStatusMaintenance, nil
	}
	switch {
	case patch.DriverIDSet && patch.DriverID == nil:
		return domain.VehicleStatusAvailable, nil
	case patch.DriverIDSet:
		return domain.VehicleStatusAssigned, nil
	case holder != nil:
		return domain.VehicleStatusAssigned, nil
	default:
		return domain.VehicleStatusAvailable, nil
	}
}

// UpdateDriver applies attribute edits and, when the patch carries a
// vehicleId, a relationship change. Relationship changes reuse the assign
// and unassign sequences rather than duplicating their conflict checks.
func (s *AssignmentService) UpdateDriver(ctx context.Context, driverID string, patch DriverPatch) (*AssignmentView, error) {
	return s.retrySequence(ctx, "update driver", func(ctx context.Context) (*AssignmentView, error) {
		return s.updateDriverOnce(ctx, driverID, patch)
	})
}

func (s *AssignmentService) updateDriverOnce(ctx context.Context, driverID string, patch DriverPatch) (*AssignmentView, error) {
	driver, err := s.loadDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if patch.Status != nil && !domain.ValidDriverStatus(*patch.Status) {
		return nil, apperrors.NewValidationError("invalid driver status", map[string]any{"status": string(*patch.Status)})
	}

	if patch.Name != nil {
		driver.Name = *patch.Name
	}
	if patch.LastName != nil {
		driver.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		driver.Phone = patch.Phone
	}
	if patch.LicenseType != nil {
		driver.LicenseType = patch.LicenseType
	}
	if patch.LicenseExpiry != nil {
		driver.LicenseExpiry = patch.LicenseExpiry
	}
	deactivated := false
	if patch.Status != nil && *patch.Status != driver.Status {
		driver.Status = *patch.Status
		deactivated = *patch.Status == domain.DriverStatusInactive
	}
	if err := s.writeDriver(ctx, driver, "write driver attributes"); err != nil {
		return nil, err
	}

	// An inactive driver may not hold a vehicle; deactivation releases it.
	if deactivated && driver.AssignedVehicleID != nil {
		view, err := s.unassignOnce(ctx, *driver.AssignedVehicleID)
		if err != nil {
			return nil, err
		}
		if view.Warning != "" {
			return s.driverView(ctx, driverID, view.Warning)
		}
	}

	if patch.VehicleIDSet {
		current, err := s.loadDriver(ctx, driverID)
		if err != nil {
			return nil, err
		}
		if patch.VehicleID == nil {
			if current.AssignedVehicleID != nil {
				view, err := s.unassignOnce(ctx, *current.AssignedVehicleID)
				if err != nil {
					return nil, err
				}
				if view.Warning != "" {
					return s.driverView(ctx, driverID, view.Warning)
				}
			}
		} else {
			if current.AssignedVehicleID != nil && *current.AssignedVehicleID != *patch.VehicleID {
				view, err := s.unassignOnce(ctx, *current.AssignedVehicleID)
				if err != nil {
					return nil, err
				}
				if view.Warning != "" {
					return s.driverView(ctx, driverID, view.Warning)
				}
			}
			view, err := s.assignOnce(ctx, *patch.VehicleID, driverID)
			if err != nil {
				return nil, err
			}
			if view.Warning != "" {
				return s.driverView(ctx, driverID, view.Warning)
			}
		}
	}

	return s.driverView(ctx, driverID, "")
}

// DeleteVehicle removes the vehicle, clearing any driver reference first.
// An existing assignment is never a blocking constraint.
func (s *AssignmentService) DeleteVehicle(ctx context.Context, vehicleID string) error {
	return s.retryDelete(ctx, "delete vehicle", func(ctx context.Context) error {
		return s.deleteVehicleOnce(ctx, vehicleID)
	})
}

func (s *AssignmentService) deleteVehicleOnce(ctx context.Context, vehicleID string) error {
	if _, err := s.loadVehicle(ctx, vehicleID); err != nil {
		return err
	}
	holder, err := s.reverseLookup(ctx, vehicleID)
	if err != nil {
		return err
	}
	if holder != nil {
		holder.AssignedVehicleID = nil
		if err := s.writeDriver(ctx, holder, "clear driver reference"); err != nil {
			return err
		}
		s.indexClear(ctx, vehicleID)
	}
	if err := s.deleteVehicleRow(ctx, vehicleID); err != nil {
		return err
	}
	s.publish(ctx, events.Event{Type: events.EventVehicleDeleted, VehicleID: vehicleID})
	return nil
}

// DeleteDriver removes the driver. When the driver holds a vehicle, the
// assignment is released first and the vehicle reverts to available. The
// returned warning is non-empty when the release only partially completed.
func (s *AssignmentService) DeleteDriver(ctx context.Context, driverID string) (string, error) {
	warning := ""
	err := s.retryDelete(ctx, "delete driver", func(ctx context.Context) error {
		w, err := s.deleteDriverOnce(ctx, driverID)
		warning = w
		return err
	})
	return warning, err
}

func (s *AssignmentService) deleteDriverOnce(ctx context.Context, driverID string) (string, error) {
	driver, err := s.loadDriver(ctx, driverID)
	if err != nil {
		return "", err
	}
	warning := ""
	if driver.AssignedVehicleID != nil {
		view, err := s.unassignOnce(ctx, *driver.AssignedVehicleID)
		if err != nil {
			return "", err
		}
		warning = view.Warning
	}
	if err := s.deleteDriverRow(ctx, driverID); err != nil {
		return warning, err
	}
	s.publish(ctx, events.Event{Type: events.EventDriverDeleted, DriverID: driverID})
	return warning, nil
}

// SetVehicleStatus drives the explicit half of the lifecycle: any state may
// enter maintenance, and maintenance is left only through this call. The
// assigned status is owned by the assignment operations and cannot be
// requested here. Entering maintenance triggers a schedule entry; a trigger
// failure is reported as a warning, never as an operation failure.
func (s *AssignmentService) SetVehicleStatus(ctx context.Context, vehicleID string, status domain.VehicleStatus, details MaintenanceDetails) (*StatusChangeView, error) {
	if !domain.ValidVehicleStatus(status) {
		return nil, apperrors.NewValidationError("invalid vehicle status", map[string]any{"status": string(status)})
	}
	if status == domain.VehicleStatusAssigned {
		return nil, apperrors.NewInvalidState("assigned status is driven by assignment operations", nil)
	}

	var view *StatusChangeView
	err := s.retryDelete(ctx, "set vehicle status", func(ctx context.Context) error {
		v, err := s.setVehicleStatusOnce(ctx, vehicleID, status, details)
		view = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *AssignmentService) setVehicleStatusOnce(ctx context.Context, vehicleID string, status domain.VehicleStatus, details MaintenanceDetails) (*StatusChangeView, error) {
	vehicle, err := s.loadVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	var event domain.StatusEvent
	switch status {
	case domain.VehicleStatusMaintenance:
		event = domain.StatusEventEnterMaintenance
	case domain.VehicleStatusAvailable:
		if vehicle.Status == domain.VehicleStatusAvailable {
			return &StatusChangeView{Vehicle: vehicle}, nil
		}
		if vehicle.Status != domain.VehicleStatusMaintenance {
			return nil, apperrors.NewInvalidState("available status is restored via unassignment", map[string]any{"vehicle_id": vehicleID})
		}
		event = domain.StatusEventExitMaintenance
	}

	holder, err := s.reverseLookup(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	oldStatus := vehicle.Status
	newStatus, err := domain.NextStatus(vehicle.Status, event, holder != nil)
	if err != nil {
		return nil, apperrors.NewInvalidState(err.Error(), map[string]any{"vehicle_id": vehicleID})
	}

	if newStatus != vehicle.Status {
		vehicle.Status = newStatus
		if err := s.writeVehicle(ctx, vehicle, "write vehicle status"); err != nil {
			return nil, err
		}
		s.publish(ctx, events.Event{
			Type:      events.EventVehicleStatusChanged,
			VehicleID: vehicleID,
			Payload: events.StatusChangedPayload{
				OldStatus: string(oldStatus),
				NewStatus: string(newStatus),
			},
		})
	}

	view := &StatusChangeView{Vehicle: vehicle}
	if status == domain.VehicleStatusMaintenance {
		entry, err := s.maintenance.ScheduleForVehicle(ctx, vehicleID, details)
		if err != nil {
			s.logger.Warn("maintenance entry creation failed",
				zap.String("vehicle_id", vehicleID),
				zap.Error(err),
			)
			view.Warning = "vehicle status changed, but recording the maintenance entry failed"
		} else {
			view.Maintenance = entry
			s.publish(ctx, events.Event{
				Type:      events.EventMaintenanceScheduled,
				VehicleID: vehicleID,
				Payload: events.MaintenanceScheduledPayload{
					ScheduleID:    entry.ID,
					ScheduledDate: entry.ScheduledDate,
					Description:   entry.Description,
				},
			})
		}
	}
	return view, nil
}

// GetVehicle assembles the merged vehicle+driver view using the reverse
// index fast path.
func (s *AssignmentService) GetVehicle(ctx context.Context, vehicleID string) (*AssignmentView, error) {
	vehicle, err := s.loadVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	var holder *domain.Driver
	if s.index != nil {
		holder, err = s.index.Lookup(ctx, vehicleID)
	} else {
		holder, err = s.reverseLookup(ctx, vehicleID)
	}
	if err != nil {
		return nil, apperrors.NewUpstreamStore("reverse lookup", err)
	}
	return &AssignmentView{Vehicle: vehicle, Driver: holder}, nil
}

// --- sequence plumbing -------------------------------------------------

// retrySequence restarts a read-decide-write sequence on version conflicts
// until the retry budget is exhausted, then reports a conflict.
func (s *AssignmentService) retrySequence(ctx context.Context, op string, fn func(context.Context) (*AssignmentView, error)) (*AssignmentView, error) {
	for attempt := 0; ; attempt++ {
		view, err := fn(ctx)
		if !errors.Is(err, repository.ErrVersionConflict) {
			return view, err
		}
		if attempt >= s.maxRetries {
			s.metrics.RecordRetryExhausted()
			return nil, apperrors.NewConflict("concurrent modification, retry the request", map[string]any{"operation": op})
		}
		s.logger.Warn("version conflict, restarting sequence",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
		)
	}
}

func (s *AssignmentService) retryDelete(ctx context.Context, op string, fn func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
		if attempt >= s.maxRetries {
			s.metrics.RecordRetryExhausted()
			return apperrors.NewConflict("concurrent modification, retry the request", map[string]any{"operation": op})
		}
		s.logger.Warn("version conflict, restarting sequence",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
		)
	}
}

func (s *AssignmentService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *AssignmentService) loadVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	vehicle, err := s.vehicles.GetByID(cctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("vehicle", map[string]any{"vehicle_id": id})
	}
	if err != nil {
		return nil, apperrors.NewUpstreamStore("load vehicle", err)
	}
	return vehicle, nil
}

func (s *AssignmentService) loadDriver(ctx context.Context, id string) (*domain.Driver, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	driver, err := s.drivers.GetByID(cctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("driver", map[string]any{"driver_id": id})
	}
	if err != nil {
		return nil, apperrors.NewUpstreamStore("load driver", err)
	}
	return driver, nil
}

func (s *AssignmentService) vehicleByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	vehicle, err := s.vehicles.GetByPlate(cctx, plate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewUpstreamStore("check plate uniqueness", err)
	}
	return vehicle, nil
}

// reverseLookup consults the store directly; conflict decisions never rely
// on the cache alone.
func (s *AssignmentService) reverseLookup(ctx context.Context, vehicleID string) (*domain.Driver, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	holder, err := s.drivers.GetByAssignedVehicle(cctx, vehicleID)
	if err != nil {
		return nil, apperrors.NewUpstreamStore("reverse lookup", err)
	}
	return holder, nil
}

// writeDriver persists a driver row. Version conflicts pass through
// untouched so the retry loop can observe them.
func (s *AssignmentService) writeDriver(ctx context.Context, driver *domain.Driver, step string) error {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.drivers.Update(cctx, driver)
	if err == nil || errors.Is(err, repository.ErrVersionConflict) {
		return err
	}
	return apperrors.NewUpstreamStore(step, err)
}

func (s *AssignmentService) writeVehicle(ctx context.Context, vehicle *domain.Vehicle, step string) error {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.vehicles.Update(cctx, vehicle)
	if err == nil || errors.Is(err, repository.ErrVersionConflict) {
		return err
	}
	return apperrors.NewUpstreamStore(step, err)
}

func (s *AssignmentService) deleteVehicleRow(ctx context.Context, id string) error {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.vehicles.Delete(cctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("vehicle", map[string]any{"vehicle_id": id})
	}
	if err != nil {
		return apperrors.NewUpstreamStore("delete vehicle", err)
	}
	return nil
}

func (s *AssignmentService) deleteDriverRow(ctx context.Context, id string) error {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.drivers.Delete(cctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("driver", map[string]any{"driver_id": id})
	}
	if err != nil {
		return apperrors.NewUpstreamStore("delete driver", err)
	}
	return nil
}

// mergedView re-reads both sides of the relationship after a completed
// sequence so the caller always observes a self-consistent snapshot.
func (s *AssignmentService) mergedView(ctx context.Context, vehicleID string) (*AssignmentView, error) {
	vehicle, err := s.loadVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	holder, err := s.reverseLookup(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return &AssignmentView{Vehicle: vehicle, Driver: holder}, nil
}

func (s *AssignmentService) viewWithWarning(ctx context.Context, vehicleID, warning string) (*AssignmentView, error) {
	view, err := s.mergedView(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	view.Warning = warning
	return view, nil
}

// driverView assembles the driver-centric merged view: the driver plus the
// vehicle it references, if any.
func (s *AssignmentService) driverView(ctx context.Context, driverID, warning string) (*AssignmentView, error) {
	driver, err := s.loadDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	view := &AssignmentView{Driver: driver, Warning: warning}
	if driver.AssignedVehicleID != nil {
		vehicle, err := s.loadVehicle(ctx, *driver.AssignedVehicleID)
		if err != nil {
			return nil, err
		}
		view.Vehicle = vehicle
	}
	return view, nil
}

func (s *AssignmentService) indexSet(ctx context.Context, vehicleID, driverID string) {
	if s.index != nil {
		s.index.Set(ctx, vehicleID, driverID)
	}
}

func (s *AssignmentService) indexClear(ctx context.Context, vehicleID string) {
	if s.index != nil {
		s.index.Clear(ctx, vehicleID)
	}
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}
