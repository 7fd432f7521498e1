package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/config"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/repository"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/service"
	apperrors "github.com/FleetTrackPigs/fleet-track-sub000/pkg/util"
)

// fakeVehicleRepo is a stateful in-memory stand-in for the vehicle
// collection. updateErrs is a queue of errors consumed one per Update call;
// a nil entry lets that call through.
type fakeVehicleRepo struct {
	rows       map[string]*domain.Vehicle
	updateErrs []error
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{rows: make(map[string]*domain.Vehicle)}
}

func (r *fakeVehicleRepo) put(v *domain.Vehicle) {
	cp := *v
	r.rows[v.ID] = &cp
}

func (r *fakeVehicleRepo) Create(_ context.Context, v *domain.Vehicle) error {
	v.Version = 1
	r.put(v)
	return nil
}

func (r *fakeVehicleRepo) Update(_ context.Context, v *domain.Vehicle) error {
	if len(r.updateErrs) > 0 {
		err := r.updateErrs[0]
		r.updateErrs = r.updateErrs[1:]
		if err != nil {
			return err
		}
	}
	row, ok := r.rows[v.ID]
	if !ok || row.Version != v.Version {
		return repository.ErrVersionConflict
	}
	v.Version++
	r.put(v)
	return nil
}

func (r *fakeVehicleRepo) GetByID(_ context.Context, id string) (*domain.Vehicle, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *row
	return &cp, nil
}

func (r *fakeVehicleRepo) GetByPlate(_ context.Context, plate string) (*domain.Vehicle, error) {
	for _, row := range r.rows {
		if row.Plate == plate {
			cp := *row
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeVehicleRepo) List(_ context.Context, filter repository.VehicleFilter) ([]domain.Vehicle, error) {
	var result []domain.Vehicle
	for _, row := range r.rows {
		if filter.Status != nil && row.Status != *filter.Status {
			continue
		}
		result = append(result, *row)
	}
	return result, nil
}

func (r *fakeVehicleRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.rows, id)
	return nil
}

type fakeDriverRepo struct {
	rows       map[string]*domain.Driver
	updateErrs []error
}

func newFakeDriverRepo() *fakeDriverRepo {
	return &fakeDriverRepo{rows: make(map[string]*domain.Driver)}
}

func (r *fakeDriverRepo) put(d *domain.Driver) {
	cp := *d
	r.rows[d.ID] = &cp
}

func (r *fakeDriverRepo) Create(_ context.Context, d *domain.Driver) error {
	d.Version = 1
	r.put(d)
	return nil
}

func (r *fakeDriverRepo) Update(_ context.Context, d *domain.Driver) error {
	if len(r.updateErrs) > 0 {
		err := r.updateErrs[0]
		r.updateErrs = r.updateErrs[1:]
		if err != nil {
			return err
		}
	}
	row, ok := r.rows[d.ID]
	if !ok || row.Version != d.Version {
		return repository.ErrVersionConflict
	}
	d.Version++
	r.put(d)
	return nil
}

func (r *fakeDriverRepo) GetByID(_ context.Context, id string) (*domain.Driver, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *row
	return &cp, nil
}

func (r *fakeDriverRepo) GetByAssignedVehicle(_ context.Context, vehicleID string) (*domain.Driver, error) {
	for _, row := range r.rows {
		if row.AssignedVehicleID != nil && *row.AssignedVehicleID == vehicleID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeDriverRepo) List(_ context.Context, filter repository.DriverFilter) ([]domain.Driver, error) {
	var result []domain.Driver
	for _, row := range r.rows {
		if filter.Status != nil && row.Status != *filter.Status {
			continue
		}
		if filter.AssignedOnly && row.AssignedVehicleID == nil {
			continue
		}
		result = append(result, *row)
	}
	return result, nil
}

func (r *fakeDriverRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.rows, id)
	return nil
}

type fakeMaintenanceRepo struct {
	entries   []domain.MaintenanceSchedule
	createErr error
}

func (r *fakeMaintenanceRepo) Create(_ context.Context, entry *domain.MaintenanceSchedule) error {
	if r.createErr != nil {
		return r.createErr
	}
	entry.ID = "m1"
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeMaintenanceRepo) ListByVehicle(_ context.Context, vehicleID string) ([]domain.MaintenanceSchedule, error) {
	var result []domain.MaintenanceSchedule
	for _, entry := range r.entries {
		if entry.VehicleID == vehicleID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type fixture struct {
	vehicles    *fakeVehicleRepo
	drivers     *fakeDriverRepo
	maintenance *fakeMaintenanceRepo
	svc         *service.AssignmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	vehicles := newFakeVehicleRepo()
	drivers := newFakeDriverRepo()
	maintenance := &fakeMaintenanceRepo{}
	cfg := config.FleetConfig{AssignMaxRetries: 2, StoreTimeoutSeconds: 5}
	svc := service.NewAssignmentService(cfg, service.AssignmentDependencies{
		VehicleRepo: vehicles,
		DriverRepo:  drivers,
		Maintenance: service.NewMaintenanceService(maintenance),
	})
	return &fixture{vehicles: vehicles, drivers: drivers, maintenance: maintenance, svc: svc}
}

func (f *fixture) addVehicle(id, plate string, status domain.VehicleStatus) {
	f.vehicles.put(&domain.Vehicle{ID: id, Brand: "Toyota", Model: "Hilux", Plate: plate, Status: status, Version: 1})
}

func (f *fixture) addDriver(id string, status domain.DriverStatus, assignedVehicle *string) {
	f.drivers.put(&domain.Driver{ID: id, UserID: "u-" + id, Name: "Ana", LastName: "Reyes", Status: status, AssignedVehicleID: assignedVehicle, Version: 1})
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).Code
}

func TestAssignSuccess(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)

	view, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)
	require.NotNil(t, view.Vehicle)
	require.NotNil(t, view.Driver)
	assert.Equal(t, domain.VehicleStatusAssigned, view.Vehicle.Status)
	require.NotNil(t, view.Driver.AssignedVehicleID)
	assert.Equal(t, "v1", *view.Driver.AssignedVehicleID)
	assert.Empty(t, view.Warning)

	stored, err := f.drivers.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	require.NotNil(t, stored.AssignedVehicleID)
	assert.Equal(t, "v1", *stored.AssignedVehicleID)
}

func TestAssignVehicleNotFound(t *testing.T) {
	f := newFixture(t)
	f.addDriver("d1", domain.DriverStatusActive, nil)

	_, err := f.svc.Assign(context.Background(), "missing", "d1")
	assert.Equal(t, "NOT_FOUND", errCode(t, err))
}

func TestAssignInactiveDriver(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d2", domain.DriverStatusInactive, nil)

	_, err := f.svc.Assign(context.Background(), "v1", "d2")
	assert.Equal(t, "INVALID_STATE", errCode(t, err))
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
}

func TestAssignConflictLeavesFirstAssignmentIntact(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)
	f.addDriver("d2", domain.DriverStatusActive, nil)

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)

	_, err = f.svc.Assign(context.Background(), "v1", "d2")
	assert.Equal(t, "CONFLICT", errCode(t, err))

	holder, err := f.drivers.GetByAssignedVehicle(context.Background(), "v1")
	require.NoError(t, err)
	require.NotNil(t, holder)
	assert.Equal(t, "d1", holder.ID)

	d2, err := f.drivers.GetByID(context.Background(), "d2")
	require.NoError(t, err)
	assert.Nil(t, d2.AssignedVehicleID)
}

func TestAssignDriverAlreadyAssignedElsewhere(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addVehicle("v2", "XYZ789", domain.VehicleStatusAssigned)
	other := "v2"
	f.addDriver("d1", domain.DriverStatusActive, &other)

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	assert.Equal(t, "CONFLICT", errCode(t, err))
}

func TestUnassignRoundTripRestoresPreAssignmentState(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)

	view, err := f.svc.Unassign(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAvailable, view.Vehicle.Status)
	assert.Nil(t, view.Driver)

	driver, err := f.drivers.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	assert.Nil(t, driver.AssignedVehicleID)
}

func TestUnassignIsNotIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)

	_, err = f.svc.Unassign(context.Background(), "v1")
	require.NoError(t, err)

	// The second call must fail deterministically, never silently succeed.
	_, err = f.svc.Unassign(context.Background(), "v1")
	assert.Equal(t, "INVALID_STATE", errCode(t, err))
}

func TestSetStatusMaintenanceCreatesScheduleEntry(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)

	scheduled := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	view, err := f.svc.SetVehicleStatus(context.Background(), "v1", domain.VehicleStatusMaintenance, service.MaintenanceDetails{
		ScheduledDate: &scheduled,
		Description:   "oil change",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusMaintenance, view.Vehicle.Status)
	require.NotNil(t, view.Maintenance)
	assert.Equal(t, "v1", view.Maintenance.VehicleID)
	assert.Equal(t, scheduled, view.Maintenance.ScheduledDate)
	assert.Equal(t, "oil change", view.Maintenance.Description)
	assert.Equal(t, domain.MaintenanceStatusPending, view.Maintenance.Status)
	assert.Equal(t, domain.MaintenanceTypeRegular, view.Maintenance.MaintenanceType)
	assert.Empty(t, view.Warning)
}

func TestSetStatusMaintenanceDefaults(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)

	view, err := f.svc.SetVehicleStatus(context.Background(), "v1", domain.VehicleStatusMaintenance, service.MaintenanceDetails{})
	require.NoError(t, err)
	require.NotNil(t, view.Maintenance)
	assert.Equal(t, "Scheduled maintenance", view.Maintenance.Description)
	assert.WithinDuration(t, time.Now(), view.Maintenance.ScheduledDate, time.Minute)
}

func TestSetStatusMaintenanceTriggerFailureBecomesWarning(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.maintenance.createErr = errors.New("ledger unavailable")

	view, err := f.svc.SetVehicleStatus(context.Background(), "v1", domain.VehicleStatusMaintenance, service.MaintenanceDetails{})
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusMaintenance, view.Vehicle.Status)
	assert.Nil(t, view.Maintenance)
	assert.NotEmpty(t, view.Warning)

	stored, err := f.vehicles.GetByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusMaintenance, stored.Status)
}

func TestSetStatusAssignedRejected(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)

	_, err := f.svc.SetVehicleStatus(context.Background(), "v1", domain.VehicleStatusAssigned, service.MaintenanceDetails{})
	assert.Equal(t, "INVALID_STATE", errCode(t, err))
}

func TestMaintenanceSuspendsButDoesNotBreakAssignment(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)

	_, err = f.svc.SetVehicleStatus(context.Background(), "v1", domain.VehicleStatusMaintenance, service.MaintenanceDetails{})
	require.NoError(t, err)

	// The reference survives maintenance.
	driver, err := f.drivers.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	require.NotNil(t, driver.AssignedVehicleID)
	assert.Equal(t, "v1", *driver.AssignedVehicleID)

	// Leaving maintenance restores the suspended assignment.
	view, err := f.svc.SetVehicleStatus(context.Background(), "v1", domain.VehicleStatusAvailable, service.MaintenanceDetails{})
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAssigned, view.Vehicle.Status)
}

func TestUnassignUnderMaintenanceKeepsStatus(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)
	_, err = f.svc.SetVehicleStatus(context.Background(), "v1", domain.VehicleStatusMaintenance, service.MaintenanceDetails{})
	require.NoError(t, err)

	view, err := f.svc.Unassign(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusMaintenance, view.Vehicle.Status)
	assert.Nil(t, view.Driver)

	// Now nothing holds the vehicle, so leaving maintenance frees it.
	statusView, err := f.svc.SetVehicleStatus(context.Background(), "v1", domain.VehicleStatusAvailable, service.MaintenanceDetails{})
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAvailable, statusView.Vehicle.Status)
}

func TestDeleteAssignedDriverFreesVehicle(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)

	warning, err := f.svc.DeleteDriver(context.Background(), "d1")
	require.NoError(t, err)
	assert.Empty(t, warning)

	vehicle, err := f.vehicles.GetByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAvailable, vehicle.Status)

	_, err = f.drivers.GetByID(context.Background(), "d1")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestDeleteVehicleClearsDriverReference(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteVehicle(context.Background(), "v1"))

	driver, err := f.drivers.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	assert.Nil(t, driver.AssignedVehicleID)
}

func TestUpdateVehiclePlateCollision(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addVehicle("v2", "XYZ789", domain.VehicleStatusAvailable)

	plate := "XYZ789"
	_, err := f.svc.UpdateVehicle(context.Background(), "v1", service.VehiclePatch{Plate: &plate})
	assert.Equal(t, "CONFLICT", errCode(t, err))
}

func TestUpdateVehicleForcedAssignmentChange(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)
	f.addDriver("d2", domain.DriverStatusActive, nil)

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)

	// Replace d1 with d2 through the vehicle patch.
	d2 := "d2"
	brand := "Ford"
	view, err := f.svc.UpdateVehicle(context.Background(), "v1", service.VehiclePatch{
		Brand:       &brand,
		DriverID:    &d2,
		DriverIDSet: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ford", view.Vehicle.Brand)
	assert.Equal(t, domain.VehicleStatusAssigned, view.Vehicle.Status)
	require.NotNil(t, view.Driver)
	assert.Equal(t, "d2", view.Driver.ID)

	d1, err := f.drivers.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	assert.Nil(t, d1.AssignedVehicleID)

	// Force unassignment with an explicit null.
	view, err = f.svc.UpdateVehicle(context.Background(), "v1", service.VehiclePatch{DriverIDSet: true})
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAvailable, view.Vehicle.Status)
	assert.Nil(t, view.Driver)
}

func TestUpdateVehicleWithoutRelationshipChangeKeepsAssignment(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)

	model := "Ranger"
	view, err := f.svc.UpdateVehicle(context.Background(), "v1", service.VehiclePatch{Model: &model})
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAssigned, view.Vehicle.Status)
	require.NotNil(t, view.Driver)
	assert.Equal(t, "d1", view.Driver.ID)
}

func TestUpdateDriverReassignsThroughVehicleField(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addVehicle("v2", "XYZ789", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)

	v2 := "v2"
	view, err := f.svc.UpdateDriver(context.Background(), "d1", service.DriverPatch{
		VehicleID:    &v2,
		VehicleIDSet: true,
	})
	require.NoError(t, err)
	require.NotNil(t, view.Vehicle)
	assert.Equal(t, "v2", view.Vehicle.ID)
	assert.Equal(t, domain.VehicleStatusAssigned, view.Vehicle.Status)

	v1, err := f.vehicles.GetByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAvailable, v1.Status)
}

func TestUpdateDriverDeactivationReleasesVehicle(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)

	inactive := domain.DriverStatusInactive
	view, err := f.svc.UpdateDriver(context.Background(), "d1", service.DriverPatch{Status: &inactive})
	require.NoError(t, err)
	require.NotNil(t, view.Driver)
	assert.Nil(t, view.Driver.AssignedVehicleID)

	vehicle, err := f.vehicles.GetByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAvailable, vehicle.Status)
}

func TestVersionConflictRetriesSequence(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)
	f.drivers.updateErrs = []error{repository.ErrVersionConflict}

	view, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAssigned, view.Vehicle.Status)
}

func TestVersionConflictBudgetExhausted(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)
	f.drivers.updateErrs = []error{
		repository.ErrVersionConflict,
		repository.ErrVersionConflict,
		repository.ErrVersionConflict,
	}

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	assert.Equal(t, "CONFLICT", errCode(t, err))
}

func TestAssignSecondWriteFailureIsCompensated(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)
	f.vehicles.updateErrs = []error{errors.New("connection reset")}

	_, err := f.svc.Assign(context.Background(), "v1", "d1")
	assert.Equal(t, "UPSTREAM_STORE", errCode(t, err))

	// The compensation reverted the driver reference: no dangling edge.
	driver, err := f.drivers.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	assert.Nil(t, driver.AssignedVehicleID)
	vehicle, err := f.vehicles.GetByID(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAvailable, vehicle.Status)
}

func TestAssignCompensationFailureSurfacesWarning(t *testing.T) {
	f := newFixture(t)
	f.addVehicle("v1", "ABC123", domain.VehicleStatusAvailable)
	f.addDriver("d1", domain.DriverStatusActive, nil)
	f.vehicles.updateErrs = []error{errors.New("connection reset")}
	f.drivers.updateErrs = []error{nil, errors.New("connection reset")}

	view, err := f.svc.Assign(context.Background(), "v1", "d1")
	require.NoError(t, err)
	assert.NotEmpty(t, view.Warning)

	// The primary state change (the driver reference) survives.
	driver, err := f.drivers.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	require.NotNil(t, driver.AssignedVehicleID)
	assert.Equal(t, "v1", *driver.AssignedVehicleID)
}
