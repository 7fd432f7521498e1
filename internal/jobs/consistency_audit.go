package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/config"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/observability"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/repository"
)

const auditScanLimit = 1000

// ConsistencyAudit periodically scans both collections and reports
// relationship drift: duplicate references to one vehicle, vehicles marked
// assigned with no holder, inactive drivers holding a reference, and
// references to missing vehicles. Findings are logged and counted only;
// there is no automatic repair, so operators decide what to reconcile.
type ConsistencyAudit struct {
	vehicles repository.VehicleRepository
	drivers  repository.DriverRepository
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewConsistencyAudit creates the audit.
func NewConsistencyAudit(vehicles repository.VehicleRepository, drivers repository.DriverRepository, metrics *observability.Metrics, logger *zap.Logger) *ConsistencyAudit {
	return &ConsistencyAudit{vehicles: vehicles, drivers: drivers, metrics: metrics, logger: logger}
}

// Schedule registers the audit on the given cron runner when enabled.
func (a *ConsistencyAudit) Schedule(c *cron.Cron, cfg config.FleetConfig) error {
	if !cfg.AuditEnabled {
		a.logger.Info("consistency audit disabled")
		return nil
	}
	_, err := c.AddFunc(cfg.AuditSchedule, func() {
		a.Run(context.Background())
	})
	return err
}

// Run executes one audit pass.
func (a *ConsistencyAudit) Run(ctx context.Context) {
	assigned, err := a.drivers.List(ctx, repository.DriverFilter{AssignedOnly: true, Limit: auditScanLimit})
	if err != nil {
		a.logger.Error("audit: list assigned drivers failed", zap.Error(err))
		return
	}

	holders := make(map[string][]string, len(assigned))
	for _, driver := range assigned {
		if driver.AssignedVehicleID == nil {
			continue
		}
		vehicleID := *driver.AssignedVehicleID
		holders[vehicleID] = append(holders[vehicleID], driver.ID)

		if driver.Status != domain.DriverStatusActive {
			a.report("inactive_driver_holds_vehicle",
				zap.String("driver_id", driver.ID),
				zap.String("vehicle_id", vehicleID),
			)
		}
	}

	for vehicleID, driverIDs := range holders {
		if len(driverIDs) > 1 {
			a.report("duplicate_vehicle_reference",
				zap.String("vehicle_id", vehicleID),
				zap.Strings("driver_ids", driverIDs),
			)
		}
	}

	status := domain.VehicleStatusAssigned
	assignedVehicles, err := a.vehicles.List(ctx, repository.VehicleFilter{Status: &status, Limit: auditScanLimit})
	if err != nil {
		a.logger.Error("audit: list assigned vehicles failed", zap.Error(err))
		return
	}
	vehicleIDs := make(map[string]bool, len(assignedVehicles))
	for _, vehicle := range assignedVehicles {
		vehicleIDs[vehicle.ID] = true
		if len(holders[vehicle.ID]) == 0 {
			a.report("assigned_vehicle_without_holder",
				zap.String("vehicle_id", vehicle.ID),
			)
		}
	}

	// References to vehicles outside the assigned set: missing rows are
	// drift, and so are available vehicles (a maintenance vehicle with a
	// reference is a legitimately suspended assignment).
	for vehicleID, driverIDs := range holders {
		if vehicleIDs[vehicleID] {
			continue
		}
		vehicle, err := a.vehicles.GetByID(ctx, vehicleID)
		if err != nil {
			a.report("reference_to_missing_vehicle",
				zap.String("vehicle_id", vehicleID),
				zap.Strings("driver_ids", driverIDs),
			)
			continue
		}
		if vehicle.Status == domain.VehicleStatusAvailable {
			a.report("referenced_vehicle_not_assigned",
				zap.String("vehicle_id", vehicleID),
				zap.Strings("driver_ids", driverIDs),
			)
		}
	}
}

func (a *ConsistencyAudit) report(kind string, fields ...zap.Field) {
	a.metrics.RecordDrift(kind)
	a.logger.Warn("consistency drift: "+kind, fields...)
}
