package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/repository"
)

const (
	indexKeyPrefix = "fleet:assignment:"
	indexTTL       = 10 * time.Minute
)

// AssignmentIndex is a redis-backed reverse index from vehicle id to the
// driver currently referencing it. The coordinator keeps it in step with its
// writes; lookups fall back to the driver reverse scan on a miss or a redis
// error and repopulate the key. The index is a fast path for reads; write
// paths re-consult the store before deciding conflicts.
type AssignmentIndex struct {
	client  *redis.Client
	drivers repository.DriverRepository
	logger  *zap.Logger
}

// NewAssignmentIndex builds the index over a redis client and the driver
// repository used for fallback scans. A nil client degrades to scan-only.
func NewAssignmentIndex(client *redis.Client, drivers repository.DriverRepository, logger *zap.Logger) *AssignmentIndex {
	return &AssignmentIndex{client: client, drivers: drivers, logger: logger}
}

// Lookup returns the driver currently referencing vehicleID, or nil when
// the vehicle is unassigned.
func (i *AssignmentIndex) Lookup(ctx context.Context, vehicleID string) (*domain.Driver, error) {
	if i.client != nil {
		driverID, err := i.client.Get(ctx, indexKeyPrefix+vehicleID).Result()
		switch {
		case err == nil:
			driver, derr := i.drivers.GetByID(ctx, driverID)
			if derr == nil && driver.AssignedVehicleID != nil && *driver.AssignedVehicleID == vehicleID {
				return driver, nil
			}
			// Stale entry: the driver no longer references this vehicle.
			i.Clear(ctx, vehicleID)
		case errors.Is(err, redis.Nil):
		default:
			i.logger.Warn("assignment index lookup failed", zap.Error(err))
		}
	}

	driver, err := i.drivers.GetByAssignedVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if driver != nil {
		i.Set(ctx, vehicleID, driver.ID)
	}
	return driver, nil
}

// Set records vehicleID → driverID. Best effort.
func (i *AssignmentIndex) Set(ctx context.Context, vehicleID, driverID string) {
	if i.client == nil {
		return
	}
	if err := i.client.Set(ctx, indexKeyPrefix+vehicleID, driverID, indexTTL).Err(); err != nil {
		i.logger.Warn("assignment index set failed", zap.Error(err))
	}
}

// Clear removes the entry for vehicleID. Best effort.
func (i *AssignmentIndex) Clear(ctx context.Context, vehicleID string) {
	if i.client == nil {
		return
	}
	if err := i.client.Del(ctx, indexKeyPrefix+vehicleID).Err(); err != nil {
		i.logger.Warn("assignment index clear failed", zap.Error(err))
	}
}
