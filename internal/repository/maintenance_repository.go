package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
)

// MaintenanceRepository persists scheduled maintenance entries. Only the
// creation call is issued by the assignment coordinator; the list side backs
// the read endpoint and the consistency audit.
type MaintenanceRepository interface {
	Create(ctx context.Context, entry *domain.MaintenanceSchedule) error
	ListByVehicle(ctx context.Context, vehicleID string) ([]domain.MaintenanceSchedule, error)
}

type maintenanceRepository struct {
	pool *pgxpool.Pool
}

// NewMaintenanceRepository instantiates the repository.
func NewMaintenanceRepository(pool *pgxpool.Pool) MaintenanceRepository {
	return &maintenanceRepository{pool: pool}
}

func (r *maintenanceRepository) Create(ctx context.Context, entry *domain.MaintenanceSchedule) error {
	const query = `
        INSERT INTO maintenance_schedules (vehicle_id, scheduled_date, maintenance_type, description, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		entry.VehicleID,
		entry.ScheduledDate,
		entry.MaintenanceType,
		entry.Description,
		entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *maintenanceRepository) ListByVehicle(ctx context.Context, vehicleID string) ([]domain.MaintenanceSchedule, error) {
	const query = `
        SELECT id, vehicle_id, scheduled_date, maintenance_type, description, status, created_at
        FROM maintenance_schedules
        WHERE vehicle_id=$1
        ORDER BY scheduled_date DESC`

	rows, err := r.pool.Query(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MaintenanceSchedule
	for rows.Next() {
		var entry domain.MaintenanceSchedule
		if err := rows.Scan(
			&entry.ID,
			&entry.VehicleID,
			&entry.ScheduledDate,
			&entry.MaintenanceType,
			&entry.Description,
			&entry.Status,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
