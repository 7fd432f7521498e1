package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
)

// DriverRepository handles persistence for drivers. Update checks the
// driver's version and returns ErrVersionConflict on a stale write.
// GetByAssignedVehicle is the reverse scan: it returns (nil, nil) when no
// driver references the vehicle.
type DriverRepository interface {
	Create(ctx context.Context, driver *domain.Driver) error
	Update(ctx context.Context, driver *domain.Driver) error
	GetByID(ctx context.Context, id string) (*domain.Driver, error)
	GetByAssignedVehicle(ctx context.Context, vehicleID string) (*domain.Driver, error)
	List(ctx context.Context, filter DriverFilter) ([]domain.Driver, error)
	Delete(ctx context.Context, id string) error
}

// DriverFilter defines query params for driver listing.
type DriverFilter struct {
	Status       *domain.DriverStatus
	AssignedOnly bool
	Limit        int
	Offset       int
}

type driverRepository struct {
	pool *pgxpool.Pool
}

// NewDriverRepository instantiates the repository.
func NewDriverRepository(pool *pgxpool.Pool) DriverRepository {
	return &driverRepository{pool: pool}
}

const driverColumns = `id, user_id, name, last_name, phone, license_type, license_expiry, status, assigned_vehicle_id, version, created_at, updated_at`

func (r *driverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	const query = `
        INSERT INTO drivers (user_id, name, last_name, phone, license_type, license_expiry, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, version, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		driver.UserID,
		driver.Name,
		driver.LastName,
		driver.Phone,
		driver.LicenseType,
		driver.LicenseExpiry,
		driver.Status,
	).Scan(&driver.ID, &driver.Version, &driver.CreatedAt, &driver.UpdatedAt)
}

func (r *driverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	const query = `
        UPDATE drivers
        SET name=$1, last_name=$2, phone=$3, license_type=$4, license_expiry=$5,
            status=$6, assigned_vehicle_id=$7, version=version+1, updated_at=NOW()
        WHERE id=$8 AND version=$9`

	cmd, err := r.pool.Exec(ctx, query,
		driver.Name,
		driver.LastName,
		driver.Phone,
		driver.LicenseType,
		driver.LicenseExpiry,
		driver.Status,
		driver.AssignedVehicleID,
		driver.ID,
		driver.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	driver.Version++
	return nil
}

func (r *driverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := fmt.Sprintf(`SELECT %s FROM drivers WHERE id=$1`, driverColumns)
	return scanDriver(r.pool.QueryRow(ctx, query, id))
}

func (r *driverRepository) GetByAssignedVehicle(ctx context.Context, vehicleID string) (*domain.Driver, error) {
	query := fmt.Sprintf(`SELECT %s FROM drivers WHERE assigned_vehicle_id=$1`, driverColumns)
	driver, err := scanDriver(r.pool.QueryRow(ctx, query, vehicleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return driver, nil
}

func scanDriver(row pgx.Row) (*domain.Driver, error) {
	var driver domain.Driver
	if err := row.Scan(
		&driver.ID,
		&driver.UserID,
		&driver.Name,
		&driver.LastName,
		&driver.Phone,
		&driver.LicenseType,
		&driver.LicenseExpiry,
		&driver.Status,
		&driver.AssignedVehicleID,
		&driver.Version,
		&driver.CreatedAt,
		&driver.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *driverRepository) List(ctx context.Context, filter DriverFilter) ([]domain.Driver, error) {
	query := fmt.Sprintf(`SELECT %s FROM drivers`, driverColumns)
	args := []any{}
	clauses := []string{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.AssignedOnly {
		clauses = append(clauses, "assigned_vehicle_id IS NOT NULL")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Driver
	for rows.Next() {
		var driver domain.Driver
		if err := rows.Scan(
			&driver.ID,
			&driver.UserID,
			&driver.Name,
			&driver.LastName,
			&driver.Phone,
			&driver.LicenseType,
			&driver.LicenseExpiry,
			&driver.Status,
			&driver.AssignedVehicleID,
			&driver.Version,
			&driver.CreatedAt,
			&driver.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, driver)
	}
	return result, rows.Err()
}

func (r *driverRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM drivers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
