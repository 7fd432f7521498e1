package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FleetTrackPigs/fleet-track-sub000/internal/domain"
)

// VehicleRepository handles persistence for vehicles. Update checks the
// vehicle's version and returns ErrVersionConflict on a stale write.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) error
	Update(ctx context.Context, vehicle *domain.Vehicle) error
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*domain.Vehicle, error)
	List(ctx context.Context, filter VehicleFilter) ([]domain.Vehicle, error)
	Delete(ctx context.Context, id string) error
}

// VehicleFilter defines query params for vehicle listing.
type VehicleFilter struct {
	Status *domain.VehicleStatus
	Brand  *string
	Limit  int
	Offset int
}

type vehicleRepository struct {
	pool *pgxpool.Pool
}

// NewVehicleRepository instantiates the repository.
func NewVehicleRepository(pool *pgxpool.Pool) VehicleRepository {
	return &vehicleRepository{pool: pool}
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	const query = `
        INSERT INTO vehicles (brand, model, plate, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, version, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		vehicle.Brand,
		vehicle.Model,
		vehicle.Plate,
		vehicle.Status,
	).Scan(&vehicle.ID, &vehicle.Version, &vehicle.CreatedAt, &vehicle.UpdatedAt)
}

func (r *vehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	const query = `
        UPDATE vehicles
        SET brand=$1, model=$2, plate=$3, status=$4, version=version+1, updated_at=NOW()
        WHERE id=$5 AND version=$6`

	cmd, err := r.pool.Exec(ctx, query,
		vehicle.Brand,
		vehicle.Model,
		vehicle.Plate,
		vehicle.Status,
		vehicle.ID,
		vehicle.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	vehicle.Version++
	return nil
}

func (r *vehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	const query = `
        SELECT id, brand, model, plate, status, version, created_at, updated_at
        FROM vehicles WHERE id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *vehicleRepository) GetByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	const query = `
        SELECT id, brand, model, plate, status, version, created_at, updated_at
        FROM vehicles WHERE plate=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, plate))
}

func (r *vehicleRepository) scanOne(row pgx.Row) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	if err := row.Scan(
		&vehicle.ID,
		&vehicle.Brand,
		&vehicle.Model,
		&vehicle.Plate,
		&vehicle.Status,
		&vehicle.Version,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) List(ctx context.Context, filter VehicleFilter) ([]domain.Vehicle, error) {
	query := `
        SELECT id, brand, model, plate, status, version, created_at, updated_at
        FROM vehicles`
	args := []any{}
	clauses := []string{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Brand != nil {
		args = append(args, *filter.Brand)
		clauses = append(clauses, fmt.Sprintf("brand=$%d", len(args)))
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

	var result []domain.Vehicle
	for rows.Next() {
		var vehicle domain.Vehicle
		if err := rows.Scan(
			&vehicle.ID,
			&vehicle.Brand,
			&vehicle.Model,
			&vehicle.Plate,
			&vehicle.Status,
			&vehicle.Version,
			&vehicle.CreatedAt,
			&vehicle.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, vehicle)
	}
	return result, rows.Err()
}

func (r *vehicleRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM vehicles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
