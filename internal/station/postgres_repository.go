package station

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL station repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectStationColumns = `
	SELECT
		id, owner_id, station_name, station_number,
		city, address, phone, fuel_types,
		is_active, verification_status,
		lat, lng, passport_image_url, license_image_url,
		created_at, updated_at
	FROM stations
`

// Get retrieves a station by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Station, error) {
	row := r.pool.QueryRow(ctx, selectStationColumns+` WHERE id = $1`, id)

	s, err := scanStation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}

	return s, nil
}

// List retrieves stations, newest first.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]*Station, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if opts.OwnerID != "" {
		rows, err = r.pool.Query(ctx,
			selectStationColumns+` WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`,
			opts.OwnerID)
	} else {
		rows, err = r.pool.Query(ctx, selectStationColumns+` ORDER BY created_at DESC, id DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]*Station, 0)
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stations, nil
}

// scanStation scans a station from a row.
func scanStation(row pgx.Row) (*Station, error) {
	var (
		s      Station
		status string
	)

	err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.Name,
		&s.StationNumber,
		&s.City,
		&s.Address,
		&s.Phone,
		&s.FuelTypes,
		&s.IsActive,
		&status,
		&s.Lat,
		&s.Lng,
		&s.PassportImageURL,
		&s.LicenseImageURL,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.VerificationStatus = VerificationStatus(status)
	if !s.VerificationStatus.Valid() {
		s.VerificationStatus = VerificationPending
	}

	return &s, nil
}

// Create creates a new station.
func (r *PostgresRepository) Create(ctx context.Context, s *Station) error {
	query := `
		INSERT INTO stations (
			id, owner_id, station_name, station_number,
			city, address, phone, fuel_types,
			is_active, verification_status, is_verified,
			lat, lng, passport_image_url, license_image_url,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.OwnerID,
		s.Name,
		s.StationNumber,
		s.City,
		s.Address,
		s.Phone,
		s.FuelTypes,
		s.IsActive,
		string(s.VerificationStatus),
		s.IsVerified(),
		s.Lat,
		s.Lng,
		s.PassportImageURL,
		s.LicenseImageURL,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

// Update updates an existing station.
func (r *PostgresRepository) Update(ctx context.Context, s *Station) error {
	query := `
		UPDATE stations SET
			station_name = $2,
			station_number = $3,
			city = $4,
			address = $5,
			phone = $6,
			fuel_types = $7,
			is_active = $8,
			verification_status = $9,
			is_verified = $10,
			lat = $11,
			lng = $12,
			passport_image_url = $13,
			license_image_url = $14,
			updated_at = $15
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Name,
		s.StationNumber,
		s.City,
		s.Address,
		s.Phone,
		s.FuelTypes,
		s.IsActive,
		string(s.VerificationStatus),
		s.IsVerified(),
		s.Lat,
		s.Lng,
		s.PassportImageURL,
		s.LicenseImageURL,
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrStationNotFound
	}

	return nil
}

// Delete deletes a station by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM stations WHERE id = $1`, id)
	return err
}

// Count returns the number of stored stations.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting stations: %w", err)
	}
	return n, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
