package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/geopoint/geopoint-backend-go/internal/domain/location"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type locationRepositoryImpl struct {
	db *database.DB
}

func NewLocationRepository(db *database.DB) location.LocationRepository {
	return &locationRepositoryImpl{db: db}
}

const locationColumns = `id, workspace_id, name, address, code, latitude, longitude, created_at, updated_at`

func scanLocation(row pgx.Row) (location.Location, error) {
	var l location.Location
	err := row.Scan(&l.ID, &l.WorkspaceID, &l.Name, &l.Address, &l.Code, &l.Latitude, &l.Longitude, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// Create implements location.LocationRepository.
func (r *locationRepositoryImpl) Create(ctx context.Context, l location.Location) (location.Location, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO locations (workspace_id, name, address, code, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + locationColumns

	created, err := scanLocation(q.QueryRow(ctx, query, l.WorkspaceID, l.Name, l.Address, l.Code, l.Latitude, l.Longitude))
	if err != nil {
		if _, ok := constraintViolation(err, uniqueViolation); ok {
			return location.Location{}, location.ErrLocationCodeExists
		}
		return location.Location{}, fmt.Errorf("failed to create location: %w", err)
	}
	return created, nil
}

// GetByID implements location.LocationRepository.
func (r *locationRepositoryImpl) GetByID(ctx context.Context, id string, workspaceID string) (location.Location, error) {
	q := GetQuerier(ctx, r.db)

	l, err := scanLocation(q.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1 AND workspace_id = $2`, id, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return location.Location{}, location.ErrLocationNotFound
		}
		return location.Location{}, fmt.Errorf("failed to get location: %w", err)
	}
	return l, nil
}

// GetByCode implements location.LocationRepository.
func (r *locationRepositoryImpl) GetByCode(ctx context.Context, code string, workspaceID string) (location.Location, error) {
	q := GetQuerier(ctx, r.db)

	l, err := scanLocation(q.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE code = $1 AND workspace_id = $2`, code, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return location.Location{}, location.ErrLocationNotFound
		}
		return location.Location{}, fmt.Errorf("failed to get location by code: %w", err)
	}
	return l, nil
}

// List implements location.LocationRepository.
func (r *locationRepositoryImpl) List(ctx context.Context, workspaceID string, search *string) ([]location.Location, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + locationColumns + ` FROM locations WHERE workspace_id = $1`
	args := []interface{}{workspaceID}
	if search != nil && *search != "" {
		query += ` AND (name ILIKE $2 OR code ILIKE $2)`
		args = append(args, "%"+*search+"%")
	}
	query += ` ORDER BY name ASC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	locations := []location.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// Update implements location.LocationRepository.
func (r *locationRepositoryImpl) Update(ctx context.Context, l location.Location) (location.Location, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE locations
		SET name = $3, address = $4, code = $5, latitude = $6, longitude = $7, updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2
		RETURNING ` + locationColumns

	updated, err := scanLocation(q.QueryRow(ctx, query, l.ID, l.WorkspaceID, l.Name, l.Address, l.Code, l.Latitude, l.Longitude))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return location.Location{}, location.ErrLocationNotFound
		}
		if _, ok := constraintViolation(err, uniqueViolation); ok {
			return location.Location{}, location.ErrLocationCodeExists
		}
		return location.Location{}, fmt.Errorf("failed to update location: %w", err)
	}
	return updated, nil
}

// Delete implements location.LocationRepository.
func (r *locationRepositoryImpl) Delete(ctx context.Context, id string, workspaceID string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM locations WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return location.ErrLocationNotFound
	}
	return nil
}
