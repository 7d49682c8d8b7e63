package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/geopoint/geopoint-backend-go/internal/domain/workspace"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type workspaceRepositoryImpl struct {
	db *database.DB
}

func NewWorkspaceRepository(db *database.DB) workspace.WorkspaceRepository {
	return &workspaceRepositoryImpl{db: db}
}

const workspaceColumns = `id, name, geofence_threshold_meters, standard_daily_minutes, created_at, updated_at`

func scanWorkspace(row pgx.Row) (workspace.Workspace, error) {
	var w workspace.Workspace
	err := row.Scan(&w.ID, &w.Name, &w.GeofenceThresholdMeters, &w.StandardDailyMinutes, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

// Create implements workspace.WorkspaceRepository.
func (r *workspaceRepositoryImpl) Create(ctx context.Context, w workspace.Workspace) (workspace.Workspace, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO workspaces (name, geofence_threshold_meters, standard_daily_minutes)
		VALUES ($1, $2, $3)
		RETURNING ` + workspaceColumns

	created, err := scanWorkspace(q.QueryRow(ctx, query, w.Name, w.GeofenceThresholdMeters, w.StandardDailyMinutes))
	if err != nil {
		return workspace.Workspace{}, fmt.Errorf("failed to create workspace: %w", err)
	}
	return created, nil
}

// GetByID implements workspace.WorkspaceRepository.
func (r *workspaceRepositoryImpl) GetByID(ctx context.Context, id string) (workspace.Workspace, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = $1`

	w, err := scanWorkspace(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workspace.Workspace{}, workspace.ErrWorkspaceNotFound
		}
		return workspace.Workspace{}, fmt.Errorf("failed to get workspace: %w", err)
	}
	return w, nil
}

// Update implements workspace.WorkspaceRepository.
func (r *workspaceRepositoryImpl) Update(ctx context.Context, w workspace.Workspace) (workspace.Workspace, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE workspaces
		SET name = $2, geofence_threshold_meters = $3, standard_daily_minutes = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + workspaceColumns

	updated, err := scanWorkspace(q.QueryRow(ctx, query, w.ID, w.Name, w.GeofenceThresholdMeters, w.StandardDailyMinutes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workspace.Workspace{}, workspace.ErrWorkspaceNotFound
		}
		return workspace.Workspace{}, fmt.Errorf("failed to update workspace: %w", err)
	}
	return updated, nil
}
