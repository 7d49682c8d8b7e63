package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/geopoint/geopoint-backend-go/internal/domain/schedule"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type workScheduleRepositoryImpl struct {
	db *database.DB
}

func NewWorkScheduleRepository(db *database.DB) schedule.WorkScheduleRepository {
	return &workScheduleRepositoryImpl{db: db}
}

const workScheduleColumns = `id, workspace_id, name, days, created_at, updated_at`

func scanWorkSchedule(row pgx.Row) (schedule.WorkSchedule, error) {
	var s schedule.WorkSchedule
	var days []byte
	if err := row.Scan(&s.ID, &s.WorkspaceID, &s.Name, &days, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return schedule.WorkSchedule{}, err
	}
	if err := json.Unmarshal(days, &s.Days); err != nil {
		return schedule.WorkSchedule{}, fmt.Errorf("failed to unmarshal schedule days: %w", err)
	}
	return s, nil
}

func marshalDays(days [7]*string) ([]byte, error) {
	raw, err := json.Marshal(days)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schedule days: %w", err)
	}
	return raw, nil
}

// Create implements schedule.WorkScheduleRepository.
func (r *workScheduleRepositoryImpl) Create(ctx context.Context, s schedule.WorkSchedule) (schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	days, err := marshalDays(s.Days)
	if err != nil {
		return schedule.WorkSchedule{}, err
	}

	query := `
		INSERT INTO work_schedules (workspace_id, name, days)
		VALUES ($1, $2, $3)
		RETURNING ` + workScheduleColumns

	created, err := scanWorkSchedule(q.QueryRow(ctx, query, s.WorkspaceID, s.Name, days))
	if err != nil {
		if _, ok := constraintViolation(err, uniqueViolation); ok {
			return schedule.WorkSchedule{}, schedule.ErrWorkScheduleNameExists
		}
		return schedule.WorkSchedule{}, fmt.Errorf("failed to create work schedule: %w", err)
	}
	return created, nil
}

// GetByID implements schedule.WorkScheduleRepository.
func (r *workScheduleRepositoryImpl) GetByID(ctx context.Context, id string, workspaceID string) (schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanWorkSchedule(q.QueryRow(ctx, `SELECT `+workScheduleColumns+` FROM work_schedules WHERE id = $1 AND workspace_id = $2`, id, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WorkSchedule{}, schedule.ErrWorkScheduleNotFound
		}
		return schedule.WorkSchedule{}, fmt.Errorf("failed to get work schedule: %w", err)
	}
	return s, nil
}

// List implements schedule.WorkScheduleRepository.
func (r *workScheduleRepositoryImpl) List(ctx context.Context, workspaceID string) ([]schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+workScheduleColumns+` FROM work_schedules WHERE workspace_id = $1 ORDER BY name`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query work schedules: %w", err)
	}
	defer rows.Close()

	schedules := []schedule.WorkSchedule{}
	for rows.Next() {
		s, err := scanWorkSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// Update implements schedule.WorkScheduleRepository.
func (r *workScheduleRepositoryImpl) Update(ctx context.Context, s schedule.WorkSchedule) (schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	days, err := marshalDays(s.Days)
	if err != nil {
		return schedule.WorkSchedule{}, err
	}

	query := `
		UPDATE work_schedules
		SET name = $3, days = $4, updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2
		RETURNING ` + workScheduleColumns

	updated, err := scanWorkSchedule(q.QueryRow(ctx, query, s.ID, s.WorkspaceID, s.Name, days))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WorkSchedule{}, schedule.ErrWorkScheduleNotFound
		}
		if _, ok := constraintViolation(err, uniqueViolation); ok {
			return schedule.WorkSchedule{}, schedule.ErrWorkScheduleNameExists
		}
		return schedule.WorkSchedule{}, fmt.Errorf("failed to update work schedule: %w", err)
	}
	return updated, nil
}

// Delete implements schedule.WorkScheduleRepository. Assigned users fall back to no schedule.
func (r *workScheduleRepositoryImpl) Delete(ctx context.Context, id string, workspaceID string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM work_schedules WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete work schedule: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return schedule.ErrWorkScheduleNotFound
	}
	return nil
}
