package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/schedule"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type workShiftRepositoryImpl struct {
	db *database.DB
}

func NewWorkShiftRepository(db *database.DB) schedule.WorkShiftRepository {
	return &workShiftRepositoryImpl{db: db}
}

const workShiftColumns = `id, workspace_id, name, start_time, end_time, break_minutes, created_at, updated_at`

// clockToTime maps a TIME column onto the zero date used by clock parsing
func clockToTime(c pgtype.Time) time.Time {
	return time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(c.Microseconds) * time.Microsecond)
}

func timeToClock(t time.Time) pgtype.Time {
	seconds := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return pgtype.Time{Microseconds: int64(seconds) * 1_000_000, Valid: true}
}

func scanWorkShift(row pgx.Row) (schedule.WorkShift, error) {
	var s schedule.WorkShift
	var start, end pgtype.Time
	err := row.Scan(&s.ID, &s.WorkspaceID, &s.Name, &start, &end, &s.BreakMinutes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return schedule.WorkShift{}, err
	}
	s.StartTime = clockToTime(start)
	s.EndTime = clockToTime(end)
	return s, nil
}

// Create implements schedule.WorkShiftRepository.
func (r *workShiftRepositoryImpl) Create(ctx context.Context, shift schedule.WorkShift) (schedule.WorkShift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO work_shifts (workspace_id, name, start_time, end_time, break_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + workShiftColumns

	created, err := scanWorkShift(q.QueryRow(ctx, query,
		shift.WorkspaceID, shift.Name, timeToClock(shift.StartTime), timeToClock(shift.EndTime), shift.BreakMinutes))
	if err != nil {
		if _, ok := constraintViolation(err, uniqueViolation); ok {
			return schedule.WorkShift{}, schedule.ErrShiftNameExists
		}
		return schedule.WorkShift{}, fmt.Errorf("failed to create work shift: %w", err)
	}
	return created, nil
}

// GetByID implements schedule.WorkShiftRepository.
func (r *workShiftRepositoryImpl) GetByID(ctx context.Context, id string, workspaceID string) (schedule.WorkShift, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanWorkShift(q.QueryRow(ctx, `SELECT `+workShiftColumns+` FROM work_shifts WHERE id = $1 AND workspace_id = $2`, id, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WorkShift{}, schedule.ErrShiftNotFound
		}
		return schedule.WorkShift{}, fmt.Errorf("failed to get work shift: %w", err)
	}
	return s, nil
}

// List implements schedule.WorkShiftRepository.
func (r *workShiftRepositoryImpl) List(ctx context.Context, workspaceID string) ([]schedule.WorkShift, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+workShiftColumns+` FROM work_shifts WHERE workspace_id = $1 ORDER BY start_time, name`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query work shifts: %w", err)
	}
	defer rows.Close()

	shifts := []schedule.WorkShift{}
	for rows.Next() {
		s, err := scanWorkShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

// Update implements schedule.WorkShiftRepository.
func (r *workShiftRepositoryImpl) Update(ctx context.Context, shift schedule.WorkShift) (schedule.WorkShift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE work_shifts
		SET name = $3, start_time = $4, end_time = $5, break_minutes = $6, updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2
		RETURNING ` + workShiftColumns

	updated, err := scanWorkShift(q.QueryRow(ctx, query,
		shift.ID, shift.WorkspaceID, shift.Name, timeToClock(shift.StartTime), timeToClock(shift.EndTime), shift.BreakMinutes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WorkShift{}, schedule.ErrShiftNotFound
		}
		if _, ok := constraintViolation(err, uniqueViolation); ok {
			return schedule.WorkShift{}, schedule.ErrShiftNameExists
		}
		return schedule.WorkShift{}, fmt.Errorf("failed to update work shift: %w", err)
	}
	return updated, nil
}

// Delete implements schedule.WorkShiftRepository. A shift referenced by any schedule day is kept.
func (r *workShiftRepositoryImpl) Delete(ctx context.Context, id string, workspaceID string) error {
	q := GetQuerier(ctx, r.db)

	var inUse bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM work_schedules WHERE workspace_id = $2 AND days @> jsonb_build_array($1::text)
		)
	`, id, workspaceID).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("failed to check work shift usage: %w", err)
	}
	if inUse {
		return schedule.ErrShiftInUse
	}

	commandTag, err := q.Exec(ctx, `DELETE FROM work_shifts WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete work shift: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return schedule.ErrShiftNotFound
	}
	return nil
}
