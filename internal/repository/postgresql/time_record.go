package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/attendance"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type timeRecordRepository struct {
	db *database.DB
	// calendar days in filters are interpreted in this zone
	loc *time.Location
}

func NewTimeRecordRepository(db *database.DB, loc *time.Location) attendance.TimeRecordRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &timeRecordRepository{db: db, loc: loc}
}

const timeRecordColumns = `id, workspace_id, employee_id, employee_name, type, timestamp, location_code, location_name,
	photo_url, latitude, longitude, is_out_of_perimeter, distance_meters, created_at`

func scanTimeRecord(row pgx.Row) (attendance.TimeRecord, error) {
	var r attendance.TimeRecord
	err := row.Scan(
		&r.ID,
		&r.WorkspaceID,
		&r.EmployeeID,
		&r.EmployeeName,
		&r.Type,
		&r.Timestamp,
		&r.LocationCode,
		&r.LocationName,
		&r.PhotoURL,
		&r.Latitude,
		&r.Longitude,
		&r.IsOutOfPerimeter,
		&r.DistanceMeters,
		&r.CreatedAt,
	)
	if err != nil {
		return attendance.TimeRecord{}, err
	}
	// rows written by older app versions carry the perimeter flag in the name
	r.NormalizeLegacy()
	return r, nil
}

func collectTimeRecords(rows pgx.Rows) ([]attendance.TimeRecord, error) {
	defer rows.Close()

	records := []attendance.TimeRecord{}
	for rows.Next() {
		r, err := scanTimeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Create implements attendance.TimeRecordRepository.
func (t *timeRecordRepository) Create(ctx context.Context, record attendance.TimeRecord) (attendance.TimeRecord, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		INSERT INTO time_records (
			workspace_id, employee_id, employee_name, type, timestamp, location_code, location_name,
			photo_url, latitude, longitude, is_out_of_perimeter, distance_meters
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + timeRecordColumns

	created, err := scanTimeRecord(q.QueryRow(ctx, query,
		record.WorkspaceID,
		record.EmployeeID,
		record.EmployeeName,
		record.Type,
		record.Timestamp,
		record.LocationCode,
		record.LocationName,
		record.PhotoURL,
		record.Latitude,
		record.Longitude,
		record.IsOutOfPerimeter,
		record.DistanceMeters,
	))
	if err != nil {
		if _, ok := constraintViolation(err, foreignKeyViolation); ok {
			return attendance.TimeRecord{}, attendance.ErrEmployeeNotFound
		}
		return attendance.TimeRecord{}, fmt.Errorf("failed to insert time record: %w", err)
	}
	return created, nil
}

// GetByID implements attendance.TimeRecordRepository.
func (t *timeRecordRepository) GetByID(ctx context.Context, id string, workspaceID string) (attendance.TimeRecord, error) {
	q := GetQuerier(ctx, t.db)

	query := `SELECT ` + timeRecordColumns + ` FROM time_records WHERE id = $1 AND workspace_id = $2`

	r, err := scanTimeRecord(q.QueryRow(ctx, query, id, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.TimeRecord{}, attendance.ErrRecordNotFound
		}
		return attendance.TimeRecord{}, fmt.Errorf("failed to get time record: %w", err)
	}
	return r, nil
}

// GetLastByEmployee implements attendance.TimeRecordRepository.
func (t *timeRecordRepository) GetLastByEmployee(ctx context.Context, workspaceID string, employeeID string) (*attendance.TimeRecord, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		SELECT ` + timeRecordColumns + `
		FROM time_records
		WHERE workspace_id = $1 AND employee_id = $2
		ORDER BY timestamp DESC, created_at DESC
		LIMIT 1
	`

	r, err := scanTimeRecord(q.QueryRow(ctx, query, workspaceID, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last time record: %w", err)
	}
	return &r, nil
}

// dayRange appends timestamp bounds for inclusive calendar days to the where clause
func (t *timeRecordRepository) dayRange(where string, args []interface{}, argIdx int, start, end *string) (string, []interface{}, int) {
	if start != nil && *start != "" {
		if from, err := time.ParseInLocation("2006-01-02", *start, t.loc); err == nil {
			where += fmt.Sprintf(" AND timestamp >= $%d", argIdx)
			args = append(args, from)
			argIdx++
		}
	}
	if end != nil && *end != "" {
		if to, err := time.ParseInLocation("2006-01-02", *end, t.loc); err == nil {
			where += fmt.Sprintf(" AND timestamp < $%d", argIdx)
			args = append(args, to.AddDate(0, 0, 1))
			argIdx++
		}
	}
	return where, args, argIdx
}

// List implements attendance.TimeRecordRepository.
func (t *timeRecordRepository) List(ctx context.Context, filter attendance.RecordFilter, workspaceID string) ([]attendance.TimeRecord, int64, error) {
	q := GetQuerier(ctx, t.db)

	baseWhere := "workspace_id = $1"
	args := []interface{}{workspaceID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Type != nil && *filter.Type != "" {
		baseWhere += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, *filter.Type)
		argIdx++
	}
	if filter.OutOfPerimeter != nil {
		baseWhere += fmt.Sprintf(" AND is_out_of_perimeter = $%d", argIdx)
		args = append(args, *filter.OutOfPerimeter)
		argIdx++
	}
	baseWhere, args, argIdx = t.dayRange(baseWhere, args, argIdx, filter.StartDate, filter.EndDate)

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM time_records WHERE `+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count time records: %w", err)
	}

	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM time_records
		WHERE %s
		ORDER BY timestamp %s
		LIMIT $%d OFFSET $%d
	`, timeRecordColumns, baseWhere, sortOrder, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query time records: %w", err)
	}
	records, err := collectTimeRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListByEmployee implements attendance.TimeRecordRepository.
func (t *timeRecordRepository) ListByEmployee(ctx context.Context, employeeID string, filter attendance.MyRecordFilter, workspaceID string) ([]attendance.TimeRecord, int64, error) {
	q := GetQuerier(ctx, t.db)

	baseWhere := "workspace_id = $1 AND employee_id = $2"
	args := []interface{}{workspaceID, employeeID}
	argIdx := 3
	baseWhere, args, argIdx = t.dayRange(baseWhere, args, argIdx, filter.StartDate, filter.EndDate)

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM time_records WHERE `+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count time records: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM time_records
		WHERE %s
		ORDER BY timestamp DESC
		LIMIT $%d OFFSET $%d
	`, timeRecordColumns, baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query time records: %w", err)
	}
	records, err := collectTimeRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListBetween implements attendance.TimeRecordRepository.
func (t *timeRecordRepository) ListBetween(ctx context.Context, workspaceID string, from, to time.Time) ([]attendance.TimeRecord, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		SELECT ` + timeRecordColumns + `
		FROM time_records
		WHERE workspace_id = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp ASC
	`

	rows, err := q.Query(ctx, query, workspaceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query time records: %w", err)
	}
	return collectTimeRecords(rows)
}

// ListActiveWorkspaces implements attendance.TimeRecordRepository.
func (t *timeRecordRepository) ListActiveWorkspaces(ctx context.Context, since time.Time) ([]string, error) {
	q := GetQuerier(ctx, t.db)

	rows, err := q.Query(ctx, `SELECT DISTINCT workspace_id FROM time_records WHERE timestamp >= $1`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query active workspaces: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect active workspaces: %w", err)
	}
	return ids, nil
}

// Delete implements attendance.TimeRecordRepository.
func (t *timeRecordRepository) Delete(ctx context.Context, id string, workspaceID string) error {
	q := GetQuerier(ctx, t.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM time_records WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete time record: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return attendance.ErrRecordNotFound
	}
	return nil
}
