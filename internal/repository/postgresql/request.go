package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/request"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type requestRepositoryImpl struct {
	db *database.DB
}

func NewRequestRepository(db *database.DB) request.RequestRepository {
	return &requestRepositoryImpl{db: db}
}

const requestColumns = `r.id, r.workspace_id, r.user_id, u.name, r.type, r.date, r.description, r.attachment_url,
	r.status, r.reviewed_by, r.reviewed_at, r.created_at`

func scanRequest(row pgx.Row) (request.EmployeeRequest, error) {
	var er request.EmployeeRequest
	err := row.Scan(
		&er.ID,
		&er.WorkspaceID,
		&er.UserID,
		&er.UserName,
		&er.Type,
		&er.Date,
		&er.Description,
		&er.AttachmentURL,
		&er.Status,
		&er.ReviewedBy,
		&er.ReviewedAt,
		&er.CreatedAt,
	)
	return er, err
}

// Create implements request.RequestRepository.
func (r *requestRepositoryImpl) Create(ctx context.Context, req request.EmployeeRequest) (request.EmployeeRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH r AS (
			INSERT INTO employee_requests (workspace_id, user_id, type, date, description, attachment_url, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		)
		SELECT ` + requestColumns + `
		FROM r
		JOIN users u ON u.id = r.user_id
	`

	created, err := scanRequest(q.QueryRow(ctx, query,
		req.WorkspaceID,
		req.UserID,
		req.Type,
		req.Date,
		req.Description,
		req.AttachmentURL,
		req.Status,
	))
	if err != nil {
		return request.EmployeeRequest{}, fmt.Errorf("failed to insert employee request: %w", err)
	}
	return created, nil
}

// GetByID implements request.RequestRepository.
func (r *requestRepositoryImpl) GetByID(ctx context.Context, id string, workspaceID string) (request.EmployeeRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + requestColumns + `
		FROM employee_requests r
		JOIN users u ON u.id = r.user_id
		WHERE r.id = $1 AND r.workspace_id = $2
	`

	er, err := scanRequest(q.QueryRow(ctx, query, id, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return request.EmployeeRequest{}, request.ErrRequestNotFound
		}
		return request.EmployeeRequest{}, fmt.Errorf("failed to get employee request: %w", err)
	}
	return er, nil
}

// List implements request.RequestRepository.
func (r *requestRepositoryImpl) List(ctx context.Context, filter request.RequestFilter, workspaceID string) ([]request.EmployeeRequest, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "r.workspace_id = $1"
	args := []interface{}{workspaceID}
	argIdx := 2

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND r.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.UserID != nil && *filter.UserID != "" {
		baseWhere += fmt.Sprintf(" AND r.user_id = $%d", argIdx)
		args = append(args, *filter.UserID)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM employee_requests r WHERE `+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count employee requests: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM employee_requests r
		JOIN users u ON u.id = r.user_id
		WHERE %s
		ORDER BY r.created_at DESC
		LIMIT $%d OFFSET $%d
	`, requestColumns, baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query employee requests: %w", err)
	}
	defer rows.Close()

	requests := []request.EmployeeRequest{}
	for rows.Next() {
		er, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan employee request: %w", err)
		}
		requests = append(requests, er)
	}
	return requests, total, rows.Err()
}

// Decide implements request.RequestRepository.
func (r *requestRepositoryImpl) Decide(ctx context.Context, id string, workspaceID string, status request.Status, reviewerID string, at time.Time) (request.EmployeeRequest, error) {
	if status != request.StatusApproved && status != request.StatusRejected {
		return request.EmployeeRequest{}, request.ErrInvalidDecision
	}
	q := GetQuerier(ctx, r.db)

	// the pending guard makes concurrent decisions race-free
	query := `
		WITH r AS (
			UPDATE employee_requests
			SET status = $3, reviewed_by = $4, reviewed_at = $5
			WHERE id = $1 AND workspace_id = $2 AND status = 'pending'
			RETURNING *
		)
		SELECT ` + requestColumns + `
		FROM r
		JOIN users u ON u.id = r.user_id
	`

	decided, err := scanRequest(q.QueryRow(ctx, query, id, workspaceID, status, reviewerID, at))
	if err == nil {
		return decided, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return request.EmployeeRequest{}, fmt.Errorf("failed to decide employee request: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employee_requests WHERE id = $1 AND workspace_id = $2)`, id, workspaceID).Scan(&exists); err != nil {
		return request.EmployeeRequest{}, fmt.Errorf("failed to check employee request: %w", err)
	}
	if !exists {
		return request.EmployeeRequest{}, request.ErrRequestNotFound
	}
	return request.EmployeeRequest{}, request.ErrRequestAlreadyProcessed
}
