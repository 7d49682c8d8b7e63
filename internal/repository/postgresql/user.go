package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

const userColumns = `id, workspace_id, email, name, password_hash, role, employee_id, is_premium, schedule_id, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.WorkspaceID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.Role,
		&u.EmployeeID,
		&u.IsPremium,
		&u.ScheduleID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// mapUserWriteError translates constraint violations into domain errors
func mapUserWriteError(err error) error {
	if constraint, ok := constraintViolation(err, uniqueViolation); ok {
		if constraint == "users_workspace_employee_id_key" {
			return user.ErrEmployeeIDExists
		}
		return user.ErrUserEmailExists
	}
	if _, ok := constraintViolation(err, foreignKeyViolation); ok {
		return user.ErrUnknownSchedule
	}
	return err
}

// GetByEmail implements user.UserRepository.
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(q.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// GetByID implements user.UserRepository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string, workspaceID string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND workspace_id = $2`

	u, err := scanUser(q.QueryRow(ctx, query, id, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// Create implements user.UserRepository.
func (r *userRepositoryImpl) Create(ctx context.Context, newUser user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO users (workspace_id, email, name, password_hash, role, employee_id, is_premium, schedule_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	created, err := scanUser(q.QueryRow(ctx, query,
		newUser.WorkspaceID,
		newUser.Email,
		newUser.Name,
		newUser.PasswordHash,
		newUser.Role,
		newUser.EmployeeID,
		newUser.IsPremium,
		newUser.ScheduleID,
	))
	if err != nil {
		if mapped := mapUserWriteError(err); mapped != err {
			return user.User{}, mapped
		}
		return user.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// Update implements user.UserRepository.
func (r *userRepositoryImpl) Update(ctx context.Context, u user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE users
		SET name = $3, role = $4, employee_id = $5, is_premium = $6, schedule_id = $7, updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2
		RETURNING ` + userColumns

	updated, err := scanUser(q.QueryRow(ctx, query,
		u.ID,
		u.WorkspaceID,
		u.Name,
		u.Role,
		u.EmployeeID,
		u.IsPremium,
		u.ScheduleID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		if mapped := mapUserWriteError(err); mapped != err {
			return user.User{}, mapped
		}
		return user.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

// Delete implements user.UserRepository.
func (r *userRepositoryImpl) Delete(ctx context.Context, id string, workspaceID string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM users WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
	if err != nil {
		// time_records and employee_requests keep the history
		if _, ok := constraintViolation(err, foreignKeyViolation); ok {
			return user.ErrUserHasRecords
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// List implements user.UserRepository.
func (r *userRepositoryImpl) List(ctx context.Context, filter user.UserFilter, workspaceID string) ([]user.User, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "workspace_id = $1"
	args := []interface{}{workspaceID}
	argIdx := 2

	if filter.Search != nil && *filter.Search != "" {
		baseWhere += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR employee_id ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}
	if filter.Role != nil && *filter.Role != "" {
		baseWhere += fmt.Sprintf(" AND role = $%d", argIdx)
		args = append(args, *filter.Role)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, userColumns, baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// ListAdminIDs implements user.UserRepository.
func (r *userRepositoryImpl) ListAdminIDs(ctx context.Context, workspaceID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id FROM users WHERE workspace_id = $1 AND role = $2 ORDER BY created_at`, workspaceID, user.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect admins: %w", err)
	}
	return ids, nil
}

// ScheduleAssignments implements user.UserRepository.
func (r *userRepositoryImpl) ScheduleAssignments(ctx context.Context, workspaceID string) (map[string]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id, schedule_id FROM users WHERE workspace_id = $1 AND schedule_id IS NOT NULL`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule assignments: %w", err)
	}
	defer rows.Close()

	assignments := make(map[string]string)
	for rows.Next() {
		var userID, scheduleID string
		if err := rows.Scan(&userID, &scheduleID); err != nil {
			return nil, fmt.Errorf("failed to scan schedule assignment: %w", err)
		}
		assignments[userID] = scheduleID
	}
	return assignments, rows.Err()
}
