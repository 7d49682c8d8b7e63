package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/notification"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type notificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

var notificationCopyColumns = []string{
	"id", "workspace_id", "recipient_id", "sender_id", "type", "title", "message", "data", "is_read", "created_at",
}

// prepare fills the generated fields and returns the row in notificationCopyColumns order
func prepareNotification(n *notification.Notification) ([]any, error) {
	if n.ID == "" {
		n.ID = uuid.Must(uuid.NewV7()).String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	var data []byte
	if n.Data != nil {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal notification data: %w", err)
		}
		data = raw
	}

	return []any{n.ID, n.WorkspaceID, n.RecipientID, n.SenderID, string(n.Type), n.Title, n.Message, data, n.IsRead, n.CreatedAt}, nil
}

// Create creates a new notification
func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	q := GetQuerier(ctx, r.db)

	row, err := prepareNotification(n)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO notifications (id, workspace_id, recipient_id, sender_id, type, title, message, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := q.Exec(ctx, query, row...); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// CreateBatch inserts every notification with a single COPY
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(notifications))
	for _, n := range notifications {
		row, err := prepareNotification(n)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	copier := r.db.Pool.CopyFrom
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		copier = tx.CopyFrom
	}
	if _, err := copier(ctx, pgx.Identifier{"notifications"}, notificationCopyColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("failed to batch create notifications: %w", err)
	}
	return nil
}

// GetByUserID retrieves notifications for a user with pagination
func (r *notificationRepository) GetByUserID(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	q := GetQuerier(ctx, r.db)

	// the window count saves a second round trip
	query := `
		SELECT id, workspace_id, recipient_id, sender_id, type, title, message, data, is_read, read_at, created_at,
			COUNT(*) OVER () AS total
		FROM notifications
		WHERE recipient_id = $1 AND ($2 = false OR is_read = false)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := q.Query(ctx, query, userID, unreadOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var (
		notifications = []*notification.Notification{}
		total         int
	)
	for rows.Next() {
		var n notification.Notification
		var data []byte
		if err := rows.Scan(
			&n.ID, &n.WorkspaceID, &n.RecipientID, &n.SenderID, &n.Type, &n.Title, &n.Message,
			&data, &n.IsRead, &n.ReadAt, &n.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read notifications: %w", err)
	}

	// a page past the end still needs the real total
	if len(notifications) == 0 && page > 1 {
		countQuery := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND ($2 = false OR is_read = false)`
		if err := q.QueryRow(ctx, countQuery, userID, unreadOnly).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
		}
	}
	return notifications, total, nil
}

// GetUnreadCount returns the count of unread notifications for a user
func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead marks specific notifications as read
func (r *notificationRepository) MarkAsRead(ctx context.Context, ids []string, userID string) error {
	if len(ids) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notifications
		SET is_read = true, read_at = NOW()
		WHERE recipient_id = $1 AND id = ANY($2) AND is_read = false
	`
	if _, err := q.Exec(ctx, query, userID, ids); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

// MarkAllAsRead marks all notifications as read for a user
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `UPDATE notifications SET is_read = true, read_at = NOW() WHERE recipient_id = $1 AND is_read = false`, userID); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}

// Delete deletes a notification
func (r *notificationRepository) Delete(ctx context.Context, id string, userID string) error {
	q := GetQuerier(ctx, r.db)

	result, err := q.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}
