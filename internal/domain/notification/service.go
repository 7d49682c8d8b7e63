package notification

import (
	"context"

	"github.com/geopoint/geopoint-backend-go/internal/pkg/sse"
)

// Service defines the notification service interface
type Service interface {
	// Queue notification (async processing via background workers)
	QueueNotification(ctx context.Context, req CreateNotificationRequest) error
	QueueBulkNotification(ctx context.Context, reqs []CreateNotificationRequest) error

	// Inbox operations for the caller
	GetNotifications(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) (*NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, userID string, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string, notificationID string) error

	// BroadcastToAdmins pushes a live event to the workspace admins without persisting it
	BroadcastToAdmins(workspaceID string, event sse.Event)

	// Subscribe opens a live stream for the subscriber
	Subscribe(sub sse.Subscriber) (<-chan sse.Event, func())

	// Lifecycle
	Stop()
}
