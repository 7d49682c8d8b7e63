package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypePunchRecorded       NotificationType = "punch_recorded"
	TypePunchOutOfPerimeter NotificationType = "punch_out_of_perimeter"
	TypeRequestCreated      NotificationType = "request_created"
	TypeRequestDecided      NotificationType = "request_decided"
)

// Notification is an inbox entry. It is persisted and pushed to live SSE subscribers.
type Notification struct {
	ID          string
	WorkspaceID string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]any
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
