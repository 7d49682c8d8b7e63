package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	TypePunchRecorded   = "punch.recorded"
	TypeRequestCreated  = "request.created"
	TypeRequestDecided  = "request.decided"
	AggregateTimeRecord = "time_record"
	AggregateRequest    = "employee_request"
)

// Event is a domain fact published after a successful write.
type Event struct {
	Type          string    `json:"event_type"`
	WorkspaceID   string    `json:"workspace_id"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   string    `json:"aggregate_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	Payload       any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher only logs events. Used when no brokers are configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event Event) error {
	slog.Info("event published",
		"event_type", event.Type,
		"workspace_id", event.WorkspaceID,
		"aggregate_id", event.AggregateID,
	)
	return nil
}

func (LogPublisher) Close() error { return nil }
