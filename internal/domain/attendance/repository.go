package attendance

import (
	"context"
	"time"
)

// TimeRecordRepository defines data access for punches.
// Every method takes the workspace id; records never cross workspaces.
type TimeRecordRepository interface {
	// Create inserts a punch and fills ID and CreatedAt
	Create(ctx context.Context, record TimeRecord) (TimeRecord, error)

	GetByID(ctx context.Context, id string, workspaceID string) (TimeRecord, error)

	// GetLastByEmployee returns the most recent punch, or nil when the employee never punched
	GetLastByEmployee(ctx context.Context, workspaceID string, employeeID string) (*TimeRecord, error)

	List(ctx context.Context, filter RecordFilter, workspaceID string) ([]TimeRecord, int64, error)

	ListByEmployee(ctx context.Context, employeeID string, filter MyRecordFilter, workspaceID string) ([]TimeRecord, int64, error)

	// ListBetween returns every punch in [from, to) ordered by timestamp, for report aggregation
	ListBetween(ctx context.Context, workspaceID string, from, to time.Time) ([]TimeRecord, error)

	// ListActiveWorkspaces returns workspaces with at least one punch since the given instant
	ListActiveWorkspaces(ctx context.Context, since time.Time) ([]string, error)

	Delete(ctx context.Context, id string, workspaceID string) error
}
