package user

import "context"

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string, workspaceID string) (User, error)
	Create(ctx context.Context, newUser User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id string, workspaceID string) error
	List(ctx context.Context, filter UserFilter, workspaceID string) ([]User, int64, error)

	// ListAdminIDs returns the ids of every admin of the workspace, for notifications
	ListAdminIDs(ctx context.Context, workspaceID string) ([]string, error)

	// ScheduleAssignments maps user id to schedule id for users that have one
	ScheduleAssignments(ctx context.Context, workspaceID string) (map[string]string, error)
}
