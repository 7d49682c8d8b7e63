package location

import "context"

type LocationRepository interface {
	Create(ctx context.Context, location Location) (Location, error)
	GetByID(ctx context.Context, id string, workspaceID string) (Location, error)
	// GetByCode returns ErrLocationNotFound when no unit has the code
	GetByCode(ctx context.Context, code string, workspaceID string) (Location, error)
	List(ctx context.Context, workspaceID string, search *string) ([]Location, error)
	Update(ctx context.Context, location Location) (Location, error)
	Delete(ctx context.Context, id string, workspaceID string) error
}
