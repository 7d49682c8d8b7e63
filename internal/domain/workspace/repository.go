package workspace

import "context"

type WorkspaceRepository interface {
	Create(ctx context.Context, w Workspace) (Workspace, error)
	GetByID(ctx context.Context, id string) (Workspace, error)
	Update(ctx context.Context, w Workspace) (Workspace, error)
}
