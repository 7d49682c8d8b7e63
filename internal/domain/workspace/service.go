package workspace

import "context"

type WorkspaceService interface {
	// GetCurrent returns the caller's workspace with the effective attendance rules
	GetCurrent(ctx context.Context) (WorkspaceResponse, error)
	Update(ctx context.Context, req UpdateWorkspaceRequest) (WorkspaceResponse, error)
}
