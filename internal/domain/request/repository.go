package request

import (
	"context"
	"time"
)

type RequestRepository interface {
	Create(ctx context.Context, req EmployeeRequest) (EmployeeRequest, error)
	GetByID(ctx context.Context, id string, workspaceID string) (EmployeeRequest, error)
	List(ctx context.Context, filter RequestFilter, workspaceID string) ([]EmployeeRequest, int64, error)

	// Decide moves a pending request to status. It returns ErrRequestAlreadyProcessed when the
	// request is no longer pending, so two admins cannot both decide it.
	Decide(ctx context.Context, id string, workspaceID string, status Status, reviewerID string, at time.Time) (EmployeeRequest, error)
}
