package http

import (
	"log/slog"
	"net/http"

	"github.com/geopoint/geopoint-backend-go/internal/domain/workspace"
	"github.com/geopoint/geopoint-backend-go/internal/handler/http/response"
)

type WorkspaceHandler interface {
	GetCurrent(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
}

type WorkspaceHandlerImpl struct {
	workspaceService workspace.WorkspaceService
}

func NewWorkspaceHandler(workspaceService workspace.WorkspaceService) WorkspaceHandler {
	return &WorkspaceHandlerImpl{workspaceService: workspaceService}
}

// GetCurrent implements WorkspaceHandler.
func (c *WorkspaceHandlerImpl) GetCurrent(w http.ResponseWriter, r *http.Request) {
	result, err := c.workspaceService.GetCurrent(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Update implements WorkspaceHandler.
func (c *WorkspaceHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req workspace.UpdateWorkspaceRequest
	if !decodeJSON(w, r, &req, maxJSONBody) {
		return
	}

	result, err := c.workspaceService.Update(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	slog.Info("Workspace updated", "workspace_id", result.ID)
	response.SuccessWithMessage(w, "Workspace updated", result)
}
