package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/geopoint/geopoint-backend-go/internal/domain/report"
	"github.com/geopoint/geopoint-backend-go/internal/domain/workspace"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
)

// Defaults are the service-wide rules a workspace falls back to.
type Defaults struct {
	GeofenceThresholdMeters float64
	StandardDailyMinutes    int
}

type WorkspaceServiceImpl struct {
	workspace.WorkspaceRepository
	reports  report.CacheInvalidator
	defaults Defaults
}

func NewWorkspaceService(workspaceRepository workspace.WorkspaceRepository, reports report.CacheInvalidator, defaults Defaults) workspace.WorkspaceService {
	return &WorkspaceServiceImpl{
		WorkspaceRepository: workspaceRepository,
		reports:             reports,
		defaults:            defaults,
	}
}

// GetCurrent implements workspace.WorkspaceService.
func (s *WorkspaceServiceImpl) GetCurrent(ctx context.Context) (workspace.WorkspaceResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return workspace.WorkspaceResponse{}, err
	}
	ws, err := s.WorkspaceRepository.GetByID(ctx, claims.WorkspaceID)
	if err != nil {
		return workspace.WorkspaceResponse{}, err
	}
	return s.toResponse(ws), nil
}

// Update implements workspace.WorkspaceService.
func (s *WorkspaceServiceImpl) Update(ctx context.Context, req workspace.UpdateWorkspaceRequest) (workspace.WorkspaceResponse, error) {
	if err := req.Validate(); err != nil {
		return workspace.WorkspaceResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return workspace.WorkspaceResponse{}, err
	}

	ws, err := s.WorkspaceRepository.GetByID(ctx, claims.WorkspaceID)
	if err != nil {
		return workspace.WorkspaceResponse{}, err
	}
	if req.Name != nil {
		ws.Name = strings.TrimSpace(*req.Name)
	}
	if req.GeofenceThresholdMeters != nil {
		ws.GeofenceThresholdMeters = req.GeofenceThresholdMeters
	}
	dailyChanged := req.StandardDailyMinutes != nil
	if dailyChanged {
		ws.StandardDailyMinutes = req.StandardDailyMinutes
	}

	updated, err := s.WorkspaceRepository.Update(ctx, ws)
	if err != nil {
		if errors.Is(err, workspace.ErrWorkspaceNotFound) {
			return workspace.WorkspaceResponse{}, err
		}
		return workspace.WorkspaceResponse{}, fmt.Errorf("failed to update workspace: %w", err)
	}

	// cached reports were computed against the old baseline
	if dailyChanged && s.reports != nil {
		if err := s.reports.InvalidateWorkspace(ctx, ws.ID); err != nil {
			slog.WarnContext(ctx, "failed to invalidate report cache", "workspace_id", ws.ID, "error", err)
		}
	}
	return s.toResponse(updated), nil
}

func (s *WorkspaceServiceImpl) toResponse(ws workspace.Workspace) workspace.WorkspaceResponse {
	threshold, daily := ws.Rules(s.defaults.GeofenceThresholdMeters, s.defaults.StandardDailyMinutes)
	return workspace.WorkspaceResponse{
		ID:                      ws.ID,
		Name:                    ws.Name,
		GeofenceThresholdMeters: threshold,
		StandardDailyMinutes:    daily,
		CreatedAt:               ws.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
