package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/geopoint/geopoint-backend-go/internal/domain/report"
	"github.com/geopoint/geopoint-backend-go/internal/domain/schedule"
	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

type UserServiceImpl struct {
	user.UserRepository
	schedules schedule.WorkScheduleRepository
	reports   report.CacheInvalidator
}

func NewUserService(userRepository user.UserRepository, scheduleRepository schedule.WorkScheduleRepository, reports report.CacheInvalidator) user.UserService {
	return &UserServiceImpl{
		UserRepository: userRepository,
		schedules:      scheduleRepository,
		reports:        reports,
	}
}

// GetMe implements user.UserService.
func (s *UserServiceImpl) GetMe(ctx context.Context) (user.UserResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return user.UserResponse{}, err
	}
	u, err := s.UserRepository.GetByID(ctx, claims.UserID, claims.WorkspaceID)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.ToResponse(u), nil
}

// List implements user.UserService.
func (s *UserServiceImpl) List(ctx context.Context, filter user.UserFilter) (user.ListUserResponse, error) {
	if err := filter.Validate(); err != nil {
		return user.ListUserResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return user.ListUserResponse{}, err
	}

	users, total, err := s.UserRepository.List(ctx, filter, claims.WorkspaceID)
	if err != nil {
		return user.ListUserResponse{}, fmt.Errorf("failed to list users: %w", err)
	}

	resp := user.ListUserResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Users:      make([]user.UserResponse, 0, len(users)),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, user.ToResponse(u))
	}
	return resp, nil
}

// Get implements user.UserService.
func (s *UserServiceImpl) Get(ctx context.Context, id string) (user.UserResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return user.UserResponse{}, err
	}
	u, err := s.UserRepository.GetByID(ctx, id, claims.WorkspaceID)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.ToResponse(u), nil
}

// Create implements user.UserService.
func (s *UserServiceImpl) Create(ctx context.Context, req user.CreateUserRequest) (user.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return user.UserResponse{}, err
	}

	if req.ScheduleID != nil {
		if err := s.checkSchedule(ctx, *req.ScheduleID, claims.WorkspaceID); err != nil {
			return user.UserResponse{}, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.UserResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.UserRepository.Create(ctx, user.User{
		WorkspaceID:  claims.WorkspaceID,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         user.Role(req.Role),
		EmployeeID:   req.EmployeeID,
		IsPremium:    req.IsPremium,
		ScheduleID:   req.ScheduleID,
	})
	if err != nil {
		if errors.Is(err, user.ErrUserEmailExists) || errors.Is(err, user.ErrEmployeeIDExists) {
			return user.UserResponse{}, err
		}
		return user.UserResponse{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user.ToResponse(created), nil
}

// Update implements user.UserService.
func (s *UserServiceImpl) Update(ctx context.Context, req user.UpdateUserRequest) (user.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return user.UserResponse{}, err
	}

	u, err := s.UserRepository.GetByID(ctx, req.ID, claims.WorkspaceID)
	if err != nil {
		return user.UserResponse{}, err
	}

	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		// an admin demoting themselves would lock the workspace out
		if u.ID == claims.UserID && user.Role(*req.Role) != user.RoleAdmin {
			return user.UserResponse{}, user.ErrInsufficientPermissions
		}
		u.Role = user.Role(*req.Role)
	}
	if req.EmployeeID != nil {
		if strings.TrimSpace(*req.EmployeeID) == "" {
			u.EmployeeID = nil
		} else {
			u.EmployeeID = req.EmployeeID
		}
	}
	if req.IsPremium != nil {
		u.IsPremium = *req.IsPremium
	}
	switch {
	case req.ClearSchedule:
		u.ScheduleID = nil
	case req.ScheduleID != nil:
		if err := s.checkSchedule(ctx, *req.ScheduleID, claims.WorkspaceID); err != nil {
			return user.UserResponse{}, err
		}
		u.ScheduleID = req.ScheduleID
	}

	updated, err := s.UserRepository.Update(ctx, u)
	if err != nil {
		if errors.Is(err, user.ErrEmployeeIDExists) || errors.Is(err, user.ErrUserNotFound) {
			return user.UserResponse{}, err
		}
		return user.UserResponse{}, fmt.Errorf("failed to update user: %w", err)
	}
	// reports carry the employee name and the schedule baseline
	s.invalidateReports(ctx, claims.WorkspaceID)
	return user.ToResponse(updated), nil
}

// Delete implements user.UserService.
func (s *UserServiceImpl) Delete(ctx context.Context, id string) error {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}
	if id == claims.UserID {
		return user.ErrCannotDeleteSelf
	}
	if err := s.UserRepository.Delete(ctx, id, claims.WorkspaceID); err != nil {
		return err
	}
	s.invalidateReports(ctx, claims.WorkspaceID)
	return nil
}

func (s *UserServiceImpl) invalidateReports(ctx context.Context, workspaceID string) {
	if s.reports == nil {
		return
	}
	if err := s.reports.InvalidateWorkspace(ctx, workspaceID); err != nil {
		slog.WarnContext(ctx, "failed to invalidate report cache", "workspace_id", workspaceID, "error", err)
	}
}

func (s *UserServiceImpl) checkSchedule(ctx context.Context, scheduleID, workspaceID string) error {
	if _, err := s.schedules.GetByID(ctx, scheduleID, workspaceID); err != nil {
		if errors.Is(err, schedule.ErrWorkScheduleNotFound) {
			return user.ErrUnknownSchedule
		}
		return fmt.Errorf("failed to get work schedule: %w", err)
	}
	return nil
}
