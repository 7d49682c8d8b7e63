package user

import (
	"strings"

	"github.com/geopoint/geopoint-backend-go/internal/pkg/validator"
)

type CreateUserRequest struct {
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Password   string  `json:"password"`
	Role       string  `json:"role"`
	EmployeeID *string `json:"employee_id,omitempty"`
	IsPremium  bool    `json:"is_premium"`
	ScheduleID *string `json:"schedule_id,omitempty"`
}

func (r *CreateUserRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)

	if r.Email == "" {
		errs.Add("email", "email is required")
	} else if !validator.IsValidEmail(r.Email) {
		errs.Add("email", "invalid email format")
	}
	if r.Name == "" {
		errs.Add("name", "name is required")
	}
	if len(r.Password) < 8 {
		errs.Add("password", "password must be at least 8 characters")
	}
	if r.Role == "" {
		r.Role = string(RoleEmployee)
	} else if !validator.IsInSlice(r.Role, RoleValues) {
		errs.Add("role", "role must be one of: "+strings.Join(RoleValues, ", "))
	}
	if r.EmployeeID != nil && validator.IsEmpty(*r.EmployeeID) {
		r.EmployeeID = nil
	}
	if r.ScheduleID != nil && !validator.IsValidUUID(*r.ScheduleID) {
		errs.Add("schedule_id", "schedule_id must be a valid UUID")
	}

	return errs.Err()
}

type UpdateUserRequest struct {
	ID         string  `json:"-"`
	Name       *string `json:"name,omitempty"`
	Role       *string `json:"role,omitempty"`
	EmployeeID *string `json:"employee_id,omitempty"`
	IsPremium  *bool   `json:"is_premium,omitempty"`
	ScheduleID *string `json:"schedule_id,omitempty"`
	// ClearSchedule unassigns the work schedule
	ClearSchedule bool `json:"clear_schedule,omitempty"`
}

func (r *UpdateUserRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "id must be a valid UUID")
	}
	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs.Add("name", "name must not be empty")
	}
	if r.Role != nil && !validator.IsInSlice(*r.Role, RoleValues) {
		errs.Add("role", "role must be one of: "+strings.Join(RoleValues, ", "))
	}
	if r.ScheduleID != nil && !validator.IsValidUUID(*r.ScheduleID) {
		errs.Add("schedule_id", "schedule_id must be a valid UUID")
	}
	if r.ClearSchedule && r.ScheduleID != nil {
		errs.Add("clear_schedule", "clear_schedule cannot be combined with schedule_id")
	}

	return errs.Err()
}

type UserFilter struct {
	Search *string `json:"search,omitempty"`
	Role   *string `json:"role,omitempty"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

func (f *UserFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 || f.Limit > 100 {
		errs.Add("limit", "limit must be between 1 and 100")
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Role != nil && *f.Role != "" && !validator.IsInSlice(*f.Role, RoleValues) {
		errs.Add("role", "role must be one of: "+strings.Join(RoleValues, ", "))
	}

	return errs.Err()
}

type UserResponse struct {
	ID          string  `json:"id"`
	WorkspaceID string  `json:"workspace_id"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	EmployeeID  *string `json:"employee_id,omitempty"`
	IsPremium   bool    `json:"is_premium"`
	ScheduleID  *string `json:"schedule_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type ListUserResponse struct {
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
	Users      []UserResponse `json:"users"`
}

// ToResponse maps an entity to its API shape
func ToResponse(u User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		WorkspaceID: u.WorkspaceID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		EmployeeID:  u.EmployeeID,
		IsPremium:   u.IsPremium,
		ScheduleID:  u.ScheduleID,
		CreatedAt:   u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
