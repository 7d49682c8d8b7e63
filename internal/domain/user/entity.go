package user

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"    // Manages locations, staff, schedules and requests
	RoleEmployee Role = "employee" // Punches and submits requests
)

var RoleValues = []string{string(RoleAdmin), string(RoleEmployee)}

type User struct {
	ID           string
	WorkspaceID  string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	EmployeeID   *string // badge number shown on receipts
	IsPremium    bool
	ScheduleID   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin checks if user administers the workspace
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
