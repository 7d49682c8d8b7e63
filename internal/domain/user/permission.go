package user

import "slices"

type Permission string

const (
	// Self Management
	PermissionViewOwnProfile Permission = "profile.view_own"

	// Attendance
	PermissionAttendancePunch   Permission = "attendance.punch"
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceDelete  Permission = "attendance.delete"

	// Requests
	PermissionRequestCreate  Permission = "request.create"
	PermissionRequestViewAll Permission = "request.view_all"
	PermissionRequestDecide  Permission = "request.decide"

	// Workspace setup
	PermissionLocationView   Permission = "location.view"
	PermissionLocationManage Permission = "location.manage"
	PermissionScheduleManage Permission = "schedule.manage"
	PermissionUserManage     Permission = "user.manage"

	// Reports
	PermissionReportsView Permission = "reports.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionViewOwnProfile,
		PermissionAttendancePunch,
		PermissionAttendanceViewOwn,
		PermissionAttendanceViewAll,
		PermissionAttendanceDelete,
		PermissionRequestCreate,
		PermissionRequestViewAll,
		PermissionRequestDecide,
		PermissionLocationView,
		PermissionLocationManage,
		PermissionScheduleManage,
		PermissionUserManage,
		PermissionReportsView,
	},
	RoleEmployee: {
		PermissionViewOwnProfile,
		PermissionAttendancePunch,
		PermissionAttendanceViewOwn,
		PermissionRequestCreate,
		PermissionLocationView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	return slices.Contains(permissions, permission)
}
