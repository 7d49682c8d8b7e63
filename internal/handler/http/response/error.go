package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geopoint/geopoint-backend-go/internal/domain/attendance"
	"github.com/geopoint/geopoint-backend-go/internal/domain/auth"
	"github.com/geopoint/geopoint-backend-go/internal/domain/location"
	"github.com/geopoint/geopoint-backend-go/internal/domain/notification"
	"github.com/geopoint/geopoint-backend-go/internal/domain/report"
	"github.com/geopoint/geopoint-backend-go/internal/domain/request"
	"github.com/geopoint/geopoint-backend-go/internal/domain/schedule"
	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/domain/workspace"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, "Invalid email or password")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, jwt.ErrMissingClaims):
		Unauthorized(w, "Invalid or missing token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrEmailExists), errors.Is(err, user.ErrUserEmailExists):
		Conflict(w, "Email already registered")

	// Users
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrEmployeeIDExists):
		Conflict(w, "Employee ID already used in this workspace")
	case errors.Is(err, user.ErrAdminAccessRequired):
		Forbidden(w, "Admin access required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")
	case errors.Is(err, user.ErrUserHasRecords):
		Conflict(w, "User has time records or requests and cannot be deleted")
	case errors.Is(err, user.ErrCannotDeleteSelf):
		BadRequest(w, "You cannot delete your own account", nil)
	case errors.Is(err, user.ErrUnknownSchedule):
		BadRequest(w, "Work schedule does not exist in this workspace", nil)
	case errors.Is(err, workspace.ErrWorkspaceNotFound):
		NotFound(w, "Workspace not found")

	// Locations
	case errors.Is(err, location.ErrLocationNotFound):
		NotFound(w, "Location not found")
	case errors.Is(err, location.ErrLocationCodeExists):
		Conflict(w, "Location code already exists")

	// Attendance
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Time record not found")
	case errors.Is(err, attendance.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, attendance.ErrPunchInProgress):
		Conflict(w, "Another punch is being processed, try again")
	case errors.Is(err, attendance.ErrInvalidPhoto):
		BadRequest(w, "Invalid selfie photo", nil)
	case errors.Is(err, attendance.ErrPhotoTooLarge):
		PayloadTooLarge(w, "Selfie photo is too large")

	// Schedules
	case errors.Is(err, schedule.ErrShiftNotFound):
		NotFound(w, "Work shift not found")
	case errors.Is(err, schedule.ErrWorkScheduleNotFound):
		NotFound(w, "Work schedule not found")
	case errors.Is(err, schedule.ErrShiftNameExists), errors.Is(err, schedule.ErrWorkScheduleNameExists):
		Conflict(w, err.Error())
	case errors.Is(err, schedule.ErrShiftInUse):
		Conflict(w, "Work shift is used by a schedule")
	case errors.Is(err, schedule.ErrUnknownShift):
		BadRequest(w, "Schedule references an unknown shift", nil)

	// Requests
	case errors.Is(err, request.ErrRequestNotFound):
		NotFound(w, "Request not found")
	case errors.Is(err, request.ErrRequestAlreadyProcessed):
		Conflict(w, "Request already processed")
	case errors.Is(err, request.ErrInvalidDecision):
		BadRequest(w, err.Error(), nil)

	// Reports
	case errors.Is(err, report.ErrInvalidPeriod), errors.Is(err, report.ErrPeriodTooLong):
		BadRequest(w, err.Error(), nil)

	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
