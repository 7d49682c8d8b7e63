package user

import "errors"

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrUserEmailExists         = errors.New("email already registered")
	ErrEmployeeIDExists        = errors.New("employee id already used in this workspace")
	ErrAdminAccessRequired     = errors.New("admin access required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrCannotDeleteSelf        = errors.New("you cannot delete your own account")
	ErrUserHasRecords          = errors.New("user has time records or requests and cannot be deleted")
	ErrUnknownSchedule         = errors.New("work schedule does not exist in this workspace")
)
