package attendance

import "errors"

// Attendance domain errors
var (
	ErrRecordNotFound   = errors.New("time record not found")
	ErrPunchInProgress  = errors.New("another punch for this employee is being processed")
	ErrInvalidPhoto     = errors.New("invalid selfie photo")
	ErrPhotoTooLarge    = errors.New("selfie photo is too large")
	ErrEmployeeNotFound = errors.New("employee not found in this workspace")
)
