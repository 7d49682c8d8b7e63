package schedule

import "errors"

var (
	// Shift errors
	ErrShiftNotFound   = errors.New("work shift not found")
	ErrShiftNameExists = errors.New("work shift with this name already exists")
	ErrShiftInUse      = errors.New("work shift is used by a schedule")

	// Schedule errors
	ErrWorkScheduleNotFound   = errors.New("work schedule not found")
	ErrWorkScheduleNameExists = errors.New("work schedule with this name already exists")
	ErrUnknownShift           = errors.New("schedule references a shift that does not exist in this workspace")
)
