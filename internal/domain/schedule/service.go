package schedule

import "context"

type ScheduleService interface {
	// Work Shift
	CreateShift(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error)
	ListShifts(ctx context.Context) ([]ShiftResponse, error)
	UpdateShift(ctx context.Context, req UpdateShiftRequest) (ShiftResponse, error)
	DeleteShift(ctx context.Context, id string) error

	// Work Schedule
	CreateSchedule(ctx context.Context, req CreateScheduleRequest) (ScheduleResponse, error)
	GetSchedule(ctx context.Context, id string) (ScheduleResponse, error)
	ListSchedules(ctx context.Context) ([]ScheduleResponse, error)
	UpdateSchedule(ctx context.Context, req UpdateScheduleRequest) (ScheduleResponse, error)
	DeleteSchedule(ctx context.Context, id string) error

	// Plans resolves every schedule of a workspace against its shifts, keyed by schedule id
	Plans(ctx context.Context, workspaceID string) (map[string]Plan, error)
}
