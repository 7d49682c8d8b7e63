package schedule

import "context"

type WorkShiftRepository interface {
	Create(ctx context.Context, shift WorkShift) (WorkShift, error)
	GetByID(ctx context.Context, id string, workspaceID string) (WorkShift, error)
	List(ctx context.Context, workspaceID string) ([]WorkShift, error)
	Update(ctx context.Context, shift WorkShift) (WorkShift, error)
	Delete(ctx context.Context, id string, workspaceID string) error
}

type WorkScheduleRepository interface {
	Create(ctx context.Context, schedule WorkSchedule) (WorkSchedule, error)
	GetByID(ctx context.Context, id string, workspaceID string) (WorkSchedule, error)
	List(ctx context.Context, workspaceID string) ([]WorkSchedule, error)
	Update(ctx context.Context, schedule WorkSchedule) (WorkSchedule, error)
	Delete(ctx context.Context, id string, workspaceID string) error
}
