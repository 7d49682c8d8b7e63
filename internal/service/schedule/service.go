package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/report"
	"github.com/geopoint/geopoint-backend-go/internal/domain/schedule"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/validator"
)

const clockLayout = "15:04"

type scheduleServiceImpl struct {
	shiftRepo    schedule.WorkShiftRepository
	scheduleRepo schedule.WorkScheduleRepository
	reports      report.CacheInvalidator
}

// NewScheduleService builds the service; reports may be nil when reports are not cached.
func NewScheduleService(shiftRepo schedule.WorkShiftRepository, scheduleRepo schedule.WorkScheduleRepository, reports report.CacheInvalidator) schedule.ScheduleService {
	return &scheduleServiceImpl{
		shiftRepo:    shiftRepo,
		scheduleRepo: scheduleRepo,
		reports:      reports,
	}
}

// invalidateReports drops cached schedule baselines. Failures are logged only.
func (s *scheduleServiceImpl) invalidateReports(ctx context.Context, workspaceID string) {
	if s.reports == nil {
		return
	}
	if err := s.reports.InvalidateWorkspace(ctx, workspaceID); err != nil {
		slog.WarnContext(ctx, "failed to invalidate report cache", "workspace_id", workspaceID, "error", err)
	}
}

// ========================================
// WORK SHIFTS
// ========================================

// CreateShift implements schedule.ScheduleService.
func (s *scheduleServiceImpl) CreateShift(ctx context.Context, req schedule.CreateShiftRequest) (schedule.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ShiftResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return schedule.ShiftResponse{}, err
	}

	start, _ := validator.IsValidClock(req.StartTime)
	end, _ := validator.IsValidClock(req.EndTime)

	created, err := s.shiftRepo.Create(ctx, schedule.WorkShift{
		WorkspaceID:  claims.WorkspaceID,
		Name:         req.Name,
		StartTime:    start,
		EndTime:      end,
		BreakMinutes: req.BreakMinutes,
	})
	if err != nil {
		if errors.Is(err, schedule.ErrShiftNameExists) {
			return schedule.ShiftResponse{}, err
		}
		return schedule.ShiftResponse{}, fmt.Errorf("failed to create work shift: %w", err)
	}
	return toShiftResponse(created), nil
}

// ListShifts implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListShifts(ctx context.Context) ([]schedule.ShiftResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	shifts, err := s.shiftRepo.List(ctx, claims.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work shifts: %w", err)
	}

	resp := make([]schedule.ShiftResponse, 0, len(shifts))
	for _, shift := range shifts {
		resp = append(resp, toShiftResponse(shift))
	}
	return resp, nil
}

// UpdateShift implements schedule.ScheduleService.
func (s *scheduleServiceImpl) UpdateShift(ctx context.Context, req schedule.UpdateShiftRequest) (schedule.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ShiftResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return schedule.ShiftResponse{}, err
	}

	shift, err := s.shiftRepo.GetByID(ctx, req.ID, claims.WorkspaceID)
	if err != nil {
		return schedule.ShiftResponse{}, err
	}

	if req.Name != nil {
		shift.Name = *req.Name
	}
	start := shift.StartTime.Format(clockLayout)
	if req.StartTime != nil {
		start = *req.StartTime
	}
	end := shift.EndTime.Format(clockLayout)
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if req.BreakMinutes != nil {
		shift.BreakMinutes = *req.BreakMinutes
	}

	// the merged window must still be valid
	merged := schedule.CreateShiftRequest{Name: shift.Name, StartTime: start, EndTime: end, BreakMinutes: shift.BreakMinutes}
	if err := merged.Validate(); err != nil {
		return schedule.ShiftResponse{}, err
	}
	shift.StartTime, _ = validator.IsValidClock(start)
	shift.EndTime, _ = validator.IsValidClock(end)

	updated, err := s.shiftRepo.Update(ctx, shift)
	if err != nil {
		if errors.Is(err, schedule.ErrShiftNameExists) || errors.Is(err, schedule.ErrShiftNotFound) {
			return schedule.ShiftResponse{}, err
		}
		return schedule.ShiftResponse{}, fmt.Errorf("failed to update work shift: %w", err)
	}
	s.invalidateReports(ctx, claims.WorkspaceID)
	return toShiftResponse(updated), nil
}

// DeleteShift implements schedule.ScheduleService.
func (s *scheduleServiceImpl) DeleteShift(ctx context.Context, id string) error {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}
	if err := s.shiftRepo.Delete(ctx, id, claims.WorkspaceID); err != nil {
		return err
	}
	s.invalidateReports(ctx, claims.WorkspaceID)
	return nil
}

// ========================================
// WORK SCHEDULES
// ========================================

// CreateSchedule implements schedule.ScheduleService.
func (s *scheduleServiceImpl) CreateSchedule(ctx context.Context, req schedule.CreateScheduleRequest) (schedule.ScheduleResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ScheduleResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	shifts, err := s.shiftsByID(ctx, claims.WorkspaceID)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	ws := schedule.WorkSchedule{WorkspaceID: claims.WorkspaceID, Name: req.Name, Days: req.Days}
	if err := checkShifts(ws, shifts); err != nil {
		return schedule.ScheduleResponse{}, err
	}

	created, err := s.scheduleRepo.Create(ctx, ws)
	if err != nil {
		if errors.Is(err, schedule.ErrWorkScheduleNameExists) {
			return schedule.ScheduleResponse{}, err
		}
		return schedule.ScheduleResponse{}, fmt.Errorf("failed to create work schedule: %w", err)
	}
	return toScheduleResponse(schedule.Plan{Schedule: created, Shifts: shifts}), nil
}

// GetSchedule implements schedule.ScheduleService.
func (s *scheduleServiceImpl) GetSchedule(ctx context.Context, id string) (schedule.ScheduleResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	ws, err := s.scheduleRepo.GetByID(ctx, id, claims.WorkspaceID)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	shifts, err := s.shiftsByID(ctx, claims.WorkspaceID)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	return toScheduleResponse(schedule.Plan{Schedule: ws, Shifts: shifts}), nil
}

// ListSchedules implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListSchedules(ctx context.Context) ([]schedule.ScheduleResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	plans, err := s.Plans(ctx, claims.WorkspaceID)
	if err != nil {
		return nil, err
	}
	schedules, err := s.scheduleRepo.List(ctx, claims.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work schedules: %w", err)
	}

	// keep repository order
	resp := make([]schedule.ScheduleResponse, 0, len(schedules))
	for _, ws := range schedules {
		resp = append(resp, toScheduleResponse(plans[ws.ID]))
	}
	return resp, nil
}

// UpdateSchedule implements schedule.ScheduleService.
func (s *scheduleServiceImpl) UpdateSchedule(ctx context.Context, req schedule.UpdateScheduleRequest) (schedule.ScheduleResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ScheduleResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}

	ws, err := s.scheduleRepo.GetByID(ctx, req.ID, claims.WorkspaceID)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	if req.Name != nil {
		ws.Name = *req.Name
	}
	if req.Days != nil {
		ws.Days = *req.Days
	}

	shifts, err := s.shiftsByID(ctx, claims.WorkspaceID)
	if err != nil {
		return schedule.ScheduleResponse{}, err
	}
	if err := checkShifts(ws, shifts); err != nil {
		return schedule.ScheduleResponse{}, err
	}

	updated, err := s.scheduleRepo.Update(ctx, ws)
	if err != nil {
		if errors.Is(err, schedule.ErrWorkScheduleNameExists) || errors.Is(err, schedule.ErrWorkScheduleNotFound) {
			return schedule.ScheduleResponse{}, err
		}
		return schedule.ScheduleResponse{}, fmt.Errorf("failed to update work schedule: %w", err)
	}
	s.invalidateReports(ctx, claims.WorkspaceID)
	return toScheduleResponse(schedule.Plan{Schedule: updated, Shifts: shifts}), nil
}

// DeleteSchedule implements schedule.ScheduleService.
func (s *scheduleServiceImpl) DeleteSchedule(ctx context.Context, id string) error {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}
	if err := s.scheduleRepo.Delete(ctx, id, claims.WorkspaceID); err != nil {
		return err
	}
	s.invalidateReports(ctx, claims.WorkspaceID)
	return nil
}

// Plans implements schedule.ScheduleService.
func (s *scheduleServiceImpl) Plans(ctx context.Context, workspaceID string) (map[string]schedule.Plan, error) {
	shifts, err := s.shiftsByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	schedules, err := s.scheduleRepo.List(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work schedules: %w", err)
	}

	plans := make(map[string]schedule.Plan, len(schedules))
	for _, ws := range schedules {
		plans[ws.ID] = schedule.Plan{Schedule: ws, Shifts: shifts}
	}
	return plans, nil
}

func (s *scheduleServiceImpl) shiftsByID(ctx context.Context, workspaceID string) (map[string]schedule.WorkShift, error) {
	shifts, err := s.shiftRepo.List(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work shifts: %w", err)
	}
	byID := make(map[string]schedule.WorkShift, len(shifts))
	for _, shift := range shifts {
		byID[shift.ID] = shift
	}
	return byID, nil
}

func checkShifts(ws schedule.WorkSchedule, shifts map[string]schedule.WorkShift) error {
	for _, id := range ws.ShiftIDs() {
		if _, ok := shifts[id]; !ok {
			return schedule.ErrUnknownShift
		}
	}
	return nil
}

func toShiftResponse(shift schedule.WorkShift) schedule.ShiftResponse {
	return schedule.ShiftResponse{
		ID:            shift.ID,
		Name:          shift.Name,
		StartTime:     shift.StartTime.Format(clockLayout),
		EndTime:       shift.EndTime.Format(clockLayout),
		BreakMinutes:  shift.BreakMinutes,
		WorkedMinutes: shift.WorkedMinutes(),
	}
}

func toScheduleResponse(plan schedule.Plan) schedule.ScheduleResponse {
	resp := schedule.ScheduleResponse{
		ID:     plan.Schedule.ID,
		Name:   plan.Schedule.Name,
		Days:   plan.Schedule.Days,
		Shifts: []schedule.ShiftResponse{},
	}
	for _, id := range plan.Schedule.ShiftIDs() {
		if shift, ok := plan.Shifts[id]; ok {
			resp.Shifts = append(resp.Shifts, toShiftResponse(shift))
		}
	}
	for day := range resp.ExpectedByDays {
		minutes := plan.ExpectedMinutes(time.Weekday(day))
		resp.ExpectedByDays[day] = minutes
		resp.WeeklyMinutes += minutes
	}
	return resp
}
