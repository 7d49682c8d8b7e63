package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/schedule"
	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt/jwttest"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	morningID  = "1a2b3c4d-5e6f-4a1b-8c2d-3e4f5a6b7c8d"
	shortID    = "2b3c4d5e-6f7a-4b2c-9d3e-4f5a6b7c8d9e"
	scheduleID = "3c4d5e6f-7a8b-4c3d-8e4f-5a6b7c8d9e0f"
	missingID  = "4d5e6f7a-8b9c-4d4e-9f5a-6b7c8d9e0f1a"
)

type fakeShiftRepo struct {
	schedule.WorkShiftRepository
	shifts    []schedule.WorkShift
	created   *schedule.WorkShift
	deleteErr error
}

func (f *fakeShiftRepo) Create(_ context.Context, s schedule.WorkShift) (schedule.WorkShift, error) {
	s.ID = morningID
	f.created = &s
	return s, nil
}

func (f *fakeShiftRepo) GetByID(_ context.Context, id, _ string) (schedule.WorkShift, error) {
	for _, s := range f.shifts {
		if s.ID == id {
			return s, nil
		}
	}
	return schedule.WorkShift{}, schedule.ErrShiftNotFound
}

func (f *fakeShiftRepo) List(context.Context, string) ([]schedule.WorkShift, error) {
	return f.shifts, nil
}

func (f *fakeShiftRepo) Update(_ context.Context, s schedule.WorkShift) (schedule.WorkShift, error) {
	return s, nil
}

func (f *fakeShiftRepo) Delete(context.Context, string, string) error {
	return f.deleteErr
}

type recordingInvalidator struct {
	workspaces []string
}

func (r *recordingInvalidator) InvalidateWorkspace(_ context.Context, workspaceID string) error {
	r.workspaces = append(r.workspaces, workspaceID)
	return nil
}

type fakeScheduleRepo struct {
	schedule.WorkScheduleRepository
	schedules []schedule.WorkSchedule
	created   int
}

func (f *fakeScheduleRepo) Create(_ context.Context, s schedule.WorkSchedule) (schedule.WorkSchedule, error) {
	f.created++
	s.ID = scheduleID
	return s, nil
}

func (f *fakeScheduleRepo) GetByID(_ context.Context, id, _ string) (schedule.WorkSchedule, error) {
	for _, s := range f.schedules {
		if s.ID == id {
			return s, nil
		}
	}
	return schedule.WorkSchedule{}, schedule.ErrWorkScheduleNotFound
}

func (f *fakeScheduleRepo) List(context.Context, string) ([]schedule.WorkSchedule, error) {
	return f.schedules, nil
}

func (f *fakeScheduleRepo) Update(_ context.Context, s schedule.WorkSchedule) (schedule.WorkSchedule, error) {
	return s, nil
}

func clock(s string) time.Time {
	t, _ := time.Parse("15:04", s)
	return t
}

func ptr[T any](v T) *T { return &v }

func testShifts() []schedule.WorkShift {
	return []schedule.WorkShift{
		{ID: morningID, WorkspaceID: "ws-1", Name: "Comercial", StartTime: clock("08:00"), EndTime: clock("17:00"), BreakMinutes: 60},
		{ID: shortID, WorkspaceID: "ws-1", Name: "Sabado", StartTime: clock("08:00"), EndTime: clock("12:00")},
	}
}

func adminCtx(t *testing.T) context.Context {
	return jwttest.Context(t, jwt.Claims{UserID: "admin-1", WorkspaceID: "ws-1", Role: user.RoleAdmin})
}

func TestCreateShift(t *testing.T) {
	shifts := &fakeShiftRepo{}
	svc := NewScheduleService(shifts, &fakeScheduleRepo{}, nil)

	resp, err := svc.CreateShift(adminCtx(t), schedule.CreateShiftRequest{
		Name: "Comercial", StartTime: "08:00", EndTime: "17:00", BreakMinutes: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, "08:00", resp.StartTime)
	assert.Equal(t, "17:00", resp.EndTime)
	assert.Equal(t, 480, resp.WorkedMinutes)
	require.NotNil(t, shifts.created)
	assert.Equal(t, "ws-1", shifts.created.WorkspaceID)
}

func TestCreateShift_Invalid(t *testing.T) {
	svc := NewScheduleService(&fakeShiftRepo{}, &fakeScheduleRepo{}, nil)

	_, err := svc.CreateShift(adminCtx(t), schedule.CreateShiftRequest{
		Name: "Noite", StartTime: "22:00", EndTime: "06:00",
	})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "end_time")
}

func TestUpdateShift_RevalidatesMergedWindow(t *testing.T) {
	svc := NewScheduleService(&fakeShiftRepo{shifts: testShifts()}, &fakeScheduleRepo{}, nil)

	_, err := svc.UpdateShift(adminCtx(t), schedule.UpdateShiftRequest{ID: shortID, EndTime: ptr("07:00")})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	resp, err := svc.UpdateShift(adminCtx(t), schedule.UpdateShiftRequest{ID: shortID, EndTime: ptr("13:00"), BreakMinutes: ptr(15)})
	require.NoError(t, err)
	assert.Equal(t, "08:00", resp.StartTime)
	assert.Equal(t, 285, resp.WorkedMinutes)
}

func TestUpdateShift_NotFound(t *testing.T) {
	svc := NewScheduleService(&fakeShiftRepo{}, &fakeScheduleRepo{}, nil)
	_, err := svc.UpdateShift(adminCtx(t), schedule.UpdateShiftRequest{ID: missingID, Name: ptr("x")})
	assert.ErrorIs(t, err, schedule.ErrShiftNotFound)
}

func TestCreateSchedule(t *testing.T) {
	schedules := &fakeScheduleRepo{}
	svc := NewScheduleService(&fakeShiftRepo{shifts: testShifts()}, schedules, nil)

	var days [7]*string
	for d := time.Monday; d <= time.Friday; d++ {
		days[d] = ptr(morningID)
	}
	days[time.Saturday] = ptr(shortID)

	resp, err := svc.CreateSchedule(adminCtx(t), schedule.CreateScheduleRequest{Name: "Comercial 44h", Days: days})
	require.NoError(t, err)
	assert.Equal(t, scheduleID, resp.ID)
	assert.Equal(t, 5*480+240, resp.WeeklyMinutes)
	assert.Equal(t, 0, resp.ExpectedByDays[time.Sunday])
	assert.Equal(t, 480, resp.ExpectedByDays[time.Wednesday])
	assert.Equal(t, 240, resp.ExpectedByDays[time.Saturday])
	assert.Len(t, resp.Shifts, 2)
}

func TestCreateSchedule_UnknownShift(t *testing.T) {
	schedules := &fakeScheduleRepo{}
	svc := NewScheduleService(&fakeShiftRepo{shifts: testShifts()}, schedules, nil)

	var days [7]*string
	days[time.Monday] = ptr(missingID)

	_, err := svc.CreateSchedule(adminCtx(t), schedule.CreateScheduleRequest{Name: "X", Days: days})
	assert.ErrorIs(t, err, schedule.ErrUnknownShift)
	assert.Zero(t, schedules.created)
}

func TestUpdateSchedule_KeepsDaysWhenOmitted(t *testing.T) {
	var days [7]*string
	days[time.Monday] = ptr(morningID)
	schedules := &fakeScheduleRepo{schedules: []schedule.WorkSchedule{{ID: scheduleID, WorkspaceID: "ws-1", Name: "Old", Days: days}}}
	svc := NewScheduleService(&fakeShiftRepo{shifts: testShifts()}, schedules, nil)

	resp, err := svc.UpdateSchedule(adminCtx(t), schedule.UpdateScheduleRequest{ID: scheduleID, Name: ptr("New")})
	require.NoError(t, err)
	assert.Equal(t, "New", resp.Name)
	assert.Equal(t, 480, resp.WeeklyMinutes)
}

func TestPlans(t *testing.T) {
	var days [7]*string
	days[time.Tuesday] = ptr(shortID)
	schedules := &fakeScheduleRepo{schedules: []schedule.WorkSchedule{{ID: scheduleID, Days: days}}}
	svc := NewScheduleService(&fakeShiftRepo{shifts: testShifts()}, schedules, nil)

	plans, err := svc.Plans(context.Background(), "ws-1")
	require.NoError(t, err)
	require.Contains(t, plans, scheduleID)
	assert.Equal(t, 240, plans[scheduleID].ExpectedMinutes(time.Tuesday))
	assert.Equal(t, 0, plans[scheduleID].ExpectedMinutes(time.Monday))
}

func TestListSchedules_RequiresClaims(t *testing.T) {
	svc := NewScheduleService(&fakeShiftRepo{}, &fakeScheduleRepo{}, nil)
	_, err := svc.ListSchedules(context.Background())
	assert.ErrorIs(t, err, jwt.ErrMissingClaims)
}

func TestUpdates_InvalidateCachedReports(t *testing.T) {
	var days [7]*string
	days[time.Monday] = ptr(morningID)
	schedules := &fakeScheduleRepo{schedules: []schedule.WorkSchedule{{ID: scheduleID, WorkspaceID: "ws-1", Name: "Old", Days: days}}}
	reports := &recordingInvalidator{}
	svc := NewScheduleService(&fakeShiftRepo{shifts: testShifts()}, schedules, reports)

	days[time.Monday] = ptr(shortID)
	_, err := svc.UpdateSchedule(adminCtx(t), schedule.UpdateScheduleRequest{ID: scheduleID, Days: &days})
	require.NoError(t, err)

	_, err = svc.UpdateShift(adminCtx(t), schedule.UpdateShiftRequest{ID: morningID, BreakMinutes: ptr(30)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteShift(adminCtx(t), shortID))

	assert.Equal(t, []string{"ws-1", "ws-1", "ws-1"}, reports.workspaces)
}

func TestDeleteShift_InUseKeepsCache(t *testing.T) {
	reports := &recordingInvalidator{}
	svc := NewScheduleService(&fakeShiftRepo{deleteErr: schedule.ErrShiftInUse}, &fakeScheduleRepo{}, reports)

	err := svc.DeleteShift(adminCtx(t), morningID)
	assert.ErrorIs(t, err, schedule.ErrShiftInUse)
	assert.Empty(t, reports.workspaces)
}
