package attendance

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/attendance"
	"github.com/geopoint/geopoint-backend-go/internal/domain/location"
	"github.com/geopoint/geopoint-backend-go/internal/domain/notification"
	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/domain/workspace"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/events"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt/jwttest"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/sse"
	"github.com/geopoint/geopoint-backend-go/internal/service/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sedeLat = -23.5505
	sedeLon = -46.6333
)

var punchTime = time.Date(2026, 3, 2, 11, 5, 0, 0, time.UTC)

type fakeRecords struct {
	attendance.TimeRecordRepository
	stored    []attendance.TimeRecord
	createErr error
	deleted   []string
}

func (f *fakeRecords) GetLastByEmployee(_ context.Context, ws, employeeID string) (*attendance.TimeRecord, error) {
	for i := len(f.stored) - 1; i >= 0; i-- {
		if f.stored[i].WorkspaceID == ws && f.stored[i].EmployeeID == employeeID {
			r := f.stored[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeRecords) Create(_ context.Context, r attendance.TimeRecord) (attendance.TimeRecord, error) {
	if f.createErr != nil {
		return attendance.TimeRecord{}, f.createErr
	}
	r.ID = "rec-" + string(rune('a'+len(f.stored)))
	r.CreatedAt = r.Timestamp
	f.stored = append(f.stored, r)
	return r, nil
}

func (f *fakeRecords) GetByID(_ context.Context, id, ws string) (attendance.TimeRecord, error) {
	for _, r := range f.stored {
		if r.ID == id && r.WorkspaceID == ws {
			return r, nil
		}
	}
	return attendance.TimeRecord{}, attendance.ErrRecordNotFound
}

func (f *fakeRecords) Delete(_ context.Context, id, _ string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeLocations struct {
	location.LocationRepository
	byCode map[string]location.Location
	calls  int
}

func (f *fakeLocations) GetByCode(_ context.Context, code, _ string) (location.Location, error) {
	f.calls++
	l, ok := f.byCode[code]
	if !ok {
		return location.Location{}, location.ErrLocationNotFound
	}
	return l, nil
}

type fakeUsers struct {
	user.UserRepository
}

func (fakeUsers) GetByID(_ context.Context, id, ws string) (user.User, error) {
	if id != "emp-1" {
		return user.User{}, user.ErrUserNotFound
	}
	return user.User{ID: id, WorkspaceID: ws, Name: "Bruno", Role: user.RoleEmployee}, nil
}

func (fakeUsers) ListAdminIDs(context.Context, string) ([]string, error) {
	return []string{"admin-1", "admin-2"}, nil
}

type fakeWorkspaces struct {
	workspace.WorkspaceRepository
	ws workspace.Workspace
}

func (f fakeWorkspaces) GetByID(context.Context, string) (workspace.Workspace, error) {
	return f.ws, nil
}

type fakeFiles struct {
	file.FileService
	uploaded []string
	deleted  []string
	err      error
}

func (f *fakeFiles) UploadSelfie(_ context.Context, ws, employeeID string, at time.Time, r io.Reader, filename string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	key := "selfies/" + ws + "/" + at.Format("2006-01-02") + "/" + employeeID + "-" + filename
	f.uploaded = append(f.uploaded, key)
	return key, nil
}

func (f *fakeFiles) DeleteFile(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeFiles) FileURL(key string) string { return "https://files.test/" + key }

type fakeLocker struct {
	held     bool
	err      error
	acquired []string
	released []string
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	if l.err != nil {
		return "", false, l.err
	}
	if l.held {
		return "", false, nil
	}
	l.acquired = append(l.acquired, key)
	return "token", true, nil
}

func (l *fakeLocker) Release(_ context.Context, key, _ string) error {
	l.released = append(l.released, key)
	return nil
}

type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) InvalidateWorkspace(context.Context, string) error {
	f.calls++
	return f.err
}

type fakePublisher struct {
	events []events.Event
	err    error

	// locker, when set, lets tests see whether the punch lock was still held at publish time
	locker            *fakeLocker
	releasedAtPublish []int
}

func (p *fakePublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	if p.locker != nil {
		p.releasedAtPublish = append(p.releasedAtPublish, len(p.locker.released))
	}
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

type fakeNotifications struct {
	notification.Service
	broadcasts []sse.Event
	queued     []notification.CreateNotificationRequest
}

func (f *fakeNotifications) BroadcastToAdmins(_ string, e sse.Event) {
	f.broadcasts = append(f.broadcasts, e)
}

func (f *fakeNotifications) QueueBulkNotification(_ context.Context, reqs []notification.CreateNotificationRequest) error {
	f.queued = append(f.queued, reqs...)
	return nil
}

type fixture struct {
	records   *fakeRecords
	locations *fakeLocations
	files     *fakeFiles
	locker    *fakeLocker
	reports   *fakeInvalidator
	publisher *fakePublisher
	notifs    *fakeNotifications
	ws        workspace.Workspace
}

func newFixture() *fixture {
	lat, lon := sedeLat, sedeLon
	return &fixture{
		records: &fakeRecords{},
		locations: &fakeLocations{byCode: map[string]location.Location{
			"SEDE-01": {ID: "loc-1", Name: "Sede", Code: "SEDE-01", Latitude: &lat, Longitude: &lon},
			"LOJA-02": {ID: "loc-2", Name: "Loja", Code: "LOJA-02"},
		}},
		files:     &fakeFiles{},
		locker:    &fakeLocker{},
		reports:   &fakeInvalidator{},
		publisher: &fakePublisher{},
		notifs:    &fakeNotifications{},
		ws:        workspace.Workspace{ID: "ws-1", Name: "Vero"},
	}
}

func (f *fixture) service() attendance.AttendanceService {
	svc := NewAttendanceService(
		f.records, f.locations, fakeUsers{}, fakeWorkspaces{ws: f.ws}, f.files,
		f.locker, f.reports, f.publisher, f.notifs,
		Settings{GeofenceThresholdMeters: 300},
	).(*AttendanceServiceImpl)
	svc.now = func() time.Time { return punchTime }
	return svc
}

func employeeCtx(t *testing.T) context.Context {
	return jwttest.Context(t, jwt.Claims{UserID: "emp-1", WorkspaceID: "ws-1", Name: "Bruno", Role: user.RoleEmployee})
}

func ptr[T any](v T) *T { return &v }

func TestPunch_EntryInsidePerimeter(t *testing.T) {
	f := newFixture()

	resp, err := f.service().Punch(employeeCtx(t), attendance.PunchRequest{
		LocationCode: "SEDE-01", Latitude: ptr(sedeLat + 0.001), Longitude: ptr(sedeLon),
	})
	require.NoError(t, err)

	assert.Equal(t, "entry", resp.Record.Type)
	assert.Equal(t, "exit", resp.NextPunchType)
	assert.True(t, resp.GeofenceCheck)
	assert.False(t, resp.Record.IsOutOfPerimeter)
	require.NotNil(t, resp.Record.DistanceMeters)
	assert.InDelta(t, 111, *resp.Record.DistanceMeters, 1)
	assert.Equal(t, "Sede", resp.Record.LocationLabel)
	assert.Equal(t, "Bruno", resp.Record.EmployeeName)
	assert.Equal(t, punchTime.UnixMilli(), resp.Record.Timestamp)

	assert.Equal(t, []string{"punch:lock:ws-1:emp-1"}, f.locker.acquired)
	assert.Equal(t, f.locker.acquired, f.locker.released)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypePunchRecorded, f.publisher.events[0].Type)
	assert.Equal(t, 1, f.reports.calls)
	require.Len(t, f.notifs.broadcasts, 1)
	assert.Equal(t, EventPunch, f.notifs.broadcasts[0].Name)
	assert.Empty(t, f.notifs.queued)
}

func TestPunch_AlternatesEntryAndExit(t *testing.T) {
	f := newFixture()
	svc := f.service()

	var types []string
	for range 3 {
		resp, err := svc.Punch(employeeCtx(t), attendance.PunchRequest{LocationCode: "SEDE-01"})
		require.NoError(t, err)
		types = append(types, resp.Record.Type)
	}
	assert.Equal(t, []string{"entry", "exit", "entry"}, types)
}

func TestPunch_OutOfPerimeter(t *testing.T) {
	f := newFixture()

	resp, err := f.service().Punch(employeeCtx(t), attendance.PunchRequest{
		LocationCode: "SEDE-01", Latitude: ptr(sedeLat + 0.01), Longitude: ptr(sedeLon),
	})
	require.NoError(t, err)

	assert.True(t, resp.Record.IsOutOfPerimeter)
	assert.Equal(t, "Sede", resp.Record.LocationName)
	assert.Equal(t, "Sede (Fora do perímetro: 1112m)", resp.Record.LocationLabel)

	require.Len(t, f.notifs.queued, 2)
	assert.Equal(t, notification.TypePunchOutOfPerimeter, f.notifs.queued[0].Type)
	assert.Equal(t, "admin-2", f.notifs.queued[1].RecipientID)
}

func TestPunch_WorkspaceThresholdOverride(t *testing.T) {
	f := newFixture()
	f.ws.GeofenceThresholdMeters = ptr(2000.0)

	resp, err := f.service().Punch(employeeCtx(t), attendance.PunchRequest{
		LocationCode: "SEDE-01", Latitude: ptr(sedeLat + 0.01), Longitude: ptr(sedeLon),
	})
	require.NoError(t, err)
	assert.False(t, resp.Record.IsOutOfPerimeter)
}

func TestPunch_ManualSkipsGeofence(t *testing.T) {
	f := newFixture()

	resp, err := f.service().Punch(employeeCtx(t), attendance.PunchRequest{
		Latitude: ptr(0.0), Longitude: ptr(0.0),
	})
	require.NoError(t, err)

	assert.Equal(t, attendance.ManualLocationCode, resp.Record.LocationCode)
	assert.False(t, resp.GeofenceCheck)
	assert.False(t, resp.Record.IsOutOfPerimeter)
	assert.Nil(t, resp.Record.DistanceMeters)
	assert.Zero(t, f.locations.calls)
}

func TestPunch_NoGeofenceWithoutCoordinates(t *testing.T) {
	f := newFixture()
	svc := f.service()

	// unit without registered coordinates
	resp, err := svc.Punch(employeeCtx(t), attendance.PunchRequest{LocationCode: "LOJA-02", Latitude: ptr(0.0), Longitude: ptr(0.0)})
	require.NoError(t, err)
	assert.False(t, resp.GeofenceCheck)
	assert.Equal(t, "Loja", resp.Record.LocationName)

	// device without a fix
	resp, err = svc.Punch(employeeCtx(t), attendance.PunchRequest{LocationCode: "SEDE-01"})
	require.NoError(t, err)
	assert.False(t, resp.GeofenceCheck)

	// unknown unit code
	resp, err = svc.Punch(employeeCtx(t), attendance.PunchRequest{LocationCode: "NOPE", Latitude: ptr(0.0), Longitude: ptr(0.0)})
	require.NoError(t, err)
	assert.False(t, resp.GeofenceCheck)
	assert.Equal(t, "NOPE", resp.Record.LocationName)
}

func TestPunch_LockHeld(t *testing.T) {
	f := newFixture()
	f.locker.held = true

	_, err := f.service().Punch(employeeCtx(t), attendance.PunchRequest{LocationCode: "SEDE-01"})
	assert.ErrorIs(t, err, attendance.ErrPunchInProgress)
	assert.Empty(t, f.records.stored)
	assert.Empty(t, f.locker.released)
}

func TestPunch_LockErrorFailsOpen(t *testing.T) {
	f := newFixture()
	f.locker.err = errors.New("redis: connection refused")

	_, err := f.service().Punch(employeeCtx(t), attendance.PunchRequest{LocationCode: "SEDE-01"})
	require.NoError(t, err)
	assert.Len(t, f.records.stored, 1)
	assert.Empty(t, f.locker.released)
}

func TestPunch_SideEffectFailuresAreIgnored(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker down")
	f.reports.err = errors.New("redis down")

	resp, err := f.service().Punch(employeeCtx(t), attendance.PunchRequest{LocationCode: "SEDE-01"})
	require.NoError(t, err)
	assert.Equal(t, "entry", resp.Record.Type)
	assert.Len(t, f.notifs.broadcasts, 1)
}

func TestPunch_DataURIPhoto(t *testing.T) {
	f := newFixture()
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))

	resp, err := f.service().Punch(employeeCtx(t), attendance.PunchRequest{LocationCode: "SEDE-01", Photo: uri})
	require.NoError(t, err)

	require.Len(t, f.files.uploaded, 1)
	assert.Equal(t, "selfies/ws-1/2026-03-02/emp-1-upload.png", f.files.uploaded[0])
	require.NotNil(t, resp.Record.PhotoURL)
	assert.Equal(t, "https://files.test/"+f.files.uploaded[0], *resp.Record.PhotoURL)
}

func TestPunch_InvalidPhoto(t *testing.T) {
	f := newFixture()
	svc := f.service()

	_, err := svc.Punch(employeeCtx(t), attendance.PunchRequest{Photo: "not a data uri"})
	assert.ErrorIs(t, err, attendance.ErrInvalidPhoto)

	f.files.err = file.ErrUndecodableImage
	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("garbage"))
	_, err = svc.Punch(employeeCtx(t), attendance.PunchRequest{Photo: uri})
	assert.ErrorIs(t, err, attendance.ErrInvalidPhoto)
	assert.Empty(t, f.records.stored)
}

func TestPunch_MultipartPhotoMatchesDataURIErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     attendance.PunchRequest
		wantErr error
	}{
		{
			name: "too large",
			req: attendance.PunchRequest{
				File: strings.NewReader("jpeg"), Filename: "selfie.jpg", FileSize: attendance.MaxPhotoSize + 1,
			},
			wantErr: attendance.ErrPhotoTooLarge,
		},
		{
			name: "not an image",
			req: attendance.PunchRequest{
				File: strings.NewReader("%PDF"), Filename: "selfie.pdf", FileSize: 4,
			},
			wantErr: attendance.ErrInvalidPhoto,
		},
		{
			name: "no extension",
			req: attendance.PunchRequest{
				File: strings.NewReader("jpeg"), Filename: "selfie", FileSize: 4,
			},
			wantErr: attendance.ErrInvalidPhoto,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.req.LocationCode = "SEDE-01"

			_, err := f.service().Punch(employeeCtx(t), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.files.uploaded)
			assert.Empty(t, f.records.stored)
		})
	}

	t.Run("uppercase extension", func(t *testing.T) {
		f := newFixture()
		_, err := f.service().Punch(employeeCtx(t), attendance.PunchRequest{
			LocationCode: "SEDE-01", File: strings.NewReader("jpeg"), Filename: "SELFIE.JPG", FileSize: 4,
		})
		require.NoError(t, err)
		assert.Len(t, f.files.uploaded, 1)
	})
}

func TestPunch_RemovesSelfieWhenInsertFails(t *testing.T) {
	f := newFixture()
	f.records.createErr = errors.New("insert failed")
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png"))

	_, err := f.service().Punch(employeeCtx(t), attendance.PunchRequest{Photo: uri})
	require.Error(t, err)
	assert.Equal(t, f.files.uploaded, f.files.deleted)
	assert.Empty(t, f.publisher.events)
	assert.Equal(t, f.locker.acquired, f.locker.released)
}

func TestPunch_UnknownEmployee(t *testing.T) {
	f := newFixture()
	ctx := jwttest.Context(t, jwt.Claims{UserID: "ghost", WorkspaceID: "ws-1", Role: user.RoleEmployee})

	_, err := f.service().Punch(ctx, attendance.PunchRequest{})
	assert.ErrorIs(t, err, attendance.ErrEmployeeNotFound)
}

func TestGetStatus(t *testing.T) {
	f := newFixture()
	svc := f.service()

	status, err := svc.GetStatus(employeeCtx(t))
	require.NoError(t, err)
	assert.False(t, status.ClockedIn)
	assert.Equal(t, "entry", status.NextPunchType)
	assert.Nil(t, status.LastRecord)

	_, err = svc.Punch(employeeCtx(t), attendance.PunchRequest{})
	require.NoError(t, err)

	status, err = svc.GetStatus(employeeCtx(t))
	require.NoError(t, err)
	assert.True(t, status.ClockedIn)
	assert.Equal(t, "exit", status.NextPunchType)
	require.NotNil(t, status.LastRecord)
}

func TestDeleteRecord(t *testing.T) {
	f := newFixture()
	svc := f.service()
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png"))

	resp, err := svc.Punch(employeeCtx(t), attendance.PunchRequest{Photo: uri})
	require.NoError(t, err)

	admin := jwttest.Context(t, jwt.Claims{UserID: "admin-1", WorkspaceID: "ws-1", Role: user.RoleAdmin})
	require.NoError(t, svc.DeleteRecord(admin, resp.Record.ID))
	assert.Equal(t, []string{resp.Record.ID}, f.records.deleted)
	assert.Equal(t, f.files.uploaded, f.files.deleted)
	assert.Equal(t, 2, f.reports.calls)

	assert.ErrorIs(t, svc.DeleteRecord(admin, "missing"), attendance.ErrRecordNotFound)
}

func TestPunch_ReleasesLockBeforeSideEffects(t *testing.T) {
	f := newFixture()
	f.publisher.locker = f.locker

	_, err := f.service().Punch(employeeCtx(t), attendance.PunchRequest{LocationCode: "SEDE-01"})
	require.NoError(t, err)

	assert.Equal(t, []int{1}, f.publisher.releasedAtPublish)
	// released exactly once even though the deferred release also runs
	assert.Len(t, f.locker.released, 1)

	require.Len(t, f.notifs.broadcasts, 1)
	assert.Equal(t, "punch.recorded", f.notifs.broadcasts[0].Name)
}
