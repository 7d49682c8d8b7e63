package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/attendance"
	"github.com/geopoint/geopoint-backend-go/internal/domain/auth"
	"github.com/geopoint/geopoint-backend-go/internal/domain/notification"
	"github.com/geopoint/geopoint-backend-go/internal/domain/report"
	"github.com/geopoint/geopoint-backend-go/internal/domain/request"
	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/handler/http/response"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/sse"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testSecret = "router-test-secret"

// ---- fakes ----

type fakeAuth struct {
	auth.AuthService
	loginCalls int
}

func (f *fakeAuth) Login(_ context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
	f.loginCalls++
	if req.Password != "correct-horse" {
		return auth.LoginResponse{}, auth.ErrInvalidCredentials
	}
	return auth.LoginResponse{AccessToken: "tok", User: user.UserResponse{ID: "u1"}}, nil
}

type fakeAttendance struct {
	attendance.AttendanceService
	got attendance.PunchRequest
}

func (f *fakeAttendance) Punch(ctx context.Context, req attendance.PunchRequest) (attendance.PunchResponse, error) {
	f.got = req
	if req.File != nil {
		raw, _ := io.ReadAll(req.File)
		f.got.Photo = string(raw)
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.PunchResponse{}, err
	}
	return attendance.PunchResponse{
		Record:        attendance.TimeRecordResponse{ID: "rec-1", EmployeeID: claims.UserID, Type: "entry", LocationCode: req.LocationCode},
		NextPunchType: "exit",
	}, nil
}

func (f *fakeAttendance) ListRecords(context.Context, attendance.RecordFilter) (attendance.ListRecordResponse, error) {
	return attendance.ListRecordResponse{Page: 1, Limit: 20, TotalCount: 0, Records: []attendance.TimeRecordResponse{}}, nil
}

type fakeReport struct{ report.ReportService }

func (fakeReport) ExportOvertime(_ context.Context, req report.OvertimeReportRequest) (report.ExportFile, error) {
	if err := req.Validate(); err != nil {
		return report.ExportFile{}, err
	}
	return report.ExportFile{
		Filename:    "overtime_" + req.StartDate + "_" + req.EndDate + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     []byte("PK\x03\x04"),
	}, nil
}

type fakeRequests struct {
	request.RequestService
	approved string
}

func (f *fakeRequests) Approve(_ context.Context, id string) (request.RequestResponse, error) {
	f.approved = id
	return request.RequestResponse{ID: id, Status: string(request.StatusApproved)}, nil
}

type fakeNotifications struct {
	notification.Service
	events chan sse.Event
	sub    sse.Subscriber
}

func (f *fakeNotifications) Subscribe(sub sse.Subscriber) (<-chan sse.Event, func()) {
	f.sub = sub
	return f.events, func() {}
}

type fakeStorage struct {
	storage.FileStorage
	files map[string]string
}

func (f fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := f.files[key]
	if !ok {
		return nil, storage.ErrFileNotFound
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

// ---- harness ----

type harness struct {
	router     http.Handler
	jwt        jwt.Service
	auth       *fakeAuth
	attendance *fakeAttendance
	requests   *fakeRequests
	notif      *fakeNotifications
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		jwt:        jwt.NewJWTService(testSecret, "1h"),
		auth:       &fakeAuth{},
		attendance: &fakeAttendance{},
		requests:   &fakeRequests{},
		notif:      &fakeNotifications{events: make(chan sse.Event, 4)},
	}
	h.router = NewRouter(
		RouterConfig{Env: "test", Version: "test", AllowedOrigins: []string{"*"}, RateLimit: rate.Inf, RateBurst: 1},
		h.jwt,
		Handlers{
			Auth:         NewAuthHandler(h.auth),
			Workspace:    NewWorkspaceHandler(nil),
			User:         NewUserHandler(nil),
			Location:     NewLocationHandler(nil),
			Schedule:     NewScheduleHandler(nil),
			Attendance:   NewAttendanceHandler(h.attendance),
			Request:      NewRequestHandler(h.requests),
			Report:       NewReportHandler(fakeReport{}),
			Notification: NewNotificationHandler(h.notif, h.jwt),
			File:         NewFileHandler(fakeStorage{files: map[string]string{"selfies/ws-1/a.jpg": "jpeg-bytes"}}),
		},
	)
	return h
}

func (h *harness) token(t *testing.T, role user.Role) string {
	t.Helper()
	tok, _, err := h.jwt.GenerateAccessToken(user.User{ID: "u1", WorkspaceID: "ws-1", Email: "ana@example.com", Role: role})
	require.NoError(t, err)
	return tok
}

func (h *harness) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ---- tests ----

func TestLogin(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"ana@example.com","password":"correct-horse"}`)), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody(t, rec).Success)

	rec = h.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"ana@example.com","password":"wrong-horse"}`)), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":`)), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// validation never reaches the service
	rec = h.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"nope"}`)), "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 2, h.auth.loginCalls)
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/attendance/", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// SSE tokens are not access tokens
	sseToken, _, err := h.jwt.GenerateSSEToken(jwt.Claims{UserID: "u1", WorkspaceID: "ws-1", Role: user.RoleAdmin})
	require.NoError(t, err)
	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/attendance/", nil), sseToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/attendance/", nil), h.token(t, user.RoleEmployee))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/attendance/", nil), h.token(t, user.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPunch_Multipart(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("data", `{"location_code":"SEDE-01","latitude":-23.55,"longitude":-46.63}`))
	part, err := mw.CreateFormFile("photo", "selfie.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("fake-jpeg"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/punch", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := h.do(req, h.token(t, user.RoleEmployee))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "SEDE-01", h.attendance.got.LocationCode)
	require.NotNil(t, h.attendance.got.Latitude)
	assert.InDelta(t, -23.55, *h.attendance.got.Latitude, 1e-9)
	assert.Equal(t, "selfie.jpg", h.attendance.got.Filename)
	assert.Equal(t, "fake-jpeg", h.attendance.got.Photo)
}

func TestPunch_JSONWithoutPhoto(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/punch", strings.NewReader(`{"location_code":"MANUAL-APP"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := h.do(req, h.token(t, user.RoleEmployee))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, h.attendance.got.File)
	assert.Equal(t, "MANUAL-APP", h.attendance.got.LocationCode)

	body := decodeBody(t, rec)
	data, ok := body.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "exit", data["next_punch_type"])
}

func TestApproveRequest_RejectsBadID(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, user.RoleAdmin)

	rec := h.do(httptest.NewRequest(http.MethodPost, "/api/v1/requests/not-a-uuid/approve", nil), admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, h.requests.approved)

	id := "0191d2a4-7c1e-7a4b-9f3e-2b6c1d0e8f11"
	rec = h.do(httptest.NewRequest(http.MethodPost, "/api/v1/requests/"+id+"/approve", nil), admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, h.requests.approved)
}

func TestExportOvertime(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, user.RoleAdmin)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/reports/overtime/export?start_date=2026-03-01&end_date=2026-03-31", nil), admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="overtime_2026-03-01_2026-03-31.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK\x03\x04", rec.Body.String())

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/reports/overtime/export?start_date=2026-03-31&end_date=2026-03-01", nil), admin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServeFile(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/uploads/selfies/ws-1/a.jpg", nil), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "jpeg-bytes", rec.Body.String())

	rec = h.do(httptest.NewRequest(http.MethodGet, "/uploads/selfies/ws-1/missing.jpg", nil), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStream(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/events/stream?token=garbage", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := h.jwt.GenerateSSEToken(jwt.Claims{UserID: "u1", WorkspaceID: "ws-1", Role: user.RoleAdmin})
	require.NoError(t, err)

	h.notif.events <- sse.Event{Name: "punch.recorded", Data: map[string]string{"record_id": "rec-1"}}
	close(h.notif.events)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/events/stream?token="+token, nil), "")

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: connected\n")
	assert.Contains(t, rec.Body.String(), "event: punch.recorded\ndata: {\"record_id\":\"rec-1\"}\n\n")
	assert.Equal(t, sse.Subscriber{UserID: "u1", WorkspaceID: "ws-1", Admin: true}, h.notif.sub)
}

func TestNotificationHandler_KeepaliveInterval(t *testing.T) {
	handler := NewNotificationHandler(&fakeNotifications{}, jwt.NewJWTService(testSecret, "1h"))
	assert.Equal(t, 30*time.Second, handler.(*notificationHandlerImpl).keepalive)
}
