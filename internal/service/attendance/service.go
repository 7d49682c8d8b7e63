package attendance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/attendance"
	"github.com/geopoint/geopoint-backend-go/internal/domain/location"
	"github.com/geopoint/geopoint-backend-go/internal/domain/notification"
	"github.com/geopoint/geopoint-backend-go/internal/domain/report"
	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/domain/workspace"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/cache"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/events"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/geo"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/sse"
	"github.com/geopoint/geopoint-backend-go/internal/service/file"
)

// EventPunch is the SSE event name pushed to admins for every stored punch.
const EventPunch = events.TypePunchRecorded

// manualLocationName labels punches made without a registered unit.
const manualLocationName = "Ponto manual (app)"

type Settings struct {
	GeofenceThresholdMeters float64
	LockTTL                 time.Duration
	Location                *time.Location
}

type AttendanceServiceImpl struct {
	attendance.TimeRecordRepository
	locations     location.LocationRepository
	users         user.UserRepository
	workspaces    workspace.WorkspaceRepository
	fileService   file.FileService
	locker        cache.Locker
	reports       report.CacheInvalidator
	publisher     events.Publisher
	notifications notification.Service
	settings      Settings
	now           func() time.Time
}

func NewAttendanceService(
	recordRepository attendance.TimeRecordRepository,
	locationRepository location.LocationRepository,
	userRepository user.UserRepository,
	workspaceRepository workspace.WorkspaceRepository,
	fileService file.FileService,
	locker cache.Locker,
	reports report.CacheInvalidator,
	publisher events.Publisher,
	notifications notification.Service,
	settings Settings,
) attendance.AttendanceService {
	if settings.LockTTL <= 0 {
		settings.LockTTL = 10 * time.Second
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &AttendanceServiceImpl{
		TimeRecordRepository: recordRepository,
		locations:            locationRepository,
		users:                userRepository,
		workspaces:           workspaceRepository,
		fileService:          fileService,
		locker:               locker,
		reports:              reports,
		publisher:            publisher,
		notifications:        notifications,
		settings:             settings,
		now:                  time.Now,
	}
}

func lockKey(workspaceID, employeeID string) string {
	return fmt.Sprintf("punch:lock:%s:%s", workspaceID, employeeID)
}

// Punch implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Punch(ctx context.Context, req attendance.PunchRequest) (attendance.PunchResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.PunchResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.PunchResponse{}, err
	}

	photo, filename, err := readPhoto(req)
	if err != nil {
		return attendance.PunchResponse{}, err
	}

	employee, err := a.users.GetByID(ctx, claims.UserID, claims.WorkspaceID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return attendance.PunchResponse{}, attendance.ErrEmployeeNotFound
		}
		return attendance.PunchResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	ws, err := a.workspaces.GetByID(ctx, claims.WorkspaceID)
	if err != nil {
		return attendance.PunchResponse{}, fmt.Errorf("failed to get workspace: %w", err)
	}
	threshold, _ := ws.Rules(a.settings.GeofenceThresholdMeters, 0)

	// unknown codes and MANUAL-APP have no row, so no geofence
	var unit *location.Location
	if req.LocationCode != attendance.ManualLocationCode {
		found, err := a.locations.GetByCode(ctx, req.LocationCode, claims.WorkspaceID)
		switch {
		case err == nil:
			unit = &found
		case errors.Is(err, location.ErrLocationNotFound):
		default:
			return attendance.PunchResponse{}, fmt.Errorf("failed to get location by code: %w", err)
		}
	}

	key := lockKey(claims.WorkspaceID, claims.UserID)
	token, acquired, err := a.locker.Acquire(ctx, key, a.settings.LockTTL)
	if err != nil {
		slog.WarnContext(ctx, "punch lock unavailable, continuing without it", "key", key, "error", err)
	} else if !acquired {
		return attendance.PunchResponse{}, attendance.ErrPunchInProgress
	}
	release := func() {
		if !acquired {
			return
		}
		acquired = false
		// the request ctx may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := a.locker.Release(releaseCtx, key, token); err != nil {
			slog.WarnContext(ctx, "failed to release punch lock", "key", key, "error", err)
		}
	}
	defer release()

	last, err := a.TimeRecordRepository.GetLastByEmployee(ctx, claims.WorkspaceID, claims.UserID)
	if err != nil {
		return attendance.PunchResponse{}, fmt.Errorf("failed to get last time record: %w", err)
	}

	now := a.now()
	record := attendance.TimeRecord{
		WorkspaceID:  claims.WorkspaceID,
		EmployeeID:   claims.UserID,
		EmployeeName: employee.Name,
		Type:         attendance.NextPunchType(last),
		Timestamp:    now,
		LocationCode: req.LocationCode,
		LocationName: manualLocationName,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}

	var checked bool
	if unit != nil {
		record.LocationName = unit.Name
		eval, ok := geo.EvaluatePunch(unit.Point(), req.Device(), threshold)
		if ok {
			checked = true
			meters := eval.Meters
			record.DistanceMeters = &meters
			record.IsOutOfPerimeter = eval.IsFar
		}
	} else if req.LocationCode != attendance.ManualLocationCode {
		record.LocationName = req.LocationCode
	}

	if photo != nil {
		key, err := a.fileService.UploadSelfie(ctx, claims.WorkspaceID, claims.UserID, now.In(a.settings.Location), photo, filename)
		if err != nil {
			if errors.Is(err, file.ErrUnsupportedType) || errors.Is(err, file.ErrUndecodableImage) {
				return attendance.PunchResponse{}, attendance.ErrInvalidPhoto
			}
			return attendance.PunchResponse{}, fmt.Errorf("failed to store selfie: %w", err)
		}
		record.PhotoURL = &key
	}

	created, err := a.TimeRecordRepository.Create(ctx, record)
	if err != nil {
		if record.PhotoURL != nil {
			if delErr := a.fileService.DeleteFile(ctx, *record.PhotoURL); delErr != nil {
				slog.WarnContext(ctx, "failed to remove orphaned selfie", "key", *record.PhotoURL, "error", delErr)
			}
		}
		return attendance.PunchResponse{}, fmt.Errorf("failed to create time record: %w", err)
	}

	resp := attendance.PunchResponse{
		Record:        a.toResponse(created),
		GeofenceCheck: checked,
		NextPunchType: string(attendance.NextPunchType(&created)),
	}
	// the record is stored; side effects must not hold up the employee's next punch
	release()
	a.afterPunch(ctx, created, resp.Record)

	return resp, nil
}

// afterPunch runs the side effects of a stored punch. None of them can fail the punch.
func (a *AttendanceServiceImpl) afterPunch(ctx context.Context, record attendance.TimeRecord, view attendance.TimeRecordResponse) {
	if err := a.publisher.Publish(ctx, events.Event{
		Type:          events.TypePunchRecorded,
		WorkspaceID:   record.WorkspaceID,
		AggregateType: events.AggregateTimeRecord,
		AggregateID:   record.ID,
		OccurredAt:    record.Timestamp,
		Payload:       view,
	}); err != nil {
		slog.WarnContext(ctx, "failed to publish punch event", "record_id", record.ID, "error", err)
	}

	if err := a.reports.InvalidateWorkspace(ctx, record.WorkspaceID); err != nil {
		slog.WarnContext(ctx, "failed to invalidate report cache", "workspace_id", record.WorkspaceID, "error", err)
	}

	a.notifications.BroadcastToAdmins(record.WorkspaceID, sse.Event{Name: EventPunch, Data: view})

	if record.IsOutOfPerimeter {
		a.notifyOutOfPerimeter(ctx, record)
	}
}

func (a *AttendanceServiceImpl) notifyOutOfPerimeter(ctx context.Context, record attendance.TimeRecord) {
	adminIDs, err := a.users.ListAdminIDs(ctx, record.WorkspaceID)
	if err != nil {
		slog.WarnContext(ctx, "failed to list admins for perimeter alert", "record_id", record.ID, "error", err)
		return
	}

	sender := record.EmployeeID
	data := map[string]any{"record_id": record.ID, "employee_id": record.EmployeeID}
	if record.DistanceMeters != nil {
		data["distance_meters"] = math.Round(*record.DistanceMeters)
	}

	reqs := make([]notification.CreateNotificationRequest, 0, len(adminIDs))
	for _, adminID := range adminIDs {
		reqs = append(reqs, notification.CreateNotificationRequest{
			WorkspaceID: record.WorkspaceID,
			RecipientID: adminID,
			SenderID:    &sender,
			Type:        notification.TypePunchOutOfPerimeter,
			Title:       "Punch outside the perimeter",
			Message:     fmt.Sprintf("%s punched %s at %s", record.EmployeeName, record.Type, record.DisplayLocation()),
			Data:        data,
		})
	}
	if len(reqs) == 0 {
		return
	}
	if err := a.notifications.QueueBulkNotification(ctx, reqs); err != nil {
		slog.WarnContext(ctx, "failed to queue perimeter alerts", "record_id", record.ID, "error", err)
	}
}

// readPhoto returns the selfie from the multipart file or the JSON data URI, nil when none was sent.
func readPhoto(req attendance.PunchRequest) (io.Reader, string, error) {
	if req.File != nil {
		if req.FileSize > attendance.MaxPhotoSize {
			return nil, "", attendance.ErrPhotoTooLarge
		}
		if !attendance.IsImageFilename(req.Filename) {
			return nil, "", attendance.ErrInvalidPhoto
		}
		return req.File, req.Filename, nil
	}
	if req.Photo == "" {
		return nil, "", nil
	}

	raw, filename, err := file.ParseDataURI(req.Photo, attendance.MaxPhotoSize)
	if err != nil {
		if errors.Is(err, file.ErrFileTooLarge) {
			return nil, "", attendance.ErrPhotoTooLarge
		}
		return nil, "", attendance.ErrInvalidPhoto
	}
	return bytes.NewReader(raw), filename, nil
}

// GetStatus implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetStatus(ctx context.Context) (attendance.StatusResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.StatusResponse{}, err
	}

	last, err := a.TimeRecordRepository.GetLastByEmployee(ctx, claims.WorkspaceID, claims.UserID)
	if err != nil {
		return attendance.StatusResponse{}, fmt.Errorf("failed to get last time record: %w", err)
	}

	resp := attendance.StatusResponse{
		ClockedIn:     last != nil && last.Type == attendance.PunchEntry,
		NextPunchType: string(attendance.NextPunchType(last)),
	}
	if last != nil {
		view := a.toResponse(*last)
		resp.LastRecord = &view
	}
	return resp, nil
}

// GetMyRecords implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyRecords(ctx context.Context, filter attendance.MyRecordFilter) (attendance.ListRecordResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListRecordResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.ListRecordResponse{}, err
	}

	records, total, err := a.TimeRecordRepository.ListByEmployee(ctx, claims.UserID, filter, claims.WorkspaceID)
	if err != nil {
		return attendance.ListRecordResponse{}, fmt.Errorf("failed to list time records: %w", err)
	}
	return a.toListResponse(records, total, filter.Page, filter.Limit), nil
}

// ListRecords implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListRecords(ctx context.Context, filter attendance.RecordFilter) (attendance.ListRecordResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListRecordResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.ListRecordResponse{}, err
	}

	records, total, err := a.TimeRecordRepository.List(ctx, filter, claims.WorkspaceID)
	if err != nil {
		return attendance.ListRecordResponse{}, fmt.Errorf("failed to list time records: %w", err)
	}
	return a.toListResponse(records, total, filter.Page, filter.Limit), nil
}

// DeleteRecord implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DeleteRecord(ctx context.Context, id string) error {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	record, err := a.TimeRecordRepository.GetByID(ctx, id, claims.WorkspaceID)
	if err != nil {
		return err
	}
	if err := a.TimeRecordRepository.Delete(ctx, id, claims.WorkspaceID); err != nil {
		return err
	}

	if record.PhotoURL != nil {
		if err := a.fileService.DeleteFile(ctx, *record.PhotoURL); err != nil {
			slog.WarnContext(ctx, "failed to delete selfie", "key", *record.PhotoURL, "error", err)
		}
	}
	if err := a.reports.InvalidateWorkspace(ctx, claims.WorkspaceID); err != nil {
		slog.WarnContext(ctx, "failed to invalidate report cache", "workspace_id", claims.WorkspaceID, "error", err)
	}
	return nil
}

func (a *AttendanceServiceImpl) toListResponse(records []attendance.TimeRecord, total int64, page, limit int) attendance.ListRecordResponse {
	resp := attendance.ListRecordResponse{
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		Records:    make([]attendance.TimeRecordResponse, 0, len(records)),
	}
	for _, r := range records {
		resp.Records = append(resp.Records, a.toResponse(r))
	}
	return resp
}

func (a *AttendanceServiceImpl) toResponse(r attendance.TimeRecord) attendance.TimeRecordResponse {
	resp := attendance.TimeRecordResponse{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID,
		EmployeeName:     r.EmployeeName,
		Type:             string(r.Type),
		Timestamp:        r.Timestamp.UnixMilli(),
		RecordedAt:       r.Timestamp.In(a.settings.Location).Format(time.RFC3339),
		LocationCode:     r.LocationCode,
		LocationName:     r.LocationName,
		LocationLabel:    r.DisplayLocation(),
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		IsOutOfPerimeter: r.IsOutOfPerimeter,
		DistanceMeters:   r.DistanceMeters,
	}
	if r.PhotoURL != nil {
		url := a.fileService.FileURL(*r.PhotoURL)
		resp.PhotoURL = &url
	}
	return resp
}
