package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/notification"
	"github.com/geopoint/geopoint-backend-go/internal/domain/request"
	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/events"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"github.com/geopoint/geopoint-backend-go/internal/service/file"
)

type RequestServiceImpl struct {
	request.RequestRepository
	users         user.UserRepository
	files         file.FileService
	notifications notification.Service
	publisher     events.Publisher
	now           func() time.Time
}

func NewRequestService(
	requestRepository request.RequestRepository,
	userRepository user.UserRepository,
	fileService file.FileService,
	notificationService notification.Service,
	publisher events.Publisher,
) request.RequestService {
	return &RequestServiceImpl{
		RequestRepository: requestRepository,
		users:             userRepository,
		files:             fileService,
		notifications:     notificationService,
		publisher:         publisher,
		now:               time.Now,
	}
}

// Create implements request.RequestService.
func (s *RequestServiceImpl) Create(ctx context.Context, req request.CreateRequestRequest) (request.RequestResponse, error) {
	if err := req.Validate(); err != nil {
		return request.RequestResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return request.RequestResponse{}, err
	}

	date, _ := time.Parse("2006-01-02", req.Date)
	newRequest := request.EmployeeRequest{
		WorkspaceID: claims.WorkspaceID,
		UserID:      claims.UserID,
		UserName:    claims.Name,
		Type:        req.Type,
		Date:        date,
		Description: req.Description,
		Status:      request.StatusPending,
	}

	if req.File != nil {
		key, err := s.files.UploadRequestAttachment(ctx, claims.WorkspaceID, claims.UserID, req.File, req.Filename)
		if err != nil {
			return request.RequestResponse{}, err
		}
		newRequest.AttachmentURL = &key
	}

	created, err := s.RequestRepository.Create(ctx, newRequest)
	if err != nil {
		if newRequest.AttachmentURL != nil {
			if delErr := s.files.DeleteFile(ctx, *newRequest.AttachmentURL); delErr != nil {
				slog.WarnContext(ctx, "failed to remove orphaned attachment", "key", *newRequest.AttachmentURL, "error", delErr)
			}
		}
		return request.RequestResponse{}, fmt.Errorf("failed to create employee request: %w", err)
	}
	if created.UserName == "" {
		created.UserName = claims.Name
	}

	s.publish(ctx, events.TypeRequestCreated, created)
	s.notifyAdmins(ctx, created)

	return s.toResponse(created), nil
}

// ListMine implements request.RequestService.
func (s *RequestServiceImpl) ListMine(ctx context.Context, filter request.RequestFilter) (request.ListRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return request.ListRequestResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return request.ListRequestResponse{}, err
	}
	filter.UserID = &claims.UserID
	return s.list(ctx, filter, claims.WorkspaceID)
}

// List implements request.RequestService.
func (s *RequestServiceImpl) List(ctx context.Context, filter request.RequestFilter) (request.ListRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return request.ListRequestResponse{}, err
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return request.ListRequestResponse{}, err
	}
	return s.list(ctx, filter, claims.WorkspaceID)
}

// Approve implements request.RequestService.
func (s *RequestServiceImpl) Approve(ctx context.Context, id string) (request.RequestResponse, error) {
	return s.decide(ctx, id, request.StatusApproved)
}

// Reject implements request.RequestService.
func (s *RequestServiceImpl) Reject(ctx context.Context, id string) (request.RequestResponse, error) {
	return s.decide(ctx, id, request.StatusRejected)
}

func (s *RequestServiceImpl) list(ctx context.Context, filter request.RequestFilter, workspaceID string) (request.ListRequestResponse, error) {
	requests, total, err := s.RequestRepository.List(ctx, filter, workspaceID)
	if err != nil {
		return request.ListRequestResponse{}, fmt.Errorf("failed to list employee requests: %w", err)
	}

	resp := request.ListRequestResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Requests:   make([]request.RequestResponse, 0, len(requests)),
	}
	for _, r := range requests {
		resp.Requests = append(resp.Requests, s.toResponse(r))
	}
	return resp, nil
}

func (s *RequestServiceImpl) decide(ctx context.Context, id string, status request.Status) (request.RequestResponse, error) {
	if status != request.StatusApproved && status != request.StatusRejected {
		return request.RequestResponse{}, request.ErrInvalidDecision
	}
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return request.RequestResponse{}, err
	}

	decided, err := s.RequestRepository.Decide(ctx, id, claims.WorkspaceID, status, claims.UserID, s.now())
	if err != nil {
		if errors.Is(err, request.ErrRequestNotFound) || errors.Is(err, request.ErrRequestAlreadyProcessed) {
			return request.RequestResponse{}, err
		}
		return request.RequestResponse{}, fmt.Errorf("failed to decide employee request: %w", err)
	}

	s.publish(ctx, events.TypeRequestDecided, decided)

	reviewer := claims.UserID
	if err := s.notifications.QueueNotification(ctx, notification.CreateNotificationRequest{
		WorkspaceID: decided.WorkspaceID,
		RecipientID: decided.UserID,
		SenderID:    &reviewer,
		Type:        notification.TypeRequestDecided,
		Title:       "Request " + string(decided.Status),
		Message:     fmt.Sprintf("Your %s request for %s was %s", decided.Type, decided.Date.Format("2006-01-02"), decided.Status),
		Data:        map[string]any{"request_id": decided.ID, "status": string(decided.Status)},
	}); err != nil {
		slog.WarnContext(ctx, "failed to queue decision notification", "request_id", decided.ID, "error", err)
	}

	return s.toResponse(decided), nil
}

func (s *RequestServiceImpl) notifyAdmins(ctx context.Context, r request.EmployeeRequest) {
	adminIDs, err := s.users.ListAdminIDs(ctx, r.WorkspaceID)
	if err != nil {
		slog.WarnContext(ctx, "failed to list admins for request notification", "request_id", r.ID, "error", err)
		return
	}

	sender := r.UserID
	reqs := make([]notification.CreateNotificationRequest, 0, len(adminIDs))
	for _, adminID := range adminIDs {
		if adminID == r.UserID {
			continue
		}
		reqs = append(reqs, notification.CreateNotificationRequest{
			WorkspaceID: r.WorkspaceID,
			RecipientID: adminID,
			SenderID:    &sender,
			Type:        notification.TypeRequestCreated,
			Title:       "New request",
			Message:     fmt.Sprintf("%s submitted a %s request for %s", r.UserName, r.Type, r.Date.Format("2006-01-02")),
			Data:        map[string]any{"request_id": r.ID, "user_id": r.UserID},
		})
	}
	if len(reqs) == 0 {
		return
	}
	if err := s.notifications.QueueBulkNotification(ctx, reqs); err != nil {
		slog.WarnContext(ctx, "failed to queue request notifications", "request_id", r.ID, "error", err)
	}
}

func (s *RequestServiceImpl) publish(ctx context.Context, eventType string, r request.EmployeeRequest) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:          eventType,
		WorkspaceID:   r.WorkspaceID,
		AggregateType: events.AggregateRequest,
		AggregateID:   r.ID,
		OccurredAt:    s.now(),
		Payload:       s.toResponse(r),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish request event", "event_type", eventType, "request_id", r.ID, "error", err)
	}
}

func (s *RequestServiceImpl) toResponse(r request.EmployeeRequest) request.RequestResponse {
	resp := request.RequestResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		UserName:    r.UserName,
		Type:        r.Type,
		Date:        r.Date.Format("2006-01-02"),
		Description: r.Description,
		Status:      string(r.Status),
		ReviewedBy:  r.ReviewedBy,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.AttachmentURL != nil {
		url := s.files.FileURL(*r.AttachmentURL)
		resp.AttachmentURL = &url
	}
	if r.ReviewedAt != nil {
		at := r.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &at
	}
	return resp
}
