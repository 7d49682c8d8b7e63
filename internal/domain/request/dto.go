package request

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/geopoint/geopoint-backend-go/internal/pkg/validator"
)

// MaxAttachmentSize is the largest document accepted with a request.
const MaxAttachmentSize = 10 << 20

var allowedAttachmentExts = []string{".pdf", ".jpg", ".jpeg", ".png"}

type CreateRequestRequest struct {
	Type        string `json:"type"`
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description"`

	File     io.Reader `json:"-"`
	Filename string    `json:"-"`
	FileSize int64     `json:"-"`
}

func (r *CreateRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Type = strings.TrimSpace(r.Type)
	if r.Type == "" {
		errs.Add("type", "type is required")
	} else if len(r.Type) > 60 {
		errs.Add("type", "type must not exceed 60 characters")
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	}
	if len(r.Description) > 2000 {
		errs.Add("description", "description must not exceed 2000 characters")
	}
	if r.File != nil {
		ext := strings.ToLower(filepath.Ext(r.Filename))
		if !validator.IsInSlice(ext, allowedAttachmentExts) {
			errs.Add("attachment", "invalid file type: only pdf, jpg, jpeg, png allowed")
		} else if r.FileSize > MaxAttachmentSize {
			errs.Add("attachment", "attachment size must not exceed 10MB")
		}
	}

	return errs.Err()
}

type RequestFilter struct {
	Status *string `json:"status,omitempty"`
	UserID *string `json:"user_id,omitempty"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

func (f *RequestFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 || f.Limit > 100 {
		errs.Add("limit", "limit must be between 1 and 100")
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Status != nil && *f.Status != "" {
		valid := []string{string(StatusPending), string(StatusApproved), string(StatusRejected)}
		if !validator.IsInSlice(*f.Status, valid) {
			errs.Add("status", "status must be one of: pending, approved, rejected")
		}
	}
	if f.UserID != nil && *f.UserID != "" && !validator.IsValidUUID(*f.UserID) {
		errs.Add("user_id", "user_id must be a valid UUID")
	}

	return errs.Err()
}

type RequestResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	UserName      string  `json:"user_name"`
	Type          string  `json:"type"`
	Date          string  `json:"date"`
	Description   string  `json:"description"`
	AttachmentURL *string `json:"attachment_url,omitempty"`
	Status        string  `json:"status"`
	ReviewedBy    *string `json:"reviewed_by,omitempty"`
	ReviewedAt    *string `json:"reviewed_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type ListRequestResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Requests   []RequestResponse `json:"requests"`
}
