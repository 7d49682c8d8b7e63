package attendance

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/geopoint/geopoint-backend-go/internal/pkg/geo"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/validator"
)

// MaxPhotoSize is the largest selfie accepted before compression.
const MaxPhotoSize = 10 << 20

// ========================================
// PUNCH DTOs
// ========================================

type PunchRequest struct {
	LocationCode string   `json:"location_code"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	// Photo carries the selfie as a data URI when the client posts plain JSON.
	Photo string `json:"photo,omitempty"`

	File     io.Reader `json:"-"`
	Filename string    `json:"-"`
	FileSize int64     `json:"-"`
}

func (r *PunchRequest) Validate() error {
	var errs validator.ValidationErrors

	r.LocationCode = strings.TrimSpace(r.LocationCode)
	if r.LocationCode == "" {
		r.LocationCode = ManualLocationCode
	} else if !validator.IsValidLocationCode(r.LocationCode) {
		errs.Add("location_code", "location_code may only contain letters, digits, '-' and '_'")
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs.Add("coordinates", "latitude and longitude must be sent together")
	}
	if r.Latitude != nil && !validator.IsValidLatitude(*r.Latitude) {
		errs.Add("latitude", "latitude must be between -90 and 90")
	}
	if r.Longitude != nil && !validator.IsValidLongitude(*r.Longitude) {
		errs.Add("longitude", "longitude must be between -180 and 180")
	}

	return errs.Err()
}

// IsImageFilename reports whether name carries a jpg, jpeg or png extension.
func IsImageFilename(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// Device returns the reported coordinates, nil without a GPS fix.
func (r *PunchRequest) Device() *geo.Point {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &geo.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

type TimeRecordResponse struct {
	ID               string   `json:"id"`
	EmployeeID       string   `json:"employee_id"`
	EmployeeName     string   `json:"employee_name"`
	Type             string   `json:"type"`
	Timestamp        int64    `json:"timestamp"`
	RecordedAt       string   `json:"recorded_at"`
	LocationCode     string   `json:"location_code"`
	LocationName     string   `json:"location_name"`
	LocationLabel    string   `json:"location_label"`
	PhotoURL         *string  `json:"photo_url,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	IsOutOfPerimeter bool     `json:"is_out_of_perimeter"`
	DistanceMeters   *float64 `json:"distance_meters,omitempty"`
}

type PunchResponse struct {
	Record        TimeRecordResponse `json:"record"`
	GeofenceCheck bool               `json:"geofence_checked"`
	NextPunchType string             `json:"next_punch_type"`
}

type StatusResponse struct {
	ClockedIn     bool                `json:"clocked_in"`
	NextPunchType string              `json:"next_punch_type"`
	LastRecord    *TimeRecordResponse `json:"last_record,omitempty"`
}

// ========================================
// LIST DTOs
// ========================================

type RecordFilter struct {
	EmployeeID     *string `json:"employee_id,omitempty"`
	Type           *string `json:"type,omitempty"`
	StartDate      *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate        *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	OutOfPerimeter *bool   `json:"out_of_perimeter,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *RecordFilter) Validate() error {
	var errs validator.ValidationErrors

	validatePagination(&errs, &f.Page, &f.Limit)

	if f.EmployeeID != nil && *f.EmployeeID != "" && !validator.IsValidUUID(*f.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	if f.Type != nil && *f.Type != "" {
		if !validator.IsInSlice(*f.Type, []string{string(PunchEntry), string(PunchExit)}) {
			errs.Add("type", "type must be one of: entry, exit")
		}
	}
	validateDateRange(&errs, f.StartDate, f.EndDate)

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs.Add("sort_order", "sort_order must be one of: asc, desc")
		}
	} else {
		f.SortOrder = "desc"
	}

	return errs.Err()
}

type MyRecordFilter struct {
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	Page      int     `json:"page"`
	Limit     int     `json:"limit"`
}

func (f *MyRecordFilter) Validate() error {
	var errs validator.ValidationErrors
	validatePagination(&errs, &f.Page, &f.Limit)
	validateDateRange(&errs, f.StartDate, f.EndDate)
	return errs.Err()
}

type ListRecordResponse struct {
	TotalCount int64                `json:"total_count"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
	Records    []TimeRecordResponse `json:"records"`
}

func validatePagination(errs *validator.ValidationErrors, page, limit *int) {
	if *page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if *page == 0 {
		*page = 1
	}
	if *limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if *limit == 0 {
		*limit = 20
	}
	if *limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}
}

func validateDateRange(errs *validator.ValidationErrors, start, end *string) {
	var startOK, endOK bool
	if start != nil && *start != "" {
		if _, startOK = validator.IsValidDate(*start); !startOK {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if end != nil && *end != "" {
		if _, endOK = validator.IsValidDate(*end); !endOK {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	if startOK && endOK && *end < *start {
		errs.Add("end_date", "end_date must not be before start_date")
	}
}
