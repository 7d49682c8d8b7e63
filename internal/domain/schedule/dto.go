package schedule

import (
	"strings"

	"github.com/geopoint/geopoint-backend-go/internal/pkg/validator"
)

// ========================================
// SHIFT DTOs
// ========================================

type CreateShiftRequest struct {
	Name         string `json:"name"`
	StartTime    string `json:"start_time"` // HH:MM
	EndTime      string `json:"end_time"`   // HH:MM
	BreakMinutes int    `json:"break_minutes"`
}

func (r *CreateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		errs.Add("name", "name is required")
	}
	validateWindow(&errs, r.StartTime, r.EndTime, r.BreakMinutes)

	return errs.Err()
}

type UpdateShiftRequest struct {
	ID           string  `json:"-"`
	Name         *string `json:"name,omitempty"`
	StartTime    *string `json:"start_time,omitempty"`
	EndTime      *string `json:"end_time,omitempty"`
	BreakMinutes *int    `json:"break_minutes,omitempty"`
}

func (r *UpdateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "id must be a valid UUID")
	}
	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs.Add("name", "name must not be empty")
	}
	if r.StartTime != nil {
		if _, ok := validator.IsValidClock(*r.StartTime); !ok {
			errs.Add("start_time", "start_time must be in HH:MM format")
		}
	}
	if r.EndTime != nil {
		if _, ok := validator.IsValidClock(*r.EndTime); !ok {
			errs.Add("end_time", "end_time must be in HH:MM format")
		}
	}
	if r.BreakMinutes != nil && *r.BreakMinutes < 0 {
		errs.Add("break_minutes", "break_minutes must be a non-negative number")
	}

	return errs.Err()
}

type ShiftResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	BreakMinutes  int    `json:"break_minutes"`
	WorkedMinutes int    `json:"worked_minutes"`
}

// ========================================
// SCHEDULE DTOs
// ========================================

type CreateScheduleRequest struct {
	Name string `json:"name"`
	// Days holds one shift id per weekday, Sunday first; null is a day off.
	Days [7]*string `json:"days"`
}

func (r *CreateScheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		errs.Add("name", "name is required")
	}
	validateDays(&errs, r.Days)

	return errs.Err()
}

type UpdateScheduleRequest struct {
	ID   string      `json:"-"`
	Name *string     `json:"name,omitempty"`
	Days *[7]*string `json:"days,omitempty"`
}

func (r *UpdateScheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "id must be a valid UUID")
	}
	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs.Add("name", "name must not be empty")
	}
	if r.Days != nil {
		validateDays(&errs, *r.Days)
	}

	return errs.Err()
}

type ScheduleResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Days           [7]*string      `json:"days"`
	Shifts         []ShiftResponse `json:"shifts"`
	WeeklyMinutes  int             `json:"weekly_minutes"`
	ExpectedByDays [7]int          `json:"expected_minutes_by_day"`
}

func validateWindow(errs *validator.ValidationErrors, start, end string, breakMinutes int) {
	startAt, startOK := validator.IsValidClock(start)
	if !startOK {
		errs.Add("start_time", "start_time must be in HH:MM format")
	}
	endAt, endOK := validator.IsValidClock(end)
	if !endOK {
		errs.Add("end_time", "end_time must be in HH:MM format")
	}
	if breakMinutes < 0 {
		errs.Add("break_minutes", "break_minutes must be a non-negative number")
	}
	if !startOK || !endOK {
		return
	}
	if !endAt.After(startAt) {
		errs.Add("end_time", "end_time must be after start_time on the same day")
		return
	}
	if breakMinutes >= int(endAt.Sub(startAt).Minutes()) {
		errs.Add("break_minutes", "break_minutes must be shorter than the shift")
	}
}

func validateDays(errs *validator.ValidationErrors, days [7]*string) {
	for _, id := range days {
		if id != nil && !validator.IsValidUUID(*id) {
			errs.Add("days", "every day must be null or a valid shift id")
			return
		}
	}
}
