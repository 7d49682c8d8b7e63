package report

import (
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// OVERTIME REPORT
// ========================================

type BaselineMode string

const (
	BaselineStandard BaselineMode = "standard" // fixed daily minutes
	BaselineSchedule BaselineMode = "schedule" // each employee's work schedule, standard when unassigned
)

type OvertimeReportRequest struct {
	StartDate string       `json:"start_date"` // YYYY-MM-DD, inclusive
	EndDate   string       `json:"end_date"`   // YYYY-MM-DD, inclusive
	Baseline  BaselineMode `json:"baseline"`
}

func (r *OvertimeReportRequest) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if startOK && endOK {
		if end.Before(start) {
			errs.Add("end_date", "end_date must not be before start_date")
		} else if end.Sub(start) > 365*24*time.Hour {
			errs.Add("end_date", ErrPeriodTooLong.Error())
		}
	}

	if r.Baseline == "" {
		r.Baseline = BaselineStandard
	} else if r.Baseline != BaselineStandard && r.Baseline != BaselineSchedule {
		errs.Add("baseline", "baseline must be one of: standard, schedule")
	}

	return errs.Err()
}

// Range returns the half-open instant range [start 00:00, day after end 00:00) in loc.
func (r OvertimeReportRequest) Range(loc *time.Location) (from, to time.Time, err error) {
	start, err := time.ParseInLocation("2006-01-02", r.StartDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	end, err := time.ParseInLocation("2006-01-02", r.EndDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	return start, end.AddDate(0, 0, 1), nil
}

type OvertimeReportResponse struct {
	WorkspaceID          string `json:"workspace_id"`
	StartDate            string `json:"start_date"`
	EndDate              string `json:"end_date"`
	Baseline             string `json:"baseline"`
	StandardDailyMinutes int    `json:"standard_daily_minutes"`
	GeneratedAt          string `json:"generated_at"`

	TotalWorkedMinutes int             `json:"total_worked_minutes"`
	TotalExtraMinutes  int             `json:"total_extra_minutes"`
	TotalExtraHours    decimal.Decimal `json:"total_extra_hours"`

	Employees []EmployeeOvertimeResponse `json:"employees"`
	Units     []UnitOvertimeResponse     `json:"units"`
	Days      []DayResponse              `json:"days"`
	Anomalies []AnomalyResponse          `json:"anomalies"`
}

type EmployeeOvertimeResponse struct {
	EmployeeID    string          `json:"employee_id"`
	EmployeeName  string          `json:"employee_name"`
	DaysWorked    int             `json:"days_worked"`
	WorkedMinutes int             `json:"worked_minutes"`
	ExtraMinutes  int             `json:"extra_minutes"`
	WorkedHours   decimal.Decimal `json:"worked_hours"`
	ExtraHours    decimal.Decimal `json:"extra_hours"`
}

type UnitOvertimeResponse struct {
	Unit         string          `json:"unit"`
	ExtraMinutes int             `json:"extra_minutes"`
	ExtraHours   decimal.Decimal `json:"extra_hours"`
}

type DayResponse struct {
	Day             string `json:"day"`
	EmployeeID      string `json:"employee_id"`
	EmployeeName    string `json:"employee_name"`
	Unit            string `json:"unit"`
	FirstEntry      string `json:"first_entry"`
	LastExit        string `json:"last_exit"`
	WorkedMinutes   int    `json:"worked_minutes"`
	BaselineMinutes int    `json:"baseline_minutes"`
	ExtraMinutes    int    `json:"extra_minutes"`
}

type AnomalyResponse struct {
	Kind         string `json:"kind"`
	Day          string `json:"day"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Unit         string `json:"unit,omitempty"`
}

// ExportFile is a rendered report ready to be written to the response.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Hours converts minutes to decimal hours rounded to two places.
func Hours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2)
}
