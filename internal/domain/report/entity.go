package report

import "time"

// DefaultStandardDailyMinutes is the 8-hour baseline used when no other is configured.
const DefaultStandardDailyMinutes = 480

// BaselineFunc returns the planned minutes for an employee on a local calendar day.
// ok=false falls back to the standard daily minutes.
type BaselineFunc func(employeeID string, day time.Time) (minutes int, ok bool)

// Options configures overtime aggregation.
type Options struct {
	// Location defines calendar days; nil means UTC
	Location             *time.Location
	StandardDailyMinutes int
	Baseline             BaselineFunc
}

type AnomalyKind string

const (
	AnomalyExitBeforeEntry AnomalyKind = "exit_before_entry"
	AnomalyMissingExit     AnomalyKind = "missing_exit"
	AnomalyMissingEntry    AnomalyKind = "missing_entry"
)

// Anomaly marks a (day, employee) bucket that contributed nothing to the totals.
type Anomaly struct {
	Kind         AnomalyKind
	Day          string
	EmployeeID   string
	EmployeeName string
	Unit         string
}

// DayResult is one paired (day, employee) bucket.
type DayResult struct {
	Day             string
	EmployeeID      string
	EmployeeName    string
	Unit            string
	FirstEntry      time.Time
	LastExit        time.Time
	WorkedMinutes   int
	BaselineMinutes int
	ExtraMinutes    int
}

type EmployeeOvertime struct {
	EmployeeID    string
	EmployeeName  string
	WorkedMinutes int
	ExtraMinutes  int
	DaysWorked    int
}

type UnitOvertime struct {
	Unit         string
	ExtraMinutes int
}

// OvertimeSummary is the aggregation result. Employees and Units are sorted by extra minutes,
// highest first; ties keep first-seen order.
type OvertimeSummary struct {
	Employees []EmployeeOvertime
	Units     []UnitOvertime
	Days      []DayResult
	Anomalies []Anomaly
}

// TotalExtraMinutes sums the overtime of every employee.
func (s OvertimeSummary) TotalExtraMinutes() int {
	total := 0
	for _, e := range s.Employees {
		total += e.ExtraMinutes
	}
	return total
}
