package report

import (
	"sort"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/attendance"
	"github.com/geopoint/geopoint-backend-go/internal/domain/report"
)

type bucketKey struct {
	day        string
	employeeID string
}

type bucket struct {
	key      bucketKey
	date     time.Time
	name     string
	unit     string
	minEntry time.Time
	maxExit  time.Time
	hasEntry bool
	hasExit  bool
}

// Aggregate pairs each employee's first entry and last exit per local calendar day and
// totals worked and extra minutes. Buckets that cannot be paired are reported as anomalies
// and contribute nothing. The result depends only on the input.
func Aggregate(records []attendance.TimeRecord, opts report.Options) report.OvertimeSummary {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	standard := opts.StandardDailyMinutes
	if standard <= 0 {
		standard = report.DefaultStandardDailyMinutes
	}

	buckets := make(map[bucketKey]*bucket)
	var order []*bucket

	for _, r := range records {
		local := r.Timestamp.In(loc)
		key := bucketKey{day: local.Format("2006-01-02"), employeeID: r.EmployeeID}

		b, ok := buckets[key]
		if !ok {
			b = &bucket{
				key:  key,
				date: time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc),
				name: r.EmployeeName,
				unit: r.LocationName,
			}
			buckets[key] = b
			order = append(order, b)
		}
		if b.name == "" {
			b.name = r.EmployeeName
		}

		switch r.Type {
		case attendance.PunchEntry:
			if !b.hasEntry || r.Timestamp.Before(b.minEntry) {
				b.minEntry = r.Timestamp
				b.hasEntry = true
				b.unit = r.LocationName
			}
		case attendance.PunchExit:
			if !b.hasExit || r.Timestamp.After(b.maxExit) {
				b.maxExit = r.Timestamp
				b.hasExit = true
			}
		}
	}

	summary := report.OvertimeSummary{
		Employees: []report.EmployeeOvertime{},
		Units:     []report.UnitOvertime{},
		Days:      []report.DayResult{},
		Anomalies: []report.Anomaly{},
	}
	employeeIdx := make(map[string]int)
	unitIdx := make(map[string]int)

	for _, b := range order {
		anomaly := report.Anomaly{
			Day:          b.key.day,
			EmployeeID:   b.key.employeeID,
			EmployeeName: b.name,
			Unit:         b.unit,
		}
		switch {
		case !b.hasExit:
			anomaly.Kind = report.AnomalyMissingExit
			summary.Anomalies = append(summary.Anomalies, anomaly)
			continue
		case !b.hasEntry:
			anomaly.Kind = report.AnomalyMissingEntry
			summary.Anomalies = append(summary.Anomalies, anomaly)
			continue
		case b.maxExit.Before(b.minEntry):
			anomaly.Kind = report.AnomalyExitBeforeEntry
			summary.Anomalies = append(summary.Anomalies, anomaly)
			continue
		}

		worked := int(b.maxExit.Sub(b.minEntry) / time.Minute)
		baseline := standard
		if opts.Baseline != nil {
			if minutes, ok := opts.Baseline(b.key.employeeID, b.date); ok {
				baseline = minutes
			}
		}
		extra := max(0, worked-baseline)

		summary.Days = append(summary.Days, report.DayResult{
			Day:             b.key.day,
			EmployeeID:      b.key.employeeID,
			EmployeeName:    b.name,
			Unit:            b.unit,
			FirstEntry:      b.minEntry,
			LastExit:        b.maxExit,
			WorkedMinutes:   worked,
			BaselineMinutes: baseline,
			ExtraMinutes:    extra,
		})

		i, ok := employeeIdx[b.key.employeeID]
		if !ok {
			i = len(summary.Employees)
			employeeIdx[b.key.employeeID] = i
			summary.Employees = append(summary.Employees, report.EmployeeOvertime{
				EmployeeID:   b.key.employeeID,
				EmployeeName: b.name,
			})
		}
		e := &summary.Employees[i]
		if e.EmployeeName == "" {
			e.EmployeeName = b.name
		}
		e.WorkedMinutes += worked
		e.ExtraMinutes += extra
		e.DaysWorked++

		j, ok := unitIdx[b.unit]
		if !ok {
			j = len(summary.Units)
			unitIdx[b.unit] = j
			summary.Units = append(summary.Units, report.UnitOvertime{Unit: b.unit})
		}
		summary.Units[j].ExtraMinutes += extra
	}

	sort.SliceStable(summary.Employees, func(a, b int) bool {
		return summary.Employees[a].ExtraMinutes > summary.Employees[b].ExtraMinutes
	})
	sort.SliceStable(summary.Units, func(a, b int) bool {
		return summary.Units[a].ExtraMinutes > summary.Units[b].ExtraMinutes
	})
	sort.SliceStable(summary.Days, func(a, b int) bool {
		return summary.Days[a].Day < summary.Days[b].Day
	})
	sort.SliceStable(summary.Anomalies, func(a, b int) bool {
		return summary.Anomalies[a].Day < summary.Anomalies[b].Day
	})

	return summary
}
