package schedule

import "time"

// WorkShift is a single working window inside one calendar day. Overnight shifts are not modelled:
// EndTime is always after StartTime.
type WorkShift struct {
	ID           string
	WorkspaceID  string
	Name         string
	StartTime    time.Time // only hour and minute are meaningful
	EndTime      time.Time
	BreakMinutes int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WorkedMinutes is the expected paid time of the shift.
func (s WorkShift) WorkedMinutes() int {
	minutes := int(s.EndTime.Sub(s.StartTime).Minutes()) - s.BreakMinutes
	if minutes < 0 {
		return 0
	}
	return minutes
}

// WorkSchedule is a weekly template. Days is indexed by time.Weekday (0 = Sunday);
// a nil entry is a day off.
type WorkSchedule struct {
	ID          string
	WorkspaceID string
	Name        string
	Days        [7]*string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ShiftIDs returns the distinct shift ids referenced by the schedule.
func (s WorkSchedule) ShiftIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, id := range s.Days {
		if id == nil {
			continue
		}
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	return ids
}

// Plan is a schedule resolved against its shifts.
type Plan struct {
	Schedule WorkSchedule
	Shifts   map[string]WorkShift
}

// ExpectedMinutes returns the paid minutes planned for the weekday, 0 on a day off.
func (p Plan) ExpectedMinutes(day time.Weekday) int {
	shiftID := p.Schedule.Days[day]
	if shiftID == nil {
		return 0
	}
	shift, ok := p.Shifts[*shiftID]
	if !ok {
		return 0
	}
	return shift.WorkedMinutes()
}
