package workspace

import "time"

// Workspace is the tenant. Every record, location, request and user belongs to exactly one.
type Workspace struct {
	ID   string
	Name string
	// Optional overrides of the service-wide attendance rules
	GeofenceThresholdMeters *float64
	StandardDailyMinutes    *int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Rules resolves the attendance rules against the service defaults.
func (w Workspace) Rules(defaultThreshold float64, defaultDailyMinutes int) (threshold float64, dailyMinutes int) {
	threshold, dailyMinutes = defaultThreshold, defaultDailyMinutes
	if w.GeofenceThresholdMeters != nil && *w.GeofenceThresholdMeters > 0 {
		threshold = *w.GeofenceThresholdMeters
	}
	if w.StandardDailyMinutes != nil && *w.StandardDailyMinutes > 0 {
		dailyMinutes = *w.StandardDailyMinutes
	}
	return threshold, dailyMinutes
}
