package workspace

import "github.com/geopoint/geopoint-backend-go/internal/pkg/validator"

type UpdateWorkspaceRequest struct {
	Name                    *string  `json:"name,omitempty"`
	GeofenceThresholdMeters *float64 `json:"geofence_threshold_meters,omitempty"`
	StandardDailyMinutes    *int     `json:"standard_daily_minutes,omitempty"`
}

func (r *UpdateWorkspaceRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs.Add("name", "name must not be empty")
	}
	if r.GeofenceThresholdMeters != nil && (*r.GeofenceThresholdMeters <= 0 || *r.GeofenceThresholdMeters > 50000) {
		errs.Add("geofence_threshold_meters", "geofence_threshold_meters must be between 0 and 50000")
	}
	if r.StandardDailyMinutes != nil && (*r.StandardDailyMinutes <= 0 || *r.StandardDailyMinutes > 24*60) {
		errs.Add("standard_daily_minutes", "standard_daily_minutes must be between 1 and 1440")
	}

	return errs.Err()
}

type WorkspaceResponse struct {
	ID                      string  `json:"id"`
	Name                    string  `json:"name"`
	GeofenceThresholdMeters float64 `json:"geofence_threshold_meters"`
	StandardDailyMinutes    int     `json:"standard_daily_minutes"`
	CreatedAt               string  `json:"created_at"`
}
