package location

import (
	"strings"

	"github.com/geopoint/geopoint-backend-go/internal/domain/attendance"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/validator"
)

type CreateLocationRequest struct {
	Name      string   `json:"name"`
	Address   *string  `json:"address,omitempty"`
	Code      string   `json:"code"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (r *CreateLocationRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	r.Code = strings.TrimSpace(r.Code)

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	} else if len(r.Name) > 120 {
		errs.Add("name", "name must not exceed 120 characters")
	}
	validateCode(&errs, r.Code)
	validateCoordinates(&errs, r.Latitude, r.Longitude)

	return errs.Err()
}

type UpdateLocationRequest struct {
	ID        string   `json:"-"`
	Name      *string  `json:"name,omitempty"`
	Address   *string  `json:"address,omitempty"`
	Code      *string  `json:"code,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	// ClearCoordinates removes the registered position, turning geofencing off for the unit.
	ClearCoordinates bool `json:"clear_coordinates,omitempty"`
}

func (r *UpdateLocationRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "id must be a valid UUID")
	}
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
		if trimmed == "" {
			errs.Add("name", "name must not be empty")
		}
	}
	if r.Code != nil {
		trimmed := strings.TrimSpace(*r.Code)
		r.Code = &trimmed
		validateCode(&errs, trimmed)
	}
	if r.ClearCoordinates && (r.Latitude != nil || r.Longitude != nil) {
		errs.Add("clear_coordinates", "clear_coordinates cannot be combined with latitude/longitude")
	}
	validateCoordinates(&errs, r.Latitude, r.Longitude)

	return errs.Err()
}

type LocationResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     *string  `json:"address,omitempty"`
	Code        string   `json:"code"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	HasGeofence bool     `json:"has_geofence"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func validateCode(errs *validator.ValidationErrors, code string) {
	switch {
	case validator.IsEmpty(code):
		errs.Add("code", "code is required")
	case strings.EqualFold(code, attendance.ManualLocationCode):
		errs.Add("code", "code "+attendance.ManualLocationCode+" is reserved")
	case !validator.IsValidLocationCode(code):
		errs.Add("code", "code may only contain letters, digits, '-' and '_' (2 to 64 characters)")
	}
}

func validateCoordinates(errs *validator.ValidationErrors, lat, lon *float64) {
	if (lat == nil) != (lon == nil) {
		errs.Add("coordinates", "latitude and longitude must be sent together")
		return
	}
	if lat != nil && !validator.IsValidLatitude(*lat) {
		errs.Add("latitude", "latitude must be between -90 and 90")
	}
	if lon != nil && !validator.IsValidLongitude(*lon) {
		errs.Add("longitude", "longitude must be between -180 and 180")
	}
}
