package location

import (
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/pkg/geo"
)

// Location is a registered work unit. Its Code is printed in the unit's QR code.
type Location struct {
	ID          string
	WorkspaceID string
	Name        string
	Address     *string
	Code        string
	Latitude    *float64
	Longitude   *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Point returns the registered coordinates; nil disables geofencing for this unit.
func (l Location) Point() *geo.Point {
	if l.Latitude == nil || l.Longitude == nil {
		return nil
	}
	return &geo.Point{Latitude: *l.Latitude, Longitude: *l.Longitude}
}
