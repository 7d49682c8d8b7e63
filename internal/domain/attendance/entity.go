package attendance

import (
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/pkg/geo"
)

type PunchType string

const (
	PunchEntry PunchType = "entry"
	PunchExit  PunchType = "exit"
)

// ManualLocationCode is sent by the app when the employee punches without scanning a unit QR code.
// It never matches a registered location, so the geofence is skipped for it.
const ManualLocationCode = "MANUAL-APP"

// TimeRecord is one punch. It is written once and never updated.
type TimeRecord struct {
	ID               string
	WorkspaceID      string
	EmployeeID       string
	EmployeeName     string
	Type             PunchType
	Timestamp        time.Time
	LocationCode     string
	LocationName     string
	PhotoURL         *string
	Latitude         *float64
	Longitude        *float64
	IsOutOfPerimeter bool
	DistanceMeters   *float64
	CreatedAt        time.Time
}

// Device returns the coordinates the device reported, or nil without a GPS fix.
func (r TimeRecord) Device() *geo.Point {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &geo.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

// DisplayLocation is the unit name shown in lists, with the out-of-perimeter marker when flagged.
func (r TimeRecord) DisplayLocation() string {
	return PerimeterLabel(r.LocationName, r.IsOutOfPerimeter, r.DistanceMeters)
}
