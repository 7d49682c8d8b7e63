package attendance

import (
	"context"
)

// AttendanceService defines the punch flow and record queries
type AttendanceService interface {
	// Punch infers entry/exit, evaluates the geofence and stores the record for the caller
	Punch(ctx context.Context, req PunchRequest) (PunchResponse, error)

	// GetStatus returns the caller's last punch and what the next one will be
	GetStatus(ctx context.Context) (StatusResponse, error)

	GetMyRecords(ctx context.Context, filter MyRecordFilter) (ListRecordResponse, error)

	// ListRecords lists workspace punches (admin)
	ListRecords(ctx context.Context, filter RecordFilter) (ListRecordResponse, error)

	// DeleteRecord removes a punch (admin)
	DeleteRecord(ctx context.Context, id string) error
}
