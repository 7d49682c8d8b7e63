package request

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// EmployeeRequest is a justification or document submitted by an employee: a medical certificate,
// a manual-punch correction, a vacation request. Type is free text chosen by the app.
type EmployeeRequest struct {
	ID            string
	WorkspaceID   string
	UserID        string
	UserName      string
	Type          string
	Date          time.Time
	Description   string
	AttachmentURL *string
	Status        Status
	ReviewedBy    *string
	ReviewedAt    *time.Time
	CreatedAt     time.Time
}

// IsPending reports whether the request can still be decided.
func (r EmployeeRequest) IsPending() bool {
	return r.Status == StatusPending
}
