package request

import "errors"

var (
	ErrRequestNotFound         = errors.New("employee request not found")
	ErrRequestAlreadyProcessed = errors.New("employee request has already been approved or rejected")
	ErrInvalidDecision         = errors.New("decision must be approved or rejected")
)
