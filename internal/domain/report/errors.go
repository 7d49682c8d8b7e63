package report

import "errors"

var (
	ErrInvalidPeriod = errors.New("invalid report period")
	ErrPeriodTooLong = errors.New("report period must not exceed 366 days")
	ErrExportFailed  = errors.New("failed to build report export")
)
