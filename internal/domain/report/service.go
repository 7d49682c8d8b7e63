package report

import "context"

type ReportService interface {
	// Overtime aggregates the caller's workspace punches over the requested period
	Overtime(ctx context.Context, req OvertimeReportRequest) (OvertimeReportResponse, error)

	// ExportOvertime renders the same report as an xlsx workbook
	ExportOvertime(ctx context.Context, req OvertimeReportRequest) (ExportFile, error)

	// Warm recomputes and caches a report for a workspace outside any request
	Warm(ctx context.Context, workspaceID string, req OvertimeReportRequest) error

	CacheInvalidator
}

// CacheInvalidator drops cached reports after punches change the underlying data.
type CacheInvalidator interface {
	InvalidateWorkspace(ctx context.Context, workspaceID string) error
}
