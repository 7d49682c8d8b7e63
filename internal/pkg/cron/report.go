package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/report"
	"golang.org/x/sync/errgroup"
)

type activeWorkspaceLister interface {
	ListActiveWorkspaces(ctx context.Context, since time.Time) ([]string, error)
}

type reportWarmer interface {
	Warm(ctx context.Context, workspaceID string, req report.OvertimeReportRequest) error
}

// ReportJobs keeps the current month's overtime report warm in the cache
type ReportJobs struct {
	records     activeWorkspaceLister
	reports     reportWarmer
	loc         *time.Location
	now         func() time.Time
	concurrency int
}

func NewReportJobs(records activeWorkspaceLister, reports reportWarmer, loc *time.Location) *ReportJobs {
	return &ReportJobs{
		records:     records,
		reports:     reports,
		loc:         loc,
		now:         time.Now,
		concurrency: 4,
	}
}

func (j *ReportJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("refresh_monthly_overtime", time.Hour, j.RefreshCurrentMonth)
}

// RefreshCurrentMonth warms month-to-date reports of workspaces that punched this month.
func (j *ReportJobs) RefreshCurrentMonth(ctx context.Context) error {
	now := j.now().In(j.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, j.loc)

	workspaces, err := j.records.ListActiveWorkspaces(ctx, monthStart)
	if err != nil {
		return fmt.Errorf("failed to list active workspaces: %w", err)
	}
	if len(workspaces) == 0 {
		slog.Info("Cron: No active workspaces this month")
		return nil
	}

	req := report.OvertimeReportRequest{
		StartDate: monthStart.Format("2006-01-02"),
		EndDate:   now.Format("2006-01-02"),
		Baseline:  report.BaselineStandard,
	}

	var failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(j.concurrency)
	for _, ws := range workspaces {
		g.Go(func() error {
			if err := j.reports.Warm(ctx, ws, req); err != nil {
				failed.Add(1)
				slog.Error("Cron: Failed to warm overtime report", "workspace_id", ws, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("Cron: Overtime reports refreshed",
		"workspaces", len(workspaces),
		"failed", failed.Load(),
		"start_date", req.StartDate,
		"end_date", req.EndDate,
	)
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("failed to refresh %d of %d workspaces", n, len(workspaces))
	}
	return nil
}
