package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/attendance"
	"github.com/geopoint/geopoint-backend-go/internal/domain/report"
	"github.com/geopoint/geopoint-backend-go/internal/domain/schedule"
	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/domain/workspace"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/cache"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeyPrefix   = "reports:overtime:"
	versionKeyPrefix = "reports:version:"

	// computeTimeout bounds a shared computation once it no longer follows any caller
	computeTimeout = 30 * time.Second
)

type planner interface {
	Plans(ctx context.Context, workspaceID string) (map[string]schedule.Plan, error)
}

// Settings are the service-wide report rules. Workspaces may override the daily minutes.
type Settings struct {
	Location             *time.Location
	StandardDailyMinutes int
	CacheTTL             time.Duration
}

type ReportServiceImpl struct {
	records    attendance.TimeRecordRepository
	users      user.UserRepository
	workspaces workspace.WorkspaceRepository
	planner    planner

	// rdb is nil when Redis is not configured; reports are then computed on every call
	rdb      *redis.Client
	versions *cache.Versioner
	sf       singleflight.Group

	settings Settings
	now      func() time.Time
}

func NewReportService(
	records attendance.TimeRecordRepository,
	users user.UserRepository,
	workspaces workspace.WorkspaceRepository,
	planner planner,
	rdb *redis.Client,
	settings Settings,
) report.ReportService {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	s := &ReportServiceImpl{
		records:    records,
		users:      users,
		workspaces: workspaces,
		planner:    planner,
		rdb:        rdb,
		settings:   settings,
		now:        time.Now,
	}
	if rdb != nil {
		s.versions = cache.NewVersioner(rdb, versionKeyPrefix)
	}
	return s
}

// Overtime implements report.ReportService.
func (s *ReportServiceImpl) Overtime(ctx context.Context, req report.OvertimeReportRequest) (report.OvertimeReportResponse, error) {
	if err := req.Validate(); err != nil {
		return report.OvertimeReportResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return report.OvertimeReportResponse{}, err
	}

	return s.overtime(ctx, claims.WorkspaceID, req)
}

// ExportOvertime implements report.ReportService.
func (s *ReportServiceImpl) ExportOvertime(ctx context.Context, req report.OvertimeReportRequest) (report.ExportFile, error) {
	resp, err := s.Overtime(ctx, req)
	if err != nil {
		return report.ExportFile{}, err
	}
	return renderWorkbook(resp)
}

// Warm implements report.ReportService.
func (s *ReportServiceImpl) Warm(ctx context.Context, workspaceID string, req report.OvertimeReportRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	key, cacheable := s.cacheKey(ctx, workspaceID, req)
	if !cacheable {
		return nil
	}

	resp, err := s.compute(ctx, workspaceID, req)
	if err != nil {
		return err
	}
	if err := cache.SetJSON(ctx, s.rdb, key, resp, s.settings.CacheTTL); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

// InvalidateWorkspace implements report.CacheInvalidator.
func (s *ReportServiceImpl) InvalidateWorkspace(ctx context.Context, workspaceID string) error {
	return bumpVersion(ctx, s.versions, workspaceID)
}

type cacheInvalidator struct {
	versions *cache.Versioner
}

// NewCacheInvalidator bumps the same workspace version the report service reads, for
// services that change report inputs but are built before the report service.
func NewCacheInvalidator(rdb *redis.Client) report.CacheInvalidator {
	inv := cacheInvalidator{}
	if rdb != nil {
		inv.versions = cache.NewVersioner(rdb, versionKeyPrefix)
	}
	return inv
}

func (c cacheInvalidator) InvalidateWorkspace(ctx context.Context, workspaceID string) error {
	return bumpVersion(ctx, c.versions, workspaceID)
}

func bumpVersion(ctx context.Context, versions *cache.Versioner, workspaceID string) error {
	if versions == nil {
		return nil
	}
	if err := versions.Bump(ctx, workspaceID); err != nil {
		return fmt.Errorf("failed to invalidate reports: %w", err)
	}
	return nil
}

func (s *ReportServiceImpl) overtime(ctx context.Context, workspaceID string, req report.OvertimeReportRequest) (report.OvertimeReportResponse, error) {
	key, cacheable := s.cacheKey(ctx, workspaceID, req)
	if cacheable {
		var cached report.OvertimeReportResponse
		found, err := cache.GetJSON(ctx, s.rdb, key, &cached)
		if err != nil {
			slog.Warn("report cache read failed", "key", key, "error", err)
		} else if found {
			return cached, nil
		}
	}

	flightKey := key
	if !cacheable {
		flightKey = fmt.Sprintf("%s:%s:%s:%s", workspaceID, req.StartDate, req.EndDate, req.Baseline)
	}

	v, err, _ := s.sf.Do(flightKey, func() (any, error) {
		// every waiter shares this result, so the first caller leaving must not cancel it
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()

		resp, err := s.compute(fctx, workspaceID, req)
		if err != nil {
			return nil, err
		}
		if cacheable {
			if err := cache.SetJSON(fctx, s.rdb, key, resp, s.settings.CacheTTL); err != nil {
				slog.Warn("report cache write failed", "key", key, "error", err)
			}
		}
		return resp, nil
	})
	if err != nil {
		return report.OvertimeReportResponse{}, err
	}
	return v.(report.OvertimeReportResponse), nil
}

// cacheKey embeds the workspace version so a punch invalidates every cached range at once.
func (s *ReportServiceImpl) cacheKey(ctx context.Context, workspaceID string, req report.OvertimeReportRequest) (string, bool) {
	if s.versions == nil {
		return "", false
	}
	version, err := s.versions.Current(ctx, workspaceID)
	if err != nil {
		slog.Warn("report cache version unavailable", "workspace_id", workspaceID, "error", err)
		return "", false
	}
	return fmt.Sprintf("%s%s:v%d:%s:%s:%s", cacheKeyPrefix, workspaceID, version, req.StartDate, req.EndDate, req.Baseline), true
}

func (s *ReportServiceImpl) compute(ctx context.Context, workspaceID string, req report.OvertimeReportRequest) (report.OvertimeReportResponse, error) {
	from, to, err := req.Range(s.settings.Location)
	if err != nil {
		return report.OvertimeReportResponse{}, err
	}

	var (
		records     []attendance.TimeRecord
		ws          workspace.Workspace
		plans       map[string]schedule.Plan
		assignments map[string]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.records.ListBetween(gctx, workspaceID, from, to)
		if err != nil {
			return fmt.Errorf("failed to list time records: %w", err)
		}
		records = r
		return nil
	})
	g.Go(func() error {
		w, err := s.workspaces.GetByID(gctx, workspaceID)
		if err != nil {
			return fmt.Errorf("failed to get workspace: %w", err)
		}
		ws = w
		return nil
	})
	if req.Baseline == report.BaselineSchedule {
		g.Go(func() error {
			p, err := s.planner.Plans(gctx, workspaceID)
			if err != nil {
				return fmt.Errorf("failed to resolve schedules: %w", err)
			}
			plans = p
			return nil
		})
		g.Go(func() error {
			a, err := s.users.ScheduleAssignments(gctx, workspaceID)
			if err != nil {
				return fmt.Errorf("failed to get schedule assignments: %w", err)
			}
			assignments = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report.OvertimeReportResponse{}, err
	}

	_, dailyMinutes := ws.Rules(0, s.settings.StandardDailyMinutes)
	opts := report.Options{
		Location:             s.settings.Location,
		StandardDailyMinutes: dailyMinutes,
	}
	if req.Baseline == report.BaselineSchedule {
		opts.Baseline = scheduleBaseline(plans, assignments)
	}

	summary := Aggregate(records, opts)
	return s.toResponse(workspaceID, req, opts, summary), nil
}

// scheduleBaseline plans each employee by their assigned schedule; unassigned
// employees and dangling assignments fall back to the standard minutes.
func scheduleBaseline(plans map[string]schedule.Plan, assignments map[string]string) report.BaselineFunc {
	return func(employeeID string, day time.Time) (int, bool) {
		scheduleID, ok := assignments[employeeID]
		if !ok {
			return 0, false
		}
		plan, ok := plans[scheduleID]
		if !ok {
			return 0, false
		}
		return plan.ExpectedMinutes(day.Weekday()), true
	}
}

func (s *ReportServiceImpl) toResponse(workspaceID string, req report.OvertimeReportRequest, opts report.Options, summary report.OvertimeSummary) report.OvertimeReportResponse {
	loc := s.settings.Location
	resp := report.OvertimeReportResponse{
		WorkspaceID:          workspaceID,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		Baseline:             string(req.Baseline),
		StandardDailyMinutes: opts.StandardDailyMinutes,
		GeneratedAt:          s.now().In(loc).Format(time.RFC3339),
		Employees:            make([]report.EmployeeOvertimeResponse, 0, len(summary.Employees)),
		Units:                make([]report.UnitOvertimeResponse, 0, len(summary.Units)),
		Days:                 make([]report.DayResponse, 0, len(summary.Days)),
		Anomalies:            make([]report.AnomalyResponse, 0, len(summary.Anomalies)),
	}

	for _, e := range summary.Employees {
		resp.TotalWorkedMinutes += e.WorkedMinutes
		resp.TotalExtraMinutes += e.ExtraMinutes
		resp.Employees = append(resp.Employees, report.EmployeeOvertimeResponse{
			EmployeeID:    e.EmployeeID,
			EmployeeName:  e.EmployeeName,
			DaysWorked:    e.DaysWorked,
			WorkedMinutes: e.WorkedMinutes,
			ExtraMinutes:  e.ExtraMinutes,
			WorkedHours:   report.Hours(e.WorkedMinutes),
			ExtraHours:    report.Hours(e.ExtraMinutes),
		})
	}
	resp.TotalExtraHours = report.Hours(resp.TotalExtraMinutes)

	for _, u := range summary.Units {
		resp.Units = append(resp.Units, report.UnitOvertimeResponse{
			Unit:         u.Unit,
			ExtraMinutes: u.ExtraMinutes,
			ExtraHours:   report.Hours(u.ExtraMinutes),
		})
	}
	for _, d := range summary.Days {
		resp.Days = append(resp.Days, report.DayResponse{
			Day:             d.Day,
			EmployeeID:      d.EmployeeID,
			EmployeeName:    d.EmployeeName,
			Unit:            d.Unit,
			FirstEntry:      d.FirstEntry.In(loc).Format("15:04"),
			LastExit:        d.LastExit.In(loc).Format("15:04"),
			WorkedMinutes:   d.WorkedMinutes,
			BaselineMinutes: d.BaselineMinutes,
			ExtraMinutes:    d.ExtraMinutes,
		})
	}
	for _, a := range summary.Anomalies {
		resp.Anomalies = append(resp.Anomalies, report.AnomalyResponse{
			Kind:         string(a.Kind),
			Day:          a.Day,
			EmployeeID:   a.EmployeeID,
			EmployeeName: a.EmployeeName,
			Unit:         a.Unit,
		})
	}

	return resp
}
