package cron

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	since      time.Time
	workspaces []string
	err        error
}

func (f *fakeLister) ListActiveWorkspaces(_ context.Context, since time.Time) ([]string, error) {
	f.since = since
	return f.workspaces, f.err
}

type fakeWarmer struct {
	mu     sync.Mutex
	warmed []string
	req    report.OvertimeReportRequest
	failOn string
}

func (f *fakeWarmer) Warm(_ context.Context, ws string, req report.OvertimeReportRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.req = req
	if ws == f.failOn {
		return errors.New("db down")
	}
	f.warmed = append(f.warmed, ws)
	return nil
}

func newTestJobs(lister *fakeLister, warmer *fakeWarmer) *ReportJobs {
	loc, _ := time.LoadLocation("America/Sao_Paulo")
	if loc == nil {
		loc = time.FixedZone("BRT", -3*3600)
	}
	j := NewReportJobs(lister, warmer, loc)
	j.now = func() time.Time { return time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC) }
	return j
}

func TestRefreshCurrentMonth(t *testing.T) {
	lister := &fakeLister{workspaces: []string{"ws-1", "ws-2", "ws-3"}}
	warmer := &fakeWarmer{}
	j := newTestJobs(lister, warmer)

	require.NoError(t, j.RefreshCurrentMonth(context.Background()))

	sort.Strings(warmer.warmed)
	assert.Equal(t, []string{"ws-1", "ws-2", "ws-3"}, warmer.warmed)
	// 02:00 UTC on the 15th is still the 14th in São Paulo
	assert.Equal(t, "2024-03-01", warmer.req.StartDate)
	assert.Equal(t, "2024-03-14", warmer.req.EndDate)
	assert.Equal(t, report.BaselineStandard, warmer.req.Baseline)
	assert.Equal(t, 1, lister.since.Day())
}

func TestRefreshCurrentMonth_PartialFailure(t *testing.T) {
	warmer := &fakeWarmer{failOn: "ws-2"}
	j := newTestJobs(&fakeLister{workspaces: []string{"ws-1", "ws-2"}}, warmer)

	err := j.RefreshCurrentMonth(context.Background())
	assert.ErrorContains(t, err, "failed to refresh 1 of 2 workspaces")
	assert.Equal(t, []string{"ws-1"}, warmer.warmed)
}

func TestRefreshCurrentMonth_ListError(t *testing.T) {
	j := newTestJobs(&fakeLister{err: errors.New("boom")}, &fakeWarmer{})
	assert.Error(t, j.RefreshCurrentMonth(context.Background()))
}

func TestScheduler_RunOnce(t *testing.T) {
	s := NewScheduler(false)
	var calls []string
	s.AddJob("a", time.Hour, func(context.Context) error { calls = append(calls, "a"); return nil })
	s.AddJob("b", time.Hour, func(context.Context) error { calls = append(calls, "b"); return errors.New("x") })

	s.RunOnce(context.Background())
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(true)
	ran := make(chan struct{}, 1)
	s.AddJob("tick", time.Hour, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()
}
