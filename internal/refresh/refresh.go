// Package refresh runs the periodic jobs of the dashboard: the refresh tick
// (due-soon escalation, metrics log, optional week capture) and the ICS
// subscription sync.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"orbit/internal/capture"
	"orbit/internal/engine"
	"orbit/internal/ics"
	appLog "orbit/internal/log"
	"orbit/internal/model"
)

// Store is the part of the state store the jobs use.
type Store interface {
	Snapshot() model.State
	EscalateDueSoon(now time.Time) (int, error)
	ReplaceSourceEvents(source string, events []model.Event) error
}

// Fetcher downloads ICS subscriptions.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []ics.Source) ([]ics.FetchResult, []error)
}

// CaptureFunc writes a screenshot of the week page.
type CaptureFunc func(ctx context.Context, opts capture.Options) error

// Options configure a Scheduler.
type Options struct {
	Location    *time.Location
	RefreshCron string
	ICSCron     string
	InsightDays int

	Sources []ics.Source
	Fetcher Fetcher

	// Capture runs after every tick when CaptureEnabled is set.
	CaptureEnabled bool
	CaptureOptions capture.Options
	Capture        CaptureFunc

	// Now overrides the clock; tests pin it.
	Now func() time.Time
}

// Scheduler owns the cron instance driving the jobs.
type Scheduler struct {
	store Store
	opts  Options
	cron  *cron.Cron

	mu   sync.Mutex
	last engine.Dashboard
}

// New validates opts and registers the jobs. Nothing runs until Start.
func New(st Store, opts Options) (*Scheduler, error) {
	if st == nil {
		return nil, errors.New("refresh: store is nil")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.InsightDays <= 0 {
		opts.InsightDays = engine.DefaultInsightDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Capture == nil {
		opts.Capture = capture.CapturePNG
	}

	logger := cronLogger{}
	s := &Scheduler{
		store: st,
		opts:  opts,
		cron: cron.New(
			cron.WithLocation(opts.Location),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}

	if opts.RefreshCron != "" {
		if _, err := s.cron.AddFunc(opts.RefreshCron, s.runTick); err != nil {
			return nil, fmt.Errorf("refresh: schedule %q: %w", opts.RefreshCron, err)
		}
	}
	if opts.ICSCron != "" && len(opts.Sources) > 0 && opts.Fetcher != nil {
		if _, err := s.cron.AddFunc(opts.ICSCron, s.runSync); err != nil {
			return nil, fmt.Errorf("refresh: schedule %q: %w", opts.ICSCron, err)
		}
	}
	return s, nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	appLog.Info("refresh scheduler started", "entries", len(s.cron.Entries()), "tz", s.opts.Location.String())
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		appLog.Error("refresh scheduler stop timed out", ctx.Err())
	}
}

// Last returns the dashboard computed by the most recent tick.
func (s *Scheduler) Last() engine.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// now returns the evaluation instant in the configured location.
func (s *Scheduler) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

// Tick escalates due-soon tasks, builds the dashboard and, when enabled,
// captures the week page. Capture failures are logged and returned but the
// dashboard is still produced.
func (s *Scheduler) Tick(ctx context.Context) (engine.Dashboard, error) {
	now := s.now()
	if _, err := s.store.EscalateDueSoon(now); err != nil {
		return engine.Dashboard{}, fmt.Errorf("refresh: escalate: %w", err)
	}

	dash := engine.BuildDashboard(s.store.Snapshot(), now, s.opts.InsightDays)
	s.mu.Lock()
	s.last = dash
	s.mu.Unlock()

	appLog.Info("dashboard refreshed",
		"today", dash.Today.Summary,
		"insights", dash.Insights.Summary,
		"events_today", dash.Metrics.EventsToday,
		"tasks_in_progress", dash.Metrics.TasksInProgress,
		"tasks_overdue", dash.Metrics.TasksOverdue,
	)

	if !s.opts.CaptureEnabled {
		return dash, nil
	}
	start := time.Now()
	if err := s.opts.Capture(ctx, s.opts.CaptureOptions); err != nil {
		appLog.Error("week capture failed", err, "url", s.opts.CaptureOptions.URL)
		return dash, err
	}
	appLog.Debug("week captured", "path", s.opts.CaptureOptions.OutputPath, "took", time.Since(start))
	return dash, nil
}

// SyncICS fetches every subscription and replaces each source's events. A
// source that fails to fetch or parse keeps its previous events.
func (s *Scheduler) SyncICS(ctx context.Context) error {
	if s.opts.Fetcher == nil || len(s.opts.Sources) == 0 {
		return nil
	}

	results, errs := s.opts.Fetcher.FetchAll(ctx, s.opts.Sources)
	for _, res := range results {
		events, err := ics.ParseICS(res.Source, res.Body, s.opts.Location)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.store.ReplaceSourceEvents(res.Source.ID, events); err != nil {
			errs = append(errs, fmt.Errorf("refresh: store %s: %w", res.Source.ID, err))
			continue
		}
		appLog.Info("ics source synced", "id", res.Source.ID, "events", len(events), "from_cache", res.FromCache)
	}
	return errors.Join(errs...)
}

func (s *Scheduler) runTick() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if _, err := s.Tick(ctx); err != nil {
		appLog.Error("refresh tick failed", err)
	}
}

func (s *Scheduler) runSync() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := s.SyncICS(ctx); err != nil {
		appLog.Error("ics sync finished with errors", err)
	}
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
