package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/school-planner-api/internal/weekcycle"
)

type reminderDispatcher interface {
	DispatchDue(ctx context.Context, now time.Time) (int, error)
}

type weekRefresher interface {
	Refresh(ctx context.Context, now time.Time) (weekcycle.WeekLabel, bool)
}

type exportCleaner interface {
	Cleanup(ttl time.Duration) ([]string, error)
}

// Jobs are the periodic tasks. Nil members are not scheduled.
type Jobs struct {
	Reminders reminderDispatcher
	Week      weekRefresher
	Exports   exportCleaner
}

// Config holds the cron expressions (standard five-field syntax) evaluated in Location.
type Config struct {
	Location        *time.Location
	ReminderCron    string
	WeekRefreshCron string
	CleanupCron     string
}

// Scheduler drives reminder dispatch, week rollover and export cleanup.
type Scheduler struct {
	cron   *cron.Cron
	jobs   Jobs
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New registers every configured job. An invalid expression is an error.
func New(jobs Jobs, cfg Config, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		jobs:   jobs,
		logger: logger,
		now:    func() time.Time { return time.Now().In(loc) },
		ctx:    context.Background(),
	}

	entries := []struct {
		name string
		spec string
		run  func()
		on   bool
	}{
		{"reminders", cfg.ReminderCron, s.dispatchReminders, jobs.Reminders != nil},
		{"week-refresh", cfg.WeekRefreshCron, s.refreshWeek, jobs.Week != nil},
		{"export-cleanup", cfg.CleanupCron, s.cleanupExports, jobs.Exports != nil},
	}
	for _, e := range entries {
		if !e.on || e.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(e.spec, e.run); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", e.name, e.spec, err)
		}
		logger.Info("job scheduled", zap.String("job", e.name), zap.String("spec", e.spec))
	}
	return s, nil
}

// Start records the current week label and starts the cron loop. Jobs run
// with a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.refreshWeek()
	s.cron.Start()
}

// Stop halts the loop and waits for running jobs, up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Scheduler) dispatchReminders() {
	if s.jobs.Reminders == nil {
		return
	}
	queued, err := s.jobs.Reminders.DispatchDue(s.jobContext(), s.now())
	if err != nil {
		s.logger.Error("reminder dispatch failed", zap.Error(err))
		return
	}
	if queued > 0 {
		s.logger.Info("reminders queued", zap.Int("count", queued))
	}
}

func (s *Scheduler) refreshWeek() {
	if s.jobs.Week == nil {
		return
	}
	label, changed := s.jobs.Week.Refresh(s.jobContext(), s.now())
	s.logger.Debug("week label refreshed", zap.String("label", string(label)), zap.Bool("changed", changed))
}

func (s *Scheduler) cleanupExports() {
	if s.jobs.Exports == nil {
		return
	}
	if _, err := s.jobs.Exports.Cleanup(0); err != nil {
		s.logger.Error("export cleanup failed", zap.Error(err))
	}
}
