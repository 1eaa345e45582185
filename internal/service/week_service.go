package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/weekcycle"
)

type overrideReader interface {
	Override(ctx context.Context, userID string) (weekcycle.Override, error)
}

type timetableFlusher interface {
	InvalidateAll(ctx context.Context) error
}

// WeekServiceConfig tunes week computation.
type WeekServiceConfig struct {
	// Zero value starts weeks on Monday.
	Calendar weekcycle.Calendar
	Location *time.Location
}

// WeekService answers "which week is it" for a user and tracks the natural
// label of the current week for cache invalidation.
type WeekService struct {
	prefs    overrideReader
	cache    timetableFlusher
	metrics  *MetricsService
	calendar weekcycle.Calendar
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	lastLabel weekcycle.WeekLabel
}

// NewWeekService constructs a WeekService.
func NewWeekService(prefs overrideReader, cache timetableFlusher, metrics *MetricsService, logger *zap.Logger, cfg WeekServiceConfig) *WeekService {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &WeekService{
		prefs:    prefs,
		cache:    cache,
		metrics:  metrics,
		calendar: cfg.Calendar,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Calendar returns the configured week-start convention.
func (s *WeekService) Calendar() weekcycle.Calendar {
	return s.calendar
}

// Today returns the current instant in the planner's zone.
func (s *WeekService) Today() time.Time {
	return s.now().In(s.loc)
}

// Location returns the planner's zone.
func (s *WeekService) Location() *time.Location {
	return s.loc
}

// Current resolves the effective label for date. A zero date means today.
func (s *WeekService) Current(ctx context.Context, userID string, date time.Time, showNextWeek bool) (*dto.WeekInfo, error) {
	if date.IsZero() {
		date = s.Today()
	} else {
		date = date.In(s.loc)
	}
	override, err := s.prefs.Override(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := BuildWeekInfo(s.calendar, date, override, showNextWeek)
	return &info, nil
}

// Refresh recomputes the natural label for now. When it differs from the
// previous refresh every cached timetable is dropped. It reports whether the
// label changed; the very first refresh only records the label.
func (s *WeekService) Refresh(ctx context.Context, now time.Time) (weekcycle.WeekLabel, bool) {
	label := s.calendar.ComputeWeekLabel(now.In(s.loc))
	s.metrics.SetWeekLabel(label)

	s.mu.Lock()
	previous := s.lastLabel
	s.lastLabel = label
	s.mu.Unlock()

	if previous == "" || previous == label {
		return label, false
	}
	s.logger.Info("week label rolled over", zap.String("from", string(previous)), zap.String("to", string(label)))
	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			s.logger.Warn("failed to flush timetables after rollover", zap.Error(err))
		}
	}
	return label, true
}

// BuildWeekInfo describes date under override and the next-week preview flag.
func BuildWeekInfo(calendar weekcycle.Calendar, date time.Time, override weekcycle.Override, showNextWeek bool) dto.WeekInfo {
	return dto.WeekInfo{
		Date:           date.Format(time.DateOnly),
		ISOWeek:        calendar.ISOWeekOf(date),
		WeekStart:      calendar.WeekStart(date).Format(time.DateOnly),
		NaturalLabel:   calendar.ComputeWeekLabel(date),
		Override:       override,
		EffectiveLabel: calendar.ResolveEffectiveLabel(date, override, showNextWeek),
		ShowNextWeek:   showNextWeek,
	}
}
