package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/internal/weekcycle"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
)

type courseLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Course, error)
}

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// TimetableServiceConfig tunes grid rendering.
type TimetableServiceConfig struct {
	FirstHour int
	LastHour  int
	CacheTTL  time.Duration
	Calendar  weekcycle.Calendar
	Location  *time.Location
}

// TimetableServiceParams groups constructor dependencies.
type TimetableServiceParams struct {
	Courses   courseLister
	Overrides overrideReader
	Cache     *CacheService
	Logger    *zap.Logger
	Config    TimetableServiceConfig
}

// TimetableService renders a user's courses for the effective week.
type TimetableService struct {
	courses   courseLister
	overrides overrideReader
	cache     *CacheService
	calendar  weekcycle.Calendar
	logger    *zap.Logger
	now       func() time.Time
	cfg       TimetableServiceConfig
}

// NewTimetableService constructs a TimetableService. The hour range defaults to 8..21.
func NewTimetableService(params TimetableServiceParams) *TimetableService {
	cfg := params.Config
	if cfg.FirstHour <= 0 && cfg.LastHour <= 0 {
		cfg.FirstHour, cfg.LastHour = 8, 21
	}
	if cfg.LastHour < cfg.FirstHour {
		cfg.LastHour = cfg.FirstHour
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		courses:   params.Courses,
		overrides: params.Overrides,
		cache:     params.Cache,
		calendar:  cfg.Calendar,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// Week builds the hour-by-day grid of the week containing date. With
// showNextWeek the grid shows the following week under the flipped label.
// The boolean reports a cache hit.
func (s *TimetableService) Week(ctx context.Context, userID string, date time.Time, showNextWeek bool) (*dto.TimetableWeek, bool, error) {
	date = s.normalizeDate(date)
	cacheKey := timetableCacheKey(userID, "week", date.Format(time.DateOnly), strconv.FormatBool(showNextWeek))
	if s.cache != nil {
		var cached dto.TimetableWeek
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("timetable cache read failed", zap.String("key", cacheKey), zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	info, courses, err := s.resolve(ctx, userID, date, showNextWeek)
	if err != nil {
		return nil, false, err
	}

	displayed := s.calendar.WeekStart(date)
	if showNextWeek {
		displayed = displayed.AddDate(0, 0, 7)
	}

	week := &dto.TimetableWeek{Week: info, Hours: s.hours()}
	week.Days = make([]dto.TimetableDay, 0, len(dayNames))
	for day := 1; day <= len(dayNames); day++ {
		week.Days = append(week.Days, dto.TimetableDay{
			DayOfWeek: day,
			Name:      dayNames[day-1],
			Date:      s.dateOfDay(displayed, day).Format(time.DateOnly),
		})
	}
	week.Rows = make([]dto.TimetableHour, 0, len(week.Hours))
	for _, hour := range week.Hours {
		row := dto.TimetableHour{Hour: hour, Label: hourLabel(hour), Cells: make([]*models.Course, len(dayNames))}
		for day := 1; day <= len(dayNames); day++ {
			row.Cells[day-1] = findCourse(courses, day, hour, info.EffectiveLabel)
		}
		week.Rows = append(week.Rows, row)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, week, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("timetable cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return week, false, nil
}

// Day returns the slots of one weekday (1=Mon..7=Sun) for the effective week.
// A zero day means the weekday of date.
func (s *TimetableService) Day(ctx context.Context, userID string, day int, date time.Time, showNextWeek bool) (*dto.TimetableDayView, error) {
	date = s.normalizeDate(date)
	if day == 0 {
		day = isoWeekday(date)
	}
	if day < 1 || day > 7 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day must be between 1 and 7")
	}

	info, courses, err := s.resolve(ctx, userID, date, showNextWeek)
	if err != nil {
		return nil, err
	}

	view := &dto.TimetableDayView{Week: info, DayOfWeek: day, Name: dayNames[day-1]}
	for _, hour := range s.hours() {
		view.Slots = append(view.Slots, dto.TimetableSlot{
			Hour:   hour,
			Label:  hourLabel(hour),
			Course: findCourse(courses, day, hour, info.EffectiveLabel),
		})
	}
	return view, nil
}

// Bag lists the courses and materials for the day after date. Tomorrow keeps
// its own natural label; an override pinned to today's week flips once when
// tomorrow starts a new week.
func (s *TimetableService) Bag(ctx context.Context, userID string, date time.Time) (*dto.BagView, error) {
	today := s.normalizeDate(date)
	tomorrow := today.AddDate(0, 0, 1)

	override, err := s.overrides.Override(ctx, userID)
	if err != nil {
		return nil, err
	}
	label := s.calendar.LabelForDate(tomorrow, today, override)

	all, err := s.courses.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}

	day := isoWeekday(tomorrow)
	view := &dto.BagView{
		Date:      today.Format(time.DateOnly),
		Tomorrow:  tomorrow.Format(time.DateOnly),
		DayOfWeek: day,
		Label:     label,
		Courses:   []dto.BagItem{},
		Materials: []string{},
	}

	visible := make([]models.Course, 0)
	for _, c := range all {
		if c.DayOfWeek == day && weekcycle.IsCourseVisible(c.WeekType, label) {
			visible = append(visible, c)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].StartTime < visible[j].StartTime })

	seen := make(map[string]struct{})
	for _, c := range visible {
		view.Courses = append(view.Courses, dto.BagItem{
			CourseID:  c.ID,
			Title:     c.Title,
			StartTime: c.StartTime,
			EndTime:   c.EndTime,
			Materials: c.MaterialList(),
		})
		for _, m := range c.Materials {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			view.Materials = append(view.Materials, m)
		}
	}
	return view, nil
}

func (s *TimetableService) resolve(ctx context.Context, userID string, date time.Time, showNextWeek bool) (dto.WeekInfo, []models.Course, error) {
	override, err := s.overrides.Override(ctx, userID)
	if err != nil {
		return dto.WeekInfo{}, nil, err
	}
	courses, err := s.courses.ListByUser(ctx, userID)
	if err != nil {
		return dto.WeekInfo{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].StartTime < courses[j].StartTime })
	return BuildWeekInfo(s.calendar, date, override, showNextWeek), courses, nil
}

func (s *TimetableService) normalizeDate(date time.Time) time.Time {
	if date.IsZero() {
		return s.now().In(s.cfg.Location)
	}
	return date.In(s.cfg.Location)
}

func (s *TimetableService) hours() []int {
	hours := make([]int, 0, s.cfg.LastHour-s.cfg.FirstHour+1)
	for h := s.cfg.FirstHour; h <= s.cfg.LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// dateOfDay returns the date of ISO weekday day inside the week starting at weekStart.
func (s *TimetableService) dateOfDay(weekStart time.Time, day int) time.Time {
	offset := (day%7 - int(weekStart.Weekday()) + 7) % 7
	return weekStart.AddDate(0, 0, offset)
}

// findCourse returns the first visible course starting in hour on day.
// courses must be ordered by start time.
func findCourse(courses []models.Course, day, hour int, label weekcycle.WeekLabel) *models.Course {
	for i := range courses {
		c := courses[i]
		if c.DayOfWeek == day && c.StartHour() == hour && weekcycle.IsCourseVisible(c.WeekType, label) {
			return &c
		}
	}
	return nil
}

func hourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

func isoWeekday(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return 7
	}
	return int(t.Weekday())
}
