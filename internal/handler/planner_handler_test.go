package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/weekcycle"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
)

type fakeWeekService struct {
	date time.Time
	next bool
}

func (f *fakeWeekService) Current(_ context.Context, _ string, date time.Time, next bool) (*dto.WeekInfo, error) {
	f.date, f.next = date, next
	label := weekcycle.LabelA
	if next {
		label = weekcycle.LabelB
	}
	return &dto.WeekInfo{Date: date.Format(time.DateOnly), NaturalLabel: weekcycle.LabelA, EffectiveLabel: label, ShowNextWeek: next}, nil
}

type fakeTimetableService struct {
	hit     bool
	day     int
	bagDate time.Time
}

func (f *fakeTimetableService) Week(_ context.Context, _ string, _ time.Time, _ bool) (*dto.TimetableWeek, bool, error) {
	return &dto.TimetableWeek{Week: dto.WeekInfo{EffectiveLabel: weekcycle.LabelB}, Hours: []int{8, 9}}, f.hit, nil
}

func (f *fakeTimetableService) Day(_ context.Context, _ string, day int, _ time.Time, _ bool) (*dto.TimetableDayView, error) {
	f.day = day
	return &dto.TimetableDayView{Week: dto.WeekInfo{EffectiveLabel: weekcycle.LabelA}, DayOfWeek: day}, nil
}

func (f *fakeTimetableService) Bag(_ context.Context, _ string, date time.Time) (*dto.BagView, error) {
	f.bagDate = date
	return &dto.BagView{Label: weekcycle.LabelB, Materials: []string{"ruler"}}, nil
}

func TestWeekHandlerCurrent(t *testing.T) {
	svc := &fakeWeekService{}
	h := NewWeekHandler(svc, time.UTC)
	c, rec := newContext(http.MethodGet, "/week?date=2024-01-08&next=true", nil, "u1")

	h.Current(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var info dto.WeekInfo
	env := decode(t, rec, &info)
	assert.Equal(t, weekcycle.LabelB, info.EffectiveLabel)
	assert.Equal(t, "B", env.Meta["week_label"])
	assert.True(t, svc.next)
	assert.Equal(t, time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC), svc.date)
}

func TestWeekHandlerDefaultsToToday(t *testing.T) {
	svc := &fakeWeekService{}
	h := NewWeekHandler(svc, time.UTC)
	c, rec := newContext(http.MethodGet, "/week", nil, "u1")

	h.Current(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.date.IsZero())
	assert.False(t, svc.next)
}

func TestWeekHandlerRejectsBadQuery(t *testing.T) {
	h := NewWeekHandler(&fakeWeekService{}, time.UTC)

	c, rec := newContext(http.MethodGet, "/week?date=08.01.2024", nil, "u1")
	h.Current(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newContext(http.MethodGet, "/week?next=maybe", nil, "u1")
	h.Current(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newContext(http.MethodGet, "/week", nil, "")
	h.Current(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTimetableHandlerWeekReportsCache(t *testing.T) {
	h := NewTimetableHandler(&fakeTimetableService{hit: true}, time.UTC)
	c, rec := newContext(http.MethodGet, "/timetable/week", nil, "u1")

	h.Week(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	env := decode(t, rec, nil)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, "B", env.Meta["week_label"])
}

func TestTimetableHandlerDay(t *testing.T) {
	svc := &fakeTimetableService{}
	h := NewTimetableHandler(svc, time.UTC)

	c, rec := newContext(http.MethodGet, "/timetable/day?day=3", nil, "u1")
	h.Day(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, svc.day)

	c, rec = newContext(http.MethodGet, "/timetable/day", nil, "u1")
	h.Day(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, svc.day)

	c, rec = newContext(http.MethodGet, "/timetable/day?day=8", nil, "u1")
	h.Day(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimetableHandlerBag(t *testing.T) {
	svc := &fakeTimetableService{}
	h := NewTimetableHandler(svc, time.UTC)
	c, rec := newContext(http.MethodGet, "/bag?date=2024-01-14", nil, "u1")

	h.Bag(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var bag dto.BagView
	decode(t, rec, &bag)
	assert.Equal(t, []string{"ruler"}, bag.Materials)
	assert.Equal(t, "2024-01-14", svc.bagDate.Format(time.DateOnly))
}

type fakeReminderService struct {
	at time.Time
}

func (f *fakeReminderService) Check(_ context.Context, _ string, now time.Time) (*dto.ReminderStatus, error) {
	f.at = now
	return &dto.ReminderStatus{Enabled: true, Time: "20:00", Due: true}, nil
}

func TestReminderHandlerStatus(t *testing.T) {
	svc := &fakeReminderService{}
	h := NewReminderHandler(svc)
	fixed := time.Date(2024, time.January, 14, 19, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	c, rec := newContext(http.MethodGet, "/reminders/status", nil, "u1")
	h.Status(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fixed, svc.at)

	c, rec = newContext(http.MethodGet, "/reminders/status?at=2024-01-14T20:00:00Z", nil, "u1")
	h.Status(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, svc.at.Hour())

	c, rec = newContext(http.MethodGet, "/reminders/status?at=tonight", nil, "u1")
	h.Status(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decode(t, rec, nil).Error.Code)
}
