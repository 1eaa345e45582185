package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/internal/weekcycle"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
)

func newTestTimetableService(courses []models.Course, overrides stubOverrides) *TimetableService {
	return NewTimetableService(TimetableServiceParams{
		Courses:   &stubCourseRepo{courses: courses},
		Overrides: overrides,
		Config:    TimetableServiceConfig{FirstHour: 8, LastHour: 12, Calendar: weekcycle.Default, Location: time.UTC},
	})
}

func plannerCourses() []models.Course {
	return []models.Course{
		course("maths", 1, "08:00", "09:00", weekcycle.WeekTypeBoth, "ruler", "calculator"),
		course("german-a", 1, "10:00", "11:00", weekcycle.WeekTypeA, "dictionary"),
		course("french-b", 1, "10:00", "11:00", weekcycle.WeekTypeB, "dictionary", "vocab book"),
		course("sport", 3, "11:00", "12:30", weekcycle.WeekTypeBoth, "trainers"),
	}
}

func TestTimetableServiceWeekShowsVisibleCourses(t *testing.T) {
	svc := newTestTimetableService(plannerCourses(), stubOverrides{})

	week, hit, err := svc.Week(context.Background(), "u1", mondayWeekA, false)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, weekcycle.LabelA, week.Week.EffectiveLabel)
	assert.Equal(t, []int{8, 9, 10, 11, 12}, week.Hours)
	require.Len(t, week.Days, 7)
	assert.Equal(t, "2024-01-08", week.Days[0].Date)
	assert.Equal(t, "2024-01-14", week.Days[6].Date)

	assert.Equal(t, "maths", week.Rows[0].Cells[0].ID)
	assert.Nil(t, week.Rows[1].Cells[0])
	assert.Equal(t, "german-a", week.Rows[2].Cells[0].ID)
	assert.Equal(t, "sport", week.Rows[3].Cells[2].ID)
}

func TestTimetableServiceWeekNextWeekFlips(t *testing.T) {
	svc := newTestTimetableService(plannerCourses(), stubOverrides{})

	week, _, err := svc.Week(context.Background(), "u1", mondayWeekA, true)
	require.NoError(t, err)
	assert.Equal(t, weekcycle.LabelB, week.Week.EffectiveLabel)
	assert.Equal(t, "2024-01-15", week.Days[0].Date)
	assert.Equal(t, "french-b", week.Rows[2].Cells[0].ID)
}

func TestTimetableServiceWeekRespectsOverride(t *testing.T) {
	svc := newTestTimetableService(plannerCourses(), stubOverrides{"u1": {Enabled: true, Label: weekcycle.LabelB}})

	week, _, err := svc.Week(context.Background(), "u1", mondayWeekA, false)
	require.NoError(t, err)
	assert.Equal(t, weekcycle.LabelA, week.Week.NaturalLabel)
	assert.Equal(t, weekcycle.LabelB, week.Week.EffectiveLabel)
	assert.Equal(t, "french-b", week.Rows[2].Cells[0].ID)
}

func TestTimetableServiceDay(t *testing.T) {
	svc := newTestTimetableService(plannerCourses(), stubOverrides{})
	ctx := context.Background()

	view, err := svc.Day(ctx, "u1", 0, mondayWeekB, false)
	require.NoError(t, err)
	assert.Equal(t, 1, view.DayOfWeek)
	assert.Equal(t, "Monday", view.Name)
	require.Len(t, view.Slots, 5)
	assert.Equal(t, "08:00", view.Slots[0].Label)
	assert.Equal(t, "french-b", view.Slots[2].Course.ID)

	_, err = svc.Day(ctx, "u1", 9, mondayWeekB, false)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestTimetableServiceBagCrossesWeekBoundary(t *testing.T) {
	svc := newTestTimetableService(plannerCourses(), stubOverrides{})

	// Sunday of an A week: tomorrow is Monday of a B week.
	bag, err := svc.Bag(context.Background(), "u1", sundayWeekA)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", bag.Tomorrow)
	assert.Equal(t, 1, bag.DayOfWeek)
	assert.Equal(t, weekcycle.LabelB, bag.Label)
	require.Len(t, bag.Courses, 2)
	assert.Equal(t, "maths", bag.Courses[0].CourseID)
	assert.Equal(t, "french-b", bag.Courses[1].CourseID)
	assert.Equal(t, []string{"ruler", "calculator", "dictionary", "vocab book"}, bag.Materials)
}

func TestTimetableServiceBagAtYearBoundaryMatchesDayView(t *testing.T) {
	svc := newTestTimetableService(plannerCourses(), stubOverrides{})
	ctx := context.Background()

	// 2020 ends on ISO week 53 and 2021 opens with week 1: both are B weeks.
	sunday := time.Date(2021, time.January, 3, 20, 0, 0, 0, time.UTC)
	monday := time.Date(2021, time.January, 4, 9, 0, 0, 0, time.UTC)

	bag, err := svc.Bag(ctx, "u1", sunday)
	require.NoError(t, err)
	assert.Equal(t, "2021-01-04", bag.Tomorrow)
	assert.Equal(t, weekcycle.LabelB, bag.Label)
	require.Len(t, bag.Courses, 2)
	assert.Equal(t, "french-b", bag.Courses[1].CourseID)

	day, err := svc.Day(ctx, "u1", 1, monday, false)
	require.NoError(t, err)
	assert.Equal(t, bag.Label, day.Week.EffectiveLabel)
	assert.Equal(t, bag.Courses[1].CourseID, day.Slots[2].Course.ID)
}

func TestTimetableServiceBagAtYearBoundaryWithOverride(t *testing.T) {
	svc := newTestTimetableService(plannerCourses(), stubOverrides{"u1": {Enabled: true, Label: weekcycle.LabelB}})

	// The pinned cycle keeps alternating even where ISO parity does not.
	bag, err := svc.Bag(context.Background(), "u1", time.Date(2021, time.January, 3, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, weekcycle.LabelA, bag.Label)
	assert.Equal(t, "german-a", bag.Courses[1].CourseID)
}

func TestTimetableServiceDefaultsToMondayWeeks(t *testing.T) {
	svc := NewTimetableService(TimetableServiceParams{
		Courses:   &stubCourseRepo{courses: plannerCourses()},
		Overrides: stubOverrides{},
		Config:    TimetableServiceConfig{Location: time.UTC},
	})

	week, _, err := svc.Week(context.Background(), "u1", mondayWeekB, false)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", week.Days[0].Date)
	assert.Equal(t, weekcycle.LabelB, week.Week.EffectiveLabel)
}

func TestTimetableServiceBagWithOverride(t *testing.T) {
	svc := newTestTimetableService(plannerCourses(), stubOverrides{"u1": {Enabled: true, Label: weekcycle.LabelB}})

	// The override pins this week to B, so next week is A.
	bag, err := svc.Bag(context.Background(), "u1", sundayWeekA)
	require.NoError(t, err)
	assert.Equal(t, weekcycle.LabelA, bag.Label)
	assert.Equal(t, "german-a", bag.Courses[1].CourseID)
}

func TestTimetableServiceBagEmptyDay(t *testing.T) {
	svc := newTestTimetableService(plannerCourses(), stubOverrides{})

	bag, err := svc.Bag(context.Background(), "u1", mondayWeekA)
	require.NoError(t, err)
	assert.Equal(t, 2, bag.DayOfWeek)
	assert.Empty(t, bag.Courses)
	assert.NotNil(t, bag.Materials)
}
