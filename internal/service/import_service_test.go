package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/internal/weekcycle"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
	"github.com/noah-isme/school-planner-api/pkg/export"
)

func icsBody(events ...[]string) string {
	lines := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//test//EN"}
	for _, ev := range events {
		lines = append(lines, "BEGIN:VEVENT")
		lines = append(lines, ev...)
		lines = append(lines, "END:VEVENT")
	}
	lines = append(lines, "END:VCALENDAR", "")
	return strings.Join(lines, "\r\n")
}

func TestImportServiceImportICS(t *testing.T) {
	repo := &stubCourseRepo{courses: []models.Course{course("Sport", 3, "11:00", "12:30", weekcycle.WeekTypeBoth)}}
	courses := NewCourseService(repo, nil, nil, nil, nil)
	svc := NewImportService(courses, nil, nil, ImportServiceConfig{Calendar: weekcycle.Default, Location: time.UTC})

	body := icsBody(
		[]string{"UID:maths", "SUMMARY:Maths", "DESCRIPTION:Materials: ruler\\, calculator", "DTSTART:20240108T080000Z", "DTEND:20240108T090000Z", "RRULE:FREQ=WEEKLY"},
		[]string{"UID:lab-a", "SUMMARY:Lab", "DTSTART:20240110T130000Z", "DURATION:PT1H30M", "RRULE:FREQ=WEEKLY;INTERVAL=2"},
		[]string{"UID:lab-b", "SUMMARY:Lab", "DTSTART:20240117T130000Z", "DURATION:PT1H30M", "RRULE:FREQ=WEEKLY;INTERVAL=2"},
		[]string{"UID:german", "SUMMARY:German", "DTSTART:20240116T100000Z", "DTEND:20240116T110000Z", "RRULE:FREQ=WEEKLY;INTERVAL=2"},
		[]string{"UID:triweekly", "SUMMARY:Choir", "DTSTART:20240109T150000Z", "DTEND:20240109T160000Z", "RRULE:FREQ=WEEKLY;INTERVAL=3"},
		[]string{"UID:untitled", "DTSTART:20240109T170000Z", "DTEND:20240109T180000Z"},
		[]string{"UID:sport", "SUMMARY:Sport", "DTSTART:20240110T110000Z", "DTEND:20240110T123000Z", "RRULE:FREQ=WEEKLY"},
	)

	result, err := svc.ImportICS(context.Background(), "u1", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 4, result.Skipped)
	assert.Len(t, result.Warnings, 2)

	byTitle := make(map[string]models.Course)
	for _, c := range repo.courses {
		byTitle[c.Title] = c
	}
	maths := byTitle["Maths"]
	assert.Equal(t, 1, maths.DayOfWeek)
	assert.Equal(t, "08:00", maths.StartTime)
	assert.Equal(t, weekcycle.WeekTypeBoth, maths.WeekType)
	assert.Equal(t, []string{"ruler", "calculator"}, maths.MaterialList())

	lab := byTitle["Lab"]
	assert.Equal(t, 3, lab.DayOfWeek)
	assert.Equal(t, "14:30", lab.EndTime)
	assert.Equal(t, weekcycle.WeekTypeBoth, lab.WeekType)

	assert.Equal(t, weekcycle.WeekTypeB, byTitle["German"].WeekType)
	assert.NotContains(t, byTitle, "Choir")
}

func exportedCalendar(t *testing.T, override weekcycle.Override) string {
	t.Helper()
	exporter, _, _ := newExportServiceForTest(t, stubOverrides{})
	events := exporter.buildEvents(plannerCourses(), mondayWeekA, override)
	body, err := export.NewICSExporter("").Render("planner", events, mondayWeekA)
	require.NoError(t, err)
	return string(body)
}

func importedWeekTypes(t *testing.T, body string, overrides stubOverrides) map[string]weekcycle.WeekType {
	t.Helper()
	repo := &stubCourseRepo{}
	svc := NewImportService(NewCourseService(repo, nil, nil, nil, nil), overrides, nil, ImportServiceConfig{Location: time.UTC})
	svc.now = func() time.Time { return mondayWeekA }

	result, err := svc.ImportICS(context.Background(), "u1", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 4, result.Imported)

	types := make(map[string]weekcycle.WeekType)
	for _, c := range repo.courses {
		types[c.Title] = c.WeekType
	}
	return types
}

func TestImportServiceRoundTripsExportedCalendar(t *testing.T) {
	types := importedWeekTypes(t, exportedCalendar(t, weekcycle.Override{}), stubOverrides{})

	assert.Equal(t, map[string]weekcycle.WeekType{
		"maths":    weekcycle.WeekTypeBoth,
		"german-a": weekcycle.WeekTypeA,
		"french-b": weekcycle.WeekTypeB,
		"sport":    weekcycle.WeekTypeBoth,
	}, types)
}

func TestImportServiceRoundTripUnderOverride(t *testing.T) {
	pinned := weekcycle.Override{Enabled: true, Label: weekcycle.LabelB}
	types := importedWeekTypes(t, exportedCalendar(t, pinned), stubOverrides{"u1": pinned})

	assert.Equal(t, weekcycle.WeekTypeA, types["german-a"])
	assert.Equal(t, weekcycle.WeekTypeB, types["french-b"])
}

func TestImportServiceWeeklyRuleWithHolidayStaysBoth(t *testing.T) {
	repo := &stubCourseRepo{}
	svc := NewImportService(NewCourseService(repo, nil, nil, nil, nil), nil, nil, ImportServiceConfig{Location: time.UTC})

	body := icsBody([]string{
		"UID:history", "SUMMARY:History", "DTSTART:20240108T080000Z", "DTEND:20240108T090000Z",
		"RRULE:FREQ=WEEKLY;UNTIL=20240129T080000Z", "EXDATE:20240122T080000Z",
	})
	_, err := svc.ImportICS(context.Background(), "u1", strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, repo.courses, 1)
	assert.Equal(t, weekcycle.WeekTypeBoth, repo.courses[0].WeekType)
}

func TestImportServiceNothingToImport(t *testing.T) {
	repo := &stubCourseRepo{}
	svc := NewImportService(NewCourseService(repo, nil, nil, nil, nil), nil, nil, ImportServiceConfig{Location: time.UTC})

	result, err := svc.ImportICS(context.Background(), "u1", strings.NewReader(icsBody()))
	require.NoError(t, err)
	assert.Zero(t, result.Imported)
	assert.Empty(t, repo.courses)
}

func TestImportServiceRejectsGarbage(t *testing.T) {
	svc := NewImportService(NewCourseService(&stubCourseRepo{}, nil, nil, nil, nil), nil, nil, ImportServiceConfig{Location: time.UTC})

	_, err := svc.ImportICS(context.Background(), "u1", strings.NewReader(icsBody([]string{"UID:x", "SUMMARY:Broken", "DTSTART:nonsense"})))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestParseMaterials(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseMaterials("Room 3\nMaterials: a, , b"))
	assert.Nil(t, parseMaterials("no materials here"))
}
