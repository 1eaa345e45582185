// Package weekcycle decides which of the two alternating week patterns is active
// for a date and whether a recurring course shows up in that week.
//
// Every function here is pure: no storage, no clock, no timers. Callers pass the
// date, the week-start convention and the manual override explicitly and
// re-invoke the functions whenever the date or the override changes.
package weekcycle

import (
	"fmt"
	"strings"
	"time"
)

// WeekLabel names one of the two alternating week patterns.
type WeekLabel string

const (
	LabelA WeekLabel = "A"
	LabelB WeekLabel = "B"
)

// WeekType is the week-pattern membership of a recurring course.
type WeekType string

const (
	WeekTypeBoth WeekType = "both"
	WeekTypeA    WeekType = "A"
	WeekTypeB    WeekType = "B"
)

// Override replaces the date-derived label when Enabled is set.
type Override struct {
	Enabled bool      `json:"enabled"`
	Label   WeekLabel `json:"label"`
}

// Calendar holds the week-start convention used to find the first day of a week.
// The zero value starts weeks on Monday.
type Calendar struct {
	// days after Monday
	shift int
}

// Default starts weeks on Monday, matching the ISO convention and day_of_week 1 = Monday.
var Default = Calendar{}

// NewCalendar returns a calendar whose weeks begin on start.
func NewCalendar(start time.Weekday) Calendar {
	return Calendar{shift: (int(start) - int(time.Monday) + 7) % 7}
}

// FirstDay returns the weekday weeks begin on.
func (c Calendar) FirstDay() time.Weekday {
	return time.Weekday((int(time.Monday) + c.shift) % 7)
}

// Valid reports whether l is A or B.
func (l WeekLabel) Valid() bool {
	return l == LabelA || l == LabelB
}

// Flip returns the other label.
func (l WeekLabel) Flip() WeekLabel {
	switch l {
	case LabelA:
		return LabelB
	case LabelB:
		return LabelA
	default:
		panic(fmt.Sprintf("weekcycle: invalid week label %q", string(l)))
	}
}

// Valid reports whether t is one of both, A or B.
func (t WeekType) Valid() bool {
	return t == WeekTypeBoth || t == WeekTypeA || t == WeekTypeB
}

// ParseWeekLabel accepts "A" or "B" in any case.
func ParseWeekLabel(raw string) (WeekLabel, error) {
	label := WeekLabel(strings.ToUpper(strings.TrimSpace(raw)))
	if !label.Valid() {
		return "", fmt.Errorf("invalid week label %q", raw)
	}
	return label, nil
}

// ParseWeekType accepts "both", "A" or "B" in any case.
func ParseWeekType(raw string) (WeekType, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, string(WeekTypeBoth)) {
		return WeekTypeBoth, nil
	}
	t := WeekType(strings.ToUpper(trimmed))
	if !t.Valid() {
		return "", fmt.Errorf("invalid week type %q", raw)
	}
	return t, nil
}

// WeekStart returns midnight of the first day of the week containing date, in date's location.
func (c Calendar) WeekStart(date time.Time) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	offset := (int(day.Weekday()) - int(c.FirstDay()) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// ISOWeekOf returns the ISO week number of the first day of the week containing date.
func (c Calendar) ISOWeekOf(date time.Time) int {
	_, week := c.WeekStart(date).ISOWeek()
	return week
}

// ComputeWeekLabel maps date to A when the ISO week number of its week start is even
// and to B when it is odd. Year boundaries and 53-week years are not special-cased.
func (c Calendar) ComputeWeekLabel(date time.Time) WeekLabel {
	if c.ISOWeekOf(date)%2 == 0 {
		return LabelA
	}
	return LabelB
}

// ResolveEffectiveLabel applies the override and the next-week preview to the
// natural label of date.
func (c Calendar) ResolveEffectiveLabel(date time.Time, override Override, showNextWeek bool) WeekLabel {
	base := override.Label
	if !override.Enabled {
		base = c.ComputeWeekLabel(date)
	}
	if showNextWeek {
		return base.Flip()
	}
	return base
}

// SameWeek reports whether a and b fall in the same calendar week.
func (c Calendar) SameWeek(a, b time.Time) bool {
	return c.WeekStart(a).Equal(c.WeekStart(b.In(a.Location())))
}

// WeeksBetween returns the signed number of whole weeks from the week of from to the week of to.
func (c Calendar) WeeksBetween(from, to time.Time) int {
	start := c.WeekStart(from)
	end := c.WeekStart(to.In(from.Location()))
	// Calendar days, not hours, so DST shifts cannot round a week away.
	return (civilDays(end) - civilDays(start)) / 7
}

// LabelForDate returns the label of the week containing date as seen from reference.
// Without an override it is the natural label of date. With an override the
// overridden label holds for the reference week and flips once per week of distance.
func (c Calendar) LabelForDate(date, reference time.Time, override Override) WeekLabel {
	if !override.Enabled {
		return c.ComputeWeekLabel(date)
	}
	if c.WeeksBetween(reference, date)%2 == 0 {
		return override.Label
	}
	return override.Label.Flip()
}

// IsCourseVisible reports whether a course of the given week type renders in a week
// labelled target. An unknown week type is a programming error and panics.
func IsCourseVisible(courseWeekType WeekType, target WeekLabel) bool {
	switch courseWeekType {
	case WeekTypeBoth:
		return true
	case WeekTypeA, WeekTypeB:
		return WeekLabel(courseWeekType) == target
	default:
		panic(fmt.Sprintf("weekcycle: invalid week type %q", string(courseWeekType)))
	}
}

// ComputeWeekLabel uses the Monday-start calendar.
func ComputeWeekLabel(date time.Time) WeekLabel {
	return Default.ComputeWeekLabel(date)
}

// ResolveEffectiveLabel uses the Monday-start calendar.
func ResolveEffectiveLabel(date time.Time, override Override, showNextWeek bool) WeekLabel {
	return Default.ResolveEffectiveLabel(date, override, showNextWeek)
}

func civilDays(t time.Time) int {
	utc := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(utc.Unix() / 86400)
}
