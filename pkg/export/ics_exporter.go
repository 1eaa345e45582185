package export

import (
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

const (
	icsLocalLayout = "20060102T150405"
	icsUTCLayout   = "20060102T150405Z"
)

// CalendarEvent is one VEVENT. A non-zero Until makes it repeat weekly from
// Start up to and including Until, minus ExDates.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Until       time.Time
	ExDates     []time.Time
}

// ICSExporter renders events as an iCalendar document.
type ICSExporter struct {
	ProductID string
}

// NewICSExporter constructs an exporter stamping productID on every document.
func NewICSExporter(productID string) *ICSExporter {
	if productID == "" {
		productID = "-//school-planner//timetable//EN"
	}
	return &ICSExporter{ProductID: productID}
}

// WeeklyOccurrences lists every weekly repetition of start up to until inclusive.
func WeeklyOccurrences(start, until time.Time) ([]time.Time, error) {
	rule, err := weeklyRule(start, until)
	if err != nil {
		return nil, err
	}
	return rule.All(), nil
}

// Render serialises events in name's calendar. stamp is written as DTSTAMP.
func (e *ICSExporter) Render(name string, events []CalendarEvent, stamp time.Time) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetProductId(e.ProductID)
	cal.SetMethod(ics.MethodPublish)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, ev := range events {
		if ev.UID == "" {
			return nil, fmt.Errorf("event %q has no uid", ev.Summary)
		}
		if ev.End.Before(ev.Start) {
			return nil, fmt.Errorf("event %s ends before it starts", ev.UID)
		}

		vevent := cal.AddEvent(ev.UID)
		vevent.SetDtStampTime(stamp.UTC())
		vevent.SetSummary(ev.Summary)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		setTime(vevent, ics.ComponentPropertyDtStart, ev.Start)
		setTime(vevent, ics.ComponentPropertyDtEnd, ev.End)

		if ev.Until.IsZero() {
			continue
		}
		rule, err := weeklyRule(ev.Start, ev.Until)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.UID, err)
		}
		vevent.AddRrule(rule.OrigOptions.RRuleString())

		exdates := append([]time.Time(nil), ev.ExDates...)
		sort.Slice(exdates, func(i, j int) bool { return exdates[i].Before(exdates[j]) })
		for _, ex := range exdates {
			value, params := timeValue(ex.In(ev.Start.Location()))
			vevent.AddExdate(value, params...)
		}
	}

	return []byte(cal.Serialize()), nil
}

func weeklyRule(start, until time.Time) (*rrule.RRule, error) {
	if until.Before(start) {
		return nil, fmt.Errorf("recurrence ends before it starts")
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.WEEKLY,
		Interval: 1,
		Dtstart:  start,
		Until:    until,
	})
	if err != nil {
		return nil, fmt.Errorf("build weekly rule: %w", err)
	}
	return rule, nil
}

func setTime(vevent *ics.VEvent, prop ics.ComponentProperty, t time.Time) {
	value, params := timeValue(t)
	vevent.SetProperty(prop, value, params...)
}

// timeValue keeps wall-clock times in named zones so recurrences survive DST.
func timeValue(t time.Time) (string, []ics.PropertyParameter) {
	loc := t.Location()
	switch loc.String() {
	case "UTC":
		return t.UTC().Format(icsUTCLayout), nil
	case "Local", "":
		return t.Format(icsLocalLayout), nil
	default:
		return t.Format(icsLocalLayout), []ics.PropertyParameter{ics.WithTZID(loc.String())}
	}
}
