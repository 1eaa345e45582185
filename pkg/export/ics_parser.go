package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// ImportedEvent is the subset of a VEVENT needed to rebuild a recurring course.
type ImportedEvent struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	// Recurring is set for weekly RRULEs; Interval is their INTERVAL (default 1).
	Recurring bool
	Interval  int
	Until     time.Time
	Count     int
	ExDates   []time.Time
}

// Occurrences expands a weekly event without its EXDATEs. Open-ended rules stop
// at the last EXDATE, so only the stretch the exclusions describe is returned.
func (ev ImportedEvent) Occurrences() ([]time.Time, error) {
	if !ev.Recurring {
		return []time.Time{ev.Start}, nil
	}
	opt := rrule.ROption{Freq: rrule.WEEKLY, Interval: ev.Interval, Dtstart: ev.Start, Until: ev.Until, Count: ev.Count}
	if opt.Until.IsZero() && opt.Count == 0 {
		opt.Until = ev.Start
		for _, ex := range ev.ExDates {
			if ex.After(opt.Until) {
				opt.Until = ex
			}
		}
	}
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", ev.UID, err)
	}
	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}
	return set.All(), nil
}

// ParseICS reads every timed VEVENT from r, converting times into loc.
// All-day and non-weekly events are skipped.
func ParseICS(r io.Reader, loc *time.Location) ([]ImportedEvent, error) {
	if loc == nil {
		loc = time.Local
	}
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	events := make([]ImportedEvent, 0, len(cal.Events()))
	for _, vevent := range cal.Events() {
		ev, ok, err := parseEvent(vevent, loc)
		if err != nil {
			return nil, err
		}
		if ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

func parseEvent(vevent *ics.VEvent, loc *time.Location) (ImportedEvent, bool, error) {
	var ev ImportedEvent
	if p := vevent.GetProperty(ics.ComponentPropertyUniqueId); p != nil {
		ev.UID = p.Value
	}
	if p := vevent.GetProperty(ics.ComponentPropertySummary); p != nil {
		ev.Summary = strings.TrimSpace(p.Value)
	}
	if p := vevent.GetProperty(ics.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}

	start, allDay, err := propertyTime(vevent, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return ev, false, fmt.Errorf("event %q: %w", ev.Summary, err)
	}
	if allDay {
		return ev, false, nil
	}
	ev.Start = start

	end, _, err := propertyTime(vevent, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		end = start.Add(time.Hour)
		if p := vevent.GetProperty(ics.ComponentPropertyDuration); p != nil {
			if d, derr := parseICSDuration(p.Value); derr == nil {
				end = start.Add(d)
			}
		}
	}
	ev.End = end

	ev.Interval = 1
	if p := vevent.GetProperty(ics.ComponentPropertyRrule); p != nil {
		opt, err := rrule.StrToROption(p.Value)
		if err != nil {
			return ev, false, fmt.Errorf("event %q: parse rrule: %w", ev.Summary, err)
		}
		if opt.Freq != rrule.WEEKLY {
			return ev, false, nil
		}
		ev.Recurring = true
		if opt.Interval > 0 {
			ev.Interval = opt.Interval
		}
		if !opt.Until.IsZero() {
			ev.Until = opt.Until.In(loc)
		}
		ev.Count = opt.Count
	}

	for _, p := range vevent.GetProperties(ics.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			ex, _, err := parseTime(part, p.ICalParameters, loc)
			if err != nil {
				return ev, false, fmt.Errorf("event %q: exdate: %w", ev.Summary, err)
			}
			ev.ExDates = append(ev.ExDates, ex)
		}
	}
	return ev, true, nil
}

func propertyTime(vevent *ics.VEvent, prop ics.ComponentProperty, loc *time.Location) (time.Time, bool, error) {
	p := vevent.GetProperty(prop)
	if p == nil {
		return time.Time{}, false, fmt.Errorf("missing %s", prop)
	}
	t, allDay, err := parseTime(strings.TrimSpace(p.Value), p.ICalParameters, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid %s: %w", prop, err)
	}
	return t, allDay, nil
}

func parseTime(value string, params map[string][]string, loc *time.Location) (time.Time, bool, error) {
	target := loc
	if tz, ok := params[string(ics.ParameterTzid)]; ok && len(tz) > 0 {
		if named, err := time.LoadLocation(tz[0]); err == nil {
			target = named
		}
	}

	if t, err := time.Parse(icsUTCLayout, value); err == nil {
		return t.In(loc), false, nil
	}
	if t, err := time.ParseInLocation(icsLocalLayout, value, target); err == nil {
		return t.In(loc), false, nil
	}
	if t, err := time.ParseInLocation("20060102", value, target); err == nil {
		return t.In(loc), true, nil
	}
	return time.Time{}, false, fmt.Errorf("unrecognised time %q", value)
}

// parseICSDuration handles the PT#H#M#S form used by timed events.
func parseICSDuration(raw string) (time.Duration, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if !strings.HasPrefix(raw, "PT") {
		return 0, fmt.Errorf("unsupported duration %q", raw)
	}
	return time.ParseDuration(strings.ToLower(strings.TrimPrefix(raw, "PT")))
}
