package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/internal/weekcycle"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
	"github.com/noah-isme/school-planner-api/pkg/export"
)

type courseBulkCreator interface {
	List(ctx context.Context, userID string) ([]models.Course, error)
	BulkCreate(ctx context.Context, userID string, req dto.BulkCreateCourseRequest) ([]models.Course, error)
}

// ImportServiceConfig tunes calendar import.
type ImportServiceConfig struct {
	Calendar weekcycle.Calendar
	Location *time.Location
}

// ImportService turns iCalendar files into recurring courses.
type ImportService struct {
	courses   courseBulkCreator
	overrides overrideReader
	calendar  weekcycle.Calendar
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewImportService constructs an ImportService. overrides may be nil, in which
// case weeks are labelled by ISO parity alone.
func NewImportService(courses courseBulkCreator, overrides overrideReader, logger *zap.Logger, cfg ImportServiceConfig) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &ImportService{
		courses:   courses,
		overrides: overrides,
		calendar:  cfg.Calendar,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

type importKey struct {
	title string
	day   int
	start string
	end   string
}

// ImportICS creates one course per distinct weekly slot found in r. Events
// repeating every second week, or weekly with every other week excluded,
// become A or B courses after the label of their first week; an A and a B
// event for the same slot merge into one "both" course. Slots the user
// already has are skipped.
func (s *ImportService) ImportICS(ctx context.Context, userID string, r io.Reader) (*dto.ImportResult, error) {
	events, err := export.ParseICS(r, s.loc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar file")
	}

	labelOf, err := s.labeler(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing, err := s.courses.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	known := make(map[importKey]weekcycle.WeekType, len(existing))
	for _, c := range existing {
		known[importKey{c.Title, c.DayOfWeek, c.StartTime, c.EndTime}] = c.WeekType
	}

	result := &dto.ImportResult{}
	order := make([]importKey, 0, len(events))
	pending := make(map[importKey]*dto.CreateCourseRequest, len(events))
	for _, ev := range events {
		if ev.Summary == "" {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("event %s has no title", ev.UID))
			continue
		}
		weekType, ok := s.weekTypeOf(ev, labelOf)
		if !ok {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s repeats every %d weeks", ev.Summary, ev.Interval))
			continue
		}

		key := importKey{
			title: ev.Summary,
			day:   isoWeekday(ev.Start),
			start: ev.Start.Format("15:04"),
			end:   ev.End.Format("15:04"),
		}
		if have, dup := known[key]; dup && (have == weekcycle.WeekTypeBoth || have == weekType) {
			result.Skipped++
			continue
		}
		if req, dup := pending[key]; dup {
			if req.WeekType != weekType {
				req.WeekType = weekcycle.WeekTypeBoth
			}
			result.Skipped++
			continue
		}
		pending[key] = &dto.CreateCourseRequest{
			Title:     key.title,
			StartTime: key.start,
			EndTime:   key.end,
			DayOfWeek: key.day,
			Materials: parseMaterials(ev.Description),
			WeekType:  weekType,
		}
		order = append(order, key)
	}

	if len(order) == 0 {
		return result, nil
	}
	batch := dto.BulkCreateCourseRequest{Courses: make([]dto.CreateCourseRequest, 0, len(order))}
	for _, key := range order {
		batch.Courses = append(batch.Courses, *pending[key])
	}
	created, err := s.courses.BulkCreate(ctx, userID, batch)
	if err != nil {
		return nil, err
	}
	result.Imported = len(created)
	s.logger.Info("calendar imported", zap.String("user_id", userID), zap.Int("imported", result.Imported), zap.Int("skipped", result.Skipped))
	return result, nil
}

// labeler labels weeks the way the user currently sees them, so a file
// exported under an override imports back to the same courses.
func (s *ImportService) labeler(ctx context.Context, userID string) (func(time.Time) weekcycle.WeekLabel, error) {
	var override weekcycle.Override
	if s.overrides != nil {
		o, err := s.overrides.Override(ctx, userID)
		if err != nil {
			return nil, err
		}
		override = o
	}
	today := s.now().In(s.loc)
	return func(t time.Time) weekcycle.WeekLabel {
		return s.calendar.LabelForDate(t, today, override)
	}, nil
}

func (s *ImportService) weekTypeOf(ev export.ImportedEvent, labelOf func(time.Time) weekcycle.WeekLabel) (weekcycle.WeekType, bool) {
	if !ev.Recurring {
		return weekcycle.WeekTypeBoth, true
	}
	switch ev.Interval {
	case 0, 1:
		return weekTypeFromExclusions(ev, labelOf), true
	case 2:
		return weekcycle.WeekType(labelOf(ev.Start)), true
	default:
		return "", false
	}
}

// weekTypeFromExclusions recognises a weekly rule whose EXDATEs drop every
// week of one label, the shape the exporter writes for A and B courses.
func weekTypeFromExclusions(ev export.ImportedEvent, labelOf func(time.Time) weekcycle.WeekLabel) weekcycle.WeekType {
	if len(ev.ExDates) == 0 {
		return weekcycle.WeekTypeBoth
	}
	occurrences, err := ev.Occurrences()
	if err != nil || len(occurrences) == 0 {
		return weekcycle.WeekTypeBoth
	}
	label := labelOf(occurrences[0])
	for _, occ := range occurrences[1:] {
		if labelOf(occ) != label {
			return weekcycle.WeekTypeBoth
		}
	}
	for _, ex := range ev.ExDates {
		if labelOf(ex) == label {
			return weekcycle.WeekTypeBoth
		}
	}
	return weekcycle.WeekType(label)
}

// parseMaterials reads the "Materials: a, b" line written by the exporter.
func parseMaterials(description string) []string {
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "Materials:"); ok {
			var out []string
			for _, m := range strings.Split(rest, ",") {
				if m = strings.TrimSpace(strings.ReplaceAll(m, `\`, "")); m != "" {
					out = append(out, m)
				}
			}
			return out
		}
	}
	return nil
}
