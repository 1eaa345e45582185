package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/internal/weekcycle"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
	"github.com/noah-isme/school-planner-api/pkg/export"
	"github.com/noah-isme/school-planner-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type preferenceValueReader interface {
	Value(ctx context.Context, userID, key string) (string, error)
}

type csvRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.GridDocument) ([]byte, error)
}

type icsRenderer interface {
	Render(name string, events []export.CalendarEvent, stamp time.Time) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix    string
	ResultTTL    time.Duration
	HorizonWeeks int
	FirstHour    int
	LastHour     int
	Calendar     weekcycle.Calendar
	Location     *time.Location
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Courses     courseLister
	Overrides   overrideReader
	Preferences preferenceValueReader
	Storage     fileStorage
	Signer      *storage.SignedURLSigner
	Audit       auditLogger
	Metrics     *MetricsService
	Logger      *zap.Logger
	CSV         csvRenderer
	PDF         pdfRenderer
	ICS         icsRenderer
	Config      ExportConfig
}

// ExportService renders a user's timetable to CSV, PDF or iCalendar and
// hands out signed download tokens for the stored file.
type ExportService struct {
	courses   courseLister
	overrides overrideReader
	prefs     preferenceValueReader
	storage   fileStorage
	signer    *storage.SignedURLSigner
	audit     auditLogger
	metrics   *MetricsService
	logger    *zap.Logger
	csv       csvRenderer
	pdf       pdfRenderer
	ics       icsRenderer
	calendar  weekcycle.Calendar
	now       func() time.Time
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(params ExportServiceParams) *ExportService {
	cfg := params.Config
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.HorizonWeeks <= 0 {
		cfg.HorizonWeeks = 26
	}
	if cfg.FirstHour <= 0 && cfg.LastHour <= 0 {
		cfg.FirstHour, cfg.LastHour = 8, 21
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	csv, pdf, ics := params.CSV, params.PDF, params.ICS
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if ics == nil {
		ics = export.NewICSExporter("")
	}
	return &ExportService{
		courses:   params.Courses,
		overrides: params.Overrides,
		prefs:     params.Preferences,
		storage:   params.Storage,
		signer:    params.Signer,
		audit:     params.Audit,
		metrics:   params.Metrics,
		logger:    logger,
		csv:       csv,
		pdf:       pdf,
		ics:       ics,
		calendar:  cfg.Calendar,
		now:       time.Now,
		cfg:       cfg,
	}
}

// Generate renders the user's courses as of date (today when zero), stores
// the file and returns a signed download link.
func (s *ExportService) Generate(ctx context.Context, userID string, format models.ExportFormat, date time.Time) (*dto.ExportResponse, error) {
	if date.IsZero() {
		date = s.now()
	}
	date = date.In(s.cfg.Location)

	courses, err := s.courses.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	sort.SliceStable(courses, func(i, j int) bool {
		if courses[i].DayOfWeek != courses[j].DayOfWeek {
			return courses[i].DayOfWeek < courses[j].DayOfWeek
		}
		return courses[i].StartTime < courses[j].StartTime
	})
	override, err := s.overrides.Override(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := BuildWeekInfo(s.calendar, date, override, false)

	var payload []byte
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(s.buildTable(courses, info.EffectiveLabel))
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(s.buildGrid(ctx, userID, courses, info))
	case models.ExportFormatICS:
		events := s.buildEvents(courses, date, override)
		payload, err = s.ics.Render(s.title(ctx, userID), events, s.now().UTC())
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("timetable_%s_%s.%s", date.Format("20060102"), s.now().UTC().Format("150405"), format)
	relPath, err := s.storage.Save(path.Join(userID, filename), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(userID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export")
	}

	s.metrics.RecordExport(format)
	s.emitAudit(ctx, userID, relPath, format)

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &dto.ExportResponse{
		Format:      format,
		Filename:    filename,
		Token:       token,
		DownloadURL: fmt.Sprintf("%s/exports/%s", prefix, token),
		ExpiresAt:   expiresAt,
	}, nil
}

// Open validates token and returns the stored file and its download name.
func (s *ExportService) Open(token string) (*os.File, string, error) {
	parsed, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, "", appErrors.Clone(appErrors.ErrExpired, "download link expired")
		}
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	file, err := s.storage.Open(parsed.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	return file, path.Base(parsed.Path), nil
}

// Cleanup removes files older than ttl, or the configured TTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
	return removed, nil
}

// FormatFromFilename maps a stored file's extension back to its format.
func FormatFromFilename(name string) models.ExportFormat {
	return models.ExportFormat(strings.TrimPrefix(path.Ext(name), "."))
}

func (s *ExportService) buildTable(courses []models.Course, label weekcycle.WeekLabel) export.Table {
	table := export.Table{Columns: []string{"Day", "Start", "End", "Title", "Week", "Materials", "This week"}}
	for _, c := range courses {
		thisWeek := "no"
		if weekcycle.IsCourseVisible(c.WeekType, label) {
			thisWeek = "yes"
		}
		table.Rows = append(table.Rows, []string{
			dayName(c.DayOfWeek),
			c.StartTime,
			c.EndTime,
			c.Title,
			string(c.WeekType),
			strings.Join(c.Materials, "; "),
			thisWeek,
		})
	}
	return table
}

func (s *ExportService) buildGrid(ctx context.Context, userID string, courses []models.Course, info dto.WeekInfo) export.GridDocument {
	doc := export.GridDocument{
		Title:    s.title(ctx, userID),
		Subtitle: fmt.Sprintf("Week %d (%s) starting %s", info.ISOWeek, info.EffectiveLabel, info.WeekStart),
		Accent:   s.preference(ctx, userID, models.PrefPrimaryColor),
		Columns:  dayNames[:],
	}
	for h := s.cfg.FirstHour; h <= s.cfg.LastHour; h++ {
		row := export.GridRow{Label: hourLabel(h), Cells: make([]string, len(dayNames))}
		for day := 1; day <= len(dayNames); day++ {
			if c := findCourse(courses, day, h, info.EffectiveLabel); c != nil {
				row.Cells[day-1] = fmt.Sprintf("%s %s-%s", c.Title, c.StartTime, c.EndTime)
			}
		}
		doc.Rows = append(doc.Rows, row)
	}
	return doc
}

// buildEvents emits one weekly VEVENT per course over the horizon starting
// with the week of date. A or B courses skip, via EXDATE, the weeks whose
// label does not match; their first occurrence is moved to the first matching week.
func (s *ExportService) buildEvents(courses []models.Course, date time.Time, override weekcycle.Override) []export.CalendarEvent {
	weekStart := s.calendar.WeekStart(date)
	events := make([]export.CalendarEvent, 0, len(courses))
	for _, c := range courses {
		first, ok := s.clockOn(weekStart, c.DayOfWeek, c.StartTime)
		if !ok {
			continue
		}
		until := first.AddDate(0, 0, 7*(s.cfg.HorizonWeeks-1))
		occurrences, err := export.WeeklyOccurrences(first, until)
		if err != nil {
			s.logger.Warn("failed to expand course occurrences", zap.String("course_id", c.ID), zap.Error(err))
			continue
		}

		var start time.Time
		var exdates []time.Time
		for _, occ := range occurrences {
			visible := weekcycle.IsCourseVisible(c.WeekType, s.calendar.LabelForDate(occ, date, override))
			switch {
			case visible && start.IsZero():
				start = occ
			case !visible && !start.IsZero():
				exdates = append(exdates, occ)
			}
		}
		if start.IsZero() {
			continue
		}

		end, ok := s.clockOn(start, 0, c.EndTime)
		if !ok || !end.After(start) {
			end = start.Add(time.Hour)
		}
		events = append(events, export.CalendarEvent{
			UID:         c.ID + "@school-planner",
			Summary:     c.Title,
			Description: materialsDescription(c),
			Start:       start,
			End:         end,
			Until:       until,
			ExDates:     exdates,
		})
	}
	return events
}

func (s *ExportService) title(ctx context.Context, userID string) string {
	if title := s.preference(ctx, userID, models.PrefTitle); title != "" {
		return title
	}
	return "My School Planner"
}

func (s *ExportService) preference(ctx context.Context, userID, key string) string {
	if s.prefs == nil {
		return ""
	}
	value, err := s.prefs.Value(ctx, userID, key)
	if err != nil {
		s.logger.Debug("preference unavailable for export", zap.String("key", key), zap.Error(err))
		return ""
	}
	return value
}

func (s *ExportService) emitAudit(ctx context.Context, userID, relPath string, format models.ExportFormat) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     strPtr(userID),
		Action:     models.AuditActionExport,
		Resource:   "timetable",
		ResourceID: strPtr(relPath),
		NewValues:  []byte(fmt.Sprintf(`{"format":%q}`, format)),
		IPAddress:  "system",
		UserAgent:  "export-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record export audit", zap.Error(err))
	}
}

// clockOn places HH:MM on the given ISO weekday of the week starting at base.
// day 0 keeps base's own date.
func (s *ExportService) clockOn(base time.Time, day int, hhmm string) (time.Time, bool) {
	var hour, minute int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &hour, &minute); err != nil {
		return time.Time{}, false
	}
	date := base
	if day != 0 {
		date = s.calendar.WeekStart(base)
		date = date.AddDate(0, 0, (day%7-int(date.Weekday())+7)%7)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), true
}

func materialsDescription(c models.Course) string {
	if len(c.Materials) == 0 {
		return ""
	}
	return "Materials: " + strings.Join(c.Materials, ", ")
}

func dayName(day int) string {
	if day < 1 || day > len(dayNames) {
		return ""
	}
	return dayNames[day-1]
}
