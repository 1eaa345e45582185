package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/internal/weekcycle"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
	"github.com/noah-isme/school-planner-api/pkg/validation"
)

type courseRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Course, error)
	FindByID(ctx context.Context, userID, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	BulkCreate(ctx context.Context, courses []models.Course) error
	Delete(ctx context.Context, userID, id string) error
}

// CourseService manages a user's recurring courses.
type CourseService struct {
	repo      courseRepository
	audit     auditLogger
	timetable timetableInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, audit auditLogger, timetable timetableInvalidator, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, audit: audit, timetable: timetable, validator: validate, logger: logger}
}

// List returns the user's courses ordered by day and start time.
func (s *CourseService) List(ctx context.Context, userID string) ([]models.Course, error) {
	courses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

// Get returns one course owned by the user.
func (s *CourseService) Get(ctx context.Context, userID, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create validates and stores a new course. Overlapping time ranges and an end
// before the start are accepted as entered.
func (s *CourseService) Create(ctx context.Context, userID string, req dto.CreateCourseRequest) (*models.Course, error) {
	course, err := s.buildCourse(userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx, userID)
	s.emitAudit(ctx, userID, models.AuditActionCourseCreate, course.ID, course)
	return course, nil
}

// BulkCreate stores many courses atomically; one invalid entry rejects the batch.
func (s *CourseService) BulkCreate(ctx context.Context, userID string, req dto.BulkCreateCourseRequest) ([]models.Course, error) {
	if len(req.Courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one course is required")
	}
	courses := make([]models.Course, 0, len(req.Courses))
	for _, item := range req.Courses {
		course, err := s.buildCourse(userID, item)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	if err := s.repo.BulkCreate(ctx, courses); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create courses")
	}
	s.invalidate(ctx, userID)
	s.emitAudit(ctx, userID, models.AuditActionCourseImport, "", map[string]int{"count": len(courses)})
	return courses, nil
}

// Delete removes a course owned by the user.
func (s *CourseService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidate(ctx, userID)
	s.emitAudit(ctx, userID, models.AuditActionCourseDelete, id, nil)
	return nil
}

func (s *CourseService) buildCourse(userID string, req dto.CreateCourseRequest) (*models.Course, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.StartTime = strings.TrimSpace(req.StartTime)
	req.EndTime = strings.TrimSpace(req.EndTime)
	if wt, err := weekcycle.ParseWeekType(string(req.WeekType)); err == nil {
		req.WeekType = wt
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	return &models.Course{
		UserID:    userID,
		Title:     req.Title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		DayOfWeek: req.DayOfWeek,
		Materials: cleanMaterials(req.Materials),
		WeekType:  req.WeekType,
	}, nil
}

func (s *CourseService) invalidate(ctx context.Context, userID string) {
	if s.timetable == nil {
		return
	}
	if err := s.timetable.InvalidateUser(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *CourseService) emitAudit(ctx context.Context, userID, action, courseID string, payload interface{}) {
	if s.audit == nil {
		return
	}
	var values []byte
	if payload != nil {
		values, _ = json.Marshal(payload)
	}
	log := &models.AuditLog{
		UserID:     strPtr(userID),
		Action:     action,
		Resource:   "course",
		ResourceID: strPtr(courseID),
		NewValues:  values,
		IPAddress:  "system",
		UserAgent:  "course-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record course audit", zap.String("action", action), zap.Error(err))
	}
}

// cleanMaterials trims entries and drops blanks, keeping the given order.
func cleanMaterials(raw []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(raw))
	for _, m := range raw {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
