package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/internal/weekcycle"
)

type stubCourseRepo struct {
	courses []models.Course
	listErr error
	seq     int
}

func (s *stubCourseRepo) ListByUser(_ context.Context, userID string) ([]models.Course, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Course
	for _, c := range s.courses {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCourseRepo) FindByID(_ context.Context, userID, id string) (*models.Course, error) {
	for _, c := range s.courses {
		if c.UserID == userID && c.ID == id {
			course := c
			return &course, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubCourseRepo) Create(_ context.Context, course *models.Course) error {
	s.seq++
	course.ID = fmt.Sprintf("course-%d", s.seq)
	course.CreatedAt = time.Now().UTC()
	s.courses = append(s.courses, *course)
	return nil
}

func (s *stubCourseRepo) BulkCreate(ctx context.Context, courses []models.Course) error {
	for i := range courses {
		if err := s.Create(ctx, &courses[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubCourseRepo) Delete(_ context.Context, userID, id string) error {
	for i, c := range s.courses {
		if c.UserID == userID && c.ID == id {
			s.courses = append(s.courses[:i], s.courses[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type stubPreferenceRepo struct {
	mu      sync.Mutex
	values  map[string]map[string]models.Preference
	listHit int
}

func newStubPreferenceRepo() *stubPreferenceRepo {
	return &stubPreferenceRepo{values: make(map[string]map[string]models.Preference)}
}

func (s *stubPreferenceRepo) set(userID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values[userID] == nil {
		s.values[userID] = make(map[string]models.Preference)
	}
	s.values[userID][key] = models.Preference{UserID: userID, Key: key, Value: value}
}

func (s *stubPreferenceRepo) ListByUser(_ context.Context, userID string) ([]models.Preference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listHit++
	out := make([]models.Preference, 0, len(s.values[userID]))
	for _, p := range s.values[userID] {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubPreferenceRepo) Get(_ context.Context, userID, key string) (*models.Preference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.values[userID][key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (s *stubPreferenceRepo) Upsert(_ context.Context, pref *models.Preference) error {
	s.set(pref.UserID, pref.Key, pref.Value)
	return nil
}

func (s *stubPreferenceRepo) BulkUpsert(ctx context.Context, prefs []models.Preference) error {
	for i := range prefs {
		if err := s.Upsert(ctx, &prefs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubPreferenceRepo) ListUserIDsWithValue(_ context.Context, key, value string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for userID, prefs := range s.values {
		if prefs[key].Value == value {
			ids = append(ids, userID)
		}
	}
	return ids, nil
}

type stubAudit struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (s *stubAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return nil
}

func (s *stubAudit) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.logs))
	for _, l := range s.logs {
		out = append(out, l.Action)
	}
	return out
}

type stubInvalidator struct {
	users []string
	all   int
}

func (s *stubInvalidator) InvalidateUser(_ context.Context, userID string) error {
	s.users = append(s.users, userID)
	return nil
}

func (s *stubInvalidator) InvalidateAll(context.Context) error {
	s.all++
	return nil
}

type stubOverrides map[string]weekcycle.Override

func (s stubOverrides) Override(_ context.Context, userID string) (weekcycle.Override, error) {
	return s[userID], nil
}

// Week 2 of 2024 is even (A); week 3 is odd (B).
var (
	mondayWeekA = time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)
	sundayWeekA = time.Date(2024, time.January, 14, 20, 0, 0, 0, time.UTC)
	mondayWeekB = time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)
)

func course(id string, day int, start, end string, weekType weekcycle.WeekType, materials ...string) models.Course {
	return models.Course{
		ID:        id,
		UserID:    "u1",
		Title:     id,
		StartTime: start,
		EndTime:   end,
		DayOfWeek: day,
		Materials: materials,
		WeekType:  weekType,
	}
}
