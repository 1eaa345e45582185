package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/internal/weekcycle"
)

// seedFile is the YAML layout accepted by planner-seed.
type seedFile struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	Email       string            `yaml:"email"`
	Replace     bool              `yaml:"replace"`
	Courses     []seedCourse      `yaml:"courses"`
	Preferences map[string]string `yaml:"preferences"`
}

type seedCourse struct {
	Title     string   `yaml:"title"`
	Day       int      `yaml:"day"`
	Start     string   `yaml:"start"`
	End       string   `yaml:"end"`
	Week      string   `yaml:"week"`
	Materials []string `yaml:"materials"`
}

func parseSeed(r io.Reader) (*seedFile, error) {
	var file seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	for i, u := range file.Users {
		if u.Email == "" {
			return nil, fmt.Errorf("users[%d]: email is required", i)
		}
	}
	return &file, nil
}

func (u seedUser) courseRequest() (dto.BulkCreateCourseRequest, error) {
	req := dto.BulkCreateCourseRequest{Courses: make([]dto.CreateCourseRequest, 0, len(u.Courses))}
	for i, c := range u.Courses {
		week := c.Week
		if week == "" {
			week = string(weekcycle.WeekTypeBoth)
		}
		wt, err := weekcycle.ParseWeekType(week)
		if err != nil {
			return req, fmt.Errorf("%s courses[%d]: %w", u.Email, i, err)
		}
		req.Courses = append(req.Courses, dto.CreateCourseRequest{
			Title:     c.Title,
			StartTime: c.Start,
			EndTime:   c.End,
			DayOfWeek: c.Day,
			Materials: c.Materials,
			WeekType:  wt,
		})
	}
	return req, nil
}

func (u seedUser) preferenceRequest() dto.BulkUpdatePreferenceRequest {
	keys := make([]string, 0, len(u.Preferences))
	for k := range u.Preferences {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	req := dto.BulkUpdatePreferenceRequest{Items: make([]dto.UpdatePreferenceRequest, 0, len(keys))}
	for _, k := range keys {
		req.Items = append(req.Items, dto.UpdatePreferenceRequest{Key: k, Value: u.Preferences[k]})
	}
	return req
}

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type courseWriter interface {
	List(ctx context.Context, userID string) ([]models.Course, error)
	Delete(ctx context.Context, userID, id string) error
	BulkCreate(ctx context.Context, userID string, req dto.BulkCreateCourseRequest) ([]models.Course, error)
}

type preferenceWriter interface {
	BulkUpdate(ctx context.Context, userID string, req dto.BulkUpdatePreferenceRequest) ([]dto.PreferenceItem, error)
}

type seeder struct {
	users   userFinder
	courses courseWriter
	prefs   preferenceWriter
}

type seedReport struct {
	Users       int
	Courses     int
	Removed     int
	Preferences int
}

// apply seeds every user in file. Users must already be registered.
func (s seeder) apply(ctx context.Context, file *seedFile) (seedReport, error) {
	var report seedReport
	for _, u := range file.Users {
		user, err := s.users.FindByEmail(ctx, u.Email)
		if err != nil {
			return report, fmt.Errorf("lookup %s: %w", u.Email, err)
		}

		if u.Replace {
			existing, err := s.courses.List(ctx, user.ID)
			if err != nil {
				return report, err
			}
			for _, c := range existing {
				if err := s.courses.Delete(ctx, user.ID, c.ID); err != nil {
					return report, err
				}
				report.Removed++
			}
		}

		if len(u.Courses) > 0 {
			req, err := u.courseRequest()
			if err != nil {
				return report, err
			}
			created, err := s.courses.BulkCreate(ctx, user.ID, req)
			if err != nil {
				return report, fmt.Errorf("seed courses for %s: %w", u.Email, err)
			}
			report.Courses += len(created)
		}

		if len(u.Preferences) > 0 {
			items, err := s.prefs.BulkUpdate(ctx, user.ID, u.preferenceRequest())
			if err != nil {
				return report, fmt.Errorf("seed preferences for %s: %w", u.Email, err)
			}
			report.Preferences += len(items)
		}
		report.Users++
	}
	return report, nil
}
