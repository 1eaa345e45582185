package dto

import "github.com/noah-isme/school-planner-api/internal/weekcycle"

// CreateCourseRequest is the payload for adding a recurring course.
type CreateCourseRequest struct {
	Title     string             `json:"title" validate:"required,max=120"`
	StartTime string             `json:"start_time" validate:"required,hhmm"`
	EndTime   string             `json:"end_time" validate:"required,hhmm"`
	DayOfWeek int                `json:"day_of_week" validate:"required,min=1,max=7"`
	Materials []string           `json:"materials" validate:"omitempty,max=50,dive,max=120"`
	WeekType  weekcycle.WeekType `json:"week_type" validate:"required,oneof=both A B"`
}

// BulkCreateCourseRequest holds courses created together (imports, seeds).
type BulkCreateCourseRequest struct {
	Courses []CreateCourseRequest `json:"courses" validate:"required,min=1,max=200,dive"`
}

// ImportResult summarises an iCalendar import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}
