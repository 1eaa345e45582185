package dto

import (
	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/internal/weekcycle"
)

// TimetableWeek is the hour-by-day grid shown for one effective week.
type TimetableWeek struct {
	Week  WeekInfo        `json:"week"`
	Days  []TimetableDay  `json:"days"`
	Hours []int           `json:"hours"`
	Rows  []TimetableHour `json:"rows"`
}

// TimetableDay labels a grid column.
type TimetableDay struct {
	DayOfWeek int    `json:"day_of_week"`
	Name      string `json:"name"`
	Date      string `json:"date"`
}

// TimetableHour is one grid row; Cells is indexed by day_of_week-1.
type TimetableHour struct {
	Hour  int              `json:"hour"`
	Label string           `json:"label"`
	Cells []*models.Course `json:"cells"`
}

// TimetableSlot is one visible course in a single-day view.
type TimetableSlot struct {
	Hour   int            `json:"hour"`
	Label  string         `json:"label"`
	Course *models.Course `json:"course,omitempty"`
}

// TimetableDayView is the single-day slot list used by narrow clients.
type TimetableDayView struct {
	Week      WeekInfo        `json:"week"`
	DayOfWeek int             `json:"day_of_week"`
	Name      string          `json:"name"`
	Slots     []TimetableSlot `json:"slots"`
}

// BagItem is one course of tomorrow with the materials to pack.
type BagItem struct {
	CourseID  string   `json:"course_id"`
	Title     string   `json:"title"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Materials []string `json:"materials"`
}

// BagView lists what to pack for the day after Date.
type BagView struct {
	Date      string              `json:"date"`
	Tomorrow  string              `json:"tomorrow"`
	DayOfWeek int                 `json:"day_of_week"`
	Label     weekcycle.WeekLabel `json:"label"`
	Courses   []BagItem           `json:"courses"`
	Materials []string            `json:"materials"`
}
