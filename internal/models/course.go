package models

import (
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/school-planner-api/internal/weekcycle"
)

// Course is a recurring weekly class owned by one user. Courses are immutable
// once stored: they are created and deleted, never edited in place.
type Course struct {
	ID        string             `db:"id" json:"id"`
	UserID    string             `db:"user_id" json:"user_id"`
	Title     string             `db:"title" json:"title"`
	StartTime string             `db:"start_time" json:"start_time"`
	EndTime   string             `db:"end_time" json:"end_time"`
	DayOfWeek int                `db:"day_of_week" json:"day_of_week"`
	Materials pq.StringArray     `db:"materials" json:"materials"`
	WeekType  weekcycle.WeekType `db:"week_type" json:"week_type"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}

// StartHour returns the hour component of StartTime, or -1 when malformed.
func (c Course) StartHour() int {
	return clockHour(c.StartTime)
}

// MaterialList returns the materials as a plain, never-nil slice.
func (c Course) MaterialList() []string {
	if len(c.Materials) == 0 {
		return []string{}
	}
	out := make([]string, len(c.Materials))
	copy(out, c.Materials)
	return out
}

func clockHour(hhmm string) int {
	if len(hhmm) < 2 {
		return -1
	}
	h, err := strconv.Atoi(hhmm[:2])
	if err != nil {
		return -1
	}
	return h
}
