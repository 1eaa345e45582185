package dto

import "github.com/noah-isme/school-planner-api/internal/weekcycle"

// WeekInfo describes the alternating-week state of a date for one user.
type WeekInfo struct {
	Date           string              `json:"date"`
	ISOWeek        int                 `json:"iso_week"`
	WeekStart      string              `json:"week_start"`
	NaturalLabel   weekcycle.WeekLabel `json:"natural_label"`
	Override       weekcycle.Override  `json:"override"`
	EffectiveLabel weekcycle.WeekLabel `json:"effective_label"`
	ShowNextWeek   bool                `json:"show_next_week"`
}
