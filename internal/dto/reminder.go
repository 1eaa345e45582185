package dto

// ReminderStatus tells polling clients whether the bag reminder is due now.
type ReminderStatus struct {
	Enabled             bool     `json:"enabled"`
	Time                string   `json:"time"`
	Due                 bool     `json:"due"`
	TomorrowIsSchoolDay bool     `json:"tomorrow_is_school_day"`
	Message             string   `json:"message,omitempty"`
	Materials           []string `json:"materials,omitempty"`
}
