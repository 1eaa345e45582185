package models

import "time"

// ReminderSettings are the preferences that drive the evening bag reminder.
type ReminderSettings struct {
	UserID   string `json:"user_id"`
	Enabled  bool   `json:"enabled"`
	Time     string `json:"time"`
	UserName string `json:"user_name"`
}

// ReminderMessage is published to a user's reminder channel.
type ReminderMessage struct {
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ForDate   string    `json:"for_date"`
	Materials []string  `json:"materials"`
	SentAt    time.Time `json:"sent_at"`
}
