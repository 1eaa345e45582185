package models

import "time"

// PreferenceType defines how a preference value is validated and decoded.
type PreferenceType string

const (
	PreferenceTypeString    PreferenceType = "STRING"
	PreferenceTypeBoolean   PreferenceType = "BOOLEAN"
	PreferenceTypeColor     PreferenceType = "COLOR"
	PreferenceTypeTime      PreferenceType = "TIME"
	PreferenceTypeWeekLabel PreferenceType = "WEEK_LABEL"
)

// Preference keys.
const (
	PrefTitle                = "title"
	PrefPrimaryColor         = "primary_color"
	PrefSecondaryColor       = "secondary_color"
	PrefFont                 = "font"
	PrefBackgroundColor      = "background_color"
	PrefFontColor            = "font_color"
	PrefBackgroundObject     = "background_object"
	PrefNotificationsEnabled = "notifications_enabled"
	PrefNotificationTime     = "notification_time"
	PrefUserName             = "user_name"
	PrefOverrideWeekEnabled  = "override_week_enabled"
	PrefOverrideWeekLabel    = "override_week_label"
)

// Preference is one persisted per-user setting.
type Preference struct {
	UserID    string         `db:"user_id" json:"-"`
	Key       string         `db:"key" json:"key"`
	Value     string         `db:"value" json:"value"`
	Type      PreferenceType `db:"type" json:"type"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
