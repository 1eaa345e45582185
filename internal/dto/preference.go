package dto

// PreferenceItem represents a preference exposed via API.
type PreferenceItem struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description"`
	IsDefault   bool   `json:"is_default"`
}

// UpdatePreferenceRequest describes payload for updating a single preference.
type UpdatePreferenceRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// BulkUpdatePreferenceRequest holds multiple updates applied together.
type BulkUpdatePreferenceRequest struct {
	Items []UpdatePreferenceRequest `json:"items" validate:"required,min=1,dive"`
}

// BackgroundResponse points at the uploaded background image.
type BackgroundResponse struct {
	Object    string `json:"object"`
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}
