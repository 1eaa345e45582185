package dto

import (
	"time"

	"github.com/noah-isme/school-planner-api/internal/models"
)

// ExportRequest asks for a timetable file.
type ExportRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf ics"`
	Date   string              `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// ExportResponse returns the signed download link.
type ExportResponse struct {
	Format      models.ExportFormat `json:"format"`
	Filename    string              `json:"filename"`
	Token       string              `json:"token"`
	DownloadURL string              `json:"download_url"`
	ExpiresAt   time.Time           `json:"expires_at"`
}
