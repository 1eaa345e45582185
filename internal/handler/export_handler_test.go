package handler

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/internal/service"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
	"github.com/noah-isme/school-planner-api/pkg/jobs"
)

type fakeExportService struct {
	dir    string
	format models.ExportFormat
	date   time.Time
}

func (f *fakeExportService) Generate(_ context.Context, _ string, format models.ExportFormat, date time.Time) (*dto.ExportResponse, error) {
	f.format, f.date = format, date
	return &dto.ExportResponse{Format: format, Token: "tok", DownloadURL: "/api/v1/exports/tok"}, nil
}

func (f *fakeExportService) Open(token string) (*os.File, string, error) {
	switch token {
	case "expired":
		return nil, "", appErrors.Clone(appErrors.ErrExpired, "download link expired")
	case "tok":
		file, err := os.Open(filepath.Join(f.dir, "timetable_20240108.ics"))
		return file, "timetable_20240108.ics", err
	default:
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
}

func TestExportHandlerGenerate(t *testing.T) {
	svc := &fakeExportService{}
	h := NewExportHandler(svc, time.UTC)

	c, rec := newContext(http.MethodPost, "/exports", strings.NewReader(`{"format":"ics","date":"2024-01-08"}`), "u1")
	h.Generate(c)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, models.ExportFormatICS, svc.format)
	assert.Equal(t, "2024-01-08", svc.date.Format(time.DateOnly))

	c, rec = newContext(http.MethodPost, "/exports", strings.NewReader(`{"format":"pdf","date":"next monday"}`), "u1")
	h.Generate(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "timetable_20240108.ics"), []byte("BEGIN:VCALENDAR"), 0o600))
	h := NewExportHandler(&fakeExportService{dir: dir}, nil)

	c, rec := newContext(http.MethodGet, "/exports/tok", nil, "")
	c.AddParam("token", "tok")
	h.Download(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BEGIN:VCALENDAR", rec.Body.String())
	assert.Equal(t, models.ExportFormatICS.ContentType(), rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="timetable_20240108.ics"`)

	c, rec = newContext(http.MethodGet, "/exports/expired", nil, "")
	c.AddParam("token", "expired")
	h.Download(c)
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestMetricsHandlerReadyAndSummary(t *testing.T) {
	metrics := service.NewMetricsService()
	checks := map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("dial tcp: connection refused") },
	}
	h := NewMetricsHandler(metrics, checks, func() jobs.Stats { return jobs.Stats{Processed: 3} })

	c, rec := newContext(http.MethodGet, "/ready", nil, "")
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)

	c, rec = newContext(http.MethodGet, "/admin/metrics", nil, "admin")
	h.Summary(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"processed":3`)

	healthy := NewMetricsHandler(metrics, nil, nil)
	c, rec = newContext(http.MethodGet, "/ready", nil, "")
	healthy.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)
}
