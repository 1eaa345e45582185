package handler

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/internal/service"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
	"github.com/noah-isme/school-planner-api/pkg/response"
)

type exportService interface {
	Generate(ctx context.Context, userID string, format models.ExportFormat, date time.Time) (*dto.ExportResponse, error)
	Open(token string) (*os.File, string, error)
}

// ExportHandler renders timetables to files and serves signed downloads.
type ExportHandler struct {
	service exportService
	loc     *time.Location
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc exportService, loc *time.Location) *ExportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ExportHandler{service: svc, loc: loc}
}

// Generate godoc
// @Summary Export timetable
// @Description Render the courses as csv, pdf or ics and return a signed download link
// @Tags Exports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	var date time.Time
	if req.Date != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, req.Date, h.loc)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	res, err := h.service.Generate(c.Request.Context(), userID, req.Format, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Download godoc
// @Summary Download export
// @Description Stream a generated export; the token is the authorisation
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, name, err := h.service.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export"))
		return
	}
	response.Attachment(c, file, info.Size(), name, service.FormatFromFilename(name).ContentType())
}
