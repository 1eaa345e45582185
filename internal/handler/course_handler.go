package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/models"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
	"github.com/noah-isme/school-planner-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, userID string) ([]models.Course, error)
	Get(ctx context.Context, userID, id string) (*models.Course, error)
	Create(ctx context.Context, userID string, req dto.CreateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, userID, id string) error
}

type calendarImporter interface {
	ImportICS(ctx context.Context, userID string, r io.Reader) (*dto.ImportResult, error)
}

// CourseHandler manages the recurring courses of the signed-in user.
type CourseHandler struct {
	service  courseService
	importer calendarImporter
	maxICS   int64
}

// NewCourseHandler constructs a course handler. maxImportSize bounds uploaded
// .ics files; zero means 1 MiB.
func NewCourseHandler(svc courseService, importer calendarImporter, maxImportSize int64) *CourseHandler {
	if maxImportSize <= 0 {
		maxImportSize = 1 << 20
	}
	return &CourseHandler{service: svc, importer: importer, maxICS: maxImportSize}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courses, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, map[string]interface{}{"total": len(courses)})
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	course, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Create godoc
// @Summary Create course
// @Description Add a recurring course shown in both weeks, A weeks or B weeks
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Import courses from iCalendar
// @Description Upload an .ics file as multipart field "file" or as a text/calendar body
// @Tags Courses
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "iCalendar file"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /courses/import [post]
func (h *CourseHandler) Import(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var reader io.Reader
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
			return
		}
		if header.Size > h.maxICS {
			response.Error(c, appErrors.Clone(appErrors.ErrPayloadTooLarge, "calendar file is too large"))
			return
		}
		file, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "cannot read upload"))
			return
		}
		defer file.Close()
		reader = file
	} else {
		reader = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxICS)
	}

	result, err := h.importer.ImportICS(c.Request.Context(), userID, reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, appErrors.Clone(appErrors.ErrPayloadTooLarge, "calendar file is too large"))
			return
		}
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Imported > 0 {
		status = http.StatusCreated
	}
	response.JSON(c, status, result)
}
