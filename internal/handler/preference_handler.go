package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-planner-api/internal/dto"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
	"github.com/noah-isme/school-planner-api/pkg/response"
)

type preferenceService interface {
	List(ctx context.Context, userID string) ([]dto.PreferenceItem, error)
	Get(ctx context.Context, userID, key string) (*dto.PreferenceItem, error)
	Update(ctx context.Context, userID string, req dto.UpdatePreferenceRequest) (*dto.PreferenceItem, error)
	BulkUpdate(ctx context.Context, userID string, req dto.BulkUpdatePreferenceRequest) ([]dto.PreferenceItem, error)
}

type backgroundService interface {
	Upload(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (*dto.BackgroundResponse, error)
	URL(ctx context.Context, userID string) (*dto.BackgroundResponse, error)
}

// PreferenceHandler exposes per-user appearance, reminder and week-override settings.
type PreferenceHandler struct {
	service     preferenceService
	backgrounds backgroundService
}

// NewPreferenceHandler constructs a preference handler. backgrounds may be nil
// when image uploads are disabled.
func NewPreferenceHandler(svc preferenceService, backgrounds backgroundService) *PreferenceHandler {
	return &PreferenceHandler{service: svc, backgrounds: backgrounds}
}

// List godoc
// @Summary List preferences
// @Tags Preferences
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /preferences [get]
func (h *PreferenceHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Get godoc
// @Summary Get preference
// @Tags Preferences
// @Security BearerAuth
// @Produce json
// @Param key path string true "Preference key"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /preferences/{key} [get]
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), userID, c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Update godoc
// @Summary Update preference
// @Tags Preferences
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param key path string true "Preference key"
// @Param payload body dto.UpdatePreferenceRequest true "Preference payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /preferences/{key} [patch]
func (h *PreferenceHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	key := c.Param("key")
	var req dto.UpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preference payload"))
		return
	}
	if req.Key != "" && req.Key != key {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "key mismatch"))
		return
	}
	req.Key = key

	item, err := h.service.Update(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// BulkUpdate godoc
// @Summary Update several preferences
// @Description All items are validated first; nothing is stored when one is invalid
// @Tags Preferences
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.BulkUpdatePreferenceRequest true "Preferences"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /preferences [put]
func (h *PreferenceHandler) BulkUpdate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req dto.BulkUpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preference payload"))
		return
	}
	items, err := h.service.BulkUpdate(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// UploadBackground godoc
// @Summary Upload background image
// @Tags Preferences
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /preferences/background [post]
func (h *PreferenceHandler) UploadBackground(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if h.backgrounds == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "background images are disabled"))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "cannot read upload"))
		return
	}
	defer file.Close()

	res, err := h.backgrounds.Upload(c.Request.Context(), userID, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Background godoc
// @Summary Background image URL
// @Description Returns a short-lived presigned URL of the current background
// @Tags Preferences
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /preferences/background [get]
func (h *PreferenceHandler) Background(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if h.backgrounds == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "background images are disabled"))
		return
	}
	res, err := h.backgrounds.URL(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}
