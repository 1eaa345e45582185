package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-planner-api/internal/dto"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
	"github.com/noah-isme/school-planner-api/pkg/response"
)

type reminderService interface {
	Check(ctx context.Context, userID string, now time.Time) (*dto.ReminderStatus, error)
}

// ReminderHandler lets clients poll the bag reminder.
type ReminderHandler struct {
	service reminderService
	now     func() time.Time
}

// NewReminderHandler constructs a reminder handler.
func NewReminderHandler(svc reminderService) *ReminderHandler {
	return &ReminderHandler{service: svc, now: time.Now}
}

// Status godoc
// @Summary Reminder status
// @Description Whether the bag reminder is due now (or at the given RFC3339 instant)
// @Tags Reminders
// @Security BearerAuth
// @Produce json
// @Param at query string false "Instant to evaluate (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /reminders/status [get]
func (h *ReminderHandler) Status(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	now := h.now()
	if raw := c.Query("at"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at must be RFC3339"))
			return
		}
		now = at
	}

	status, err := h.service.Check(c.Request.Context(), userID, now)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}
