package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/middleware"
	"github.com/noah-isme/school-planner-api/pkg/response"
)

type weekService interface {
	Current(ctx context.Context, userID string, date time.Time, showNextWeek bool) (*dto.WeekInfo, error)
}

// WeekHandler exposes the A/B week of a date.
type WeekHandler struct {
	service weekService
	loc     *time.Location
}

// NewWeekHandler constructs a week handler; dates in queries are read in loc.
func NewWeekHandler(svc weekService, loc *time.Location) *WeekHandler {
	return &WeekHandler{service: svc, loc: loc}
}

// Current godoc
// @Summary Effective week label
// @Description Resolve the A/B label of a date, honouring the user's override and the next-week preview
// @Tags Week
// @Security BearerAuth
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Param next query bool false "Preview the following week"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /week [get]
func (h *WeekHandler) Current(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	date, err := dateQuery(c, h.loc, time.Time{})
	if err != nil {
		response.Error(c, err)
		return
	}
	next, err := boolQuery(c, "next")
	if err != nil {
		response.Error(c, err)
		return
	}

	info, err := h.service.Current(c.Request.Context(), userID, date, next)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetWeekLabel(c, string(info.EffectiveLabel))
	response.JSON(c, http.StatusOK, info, middleware.ExtractMeta(c))
}
