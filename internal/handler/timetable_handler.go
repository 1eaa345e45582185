package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-planner-api/internal/dto"
	"github.com/noah-isme/school-planner-api/internal/middleware"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
	"github.com/noah-isme/school-planner-api/pkg/response"
)

type timetableService interface {
	Week(ctx context.Context, userID string, date time.Time, showNextWeek bool) (*dto.TimetableWeek, bool, error)
	Day(ctx context.Context, userID string, day int, date time.Time, showNextWeek bool) (*dto.TimetableDayView, error)
	Bag(ctx context.Context, userID string, date time.Time) (*dto.BagView, error)
}

// TimetableHandler serves the week grid, the single-day view and the bag list.
type TimetableHandler struct {
	service timetableService
	loc     *time.Location
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(svc timetableService, loc *time.Location) *TimetableHandler {
	return &TimetableHandler{service: svc, loc: loc}
}

// Week godoc
// @Summary Weekly timetable
// @Description Hour-by-day grid of the courses visible in the effective week
// @Tags Timetable
// @Security BearerAuth
// @Produce json
// @Param date query string false "Any date of the week (YYYY-MM-DD)"
// @Param next query bool false "Show the following week"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetable/week [get]
func (h *TimetableHandler) Week(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	date, next, err := h.dateAndNext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	week, hit, err := h.service.Week(c.Request.Context(), userID, date, next)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetWeekLabel(c, string(week.Week.EffectiveLabel))
	response.JSON(c, http.StatusOK, week, middleware.ExtractMeta(c))
}

// Day godoc
// @Summary Daily timetable
// @Description Slots of one weekday in the effective week
// @Tags Timetable
// @Security BearerAuth
// @Produce json
// @Param day query int false "Weekday 1 (Monday) to 7 (Sunday), defaults to the weekday of date"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Param next query bool false "Show the following week"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetable/day [get]
func (h *TimetableHandler) Day(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	date, next, err := h.dateAndNext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	day := 0
	if raw := strings.TrimSpace(c.Query("day")); raw != "" {
		day, err = strconv.Atoi(raw)
		if err != nil || day < 1 || day > 7 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "day must be between 1 and 7"))
			return
		}
	}

	view, err := h.service.Day(c.Request.Context(), userID, day, date, next)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetWeekLabel(c, string(view.Week.EffectiveLabel))
	response.JSON(c, http.StatusOK, view, middleware.ExtractMeta(c))
}

// Bag godoc
// @Summary Bag for tomorrow
// @Description Courses and materials to pack for the day after date
// @Tags Timetable
// @Security BearerAuth
// @Produce json
// @Param date query string false "Today (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bag [get]
func (h *TimetableHandler) Bag(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	date, err := dateQuery(c, h.loc, time.Time{})
	if err != nil {
		response.Error(c, err)
		return
	}

	bag, err := h.service.Bag(c.Request.Context(), userID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetWeekLabel(c, string(bag.Label))
	response.JSON(c, http.StatusOK, bag, middleware.ExtractMeta(c))
}

func (h *TimetableHandler) dateAndNext(c *gin.Context) (time.Time, bool, error) {
	date, err := dateQuery(c, h.loc, time.Time{})
	if err != nil {
		return time.Time{}, false, err
	}
	next, err := boolQuery(c, "next")
	if err != nil {
		return time.Time{}, false, err
	}
	return date, next, nil
}
