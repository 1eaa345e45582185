package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-planner-api/internal/middleware"
	"github.com/noah-isme/school-planner-api/internal/models"
	appErrors "github.com/noah-isme/school-planner-api/pkg/errors"
	"github.com/noah-isme/school-planner-api/pkg/response"
)

// currentUserID writes a 401 and returns false when the request carries no claims.
func currentUserID(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		return nil
	}
	return claims
}

// dateQuery reads ?date=YYYY-MM-DD in loc, falling back to fallback when absent.
func dateQuery(c *gin.Context, loc *time.Location, fallback time.Time) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		return fallback, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	date, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
	}
	return date, nil
}

// boolQuery accepts the usual strconv spellings; anything else is a validation error.
func boolQuery(c *gin.Context, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation, name+" must be a boolean")
	}
	return value, nil
}
