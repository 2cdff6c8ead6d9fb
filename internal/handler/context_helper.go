package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bioclass-api/internal/middleware"
	"github.com/noah-isme/bioclass-api/internal/models"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
	"github.com/noah-isme/bioclass-api/pkg/response"
)

const queryDateLayout = "2006-01-02"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentUser(c)
}

// requireClaims writes a 401 when the request carries no identity.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

// parseDateQuery reads an optional YYYY-MM-DD parameter as midnight in loc.
func parseDateQuery(c *gin.Context, key string, loc *time.Location) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	parsed, err := time.ParseInLocation(queryDateLayout, raw, loc)
	if err != nil {
		return nil, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "invalid date"), map[string]string{key: "datetime=" + queryDateLayout})
	}
	return &parsed, nil
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
