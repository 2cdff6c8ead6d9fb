package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bioclass-api/internal/models"
	"github.com/noah-isme/bioclass-api/pkg/response"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	defaultPageSize = 20
)

type profileService interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
	Update(ctx context.Context, id string, req models.ProfileUpdateRequest) (*models.Profile, error)
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.StudentSummary, *models.Pagination, error)
	ExportStudentsCSV(ctx context.Context, search string) ([]byte, string, error)
}

// ProfileHandler serves the caller's own profile and the admin student directory.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(service profileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Me godoc
// @Summary Get my profile
// @Tags Profiles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/profile [get]
func (h *ProfileHandler) Me(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	profile, err := h.service.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Update godoc
// @Summary Update my profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Param payload body models.ProfileUpdateRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me/profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req models.ProfileUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.service.Update(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Students godoc
// @Summary List students
// @Tags Profiles
// @Produce json
// @Param search query string false "Name, email or CPF"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/students [get]
func (h *ProfileHandler) Students(c *gin.Context) {
	filter := models.StudentFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     parsePositiveInt(c.Query("page"), 1),
		PageSize: parsePositiveInt(c.Query("limit"), defaultPageSize),
	}
	students, pagination, err := h.service.ListStudents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// ExportStudents godoc
// @Summary Export students as CSV
// @Tags Profiles
// @Produce text/csv
// @Param search query string false "Name, email or CPF"
// @Success 200 {file} file
// @Router /admin/students/export [get]
func (h *ProfileHandler) ExportStudents(c *gin.Context) {
	payload, filename, err := h.service.ExportStudentsCSV(c.Request.Context(), strings.TrimSpace(c.Query("search")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, csvContentType, filename, payload)
}
