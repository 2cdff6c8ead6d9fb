package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bioclass-api/internal/models"
	"github.com/noah-isme/bioclass-api/pkg/response"
)

const pdfContentType = "application/pdf"

type enrollmentService interface {
	Enroll(ctx context.Context, studentID string, req models.EnrollRequest) (*models.Enrollment, bool, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
	Mine(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
	Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.EnrollmentDetail, error)
	Approve(ctx context.Context, id string) (*models.ApprovalResult, error)
	Toggle(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	CompleteCourse(ctx context.Context, courseID string) (*models.CompletionResult, error)
	Certificate(ctx context.Context, id string, claims *models.JWTClaims) (*models.CertificateData, error)
	CertificatePDF(ctx context.Context, id string, claims *models.JWTClaims) ([]byte, string, error)
}

// EnrollmentHandler exposes student enrollment, admin approval and
// certificate endpoints.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

// Enroll godoc
// @Summary Enroll in a course
// @Description Returns the existing enrollment when the student is already enrolled
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body models.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req models.EnrollRequest
	if !bindJSON(c, &req) {
		return
	}

	enrollment, created, err := h.service.Enroll(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, enrollment)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Mine godoc
// @Summary My enrollments
// @Tags Enrollments
// @Produce json
// @Param status query string false "Enrollment status"
// @Success 200 {object} response.Envelope
// @Router /me/enrollments [get]
func (h *EnrollmentHandler) Mine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	rows, err := h.service.Mine(c.Request.Context(), claims.UserID, statusQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Get godoc
// @Summary Enrollment detail
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param status query string false "Enrollment status"
// @Param search query string false "Student name or course title"
// @Param student_id query string false "Student ID"
// @Param course_id query string false "Course ID"
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := models.EnrollmentFilter{
		StudentID: strings.TrimSpace(c.Query("student_id")),
		CourseID:  strings.TrimSpace(c.Query("course_id")),
		Status:    statusQuery(c),
		Search:    strings.TrimSpace(c.Query("search")),
	}
	rows, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Approve godoc
// @Summary Approve a pending enrollment
// @Description Activates the enrollment and records its revenue transaction atomically
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/enrollments/{id}/approve [post]
func (h *EnrollmentHandler) Approve(c *gin.Context) {
	result, err := h.service.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Toggle godoc
// @Summary Cancel or reactivate an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/enrollments/{id}/toggle [post]
func (h *EnrollmentHandler) Toggle(c *gin.Context) {
	detail, err := h.service.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// CompleteCourse godoc
// @Summary Mark every non-cancelled enrollment of a course as completed
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/courses/{id}/complete [post]
func (h *EnrollmentHandler) CompleteCourse(c *gin.Context) {
	result, err := h.service.CompleteCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Certificate godoc
// @Summary Certificate data for a completed enrollment
// @Tags Certificates
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollments/{id}/certificate [get]
func (h *EnrollmentHandler) Certificate(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	data, err := h.service.Certificate(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}

// CertificatePDF godoc
// @Summary Download the certificate PDF
// @Tags Certificates
// @Produce application/pdf
// @Param id path string true "Enrollment ID"
// @Success 200 {file} file
// @Failure 412 {object} response.Envelope
// @Router /enrollments/{id}/certificate/pdf [get]
func (h *EnrollmentHandler) CertificatePDF(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	payload, filename, err := h.service.CertificatePDF(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, pdfContentType, filename, payload)
}

func statusQuery(c *gin.Context) models.EnrollmentStatus {
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	if status == "" || status == "all" {
		return ""
	}
	return models.EnrollmentStatus(status)
}
