package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bioclass-api/internal/models"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
)

type enrollmentServiceMock struct {
	enrollResp  *models.Enrollment
	created     bool
	err         error
	rows        []models.EnrollmentDetail
	approval    *models.ApprovalResult
	certificate *models.CertificateData
	pdf         []byte

	lastStudent string
	lastStatus  models.EnrollmentStatus
	lastFilter  models.EnrollmentFilter
	lastClaims  *models.JWTClaims
	lastID      string
}

func (m *enrollmentServiceMock) Enroll(_ context.Context, studentID string, req models.EnrollRequest) (*models.Enrollment, bool, error) {
	m.lastStudent = studentID
	return m.enrollResp, m.created, m.err
}

func (m *enrollmentServiceMock) List(_ context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	m.lastFilter = filter
	return m.rows, m.err
}

func (m *enrollmentServiceMock) Mine(_ context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	m.lastStudent = studentID
	m.lastStatus = status
	return m.rows, m.err
}

func (m *enrollmentServiceMock) Get(_ context.Context, id string, claims *models.JWTClaims) (*models.EnrollmentDetail, error) {
	m.lastID = id
	m.lastClaims = claims
	if m.err != nil {
		return nil, m.err
	}
	return &m.rows[0], nil
}

func (m *enrollmentServiceMock) Approve(_ context.Context, id string) (*models.ApprovalResult, error) {
	m.lastID = id
	return m.approval, m.err
}

func (m *enrollmentServiceMock) Toggle(_ context.Context, id string) (*models.EnrollmentDetail, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return &m.rows[0], nil
}

func (m *enrollmentServiceMock) CompleteCourse(_ context.Context, courseID string) (*models.CompletionResult, error) {
	m.lastID = courseID
	return &models.CompletionResult{CourseID: courseID, Updated: 3}, m.err
}

func (m *enrollmentServiceMock) Certificate(_ context.Context, id string, claims *models.JWTClaims) (*models.CertificateData, error) {
	m.lastID = id
	m.lastClaims = claims
	return m.certificate, m.err
}

func (m *enrollmentServiceMock) CertificatePDF(_ context.Context, id string, claims *models.JWTClaims) ([]byte, string, error) {
	m.lastID = id
	m.lastClaims = claims
	if m.err != nil {
		return nil, "", m.err
	}
	return m.pdf, "certificado-1a2b3c4d.pdf", nil
}

func TestEnrollmentHandlerEnrollStatusCodes(t *testing.T) {
	tests := []struct {
		name    string
		created bool
		want    int
	}{
		{name: "new enrollment", created: true, want: http.StatusCreated},
		{name: "already enrolled", created: false, want: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &enrollmentServiceMock{
				enrollResp: &models.Enrollment{ID: "enr-1", Status: models.EnrollmentPending},
				created:    tc.created,
			}
			c, rec := newTestContext(http.MethodPost, "/enrollments", jsonBody(`{"course_id":"8a5d3c1e-2f4b-4c6d-9e8f-0a1b2c3d4e5f"}`))
			withUser(c, "student-1", models.RoleStudent)

			NewEnrollmentHandler(svc).Enroll(c)

			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, "student-1", svc.lastStudent)
			var got models.Enrollment
			decodeData(t, rec, &got)
			assert.Equal(t, "enr-1", got.ID)
		})
	}
}

func TestEnrollmentHandlerEnrollRequiresUser(t *testing.T) {
	c, rec := newTestContext(http.MethodPost, "/enrollments", jsonBody(`{"course_id":"x"}`))

	NewEnrollmentHandler(&enrollmentServiceMock{}).Enroll(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEnrollmentHandlerEnrollInvalidJSON(t *testing.T) {
	c, rec := newTestContext(http.MethodPost, "/enrollments", jsonBody(`{"course_id":`))
	withUser(c, "student-1", models.RoleStudent)

	NewEnrollmentHandler(&enrollmentServiceMock{}).Enroll(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error["code"])
}

func TestEnrollmentHandlerMinePassesStatus(t *testing.T) {
	svc := &enrollmentServiceMock{rows: []models.EnrollmentDetail{}}
	c, rec := newTestContext(http.MethodGet, "/me/enrollments?status=Completed", nil)
	withUser(c, "student-1", models.RoleStudent)

	NewEnrollmentHandler(svc).Mine(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.EnrollmentCompleted, svc.lastStatus)
	assert.Equal(t, "student-1", svc.lastStudent)
}

func TestEnrollmentHandlerListFilters(t *testing.T) {
	svc := &enrollmentServiceMock{rows: []models.EnrollmentDetail{}}
	c, rec := newTestContext(http.MethodGet, "/admin/enrollments?status=all&search=ana&course_id=c-1", nil)

	NewEnrollmentHandler(svc).List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.EnrollmentFilter{CourseID: "c-1", Search: "ana"}, svc.lastFilter)
}

func TestEnrollmentHandlerApproveConflict(t *testing.T) {
	svc := &enrollmentServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "enrollment is not pending")}
	c, rec := newTestContext(http.MethodPost, "/admin/enrollments/enr-1/approve", nil)
	c.AddParam("id", "enr-1")

	NewEnrollmentHandler(svc).Approve(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "enr-1", svc.lastID)
}

func TestEnrollmentHandlerCompleteCourse(t *testing.T) {
	svc := &enrollmentServiceMock{}
	c, rec := newTestContext(http.MethodPost, "/admin/courses/course-1/complete", nil)
	c.AddParam("id", "course-1")

	NewEnrollmentHandler(svc).CompleteCourse(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.CompletionResult
	decodeData(t, rec, &got)
	assert.Equal(t, int64(3), got.Updated)
}

func TestEnrollmentHandlerCertificatePDF(t *testing.T) {
	svc := &enrollmentServiceMock{pdf: []byte("%PDF-1.3")}
	c, rec := newTestContext(http.MethodGet, "/enrollments/enr-1/certificate/pdf", nil)
	c.AddParam("id", "enr-1")
	withUser(c, "student-1", models.RoleStudent)

	NewEnrollmentHandler(svc).CertificatePDF(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "certificado-1a2b3c4d.pdf")
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
	assert.Equal(t, "student-1", svc.lastClaims.UserID)
}

func TestEnrollmentHandlerCertificateNotCompleted(t *testing.T) {
	svc := &enrollmentServiceMock{err: appErrors.Clone(appErrors.ErrPreconditionFailed, "course not completed")}
	c, rec := newTestContext(http.MethodGet, "/enrollments/enr-1/certificate", nil)
	c.AddParam("id", "enr-1")
	withUser(c, "student-1", models.RoleStudent)

	NewEnrollmentHandler(svc).Certificate(c)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}
