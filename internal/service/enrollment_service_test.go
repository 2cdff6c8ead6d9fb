package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bioclass-api/internal/models"
	"github.com/noah-isme/bioclass-api/internal/repository"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
	"github.com/noah-isme/bioclass-api/pkg/export"
)

// fakeEnrollmentRepo keeps enrollments in memory and mimics the conditional
// writes of the SQL repository.
type fakeEnrollmentRepo struct {
	rows         map[string]*models.EnrollmentDetail
	transactions []models.Transaction
	createErr    error
	approveErr   error
}

func newFakeEnrollmentRepo(rows ...models.EnrollmentDetail) *fakeEnrollmentRepo {
	repo := &fakeEnrollmentRepo{rows: map[string]*models.EnrollmentDetail{}}
	for i := range rows {
		row := rows[i]
		repo.rows[row.ID] = &row
	}
	return repo
}

func (f *fakeEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	out := []models.EnrollmentDetail{}
	for _, row := range f.rows {
		if filter.StudentID != "" && row.StudentID != filter.StudentID {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (f *fakeEnrollmentRepo) FindDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *row
	return &clone, nil
}

func (f *fakeEnrollmentRepo) FindByStudentCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	for _, row := range f.rows {
		if row.StudentID == studentID && row.CourseID == courseID {
			e := row.Enrollment
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.rows[enrollment.ID] = &models.EnrollmentDetail{Enrollment: *enrollment}
	return nil
}

func (f *fakeEnrollmentRepo) Approve(ctx context.Context, id string, approvedAt time.Time, newTxn func(models.EnrollmentDetail) models.Transaction) (*models.EnrollmentDetail, *models.Transaction, error) {
	if f.approveErr != nil {
		return nil, nil, f.approveErr
	}
	row, ok := f.rows[id]
	if !ok {
		return nil, nil, sql.ErrNoRows
	}
	if !strings.EqualFold(string(row.Status), string(models.EnrollmentPending)) {
		return nil, nil, repository.ErrStateChanged
	}
	txn := newTxn(*row)
	row.Status = models.EnrollmentActive
	row.UpdatedAt = approvedAt
	f.transactions = append(f.transactions, txn)
	clone := *row
	return &clone, &txn, nil
}

func (f *fakeEnrollmentRepo) TransitionStatus(ctx context.Context, id string, from []models.EnrollmentStatus, to models.EnrollmentStatus, at time.Time) error {
	row, ok := f.rows[id]
	if !ok {
		return repository.ErrStateChanged
	}
	for _, s := range from {
		if strings.EqualFold(string(row.Status), string(s)) {
			row.Status = to
			return nil
		}
	}
	return repository.ErrStateChanged
}

func (f *fakeEnrollmentRepo) CompleteCourse(ctx context.Context, courseID string, at time.Time) (int64, error) {
	var n int64
	for _, row := range f.rows {
		if row.CourseID == courseID && row.Status != models.EnrollmentCancelled {
			row.Status = models.EnrollmentCompleted
			n++
		}
	}
	return n, nil
}

type fakeCourseFinder struct {
	courses map[string]models.Course
}

func (f *fakeCourseFinder) FindByID(ctx context.Context, id string) (*models.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

type captureCertificate struct {
	cert export.Certificate
}

func (c *captureCertificate) Render(cert export.Certificate) ([]byte, error) {
	c.cert = cert
	return []byte("%PDF-cert"), nil
}

const (
	courseActiveID = "5f0c6a52-3c1e-4b5d-9d1a-2b9f6c1e0a11"
	courseDraftID  = "9b2d4e61-7a3c-4f8e-8b1d-3c5e7f9a1b22"
)

func newEnrollmentFixture(rows ...models.EnrollmentDetail) (*EnrollmentService, *fakeEnrollmentRepo) {
	repo := newFakeEnrollmentRepo(rows...)
	courses := &fakeCourseFinder{courses: map[string]models.Course{
		courseActiveID: {ID: courseActiveID, Title: "Botânica", PriceCents: 29900, Status: models.CourseStatusActive},
		courseDraftID:  {ID: courseDraftID, Title: "Rascunho", Status: models.CourseStatusDraft},
	}}
	svc := NewEnrollmentService(repo, courses, nil, nil, nil, nil, nil, nil)
	return svc, repo
}

func TestEnrollmentServiceEnrollIsIdempotent(t *testing.T) {
	svc, repo := newEnrollmentFixture()

	first, created, err := svc.Enroll(context.Background(), "student-1", models.EnrollRequest{CourseID: courseActiveID})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.EnrollmentPending, first.Status)

	second, created, err := svc.Enroll(context.Background(), "student-1", models.EnrollRequest{CourseID: courseActiveID})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.rows, 1)
}

func TestEnrollmentServiceEnrollDuplicateRace(t *testing.T) {
	existing := enrollmentRow("e1", "pending", nil, time.Now())
	existing.StudentID = "student-1"
	existing.CourseID = courseActiveID
	svc, repo := newEnrollmentFixture()
	repo.createErr = fmt.Errorf("create enrollment: %w", repository.ErrDuplicate)

	// the unique index fires after the existence check; the row shows up on refetch
	svc.repo = &raceRepo{fakeEnrollmentRepo: repo, appear: existing}

	got, created, err := svc.Enroll(context.Background(), "student-1", models.EnrollRequest{CourseID: courseActiveID})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "e1", got.ID)
}

type raceRepo struct {
	*fakeEnrollmentRepo
	appear  models.EnrollmentDetail
	lookups int
}

func (r *raceRepo) FindByStudentCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, sql.ErrNoRows
	}
	e := r.appear.Enrollment
	return &e, nil
}

func TestEnrollmentServiceEnrollRejectsUnknownOrDraftCourse(t *testing.T) {
	svc, _ := newEnrollmentFixture()

	_, _, err := svc.Enroll(context.Background(), "student-1", models.EnrollRequest{CourseID: courseDraftID})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Enroll(context.Background(), "student-1", models.EnrollRequest{CourseID: "not-a-uuid"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceApprove(t *testing.T) {
	row := enrollmentRow("e1", "pending", int64Ptr(29900), time.Now())
	row.StudentID = "student-1"
	svc, repo := newEnrollmentFixture(row)

	result, err := svc.Approve(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentActive, result.Enrollment.Status)
	assert.Equal(t, int64(29900), result.Transaction.AmountCents)
	assert.Equal(t, models.TransactionPaid, result.Transaction.Status)
	assert.Equal(t, "Aprovação de Matrícula: Citologia", result.Transaction.Description)
	require.NotNil(t, result.Transaction.EnrollmentID)
	assert.Equal(t, "e1", *result.Transaction.EnrollmentID)
	require.NotNil(t, result.Transaction.UserID)
	assert.Equal(t, "student-1", *result.Transaction.UserID)
	require.Len(t, repo.transactions, 1)

	_, err = svc.Approve(context.Background(), "e1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.transactions, 1)

	_, err = svc.Approve(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApprovalTransactionDefaults(t *testing.T) {
	at := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	txn := ApprovalTransaction(models.EnrollmentDetail{Enrollment: models.Enrollment{ID: "e9", StudentID: "s9"}}, at)

	assert.Equal(t, int64(0), txn.AmountCents)
	assert.Equal(t, "Aprovação de Matrícula: Curso", txn.Description)
	assert.Equal(t, models.PaymentMethodManual, txn.PaymentMethod)
	assert.Equal(t, models.CategoryRevenue, txn.Category)
	assert.True(t, txn.TransactionDate.Equal(at))
}

func TestEnrollmentServiceToggle(t *testing.T) {
	active := enrollmentRow("a", "ativo", nil, time.Now())
	cancelled := enrollmentRow("c", "cancelled", nil, time.Now())
	pending := enrollmentRow("p", "pending", nil, time.Now())
	svc, repo := newEnrollmentFixture(active, cancelled, pending)

	got, err := svc.Toggle(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentCancelled, got.Status)
	assert.Equal(t, models.EnrollmentCancelled, repo.rows["a"].Status)

	got, err = svc.Toggle(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentActive, got.Status)

	_, err = svc.Toggle(context.Background(), "p")
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.EnrollmentStatus("pending"), repo.rows["p"].Status)
}

func TestEnrollmentServiceCompleteCourse(t *testing.T) {
	a := enrollmentRow("a", "active", nil, time.Now())
	b := enrollmentRow("b", "pending", nil, time.Now())
	c := enrollmentRow("c", "cancelled", nil, time.Now())
	for _, row := range []*models.EnrollmentDetail{&a, &b, &c} {
		row.CourseID = courseActiveID
	}
	svc, repo := newEnrollmentFixture(a, b, c)

	result, err := svc.CompleteCourse(context.Background(), courseActiveID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Updated)
	assert.Equal(t, models.EnrollmentCompleted, repo.rows["a"].Status)
	assert.Equal(t, models.EnrollmentCompleted, repo.rows["b"].Status)
	assert.Equal(t, models.EnrollmentCancelled, repo.rows["c"].Status)

	_, err = svc.CompleteCourse(context.Background(), "unknown")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceCertificate(t *testing.T) {
	row := enrollmentRow("3fa85f64-5717-4562-b3fc-2c963f66afa6", "completed", nil, time.Now())
	row.StudentID = "student-1"
	row.CourseDuration = strPtr("60h")
	pending := enrollmentRow("b7c1d2e3-0000-4000-8000-000000000000", "active", nil, time.Now())
	pending.StudentID = "student-1"
	svc, _ := newEnrollmentFixture(row, pending)
	renderer := &captureCertificate{}
	svc.certificate = renderer
	svc.now = func() time.Time { return time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC) }
	svc.location = time.FixedZone("BRT", -3*3600)

	owner := &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}
	data, err := svc.Certificate(context.Background(), row.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "Ana", data.StudentName)
	assert.Equal(t, "000.000.000-00", data.StudentCPF)
	assert.Equal(t, "60h", data.Workload)
	assert.Equal(t, "30/06/2024", data.IssuedOn)
	assert.Equal(t, "3FA85F64", data.Code)

	_, name, err := svc.CertificatePDF(context.Background(), row.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "certificado-3fa85f64.pdf", name)
	assert.Equal(t, "Citologia", renderer.cert.CourseTitle)

	_, err = svc.Certificate(context.Background(), pending.ID, owner)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	stranger := &models.JWTClaims{UserID: "student-2", Role: models.RoleStudent}
	_, err = svc.Certificate(context.Background(), row.ID, stranger)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	admin := &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}
	_, err = svc.Certificate(context.Background(), pending.ID, admin)
	require.NoError(t, err)
}
