package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/bioclass-api/internal/models"
	"github.com/noah-isme/bioclass-api/internal/repository"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
	"github.com/noah-isme/bioclass-api/pkg/export"
)

const (
	defaultCertificateCPF = "000.000.000-00"
	defaultWorkload       = "40h"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
	FindDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	FindByStudentCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Approve(ctx context.Context, id string, approvedAt time.Time, newTxn func(models.EnrollmentDetail) models.Transaction) (*models.EnrollmentDetail, *models.Transaction, error)
	TransitionStatus(ctx context.Context, id string, from []models.EnrollmentStatus, to models.EnrollmentStatus, at time.Time) error
	CompleteCourse(ctx context.Context, courseID string, at time.Time) (int64, error)
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type certificateRenderer interface {
	Render(cert export.Certificate) ([]byte, error)
}

// EnrollmentService drives the enrollment lifecycle.
type EnrollmentService struct {
	repo        enrollmentRepository
	courses     courseFinder
	cache       *CacheService
	metrics     *MetricsService
	certificate certificateRenderer
	validator   *validator.Validate
	logger      *zap.Logger
	location    *time.Location
	now         func() time.Time
}

// NewEnrollmentService wires the enrollment service. Certificate dates are
// printed in loc.
func NewEnrollmentService(repo enrollmentRepository, courses courseFinder, cache *CacheService, metrics *MetricsService, certificate certificateRenderer, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if certificate == nil {
		certificate = export.NewCertificateRenderer()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &EnrollmentService{
		repo:        repo,
		courses:     courses,
		cache:       cache,
		metrics:     metrics,
		certificate: certificate,
		validator:   validate,
		logger:      logger,
		location:    loc,
		now:         time.Now,
	}
}

// Enroll creates a pending enrollment for the student. Repeated calls return
// the existing enrollment; the boolean reports whether a row was created.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID string, req models.EnrollRequest) (*models.Enrollment, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err)
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.Status != models.CourseStatusActive {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	if existing, err := s.findExisting(ctx, studentID, req.CourseID); err != nil || existing != nil {
		return existing, false, err
	}

	enrollment := &models.Enrollment{
		ID:        uuid.NewString(),
		StudentID: studentID,
		CourseID:  req.CourseID,
		Status:    models.EnrollmentPending,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			existing, findErr := s.findExisting(ctx, studentID, req.CourseID)
			if findErr == nil && existing != nil {
				return existing, false, nil
			}
			return nil, false, appErrors.Clone(appErrors.ErrConflict, "enrollment already exists")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.metrics.RecordEnrollmentTransition(string(models.EnrollmentPending))
	s.cache.InvalidateFor(ctx, MutationEnrollment)
	s.logger.Info("enrollment created",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", studentID),
		zap.String("course_id", req.CourseID),
	)
	return enrollment, true, nil
}

func (s *EnrollmentService) findExisting(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	existing, err := s.repo.FindByStudentCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return existing, nil
}

// List returns enrollments for the admin screen.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return rows, nil
}

// Mine returns the enrollments of one student, optionally narrowed by status.
func (s *EnrollmentService) Mine(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	return s.List(ctx, models.EnrollmentFilter{StudentID: studentID, Status: status})
}

// Get loads one enrollment. Students only see their own.
func (s *EnrollmentService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if claims == nil || (!claims.IsAdmin() && detail.StudentID != claims.UserID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return detail, nil
}

// ApprovalTransaction builds the revenue row recorded when an enrollment is
// approved.
func ApprovalTransaction(detail models.EnrollmentDetail, at time.Time) models.Transaction {
	title := defaultCourseTitle
	if detail.CourseTitle != nil && *detail.CourseTitle != "" {
		title = *detail.CourseTitle
	}
	var amount int64
	if detail.CoursePrice != nil {
		amount = *detail.CoursePrice
	}
	enrollmentID := detail.ID
	studentID := detail.StudentID
	return models.Transaction{
		ID:              uuid.NewString(),
		EnrollmentID:    &enrollmentID,
		UserID:          &studentID,
		AmountCents:     amount,
		PaymentMethod:   models.PaymentMethodManual,
		Status:          models.TransactionPaid,
		Description:     "Aprovação de Matrícula: " + title,
		Category:        models.CategoryRevenue,
		TransactionDate: at,
		CreatedAt:       at,
	}
}

// Approve activates a pending enrollment and records its revenue row in one
// atomic step.
func (s *EnrollmentService) Approve(ctx context.Context, id string) (*models.ApprovalResult, error) {
	at := s.now().UTC()
	detail, txn, err := s.repo.Approve(ctx, id, at, func(d models.EnrollmentDetail) models.Transaction {
		return ApprovalTransaction(d, at)
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		case errors.Is(err, repository.ErrStateChanged):
			return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment is not pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve enrollment")
	}

	s.metrics.RecordEnrollmentTransition(string(models.EnrollmentActive))
	s.cache.InvalidateFor(ctx, MutationEnrollment)
	s.logger.Info("enrollment approved",
		zap.String("enrollment_id", id),
		zap.String("transaction_id", txn.ID),
		zap.Int64("amount_cents", txn.AmountCents),
	)
	return &models.ApprovalResult{Enrollment: *detail, Transaction: *txn}, nil
}

// Toggle flips an enrollment between cancelled and active. Active or
// completed enrollments are cancelled; cancelled ones are reactivated.
// Pending enrollments must go through Approve.
func (s *EnrollmentService) Toggle(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.Get(ctx, id, &models.JWTClaims{Role: models.RoleAdmin})
	if err != nil {
		return nil, err
	}

	var (
		from []models.EnrollmentStatus
		to   models.EnrollmentStatus
	)
	switch strings.ToLower(string(detail.Status)) {
	case "active", "ativo", "completed", "concluido":
		from = []models.EnrollmentStatus{"active", "ativo", "completed", "concluido"}
		to = models.EnrollmentCancelled
	case string(models.EnrollmentCancelled):
		from = []models.EnrollmentStatus{models.EnrollmentCancelled}
		to = models.EnrollmentActive
	default:
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "pending enrollments must be approved")
	}

	at := s.now().UTC()
	if err := s.repo.TransitionStatus(ctx, id, from, to, at); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment status changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}

	s.metrics.RecordEnrollmentTransition(string(to))
	s.cache.InvalidateFor(ctx, MutationEnrollment)
	s.logger.Info("enrollment status toggled",
		zap.String("enrollment_id", id),
		zap.String("from", string(detail.Status)),
		zap.String("to", string(to)),
	)
	detail.Status = to
	detail.UpdatedAt = at
	return detail, nil
}

// CompleteCourse marks every non-cancelled enrollment of a course completed.
func (s *EnrollmentService) CompleteCourse(ctx context.Context, courseID string) (*models.CompletionResult, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	updated, err := s.repo.CompleteCourse(ctx, courseID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete course")
	}
	if updated > 0 {
		s.metrics.RecordEnrollmentTransition(string(models.EnrollmentCompleted))
		s.cache.InvalidateFor(ctx, MutationEnrollment)
	}
	s.logger.Info("course completed", zap.String("course_id", courseID), zap.Int64("enrollments", updated))
	return &models.CompletionResult{CourseID: courseID, Updated: updated}, nil
}

// Certificate returns the certificate data of a completed enrollment.
// Students may only read their own; admins may read any enrollment.
func (s *EnrollmentService) Certificate(ctx context.Context, id string, claims *models.JWTClaims) (*models.CertificateData, error) {
	detail, err := s.Get(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() && !strings.EqualFold(string(detail.Status), string(models.EnrollmentCompleted)) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course not completed yet")
	}

	data := &models.CertificateData{
		EnrollmentID: detail.ID,
		StudentCPF:   defaultCertificateCPF,
		Workload:     defaultWorkload,
		IssuedOn:     s.now().In(s.location).Format(displayDate),
		Code:         strings.ToUpper(strings.SplitN(detail.ID, "-", 2)[0]),
	}
	if detail.StudentName != nil {
		data.StudentName = *detail.StudentName
	}
	if detail.StudentCPF != nil && *detail.StudentCPF != "" {
		data.StudentCPF = *detail.StudentCPF
	}
	if detail.CourseTitle != nil {
		data.CourseTitle = *detail.CourseTitle
	}
	if detail.CourseDuration != nil && *detail.CourseDuration != "" {
		data.Workload = *detail.CourseDuration
	}
	if data.StudentName == "" || data.CourseTitle == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate data unavailable")
	}
	return data, nil
}

// CertificatePDF renders the certificate of an enrollment.
func (s *EnrollmentService) CertificatePDF(ctx context.Context, id string, claims *models.JWTClaims) ([]byte, string, error) {
	data, err := s.Certificate(ctx, id, claims)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.certificate.Render(export.Certificate{
		StudentName: data.StudentName,
		StudentCPF:  data.StudentCPF,
		CourseTitle: data.CourseTitle,
		Workload:    data.Workload,
		IssuedOn:    data.IssuedOn,
		Code:        data.Code,
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	return payload, "certificado-" + strings.ToLower(data.Code) + ".pdf", nil
}
