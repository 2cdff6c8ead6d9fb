package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/bioclass-api/internal/models"
)

const enrollmentDetailSelect = `SELECT e.id, e.student_id, e.course_id, e.status, e.enrolled_at, e.updated_at, c.title AS course_title, c.price_cents AS course_price_cents, c.duration AS course_duration, c.image_url AS course_image_url, p.full_name AS student_name, p.email AS student_email, p.cpf AS student_cpf FROM enrollments e LEFT JOIN courses c ON c.id = e.course_id LEFT JOIN profiles p ON p.id = e.student_id`

// EnrollmentRepository provides database access for enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new instance of EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments joined with course and student, newest first.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("LOWER(e.status) = $%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(COALESCE(p.full_name, '')) LIKE $%d OR LOWER(COALESCE(c.title, '')) LIKE $%d)", len(args), len(args)))
	}

	query := enrollmentDetailSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY e.enrolled_at DESC, e.id ASC"

	var rows []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return rows, nil
}

// FindDetail returns one enrollment with its joins.
func (r *EnrollmentRepository) FindDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &detail, nil
}

// FindByStudentCourse returns the enrollment of a student in a course.
func (r *EnrollmentRepository) FindByStudentCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, status, enrolled_at, updated_at FROM enrollments WHERE student_id = $1 AND course_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment by student and course: %w", err)
	}
	return &enrollment, nil
}

// Create inserts an enrollment. A second row for the same student and course
// yields ErrDuplicate.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now
	}
	enrollment.UpdatedAt = now

	const query = `INSERT INTO enrollments (id, student_id, course_id, status, enrolled_at, updated_at) VALUES (:id, :student_id, :course_id, :status, :enrolled_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", classify(err))
	}
	return nil
}

// Approve moves a pending enrollment to active and inserts the ledger row
// built by newTxn, all inside one database transaction. Enrollments that are
// not pending yield ErrStateChanged and nothing is written.
func (r *EnrollmentRepository) Approve(ctx context.Context, id string, approvedAt time.Time, newTxn func(models.EnrollmentDetail) models.Transaction) (detail *models.EnrollmentDetail, txn *models.Transaction, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin approve enrollment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.EnrollmentDetail
	if err = tx.GetContext(ctx, &current, enrollmentDetailSelect+` WHERE e.id = $1 FOR UPDATE OF e`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("lock enrollment: %w", err)
	}
	if !strings.EqualFold(string(current.Status), string(models.EnrollmentPending)) {
		err = ErrStateChanged
		return nil, nil, err
	}

	res, err := tx.ExecContext(ctx, `UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		id, string(models.EnrollmentActive), approvedAt, string(current.Status))
	if err != nil {
		return nil, nil, fmt.Errorf("activate enrollment: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return nil, nil, err
	}
	if n == 0 {
		err = ErrStateChanged
		return nil, nil, err
	}

	row := newTxn(current)
	if err = insertTransaction(ctx, tx, &row); err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit approve enrollment: %w", err)
	}

	current.Status = models.EnrollmentActive
	current.UpdatedAt = approvedAt
	return &current, &row, nil
}

// TransitionStatus sets status to `to` only when the current status is one of
// from. It returns ErrStateChanged when no row matched.
func (r *EnrollmentRepository) TransitionStatus(ctx context.Context, id string, from []models.EnrollmentStatus, to models.EnrollmentStatus, at time.Time) error {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}
	const query = `UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1 AND LOWER(status) = ANY($4)`
	res, err := r.db.ExecContext(ctx, query, id, string(to), at, pq.Array(states))
	if err != nil {
		return fmt.Errorf("transition enrollment status: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStateChanged
	}
	return nil
}

// CompleteCourse marks every non-cancelled enrollment of a course completed
// in a single statement and returns the affected row count.
func (r *EnrollmentRepository) CompleteCourse(ctx context.Context, courseID string, at time.Time) (int64, error) {
	const query = `UPDATE enrollments SET status = $2, updated_at = $3 WHERE course_id = $1 AND LOWER(status) <> $4`
	res, err := r.db.ExecContext(ctx, query, courseID, string(models.EnrollmentCompleted), at, string(models.EnrollmentCancelled))
	if err != nil {
		return 0, fmt.Errorf("complete course enrollments: %w", err)
	}
	return affected(res)
}

// CountByStatus groups enrollments by lower-cased status.
func (r *EnrollmentRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT LOWER(status) AS status, COUNT(*) AS total FROM enrollments GROUP BY LOWER(status)`
	var rows []models.StatusCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count enrollments by status: %w", err)
	}
	return rows, nil
}
