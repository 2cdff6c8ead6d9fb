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

const profileColumns = `id, email, password_hash, role, full_name, cpf, phone, address, number, city, state, zip_code, created_at, updated_at`

// ProfileRepository stores identities and personal data.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new instance of ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByEmail returns a profile by e-mail, compared case-insensitively.
func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by email: %w", err)
	}
	return &profile, nil
}

// FindByID returns a profile by identifier.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1 LIMIT 1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by id: %w", err)
	}
	return &profile, nil
}

// Create inserts a new profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO profiles (id, email, password_hash, role, full_name, created_at, updated_at) VALUES (:id, :email, :password_hash, :role, :full_name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create profile: %w", classify(err))
	}
	return nil
}

// UpdatePersonal updates the editable personal fields.
func (r *ProfileRepository) UpdatePersonal(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE profiles SET full_name = :full_name, cpf = :cpf, phone = :phone, address = :address, number = :number, city = :city, state = :state, zip_code = :zip_code, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *ProfileRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE profiles SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// PromoteAdmins grants the admin role to every profile whose e-mail is in
// emails and returns how many rows changed.
func (r *ProfileRepository) PromoteAdmins(ctx context.Context, emails []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	lowered := make([]string, len(emails))
	for i, e := range emails {
		lowered[i] = strings.ToLower(strings.TrimSpace(e))
	}
	const query = `UPDATE profiles SET role = 'admin', updated_at = $2 WHERE LOWER(email) = ANY($1) AND role <> 'admin'`
	res, err := r.db.ExecContext(ctx, query, pq.Array(lowered), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("promote admins: %w", err)
	}
	return affected(res)
}

func studentConditions(search string) (string, []interface{}) {
	where := `WHERE p.role = $1`
	args := []interface{}{string(models.RoleStudent)}
	if term := strings.TrimSpace(search); term != "" {
		where += fmt.Sprintf(` AND (LOWER(p.full_name) LIKE $%d OR LOWER(p.email) LIKE $%d OR LOWER(COALESCE(p.cpf, '')) LIKE $%d)`, len(args)+1, len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(term)+"%")
	}
	return where, args
}

const studentSelect = `SELECT p.id, p.email, p.password_hash, p.role, p.full_name, p.cpf, p.phone, p.address, p.number, p.city, p.state, p.zip_code, p.created_at, p.updated_at, COUNT(e.id) AS enrollment_count FROM profiles p LEFT JOIN enrollments e ON e.student_id = p.id`

// ListStudents returns a page of students with their enrollment counts.
func (r *ProfileRepository) ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.StudentSummary, int, error) {
	where, args := studentConditions(filter.Search)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("%s %s GROUP BY p.id ORDER BY p.full_name ASC LIMIT %d OFFSET %d", studentSelect, where, pageSize, offset)
	var students []models.StudentSummary
	if err := r.db.SelectContext(ctx, &students, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM profiles p %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ExportStudents returns every student matching search, unpaginated.
func (r *ProfileRepository) ExportStudents(ctx context.Context, search string) ([]models.StudentSummary, error) {
	where, args := studentConditions(search)
	query := fmt.Sprintf("%s %s GROUP BY p.id ORDER BY p.full_name ASC", studentSelect, where)
	var students []models.StudentSummary
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("export students: %w", err)
	}
	return students, nil
}

// CountStudents returns the number of student profiles.
func (r *ProfileRepository) CountStudents(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM profiles WHERE role = $1`, string(models.RoleStudent)); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}
