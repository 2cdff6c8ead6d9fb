package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bioclass-api/internal/models"
)

var profileRowColumns = []string{"id", "email", "password_hash", "role", "full_name", "cpf", "phone", "address", "number", "city", "state", "zip_code", "created_at", "updated_at"}

func TestProfileFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(profileRowColumns).
		AddRow("p1", "ana@example.com", "hash", "student", "Ana", "123.456.789-00", nil, nil, nil, "Recife", "PE", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("Ana@Example.com").
		WillReturnRows(rows)

	profile, err := repo.FindByEmail(context.Background(), "Ana@Example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, profile.Role)
	require.NotNil(t, profile.CPF)
	assert.Equal(t, "123.456.789-00", *profile.CPF)
	assert.Nil(t, profile.Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec("INSERT INTO profiles").WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: "profiles_email_key"})

	err := repo.Create(context.Background(), &models.Profile{Email: "a@b.com", Role: models.RoleStudent})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUpdatePersonalMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec("UPDATE profiles SET full_name").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePersonal(context.Background(), &models.Profile{ID: "p1", FullName: "Ana"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfilePromoteAdmins(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET role = 'admin', updated_at = $2 WHERE LOWER(email) = ANY($1) AND role <> 'admin'")).
		WithArgs(pq.Array([]string{"admin@bioclass.com.br", "ops@bioclass.com.br"}), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.PromoteAdmins(context.Background(), []string{" Admin@BioClass.com.br", "ops@bioclass.com.br"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfilePromoteAdminsEmptyList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	n, err := NewProfileRepository(db).PromoteAdmins(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileListStudents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	cols := append(append([]string{}, profileRowColumns...), "enrollment_count")
	rows := sqlmock.NewRows(cols).
		AddRow("p1", "ana@example.com", "hash", "student", "Ana", nil, nil, nil, nil, nil, nil, nil, now, now, 2)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.role = $1 AND (LOWER(p.full_name) LIKE $2 OR LOWER(p.email) LIKE $2 OR LOWER(COALESCE(p.cpf, '')) LIKE $2) GROUP BY p.id ORDER BY p.full_name ASC LIMIT 10 OFFSET 10")).
		WithArgs("student", "%ana%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM profiles p WHERE p.role = $1 AND")).
		WithArgs("student", "%ana%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	students, total, err := repo.ListStudents(context.Background(), models.StudentFilter{Search: " Ana ", Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 2, students[0].EnrollmentCount)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileExportStudentsIsUnpaginated(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	cols := append(append([]string{}, profileRowColumns...), "enrollment_count")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.role = $1 GROUP BY p.id ORDER BY p.full_name ASC")).
		WithArgs("student").
		WillReturnRows(sqlmock.NewRows(cols))

	students, err := repo.ExportStudents(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}
