package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bioclass-api/internal/models"
	"github.com/noah-isme/bioclass-api/internal/repository"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
)

type mockCourseRepo struct {
	courses     map[string]models.Course
	lastFilter  models.CourseFilter
	listCalls   int
	referencing map[string]bool
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	m.listCalls++
	m.lastFilter = filter
	out := []models.Course{}
	for _, c := range m.courses {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = fmt.Sprintf("course-%d", len(m.courses)+1)
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	if m.referencing[id] {
		return fmt.Errorf("delete course: %w", repository.ErrReferenced)
	}
	if _, ok := m.courses[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.courses, id)
	return nil
}

func TestCourseServiceCatalogCachedPerCategory(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.Course{
		"a": {ID: "a", Title: "Genética", Category: "Biologia", Status: models.CourseStatusActive},
		"b": {ID: "b", Title: "Ecologia", Category: "Geral", Status: models.CourseStatusActive},
		"c": {ID: "c", Title: "Rascunho", Category: "Biologia", Status: models.CourseStatusDraft},
	}}
	store := newMemoryCache()
	svc := NewCourseService(repo, NewCacheService(store, nil, time.Minute, nil, true), nil, nil, time.Minute)

	courses, hit, err := svc.Catalog(context.Background(), "Biologia")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, courses, 1)
	assert.Equal(t, "a", courses[0].ID)

	_, hit, err = svc.Catalog(context.Background(), "biologia")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, repo.listCalls)

	all, _, err := svc.Catalog(context.Background(), "all")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "", repo.lastFilter.Category)

	_, err = svc.Create(context.Background(), models.CourseRequest{Title: "Zoologia", Status: models.CourseStatusActive})
	require.NoError(t, err)
	assert.Contains(t, store.invalidated, "courses:catalog*")
	assert.Contains(t, store.invalidated, CacheKeyFinance)
	assert.Empty(t, store.items)
}

func TestCourseServiceCreateDefaults(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.Course{}}
	svc := NewCourseService(repo, nil, nil, nil, 0)

	course, err := svc.Create(context.Background(), models.CourseRequest{Title: "  Microbiologia ", PriceCents: 19900})
	require.NoError(t, err)
	assert.Equal(t, "Microbiologia", course.Title)
	assert.Equal(t, models.DefaultCourseCategory, course.Category)
	assert.Equal(t, models.CourseLevelBeginner, course.Level)
	assert.Equal(t, models.CourseStatusDraft, course.Status)

	_, err = svc.Create(context.Background(), models.CourseRequest{Title: "ab", PriceCents: -1})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "title")
	assert.Contains(t, appErr.Fields, "price_cents")
}

func TestCourseServiceGetHidesDrafts(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.Course{
		"d": {ID: "d", Title: "Rascunho", Status: models.CourseStatusDraft},
	}}
	svc := NewCourseService(repo, nil, nil, nil, 0)

	_, err := svc.Get(context.Background(), "d", false)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	course, err := svc.Get(context.Background(), "d", true)
	require.NoError(t, err)
	assert.Equal(t, "Rascunho", course.Title)
}

func TestCourseServiceDeleteWithEnrollments(t *testing.T) {
	repo := &mockCourseRepo{
		courses:     map[string]models.Course{"a": {ID: "a"}},
		referencing: map[string]bool{"a": true},
	}
	svc := NewCourseService(repo, nil, nil, nil, 0)

	err := svc.Delete(context.Background(), "a")
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceUpdate(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.Course{"a": {ID: "a", Title: "Velho", Status: models.CourseStatusDraft}}}
	svc := NewCourseService(repo, nil, nil, nil, 0)

	course, err := svc.Update(context.Background(), "a", models.CourseRequest{Title: "Novo título", Level: "Avançado", Status: models.CourseStatusActive, PriceCents: 5000})
	require.NoError(t, err)
	assert.Equal(t, "Novo título", course.Title)
	assert.Equal(t, models.CourseStatusActive, repo.courses["a"].Status)
	assert.Equal(t, int64(5000), repo.courses["a"].PriceCents)
}
