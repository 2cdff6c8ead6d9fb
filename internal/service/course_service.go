package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bioclass-api/internal/models"
	"github.com/noah-isme/bioclass-api/internal/repository"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

// CourseService manages the course catalog.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, catalogTTL time.Duration) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger, ttl: catalogTTL}
}

func catalogKey(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = filterAll
	}
	return cacheKeyCatalog + ":" + category
}

// Catalog returns the published courses, optionally of one category. The
// boolean reports a cache hit.
func (s *CourseService) Catalog(ctx context.Context, category string) ([]models.Course, bool, error) {
	key := catalogKey(category)
	var cached []models.Course
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	filter := models.CourseFilter{Status: models.CourseStatusActive}
	if active(category) {
		filter.Category = strings.TrimSpace(category)
	}
	courses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	s.cache.Set(ctx, key, courses, s.ttl)
	return courses, false, nil
}

// List returns every course for the admin screen, drafts included.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	courses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns one course. Drafts are only visible when includeDrafts is set.
func (s *CourseService) Get(ctx context.Context, id string, includeDrafts bool) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !includeDrafts && course.Status != models.CourseStatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

// Create validates and stores a course.
func (s *CourseService) Create(ctx context.Context, req models.CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	course := &models.Course{}
	applyCourseRequest(course, req)
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.cache.InvalidateFor(ctx, MutationCourse)
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("title", course.Title))
	return course, nil
}

// Update replaces the editable fields of a course.
func (s *CourseService) Update(ctx context.Context, id string, req models.CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	course, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	applyCourseRequest(course, req)
	if err := s.repo.Update(ctx, course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.cache.InvalidateFor(ctx, MutationCourse)
	return course, nil
}

// Delete removes a course without enrollments.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		case errors.Is(err, repository.ErrReferenced):
			return appErrors.Clone(appErrors.ErrConflict, "course has enrollments")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.cache.InvalidateFor(ctx, MutationCourse)
	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

func applyCourseRequest(course *models.Course, req models.CourseRequest) {
	course.Title = strings.TrimSpace(req.Title)
	course.Description = req.Description
	course.ImageURL = req.ImageURL
	course.Category = defaultString(strings.TrimSpace(req.Category), models.DefaultCourseCategory)
	course.Duration = req.Duration
	course.Level = defaultString(req.Level, models.CourseLevelBeginner)
	course.ModulesCount = req.ModulesCount
	course.PriceCents = req.PriceCents
	course.Status = req.Status
	if course.Status == "" {
		course.Status = models.CourseStatusDraft
	}
}
