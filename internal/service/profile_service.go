package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bioclass-api/internal/models"
	"github.com/noah-isme/bioclass-api/pkg/cep"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
	"github.com/noah-isme/bioclass-api/pkg/export"
)

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	UpdatePersonal(ctx context.Context, profile *models.Profile) error
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.StudentSummary, int, error)
	ExportStudents(ctx context.Context, search string) ([]models.StudentSummary, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

var studentExportHeaders = []string{"Nome", "CPF", "Email", "Telefone", "Cidade", "Estado"}

// ProfileService serves personal data and the admin student directory.
type ProfileService struct {
	repo      profileRepository
	cache     *CacheService
	csv       datasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// NewProfileService constructs the profile service.
func NewProfileService(repo profileRepository, cache *CacheService, csv datasetRenderer, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ProfileService{repo: repo, cache: cache, csv: csv, validator: validate, logger: logger, location: loc, now: time.Now}
}

// Get returns the profile of id.
func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// Update saves the personal fields of id. The postal code is stored as
// 00000-000 and the state upper-cased.
func (s *ProfileService) Update(ctx context.Context, id string, req models.ProfileUpdateRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	profile.FullName = strings.TrimSpace(req.FullName)
	profile.CPF = optional(req.CPF)
	profile.Phone = optional(req.Phone)
	profile.Address = optional(req.Address)
	profile.Number = optional(req.Number)
	profile.City = optional(req.City)
	profile.State = optional(strings.ToUpper(req.State))
	profile.ZipCode = optional(cep.Format(req.ZipCode))

	if err := s.repo.UpdatePersonal(ctx, profile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	s.cache.InvalidateFor(ctx, MutationProfile)
	return profile, nil
}

// ListStudents returns a page of the student directory.
func (s *ProfileService) ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.StudentSummary, *models.Pagination, error) {
	students, total, err := s.repo.ListStudents(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	if students == nil {
		students = []models.StudentSummary{}
	}
	return students, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ExportStudentsCSV renders the students matching search as CSV and
// returns the payload with its download file name.
func (s *ProfileService) ExportStudentsCSV(ctx context.Context, search string) ([]byte, string, error) {
	students, err := s.repo.ExportStudents(ctx, search)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export students")
	}

	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, map[string]string{
			"Nome":     st.FullName,
			"CPF":      deref(st.CPF),
			"Email":    st.Email,
			"Telefone": deref(st.Phone),
			"Cidade":   deref(st.City),
			"Estado":   deref(st.State),
		})
	}
	payload, err := s.csv.Render(export.Dataset{Headers: studentExportHeaders, Rows: rows})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render students csv")
	}
	s.logger.Info("students exported", zap.Int("rows", len(rows)))
	return payload, fmt.Sprintf("alunos_bioclass_%s.csv", s.now().In(s.location).Format(dateLayout)), nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
