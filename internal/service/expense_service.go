package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/bioclass-api/internal/models"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type expenseRepository interface {
	List(ctx context.Context) ([]models.Expense, error)
	FindByID(ctx context.Context, id string) (*models.Expense, error)
	CreateBatch(ctx context.Context, expenses []models.Expense) error
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, id string) error
}

// ExpenseService manages payables and their installment groups.
type ExpenseService struct {
	repo      expenseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewExpenseService wires the expense service.
func NewExpenseService(repo expenseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ExpenseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ExpenseService{repo: repo, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// AddMonths moves t by n calendar months keeping the day of month, clamped
// to the last day of the target month (Jan 31 + 1 month = Feb 29 in 2024).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// ExpandInstallments turns one request into N expense rows, one per month.
// Rows share a fresh parent id only when N > 1.
func ExpandInstallments(req models.ExpenseRequest, createdBy string, now time.Time) ([]models.Expense, error) {
	n := req.TotalInstallments
	if n == 0 {
		n = 1
	}
	if n < 1 || n > models.MaxInstallments {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("total_installments must be between 1 and %d", models.MaxInstallments))
	}
	start, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "due_date must be YYYY-MM-DD")
	}
	status := req.Status
	if status == "" {
		status = models.ExpensePending
	}

	var parentID *string
	if n > 1 {
		id := uuid.NewString()
		parentID = &id
	}
	var owner *string
	if createdBy != "" {
		owner = &createdBy
	}

	rows := make([]models.Expense, n)
	for i := 0; i < n; i++ {
		rows[i] = models.Expense{
			ID:                 uuid.NewString(),
			Description:        req.Description,
			AmountCents:        req.AmountCents,
			DueDate:            AddMonths(start, i),
			Provider:           req.Provider,
			Category:           req.Category,
			Status:             status,
			Notes:              req.Notes,
			TotalInstallments:  n,
			CurrentInstallment: i + 1,
			ParentID:           parentID,
			IsRecurring:        req.IsRecurring,
			CreatedBy:          owner,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
	}
	return rows, nil
}

// List returns every expense ordered by due date.
func (s *ExpenseService) List(ctx context.Context) ([]models.Expense, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expenses")
	}
	return rows, nil
}

// Get returns a single expense.
func (s *ExpenseService) Get(ctx context.Context, id string) (*models.Expense, error) {
	expense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "expense not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load expense")
	}
	return expense, nil
}

// Create validates and persists an expense, expanded into installments.
func (s *ExpenseService) Create(ctx context.Context, req models.ExpenseRequest, createdBy string) ([]models.Expense, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	rows, err := ExpandInstallments(req, createdBy, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create expense")
	}
	s.cache.InvalidateFor(ctx, MutationExpense)
	s.logger.Info("expense created",
		zap.Int("installments", len(rows)),
		zap.Int64("amount_cents", req.AmountCents),
		zap.String("created_by", createdBy),
	)
	return rows, nil
}

// Update edits one expense row. Installment siblings keep their values.
func (s *ExpenseService) Update(ctx context.Context, id string, req models.ExpenseUpdateRequest) (*models.Expense, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	due, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "due_date must be YYYY-MM-DD")
	}
	expense, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	expense.Description = req.Description
	expense.AmountCents = req.AmountCents
	expense.DueDate = due
	expense.Provider = req.Provider
	expense.Category = req.Category
	expense.Status = req.Status
	expense.Notes = req.Notes
	expense.IsRecurring = req.IsRecurring

	if err := s.repo.Update(ctx, expense); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "expense not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update expense")
	}
	s.cache.InvalidateFor(ctx, MutationExpense)
	return expense, nil
}

// Delete removes one expense row.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "expense not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete expense")
	}
	s.cache.InvalidateFor(ctx, MutationExpense)
	return nil
}
