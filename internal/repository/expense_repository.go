package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bioclass-api/internal/models"
)

const expenseColumns = `id, description, amount_cents, due_date, provider, category, status, notes, total_installments, current_installment, parent_id, is_recurring, created_by, created_at, updated_at`

// ExpenseRepository provides database access for payables.
type ExpenseRepository struct {
	db *sqlx.DB
}

// NewExpenseRepository creates a new instance of ExpenseRepository.
func NewExpenseRepository(db *sqlx.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// List returns every expense ordered by due date.
func (r *ExpenseRepository) List(ctx context.Context) ([]models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses ORDER BY due_date ASC, current_installment ASC, id ASC`
	var rows []models.Expense
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return rows, nil
}

// FindByID returns one expense.
func (r *ExpenseRepository) FindByID(ctx context.Context, id string) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`
	var expense models.Expense
	if err := r.db.GetContext(ctx, &expense, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find expense: %w", err)
	}
	return &expense, nil
}

// CreateBatch inserts all installments of one request atomically.
func (r *ExpenseRepository) CreateBatch(ctx context.Context, expenses []models.Expense) (err error) {
	if len(expenses) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create expenses: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const query = `INSERT INTO expenses (` + expenseColumns + `) VALUES (:id, :description, :amount_cents, :due_date, :provider, :category, :status, :notes, :total_installments, :current_installment, :parent_id, :is_recurring, :created_by, :created_at, :updated_at)`
	for i := range expenses {
		if expenses[i].ID == "" {
			expenses[i].ID = uuid.NewString()
		}
		expenses[i].CreatedAt = now
		expenses[i].UpdatedAt = now
		if _, err = tx.NamedExecContext(ctx, query, &expenses[i]); err != nil {
			return fmt.Errorf("insert expense %d/%d: %w", i+1, len(expenses), classify(err))
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create expenses: %w", err)
	}
	return nil
}

// Update overwrites one expense row; installment siblings are untouched.
func (r *ExpenseRepository) Update(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now().UTC()
	const query = `UPDATE expenses SET description = :description, amount_cents = :amount_cents, due_date = :due_date, provider = :provider, category = :category, status = :status, notes = :notes, is_recurring = :is_recurring, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, expense)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
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

// Delete removes one expense row.
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
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
