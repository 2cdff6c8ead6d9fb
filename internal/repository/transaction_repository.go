package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bioclass-api/internal/models"
)

// TransactionRepository provides database access for manual ledger rows.
type TransactionRepository struct {
	db *sqlx.DB
}

// NewTransactionRepository creates a new instance of TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// List returns every transaction with the linked student name, latest first.
func (r *TransactionRepository) List(ctx context.Context) ([]models.TransactionDetail, error) {
	const query = `SELECT t.id, t.enrollment_id, t.user_id, t.amount_cents, t.payment_method, t.status, t.description, t.category, t.transaction_date, t.created_at, p.full_name AS student_name FROM transactions t LEFT JOIN profiles p ON p.id = t.user_id ORDER BY t.transaction_date DESC, t.id ASC`
	var rows []models.TransactionDetail
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return rows, nil
}

// Create inserts a transaction.
func (r *TransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	return insertTransaction(ctx, r.db, txn)
}

func insertTransaction(ctx context.Context, exec namedExecer, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	if txn.TransactionDate.IsZero() {
		txn.TransactionDate = txn.CreatedAt
	}
	const query = `INSERT INTO transactions (id, enrollment_id, user_id, amount_cents, payment_method, status, description, category, transaction_date, created_at) VALUES (:id, :enrollment_id, :user_id, :amount_cents, :payment_method, :status, :description, :category, :transaction_date, :created_at)`
	if _, err := exec.NamedExecContext(ctx, query, txn); err != nil {
		return fmt.Errorf("create transaction: %w", classify(err))
	}
	return nil
}
