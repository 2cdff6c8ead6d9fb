package models

import "time"

// ExpenseStatus is the payment state of a payable.
type ExpenseStatus string

const (
	ExpensePending   ExpenseStatus = "pending"
	ExpensePaid      ExpenseStatus = "paid"
	ExpenseCancelled ExpenseStatus = "cancelled"
)

// MaxInstallments bounds installment expansion.
const MaxInstallments = 60

// ExpenseCategories lists the finance categories accepted for payables.
var ExpenseCategories = []string{"receita", "aluguel", "salarios", "marketing", "impostos", "outros"}

// Expense is a payable, possibly one installment of a group.
type Expense struct {
	ID                 string        `db:"id" json:"id"`
	Description        string        `db:"description" json:"description"`
	AmountCents        int64         `db:"amount_cents" json:"amount_cents"`
	DueDate            time.Time     `db:"due_date" json:"due_date"`
	Provider           string        `db:"provider" json:"provider"`
	Category           string        `db:"category" json:"category"`
	Status             ExpenseStatus `db:"status" json:"status"`
	Notes              string        `db:"notes" json:"notes"`
	TotalInstallments  int           `db:"total_installments" json:"total_installments"`
	CurrentInstallment int           `db:"current_installment" json:"current_installment"`
	ParentID           *string       `db:"parent_id" json:"parent_id,omitempty"`
	IsRecurring        bool          `db:"is_recurring" json:"is_recurring"`
	CreatedBy          *string       `db:"created_by" json:"created_by,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// ExpenseRequest creates one payable, expanded into installments when
// TotalInstallments > 1. DueDate is a calendar date (YYYY-MM-DD).
type ExpenseRequest struct {
	Description       string        `json:"description" validate:"required,max=255"`
	AmountCents       int64         `json:"amount_cents" validate:"required,gt=0"`
	DueDate           string        `json:"due_date" validate:"required,datetime=2006-01-02"`
	Provider          string        `json:"provider" validate:"max=120"`
	Category          string        `json:"category" validate:"required,oneof=receita aluguel salarios marketing impostos outros"`
	Status            ExpenseStatus `json:"status" validate:"omitempty,oneof=pending paid cancelled"`
	Notes             string        `json:"notes" validate:"max=2000"`
	TotalInstallments int           `json:"total_installments" validate:"omitempty,min=1,max=60"`
	IsRecurring       bool          `json:"is_recurring"`
}

// ExpenseUpdateRequest edits a single expense row.
type ExpenseUpdateRequest struct {
	Description string        `json:"description" validate:"required,max=255"`
	AmountCents int64         `json:"amount_cents" validate:"required,gt=0"`
	DueDate     string        `json:"due_date" validate:"required,datetime=2006-01-02"`
	Provider    string        `json:"provider" validate:"max=120"`
	Category    string        `json:"category" validate:"required,oneof=receita aluguel salarios marketing impostos outros"`
	Status      ExpenseStatus `json:"status" validate:"required,oneof=pending paid cancelled"`
	Notes       string        `json:"notes" validate:"max=2000"`
	IsRecurring bool          `json:"is_recurring"`
}
