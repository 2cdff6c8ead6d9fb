package models

import "time"

// Transaction statuses.
const (
	TransactionPaid    = "paid"
	TransactionPending = "pending"
)

// Ledger constants shared by enrollment recipes and approvals.
const (
	PaymentMethodManual = "manual"
	CategoryRevenue     = "receita"
)

// Transaction is a manual or approval-generated ledger row.
type Transaction struct {
	ID              string    `db:"id" json:"id"`
	EnrollmentID    *string   `db:"enrollment_id" json:"enrollment_id,omitempty"`
	UserID          *string   `db:"user_id" json:"user_id,omitempty"`
	AmountCents     int64     `db:"amount_cents" json:"amount_cents"`
	PaymentMethod   string    `db:"payment_method" json:"payment_method"`
	Status          string    `db:"status" json:"status"`
	Description     string    `db:"description" json:"description"`
	Category        string    `db:"category" json:"category"`
	TransactionDate time.Time `db:"transaction_date" json:"transaction_date"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// TransactionDetail adds the student name of the linked profile.
type TransactionDetail struct {
	Transaction
	StudentName *string `db:"student_name" json:"student_name,omitempty"`
}

// TransactionRequest is the admin payload for a manual ledger entry.
type TransactionRequest struct {
	UserID          string     `json:"user_id" validate:"omitempty,uuid"`
	AmountCents     int64      `json:"amount_cents" validate:"required,gt=0"`
	PaymentMethod   string     `json:"payment_method" validate:"omitempty,max=40"`
	Status          string     `json:"status" validate:"omitempty,oneof=paid pending"`
	Description     string     `json:"description" validate:"required,max=255"`
	Category        string     `json:"category" validate:"omitempty,oneof=receita aluguel salarios marketing impostos outros"`
	TransactionDate *time.Time `json:"transaction_date"`
}
