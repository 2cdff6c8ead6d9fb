package models

import "time"

// LedgerSource tells where a ledger entry came from.
type LedgerSource string

const (
	LedgerSourceEnrollment  LedgerSource = "enrollment"
	LedgerSourceTransaction LedgerSource = "transaction"
)

// LedgerEntry is the transaction-shaped view of an enrollment or a manual
// transaction. Status is always "paid" or "pending".
type LedgerEntry struct {
	ID            string       `json:"id"`
	Source        LedgerSource `json:"source"`
	SourceID      string       `json:"source_id"`
	Date          time.Time    `json:"date"`
	AmountCents   int64        `json:"amount_cents"`
	PaymentMethod string       `json:"payment_method"`
	Status        string       `json:"status"`
	Description   string       `json:"description"`
	Category      string       `json:"category"`
	StudentName   string       `json:"student_name"`
	EnrollmentID  *string      `json:"enrollment_id,omitempty"`
}

// FinanceSummary holds the reconciliation totals, in cents.
type FinanceSummary struct {
	TotalRevenue    int64 `json:"total_revenue_cents"`
	PendingRevenue  int64 `json:"pending_revenue_cents"`
	TotalExpenses   int64 `json:"total_expenses_cents"`
	PendingExpenses int64 `json:"pending_expenses_cents"`
	Balance         int64 `json:"balance_cents"`
}

// FinanceFilter is the predicate applied to both the ledger and expenses.
// Empty fields and "all" are inactive. Dates are inclusive; EndDate covers
// its whole day.
type FinanceFilter struct {
	Search    string
	Status    string
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
}

// FinanceSnapshot is the unfiltered reconciliation state that gets cached.
type FinanceSnapshot struct {
	Entries         []LedgerEntry  `json:"entries"`
	Expenses        []Expense      `json:"expenses"`
	Summary         FinanceSummary `json:"summary"`
	DegradedSources []string       `json:"degraded_sources,omitempty"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// FinanceOverview is the finance screen payload: global totals plus the
// filtered rows.
type FinanceOverview struct {
	Summary         FinanceSummary `json:"summary"`
	Entries         []LedgerEntry  `json:"entries"`
	Expenses        []Expense      `json:"expenses"`
	DegradedSources []string       `json:"degraded_sources,omitempty"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// ReportKind selects which table the finance PDF renders.
type ReportKind string

const (
	ReportReceivables ReportKind = "receivables"
	ReportPayables    ReportKind = "payables"
)
