package service

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/bioclass-api/internal/models"
)

const (
	defaultStudentName = "Aluno"
	defaultCourseTitle = "Curso"
	filterAll          = "all"
)

var paidEnrollmentStatuses = map[string]struct{}{
	"active":    {},
	"ativo":     {},
	"completed": {},
	"concluido": {},
}

// LedgerStatusOf maps any enrollment status vocabulary onto paid or pending.
func LedgerStatusOf(status string) string {
	if _, ok := paidEnrollmentStatuses[strings.ToLower(strings.TrimSpace(status))]; ok {
		return models.TransactionPaid
	}
	return models.TransactionPending
}

// NormalizeEnrollment turns an enrollment join row into its revenue entry.
// It is pure: the same row always yields the same entry.
func NormalizeEnrollment(raw models.EnrollmentDetail) models.LedgerEntry {
	var amount int64
	if raw.CoursePrice != nil {
		amount = *raw.CoursePrice
	}
	title := defaultCourseTitle
	if raw.CourseTitle != nil && *raw.CourseTitle != "" {
		title = *raw.CourseTitle
	}
	name := defaultStudentName
	if raw.StudentName != nil && *raw.StudentName != "" {
		name = *raw.StudentName
	}
	enrollmentID := raw.ID

	return models.LedgerEntry{
		ID:            "enroll-" + raw.ID,
		Source:        models.LedgerSourceEnrollment,
		SourceID:      raw.ID,
		Date:          raw.EnrolledAt,
		AmountCents:   amount,
		PaymentMethod: models.PaymentMethodManual,
		Status:        LedgerStatusOf(string(raw.Status)),
		Description:   "Matrícula: " + title,
		Category:      models.CategoryRevenue,
		StudentName:   name,
		EnrollmentID:  &enrollmentID,
	}
}

// NormalizeTransaction turns a stored transaction into a ledger entry. An
// empty status counts as paid.
func NormalizeTransaction(raw models.TransactionDetail) models.LedgerEntry {
	status := strings.ToLower(strings.TrimSpace(raw.Status))
	if status == "" {
		status = models.TransactionPaid
	}
	var name string
	if raw.StudentName != nil {
		name = *raw.StudentName
	}
	return models.LedgerEntry{
		ID:            "trans-" + raw.ID,
		Source:        models.LedgerSourceTransaction,
		SourceID:      raw.ID,
		Date:          raw.TransactionDate,
		AmountCents:   raw.AmountCents,
		PaymentMethod: raw.PaymentMethod,
		Status:        status,
		Description:   raw.Description,
		Category:      raw.Category,
		StudentName:   name,
		EnrollmentID:  raw.EnrollmentID,
	}
}

// Summarize computes the reconciliation totals over unfiltered sets.
// Cancelled expenses fall in neither expense bucket.
func Summarize(entries []models.LedgerEntry, expenses []models.Expense) models.FinanceSummary {
	var s models.FinanceSummary
	for _, e := range entries {
		switch e.Status {
		case models.TransactionPaid:
			s.TotalRevenue += e.AmountCents
		case models.TransactionPending:
			s.PendingRevenue += e.AmountCents
		}
	}
	for _, e := range expenses {
		switch e.Status {
		case models.ExpensePaid:
			s.TotalExpenses += e.AmountCents
		case models.ExpensePending:
			s.PendingExpenses += e.AmountCents
		}
	}
	s.Balance = s.TotalRevenue - s.TotalExpenses
	return s
}

// MergeFeed combines both sources ordered by date descending, then entry id
// ascending for identical timestamps.
func MergeFeed(enrollmentEntries, transactionEntries []models.LedgerEntry) []models.LedgerEntry {
	feed := make([]models.LedgerEntry, 0, len(enrollmentEntries)+len(transactionEntries))
	feed = append(feed, transactionEntries...)
	feed = append(feed, enrollmentEntries...)
	sort.SliceStable(feed, func(i, j int) bool {
		if !feed[i].Date.Equal(feed[j].Date) {
			return feed[i].Date.After(feed[j].Date)
		}
		return feed[i].ID < feed[j].ID
	})
	return feed
}

// FilterLedger keeps the entries matching every active filter dimension.
// Search covers student name and description.
func FilterLedger(entries []models.LedgerEntry, f models.FinanceFilter) []models.LedgerEntry {
	f.Status = strings.ToLower(f.Status)
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if term != "" && !containsFold(term, e.StudentName, e.Description) {
			continue
		}
		if active(f.Status) && e.Status != f.Status {
			continue
		}
		if active(f.Category) && e.Category != f.Category {
			continue
		}
		if !withinDays(filterDay(e.Date, f), f) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterExpenses applies the ledger predicate shape to expenses. Search
// covers description and provider; due dates are calendar dates.
func FilterExpenses(expenses []models.Expense, f models.FinanceFilter) []models.Expense {
	f.Status = strings.ToLower(f.Status)
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if term != "" && !containsFold(term, e.Description, e.Provider) {
			continue
		}
		if active(f.Status) && string(e.Status) != f.Status {
			continue
		}
		if active(f.Category) && e.Category != f.Category {
			continue
		}
		if !withinDays(dayKey(e.DueDate), f) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func active(v string) bool {
	return v != "" && v != filterAll
}

func containsFold(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// dayKey encodes the calendar date of t, in t's own location, as yyyymmdd.
func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// filterDay reads an instant as a calendar date in the filter's timezone.
func filterDay(t time.Time, f models.FinanceFilter) int {
	switch {
	case f.StartDate != nil:
		return dayKey(t.In(f.StartDate.Location()))
	case f.EndDate != nil:
		return dayKey(t.In(f.EndDate.Location()))
	default:
		return dayKey(t)
	}
}

func withinDays(day int, f models.FinanceFilter) bool {
	if f.StartDate != nil && day < dayKey(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && day > dayKey(*f.EndDate) {
		return false
	}
	return true
}
