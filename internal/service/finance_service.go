package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/bioclass-api/internal/models"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
	"github.com/noah-isme/bioclass-api/pkg/export"
	"github.com/noah-isme/bioclass-api/pkg/money"
)

// Ledger sources reported when a read degrades.
const (
	SourceEnrollments  = "enrollments"
	SourceTransactions = "transactions"
	SourceExpenses     = "expenses"
)

const displayDate = "02/01/2006"

type enrollmentLister interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
}

type transactionRepository interface {
	List(ctx context.Context) ([]models.TransactionDetail, error)
	Create(ctx context.Context, txn *models.Transaction) error
}

type expenseLister interface {
	List(ctx context.Context) ([]models.Expense, error)
}

type reportRenderer interface {
	Render(report export.Report) ([]byte, error)
}

// FinanceService reconciles enrollments, manual transactions and expenses
// into one ledger view.
type FinanceService struct {
	enrollments  enrollmentLister
	transactions transactionRepository
	expenses     expenseLister
	cache        *CacheService
	metrics      *MetricsService
	pdf          reportRenderer
	validator    *validator.Validate
	logger       *zap.Logger
	location     *time.Location
	ttl          time.Duration
	now          func() time.Time
}

// FinanceServiceConfig carries the optional knobs of FinanceService.
type FinanceServiceConfig struct {
	Location *time.Location
	CacheTTL time.Duration
}

// NewFinanceService wires the finance aggregator.
func NewFinanceService(enrollments enrollmentLister, transactions transactionRepository, expenses expenseLister, cache *CacheService, metrics *MetricsService, pdf reportRenderer, validate *validator.Validate, logger *zap.Logger, cfg FinanceServiceConfig) *FinanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if pdf == nil {
		pdf = export.NewPDFExporter(cfg.Location)
	}
	return &FinanceService{
		enrollments:  enrollments,
		transactions: transactions,
		expenses:     expenses,
		cache:        cache,
		metrics:      metrics,
		pdf:          pdf,
		validator:    validate,
		logger:       logger,
		location:     cfg.Location,
		ttl:          cfg.CacheTTL,
		now:          time.Now,
	}
}

// Snapshot returns the unfiltered reconciliation state. A failing source is
// read as empty and listed in DegradedSources; degraded snapshots are not
// cached. The boolean reports a cache hit.
func (s *FinanceService) Snapshot(ctx context.Context) (*models.FinanceSnapshot, bool, error) {
	var cached models.FinanceSnapshot
	if s.cache.Get(ctx, CacheKeyFinance, &cached) {
		return &cached, true, nil
	}

	var (
		enrollments  []models.EnrollmentDetail
		transactions []models.TransactionDetail
		expenses     []models.Expense
		failed       [3]bool
	)

	var g errgroup.Group
	g.Go(func() error {
		start := time.Now()
		rows, err := s.enrollments.List(ctx, models.EnrollmentFilter{})
		s.metrics.ObserveDBQuery("finance_enrollments", time.Since(start))
		if err != nil {
			s.degrade(SourceEnrollments, err)
			failed[0] = true
			return nil
		}
		enrollments = rows
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		rows, err := s.transactions.List(ctx)
		s.metrics.ObserveDBQuery("finance_transactions", time.Since(start))
		if err != nil {
			s.degrade(SourceTransactions, err)
			failed[1] = true
			return nil
		}
		transactions = rows
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		rows, err := s.expenses.List(ctx)
		s.metrics.ObserveDBQuery("finance_expenses", time.Since(start))
		if err != nil {
			s.degrade(SourceExpenses, err)
			failed[2] = true
			return nil
		}
		expenses = rows
		return nil
	})
	_ = g.Wait()

	var degraded []string
	for i, source := range []string{SourceEnrollments, SourceTransactions, SourceExpenses} {
		if failed[i] {
			degraded = append(degraded, source)
		}
	}

	snapshot := BuildSnapshot(enrollments, transactions, expenses)
	snapshot.DegradedSources = degraded
	snapshot.GeneratedAt = s.now().UTC()

	if len(degraded) == 0 {
		s.cache.Set(ctx, CacheKeyFinance, snapshot, s.ttl)
	}
	return snapshot, false, nil
}

// BuildSnapshot normalizes and merges the raw rows and computes the totals.
func BuildSnapshot(enrollments []models.EnrollmentDetail, transactions []models.TransactionDetail, expenses []models.Expense) *models.FinanceSnapshot {
	enrollEntries := make([]models.LedgerEntry, 0, len(enrollments))
	for _, e := range enrollments {
		enrollEntries = append(enrollEntries, NormalizeEnrollment(e))
	}
	txnEntries := make([]models.LedgerEntry, 0, len(transactions))
	for _, t := range transactions {
		txnEntries = append(txnEntries, NormalizeTransaction(t))
	}
	feed := MergeFeed(enrollEntries, txnEntries)

	if expenses == nil {
		expenses = []models.Expense{}
	}
	return &models.FinanceSnapshot{
		Entries:  feed,
		Expenses: expenses,
		Summary:  Summarize(feed, expenses),
	}
}

func (s *FinanceService) degrade(source string, err error) {
	s.metrics.RecordDegradedRead(source)
	s.logger.Warn("finance source degraded to empty", zap.String("source", source), zap.Error(err))
}

// Overview returns the global totals with filtered rows. Filters never
// change the totals.
func (s *FinanceService) Overview(ctx context.Context, filter models.FinanceFilter) (*models.FinanceOverview, bool, error) {
	snapshot, hit, err := s.Snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	return &models.FinanceOverview{
		Summary:         snapshot.Summary,
		Entries:         FilterLedger(snapshot.Entries, filter),
		Expenses:        FilterExpenses(snapshot.Expenses, filter),
		DegradedSources: snapshot.DegradedSources,
		GeneratedAt:     snapshot.GeneratedAt,
	}, hit, nil
}

// Summary returns only the reconciliation totals.
func (s *FinanceService) Summary(ctx context.Context) (models.FinanceSummary, []string, error) {
	snapshot, _, err := s.Snapshot(ctx)
	if err != nil {
		return models.FinanceSummary{}, nil, err
	}
	return snapshot.Summary, snapshot.DegradedSources, nil
}

// CreateTransaction records a manual ledger row. Status defaults to paid,
// payment method to manual and category to receita.
func (s *FinanceService) CreateTransaction(ctx context.Context, req models.TransactionRequest) (*models.Transaction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	now := s.now().UTC()
	txn := &models.Transaction{
		ID:              uuid.NewString(),
		AmountCents:     req.AmountCents,
		PaymentMethod:   defaultString(req.PaymentMethod, models.PaymentMethodManual),
		Status:          defaultString(req.Status, models.TransactionPaid),
		Description:     strings.TrimSpace(req.Description),
		Category:        defaultString(req.Category, models.CategoryRevenue),
		TransactionDate: now,
		CreatedAt:       now,
	}
	if req.UserID != "" {
		userID := req.UserID
		txn.UserID = &userID
	}
	if req.TransactionDate != nil && !req.TransactionDate.IsZero() {
		txn.TransactionDate = req.TransactionDate.UTC()
	}

	if err := s.transactions.Create(ctx, txn); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transaction")
	}
	s.cache.InvalidateFor(ctx, MutationTransaction)
	s.logger.Info("transaction recorded",
		zap.String("transaction_id", txn.ID),
		zap.Int64("amount_cents", txn.AmountCents),
		zap.String("status", txn.Status),
	)
	return txn, nil
}

// ExportReport renders the filtered receivables or payables table as PDF and
// returns it with its download file name.
func (s *FinanceService) ExportReport(ctx context.Context, kind models.ReportKind, filter models.FinanceFilter) ([]byte, string, error) {
	snapshot, _, err := s.Snapshot(ctx)
	if err != nil {
		return nil, "", err
	}

	var table export.Dataset
	switch kind {
	case models.ReportReceivables, "":
		table = s.receivablesTable(FilterLedger(snapshot.Entries, filter))
	case models.ReportPayables:
		table = s.payablesTable(FilterExpenses(snapshot.Expenses, filter))
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "report must be receivables or payables")
	}

	now := s.now()
	report := export.Report{
		Title:       "Relatório Financeiro - BioClass",
		GeneratedAt: now,
		Summary: []export.SummaryItem{
			{Label: "Receita Realizada", Value: money.FormatBRL(snapshot.Summary.TotalRevenue)},
			{Label: "Despesas Pagas", Value: money.FormatBRL(snapshot.Summary.TotalExpenses)},
			{Label: "Saldo em Caixa", Value: money.FormatBRL(snapshot.Summary.Balance)},
		},
		FilterLine: FilterLine(filter, s.location),
		Table:      table,
	}
	payload, err := s.pdf.Render(report)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render finance report")
	}
	return payload, fmt.Sprintf("relatorio-financeiro-bioclass-%d.pdf", now.UnixMilli()), nil
}

func (s *FinanceService) receivablesTable(entries []models.LedgerEntry) export.Dataset {
	headers := []string{"Data", "Aluno", "Descrição", "Valor", "Status"}
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]string{
			"Data":      e.Date.In(s.location).Format(displayDate),
			"Aluno":     defaultString(e.StudentName, "N/A"),
			"Descrição": defaultString(e.Description, "Matrícula"),
			"Valor":     money.FormatBRL(e.AmountCents),
			"Status":    statusLabel(e.Status),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func (s *FinanceService) payablesTable(expenses []models.Expense) export.Dataset {
	headers := []string{"Vencimento", "Fornecedor", "Descrição", "Categoria", "Valor", "Status"}
	sorted := make([]models.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DueDate.Before(sorted[j].DueDate) })

	rows := make([]map[string]string, 0, len(sorted))
	for _, e := range sorted {
		rows = append(rows, map[string]string{
			"Vencimento": e.DueDate.Format(displayDate),
			"Fornecedor": defaultString(e.Provider, "N/A"),
			"Descrição":  e.Description,
			"Categoria":  e.Category,
			"Valor":      money.FormatBRL(e.AmountCents),
			"Status":     statusLabel(string(e.Status)),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// FilterLine describes the active filters under the report title.
func FilterLine(filter models.FinanceFilter, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("Filtros: ")
	switch filter.Status {
	case models.TransactionPaid:
		b.WriteString("Pagos")
	case models.TransactionPending:
		b.WriteString("Pendentes")
	default:
		b.WriteString("Todos os status")
	}
	if filter.StartDate != nil || filter.EndDate != nil {
		start, end := "Início", "Fim"
		if filter.StartDate != nil {
			start = filter.StartDate.In(loc).Format(displayDate)
		}
		if filter.EndDate != nil {
			end = filter.EndDate.In(loc).Format(displayDate)
		}
		fmt.Fprintf(&b, " | Período: %s até %s", start, end)
	}
	if active(filter.Category) {
		fmt.Fprintf(&b, " | Categoria: %s", filter.Category)
	}
	return b.String()
}

func statusLabel(status string) string {
	switch status {
	case models.TransactionPaid:
		return "Pago"
	case string(models.ExpenseCancelled):
		return "Cancelado"
	default:
		return "Pendente"
	}
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
