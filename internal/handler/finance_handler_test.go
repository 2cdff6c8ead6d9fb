package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bioclass-api/internal/models"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
)

type financeServiceMock struct {
	overview   *models.FinanceOverview
	hit        bool
	err        error
	lastFilter models.FinanceFilter
	lastKind   models.ReportKind
	created    models.TransactionRequest
	calls      int
}

func (m *financeServiceMock) Overview(_ context.Context, filter models.FinanceFilter) (*models.FinanceOverview, bool, error) {
	m.calls++
	m.lastFilter = filter
	return m.overview, m.hit, m.err
}

func (m *financeServiceMock) CreateTransaction(_ context.Context, req models.TransactionRequest) (*models.Transaction, error) {
	m.created = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Transaction{ID: "tx-1", AmountCents: req.AmountCents, Status: models.TransactionPaid}, nil
}

func (m *financeServiceMock) ExportReport(_ context.Context, kind models.ReportKind, filter models.FinanceFilter) ([]byte, string, error) {
	m.lastKind = kind
	m.lastFilter = filter
	if m.err != nil {
		return nil, "", m.err
	}
	return []byte("%PDF"), "relatorio-financeiro-bioclass-1.pdf", nil
}

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	return loc
}

func TestFinanceHandlerOverviewParsesFilter(t *testing.T) {
	loc := saoPaulo(t)
	svc := &financeServiceMock{overview: &models.FinanceOverview{Summary: models.FinanceSummary{TotalRevenue: 30000, Balance: 30000}}, hit: true}
	c, rec := newTestContext(http.MethodGet, "/admin/finance?search=ana&status=PAID&category=receita&start_date=2024-03-01&end_date=2024-03-31", nil)

	NewFinanceHandler(svc, loc).Overview(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana", svc.lastFilter.Search)
	assert.Equal(t, "paid", svc.lastFilter.Status)
	assert.Equal(t, "receita", svc.lastFilter.Category)
	require.NotNil(t, svc.lastFilter.StartDate)
	require.NotNil(t, svc.lastFilter.EndDate)
	assert.True(t, svc.lastFilter.StartDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, loc)))
	assert.Equal(t, loc, svc.lastFilter.EndDate.Location())

	var got models.FinanceOverview
	envelope := decodeData(t, rec, &got)
	assert.Equal(t, int64(30000), got.Summary.Balance)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestFinanceHandlerOverviewDegradedMeta(t *testing.T) {
	svc := &financeServiceMock{overview: &models.FinanceOverview{DegradedSources: []string{"expenses"}}}
	c, rec := newTestContext(http.MethodGet, "/admin/finance", nil)

	NewFinanceHandler(svc, time.UTC).Overview(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, []interface{}{"expenses"}, envelope.Meta["degraded_sources"])
	assert.Equal(t, false, envelope.Meta["cache_hit"])
}

func TestFinanceHandlerOverviewRejectsBadDates(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "malformed start", query: "?start_date=01/03/2024"},
		{name: "malformed end", query: "?end_date=2024-13-01"},
		{name: "end before start", query: "?start_date=2024-03-10&end_date=2024-03-01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &financeServiceMock{}
			c, rec := newTestContext(http.MethodGet, "/admin/finance"+tc.query, nil)

			NewFinanceHandler(svc, time.UTC).Overview(c)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, svc.calls)
		})
	}
}

func TestFinanceHandlerCreateTransaction(t *testing.T) {
	svc := &financeServiceMock{}
	c, rec := newTestContext(http.MethodPost, "/admin/finance/transactions", jsonBody(`{"amount_cents":15000,"description":"Aula avulsa"}`))

	NewFinanceHandler(svc, time.UTC).CreateTransaction(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(15000), svc.created.AmountCents)
	assert.Equal(t, "Aula avulsa", svc.created.Description)
}

func TestFinanceHandlerCreateTransactionValidationError(t *testing.T) {
	svc := &financeServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "invalid payload")}
	c, rec := newTestContext(http.MethodPost, "/admin/finance/transactions", jsonBody(`{"amount_cents":0}`))

	NewFinanceHandler(svc, time.UTC).CreateTransaction(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFinanceHandlerReport(t *testing.T) {
	svc := &financeServiceMock{}
	c, rec := newTestContext(http.MethodGet, "/admin/finance/report?type=Payables&status=pending", nil)

	NewFinanceHandler(svc, time.UTC).Report(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ReportPayables, svc.lastKind)
	assert.Equal(t, "pending", svc.lastFilter.Status)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "relatorio-financeiro-bioclass-1.pdf")
}

func TestFinanceHandlerReportDefaultsToReceivables(t *testing.T) {
	svc := &financeServiceMock{}
	c, _ := newTestContext(http.MethodGet, "/admin/finance/report", nil)

	NewFinanceHandler(svc, time.UTC).Report(c)

	assert.Equal(t, models.ReportReceivables, svc.lastKind)
}
