package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bioclass-api/internal/models"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
)

type expenseServiceMock struct {
	err         error
	createdBy   string
	createReq   models.ExpenseRequest
	updateReq   models.ExpenseUpdateRequest
	lastID      string
	createCalls int
}

func (m *expenseServiceMock) List(context.Context) ([]models.Expense, error) {
	return []models.Expense{{ID: "exp-1"}}, m.err
}

func (m *expenseServiceMock) Get(_ context.Context, id string) (*models.Expense, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return &models.Expense{ID: id}, nil
}

func (m *expenseServiceMock) Create(_ context.Context, req models.ExpenseRequest, createdBy string) ([]models.Expense, error) {
	m.createCalls++
	m.createReq = req
	m.createdBy = createdBy
	if m.err != nil {
		return nil, m.err
	}
	rows := make([]models.Expense, req.TotalInstallments)
	for i := range rows {
		rows[i] = models.Expense{ID: "exp", CurrentInstallment: i + 1, TotalInstallments: req.TotalInstallments}
	}
	return rows, nil
}

func (m *expenseServiceMock) Update(_ context.Context, id string, req models.ExpenseUpdateRequest) (*models.Expense, error) {
	m.lastID = id
	m.updateReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Expense{ID: id, Status: req.Status}, nil
}

func (m *expenseServiceMock) Delete(_ context.Context, id string) error {
	m.lastID = id
	return m.err
}

func TestExpenseHandlerCreateUsesCaller(t *testing.T) {
	svc := &expenseServiceMock{}
	body := `{"description":"Aluguel","amount_cents":120000,"due_date":"2024-01-15","category":"aluguel","total_installments":3}`
	c, rec := newTestContext(http.MethodPost, "/admin/expenses", jsonBody(body))
	withUser(c, "admin-1", models.RoleAdmin)

	NewExpenseHandler(svc).Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "admin-1", svc.createdBy)
	assert.Equal(t, "2024-01-15", svc.createReq.DueDate)
	var got []models.Expense
	decodeData(t, rec, &got)
	assert.Len(t, got, 3)
}

func TestExpenseHandlerCreateMalformedBody(t *testing.T) {
	svc := &expenseServiceMock{}
	c, rec := newTestContext(http.MethodPost, "/admin/expenses", jsonBody(`{"amount_cents":"abc"}`))
	withUser(c, "admin-1", models.RoleAdmin)

	NewExpenseHandler(svc).Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.createCalls)
}

func TestExpenseHandlerUpdateSingleRow(t *testing.T) {
	svc := &expenseServiceMock{}
	body := `{"description":"Parcela 2","amount_cents":40000,"due_date":"2024-02-15","category":"aluguel","status":"paid"}`
	c, rec := newTestContext(http.MethodPut, "/admin/expenses/exp-2", jsonBody(body))
	c.AddParam("id", "exp-2")

	NewExpenseHandler(svc).Update(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "exp-2", svc.lastID)
	assert.Equal(t, models.ExpensePaid, svc.updateReq.Status)
}

func TestExpenseHandlerDeleteNotFound(t *testing.T) {
	svc := &expenseServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "expense not found")}
	c, rec := newTestContext(http.MethodDelete, "/admin/expenses/missing", nil)
	c.AddParam("id", "missing")

	NewExpenseHandler(svc).Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
