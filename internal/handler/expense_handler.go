package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bioclass-api/internal/models"
	"github.com/noah-isme/bioclass-api/pkg/response"
)

type expenseService interface {
	List(ctx context.Context) ([]models.Expense, error)
	Get(ctx context.Context, id string) (*models.Expense, error)
	Create(ctx context.Context, req models.ExpenseRequest, createdBy string) ([]models.Expense, error)
	Update(ctx context.Context, id string, req models.ExpenseUpdateRequest) (*models.Expense, error)
	Delete(ctx context.Context, id string) error
}

// ExpenseHandler manages payables.
type ExpenseHandler struct {
	service expenseService
}

// NewExpenseHandler constructs the handler.
func NewExpenseHandler(service expenseService) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// List godoc
// @Summary List expenses
// @Tags Expenses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	expenses, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, expenses, nil)
}

// Get godoc
// @Summary Expense detail
// @Tags Expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	expense, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, expense, nil)
}

// Create godoc
// @Summary Create an expense
// @Description total_installments > 1 creates one row per month sharing a parent_id
// @Tags Expenses
// @Accept json
// @Produce json
// @Param payload body models.ExpenseRequest true "Expense payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req models.ExpenseRequest
	if !bindJSON(c, &req) {
		return
	}
	expenses, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, expenses)
}

// Update godoc
// @Summary Update one expense
// @Description Only the addressed installment changes
// @Tags Expenses
// @Accept json
// @Produce json
// @Param id path string true "Expense ID"
// @Param payload body models.ExpenseUpdateRequest true "Expense payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	var req models.ExpenseUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	expense, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, expense, nil)
}

// Delete godoc
// @Summary Delete one expense
// @Tags Expenses
// @Param id path string true "Expense ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
