package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bioclass-api/internal/middleware"
	"github.com/noah-isme/bioclass-api/internal/models"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
	"github.com/noah-isme/bioclass-api/pkg/response"
)

type financeService interface {
	Overview(ctx context.Context, filter models.FinanceFilter) (*models.FinanceOverview, bool, error)
	CreateTransaction(ctx context.Context, req models.TransactionRequest) (*models.Transaction, error)
	ExportReport(ctx context.Context, kind models.ReportKind, filter models.FinanceFilter) ([]byte, string, error)
}

// FinanceHandler serves the reconciliation screen and its PDF export.
type FinanceHandler struct {
	service  financeService
	location *time.Location
}

// NewFinanceHandler constructs the handler. Date filters are read as
// calendar days in loc.
func NewFinanceHandler(service financeService, loc *time.Location) *FinanceHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &FinanceHandler{service: service, location: loc}
}

// Overview godoc
// @Summary Finance overview
// @Description Global totals plus the ledger and expenses matching the filter
// @Tags Finance
// @Produce json
// @Param search query string false "Search text"
// @Param status query string false "paid, pending or all"
// @Param category query string false "Category or all"
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD), inclusive"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/finance [get]
func (h *FinanceHandler) Overview(c *gin.Context) {
	filter, err := h.filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	overview, hit, err := h.service.Overview(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetDegraded(c, overview.DegradedSources)
	response.JSON(c, http.StatusOK, overview, nil, middleware.ExtractMeta(c))
}

// CreateTransaction godoc
// @Summary Record a manual ledger entry
// @Tags Finance
// @Accept json
// @Produce json
// @Param payload body models.TransactionRequest true "Transaction payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/finance/transactions [post]
func (h *FinanceHandler) CreateTransaction(c *gin.Context) {
	var req models.TransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := h.service.CreateTransaction(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tx)
}

// Report godoc
// @Summary Export the filtered receivables or payables as PDF
// @Tags Finance
// @Produce application/pdf
// @Param type query string true "receivables or payables"
// @Param search query string false "Search text"
// @Param status query string false "Status"
// @Param category query string false "Category"
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/finance/report [get]
func (h *FinanceHandler) Report(c *gin.Context) {
	filter, err := h.filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	kind := models.ReportKind(strings.ToLower(strings.TrimSpace(c.DefaultQuery("type", string(models.ReportReceivables)))))

	payload, filename, err := h.service.ExportReport(c.Request.Context(), kind, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, pdfContentType, filename, payload)
}

func (h *FinanceHandler) filterFromQuery(c *gin.Context) (models.FinanceFilter, error) {
	filter := models.FinanceFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
		Category: strings.TrimSpace(c.Query("category")),
	}
	start, err := parseDateQuery(c, "start_date", h.location)
	if err != nil {
		return filter, err
	}
	end, err := parseDateQuery(c, "end_date", h.location)
	if err != nil {
		return filter, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return filter, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}
	filter.StartDate = start
	filter.EndDate = end
	return filter, nil
}
