package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bioclass-api/internal/models"
	"github.com/noah-isme/bioclass-api/internal/service"
	"github.com/noah-isme/bioclass-api/pkg/payment"
	"github.com/noah-isme/bioclass-api/pkg/response"
)

type checkoutService interface {
	Start(ctx context.Context, buyer *models.JWTClaims, req service.CheckoutRequest) (*payment.Checkout, error)
}

// CheckoutHandler starts hosted payment sessions.
type CheckoutHandler struct {
	service checkoutService
}

// NewCheckoutHandler constructs the handler.
func NewCheckoutHandler(service checkoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// Start godoc
// @Summary Start a checkout for a course
// @Description Price and title are taken from the stored course
// @Tags Checkout
// @Accept json
// @Produce json
// @Param payload body service.CheckoutRequest true "Checkout payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /checkout [post]
func (h *CheckoutHandler) Start(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	checkout, err := h.service.Start(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, checkout, nil)
}
