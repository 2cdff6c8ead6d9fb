package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bioclass-api/internal/middleware"
	"github.com/noah-isme/bioclass-api/pkg/cep"
	"github.com/noah-isme/bioclass-api/pkg/response"
)

type cepService interface {
	Lookup(ctx context.Context, raw string) (*cep.Address, bool, error)
}

// CEPHandler resolves Brazilian postal codes for the profile form.
type CEPHandler struct {
	service cepService
}

// NewCEPHandler constructs the handler.
func NewCEPHandler(service cepService) *CEPHandler {
	return &CEPHandler{service: service}
}

// Lookup godoc
// @Summary Look up a CEP
// @Tags CEP
// @Produce json
// @Param cep path string true "CEP, 8 digits with or without mask"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /cep/{cep} [get]
func (h *CEPHandler) Lookup(c *gin.Context) {
	address, hit, err := h.service.Lookup(c.Request.Context(), c.Param("cep"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, address, nil, middleware.ExtractMeta(c))
}
