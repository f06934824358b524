package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/dto"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/service"
)

type AdjustmentHandler struct{ svc service.AdjustmentService }

func NewAdjustmentHandler(svc service.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{svc: svc}
}

// Create godoc
// @Summary Process a return or exchange against a finalized sale
// @Tags adjustments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Sale id"
// @Param request body dto.CreateAdjustmentRequest true "Adjustment"
// @Success 201 {object} dto.AdjustmentResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/sales/{id}/adjustments [post]
func (h *AdjustmentHandler) Create(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req dto.CreateAdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateAdjustment(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListByOrder returns every adjustment recorded against one sale.
func (h *AdjustmentHandler) ListByOrder(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	adjustments, err := h.svc.ListByOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adjustments": adjustments})
}
