package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/dto"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/service"
)

type ReportHandler struct{ svc service.ReportService }

func NewReportHandler(svc service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Reconciliation godoc
// @Summary Full reconciliation detail for one session
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session id"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/caixa/{id}/reconciliation [get]
func (h *ReportHandler) Reconciliation(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Reconciliation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListSessions returns paginated session summaries with prefix-sum metrics.
func (h *ReportHandler) ListSessions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	resp, err := h.svc.ListSessions(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Ledger merges manual movements and sale payments into one filterable view.
func (h *ReportHandler) Ledger(c *gin.Context) {
	var filter dto.LedgerFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		filter = dto.LedgerFilter{}
	}
	c.JSON(http.StatusOK, h.svc.Ledger(c.Request.Context(), filter))
}
