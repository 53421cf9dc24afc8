package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maestoso/conservatory-api/internal/service"
	"github.com/maestoso/conservatory-api/pkg/response"
)

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	audits *service.AuditService
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audits *service.AuditService) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// List godoc
// @Summary List recent audit entries
// @Tags Audit
// @Produce json
// @Param limit query int false "Max entries (default 50)"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.audits.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
