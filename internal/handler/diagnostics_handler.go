package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evalboard/evalboard-api/internal/service"
	"github.com/evalboard/evalboard-api/pkg/response"
)

// DiagnosticsHandler exposes admin diagnostics endpoints.
type DiagnosticsHandler struct {
	service *service.DiagnosticsService
}

// NewDiagnosticsHandler constructs a diagnostics handler.
func NewDiagnosticsHandler(svc *service.DiagnosticsService) *DiagnosticsHandler {
	return &DiagnosticsHandler{service: svc}
}

// Coverage godoc
// @Summary Data coverage diagnostics
// @Description Response counts for every known module/edition combination
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/diagnostics [get]
func (h *DiagnosticsHandler) Coverage(c *gin.Context) {
	report, err := h.service.Coverage(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// SystemMetrics godoc
// @Summary Runtime metrics snapshot
// @Description Cache, request, database and sync counters for the admin dashboard
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/metrics [get]
func (h *DiagnosticsHandler) SystemMetrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.SystemMetrics(), nil)
}
