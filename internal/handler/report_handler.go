package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evalboard/evalboard-api/internal/models"
	"github.com/evalboard/evalboard-api/pkg/response"
)

type reportService interface {
	Generate(ctx context.Context, module, edition string) (*models.ReportData, bool, error)
	AvailableModules(ctx context.Context) ([]string, error)
	AvailableEditions(ctx context.Context) ([]string, error)
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Get godoc
// @Summary Survey report
// @Description Aggregated statistics for a module/edition selection; empty values mean ALL
// @Tags Reports
// @Produce json
// @Param module query string false "Module code or ALL"
// @Param edition query string false "Edition code or ALL"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) Get(c *gin.Context) {
	module := c.Query("module")
	edition := c.Query("edition")

	report, cached, err := h.reports.Generate(c.Request.Context(), module, edition)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil, map[string]interface{}{"cached": cached})
}

// Modules godoc
// @Summary Available modules
// @Description Distinct module codes present in the data, sorted
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/modules [get]
func (h *ReportHandler) Modules(c *gin.Context) {
	modules, err := h.reports.AvailableModules(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, modules, nil)
}

// Editions godoc
// @Summary Available editions
// @Description Distinct edition codes present in the data, sorted
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/editions [get]
func (h *ReportHandler) Editions(c *gin.Context) {
	editions, err := h.reports.AvailableEditions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, editions, nil)
}
