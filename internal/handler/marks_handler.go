package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-reportcard-api/internal/dto"
	"github.com/noah-isme/sma-reportcard-api/internal/middleware"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
	"github.com/noah-isme/sma-reportcard-api/internal/service"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
	"github.com/noah-isme/sma-reportcard-api/pkg/response"
)

type marksDashboard interface {
	Dashboard(ctx context.Context, caps models.Capabilities, query dto.MarksDashboardQuery) (*dto.MarksDashboardResponse, bool, error)
	Export(ctx context.Context, caps models.Capabilities, query dto.MarksDashboardQuery, format service.ExportFormat) ([]byte, string, string, error)
	Evaluate(req dto.EvaluateRequest) (*dto.EvaluateResponse, error)
}

// MarksHandler exposes the marks dashboard.
type MarksHandler struct {
	service marksDashboard
}

// NewMarksHandler constructs the handler.
func NewMarksHandler(service marksDashboard) *MarksHandler {
	return &MarksHandler{service: service}
}

// Dashboard godoc
// @Summary Class marks dashboard for one exam
// @Tags Marks
// @Produce json
// @Param classId query string true "Class ID"
// @Param examId query string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /marks/dashboard [get]
func (h *MarksHandler) Dashboard(c *gin.Context) {
	caps, ok := capabilitiesOrAbort(c)
	if !ok {
		return
	}
	var query dto.MarksDashboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	board, cacheHit, err := h.service.Dashboard(c.Request.Context(), caps, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, board, nil, middleware.ResponseMeta(c))
}

// Export godoc
// @Summary Download the marks dashboard
// @Tags Marks
// @Produce text/csv
// @Produce application/pdf
// @Param classId query string true "Class ID"
// @Param examId query string true "Exam ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /marks/dashboard/export [get]
func (h *MarksHandler) Export(c *gin.Context) {
	caps, ok := capabilitiesOrAbort(c)
	if !ok {
		return
	}
	var query dto.MarksDashboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	data, filename, contentType, err := h.service.Export(c.Request.Context(), caps, query, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, contentType, data)
}

// Evaluate godoc
// @Summary Preview percentage, grade and status of entered marks
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body dto.EvaluateRequest true "Marks"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /marks/evaluate [post]
func (h *MarksHandler) Evaluate(c *gin.Context) {
	if _, ok := capabilitiesOrAbort(c); !ok {
		return
	}
	var req dto.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid marks payload"))
		return
	}
	resp, err := h.service.Evaluate(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
