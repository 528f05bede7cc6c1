package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-reportcard-api/internal/dto"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
	"github.com/noah-isme/sma-reportcard-api/pkg/response"
)

type templateManager interface {
	Get(ctx context.Context, caps models.Capabilities, schoolID string) (*dto.TemplateResponse, error)
	Update(ctx context.Context, caps models.Capabilities, schoolID string, cfg models.ReportCardTemplateConfig) (*dto.TemplateResponse, error)
}

// TemplateHandler manages per-school report card templates.
type TemplateHandler struct {
	templates templateManager
}

// NewTemplateHandler constructs the handler.
func NewTemplateHandler(templates templateManager) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// Get godoc
// @Summary Get a school's report card template
// @Tags ReportCards
// @Produce json
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /schools/{schoolId}/report-card-template [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	caps, ok := capabilitiesOrAbort(c)
	if !ok {
		return
	}
	tpl, err := h.templates.Get(c.Request.Context(), caps, c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tpl, nil)
}

// Update godoc
// @Summary Replace a school's report card template
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param payload body models.ReportCardTemplateConfig true "Template"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /schools/{schoolId}/report-card-template [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	caps, ok := capabilitiesOrAbort(c)
	if !ok {
		return
	}
	var cfg models.ReportCardTemplateConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid template payload"))
		return
	}
	tpl, err := h.templates.Update(c.Request.Context(), caps, c.Param("schoolId"), cfg)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tpl, nil)
}
