package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-reportcard-api/internal/dto"
	"github.com/noah-isme/sma-reportcard-api/internal/middleware"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
	"github.com/noah-isme/sma-reportcard-api/internal/service"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
	"github.com/noah-isme/sma-reportcard-api/pkg/response"
)

type reportCardRenderer interface {
	Render(ctx context.Context, caps models.Capabilities, query dto.ReportCardQuery) (*service.RenderedReportCard, error)
	Preview(caps models.Capabilities, req dto.PreviewRequest) (string, error)
}

// ReportCardHandler serves rendered report cards.
type ReportCardHandler struct {
	cards reportCardRenderer
}

// NewReportCardHandler constructs the handler.
func NewReportCardHandler(cards reportCardRenderer) *ReportCardHandler {
	return &ReportCardHandler{cards: cards}
}

// Student godoc
// @Summary Render a student's report card
// @Description Single exam ids produce the classic layout, several ids the term-wise layout in the given order.
// @Tags ReportCards
// @Produce html
// @Produce application/pdf
// @Param studentId path string true "Student ID"
// @Param examIds query string true "Comma separated exam IDs"
// @Param format query string false "html or pdf"
// @Param download query bool false "Serve as attachment"
// @Success 200 {string} string "Rendered report card"
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /report-cards/students/{studentId} [get]
func (h *ReportCardHandler) Student(c *gin.Context) {
	caps, ok := capabilitiesOrAbort(c)
	if !ok {
		return
	}
	query := dto.ReportCardQuery{
		StudentID: c.Param("studentId"),
		ExamIDs:   splitQueryList(c.QueryArray("examIds")),
		Format:    models.ReportFormat(strings.ToLower(strings.TrimSpace(c.Query("format")))),
	}
	card, err := h.cards.Render(c.Request.Context(), caps, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, card.Cached)
	download, _ := strconv.ParseBool(c.Query("download"))
	if card.Format == models.ReportFormatPDF || download {
		response.Attachment(c, card.Filename, card.ContentType(), card.Bytes())
		return
	}
	response.HTML(c, http.StatusOK, card.HTML)
}

// Preview godoc
// @Summary Preview a report card from supplied data
// @Tags ReportCards
// @Accept json
// @Produce html
// @Param payload body dto.PreviewRequest true "Card data and optional template"
// @Success 200 {string} string "Rendered report card"
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /report-cards/preview [post]
func (h *ReportCardHandler) Preview(c *gin.Context) {
	caps, ok := capabilitiesOrAbort(c)
	if !ok {
		return
	}
	var req dto.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid preview payload"))
		return
	}
	html, err := h.cards.Preview(caps, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.HTML(c, http.StatusOK, html)
}
