package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-reportcard-api/internal/dto"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
	"github.com/noah-isme/sma-reportcard-api/internal/service"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
	"github.com/noah-isme/sma-reportcard-api/pkg/response"
)

type batchService interface {
	Create(ctx context.Context, caps models.Capabilities, req dto.BatchRequest) (*dto.BatchResponse, error)
	GetStatus(ctx context.Context, caps models.Capabilities, id string) (*dto.BatchStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.BatchDownload, error)
}

// BatchHandler exposes class-wide report card generation.
type BatchHandler struct {
	batches batchService
}

// NewBatchHandler constructs the handler.
func NewBatchHandler(batches batchService) *BatchHandler {
	return &BatchHandler{batches: batches}
}

// Create godoc
// @Summary Queue report cards for a whole class
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param payload body dto.BatchRequest true "Batch request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /report-cards/batches [post]
func (h *BatchHandler) Create(c *gin.Context) {
	caps, ok := capabilitiesOrAbort(c)
	if !ok {
		return
	}
	var req dto.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid batch payload"))
		return
	}
	resp, err := h.batches.Create(c.Request.Context(), caps, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, resp)
}

// Status godoc
// @Summary Report card batch status
// @Tags ReportCards
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /report-cards/batches/{id} [get]
func (h *BatchHandler) Status(c *gin.Context) {
	caps, ok := capabilitiesOrAbort(c)
	if !ok {
		return
	}
	status, err := h.batches.GetStatus(c.Request.Context(), caps, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished batch archive
// @Tags ReportCards
// @Produce application/zip
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /export/{token} [get]
func (h *BatchHandler) Download(c *gin.Context) {
	download, err := h.batches.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "application/zip")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, download.File); err != nil {
		_ = c.Error(err)
	}
}
