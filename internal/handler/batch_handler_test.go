package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-reportcard-api/internal/dto"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
	"github.com/noah-isme/sma-reportcard-api/internal/service"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
)

type batchServiceMock struct {
	createReq   dto.BatchRequest
	createErr   error
	status      *dto.BatchStatusResponse
	download    *service.BatchDownload
	downloadErr error
}

func (m *batchServiceMock) Create(_ context.Context, _ models.Capabilities, req dto.BatchRequest) (*dto.BatchResponse, error) {
	m.createReq = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.BatchResponse{ID: "batch-1", Status: models.BatchStatusQueued}, nil
}

func (m *batchServiceMock) GetStatus(_ context.Context, _ models.Capabilities, id string) (*dto.BatchStatusResponse, error) {
	if m.status == nil || m.status.ID != id {
		return nil, appErrors.ErrNotFound
	}
	return m.status, nil
}

func (m *batchServiceMock) ResolveDownload(_ context.Context, _ string) (*service.BatchDownload, error) {
	return m.download, m.downloadErr
}

func TestBatchHandlerCreate(t *testing.T) {
	mock := &batchServiceMock{}
	handler := NewBatchHandler(mock)
	payload, _ := json.Marshal(dto.BatchRequest{ClassID: "class-1", ExamIDs: []string{"e1"}})

	c, w := newGinContext(http.MethodPost, "/report-cards/batches", payload)
	asAdmin(c)
	handler.Create(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "class-1", mock.createReq.ClassID)

	disabled := NewBatchHandler(&batchServiceMock{createErr: appErrors.ErrFeatureDisabled})
	c, w = newGinContext(http.MethodPost, "/report-cards/batches", payload)
	asAdmin(c)
	disabled.Create(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBatchHandlerStatus(t *testing.T) {
	handler := NewBatchHandler(&batchServiceMock{status: &dto.BatchStatusResponse{ID: "batch-1", Status: models.BatchStatusFinished, Progress: 100}})

	c, w := newGinContext(http.MethodGet, "/report-cards/batches/batch-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "batch-1"}}
	asAdmin(c)
	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"FINISHED"`)

	c, w = newGinContext(http.MethodGet, "/report-cards/batches/other", nil)
	c.Params = gin.Params{{Key: "id", Value: "other"}}
	asAdmin(c)
	handler.Status(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBatchHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report_cards_class-1.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK-archive"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	handler := NewBatchHandler(&batchServiceMock{download: &service.BatchDownload{File: file, Filename: "report_cards_class-1.zip", ExpiresAt: time.Now().Add(time.Hour)}})
	c, w := newGinContext(http.MethodGet, "/export/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PK-archive", w.Body.String())
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="report_cards_class-1.zip"`, w.Header().Get("Content-Disposition"))

	denied := NewBatchHandler(&batchServiceMock{downloadErr: appErrors.ErrLinkExpired})
	c, w = newGinContext(http.MethodGet, "/export/token", nil)
	denied.Download(c)
	assert.Equal(t, http.StatusGone, w.Code)
}
