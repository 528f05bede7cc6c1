package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-reportcard-api/internal/dto"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
)

type templateMock struct {
	saved *models.ReportCardTemplateConfig
}

func (m *templateMock) Get(_ context.Context, _ models.Capabilities, schoolID string) (*dto.TemplateResponse, error) {
	return &dto.TemplateResponse{SchoolID: schoolID}, nil
}

func (m *templateMock) Update(_ context.Context, _ models.Capabilities, schoolID string, cfg models.ReportCardTemplateConfig) (*dto.TemplateResponse, error) {
	m.saved = &cfg
	return &dto.TemplateResponse{SchoolID: schoolID, Config: cfg, Stored: true}, nil
}

func TestTemplateHandlerGetAndUpdate(t *testing.T) {
	mock := &templateMock{}
	handler := NewTemplateHandler(mock)

	c, w := newGinContext(http.MethodGet, "/schools/school-1/report-card-template", nil)
	c.Params = gin.Params{{Key: "schoolId", Value: "school-1"}}
	asAdmin(c)
	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"schoolId":"school-1"`)

	c, w = newGinContext(http.MethodPut, "/schools/school-1/report-card-template", []byte(`{"table":{"density":"compact"},"labels":{"title":"Rapor"}}`))
	c.Params = gin.Params{{Key: "schoolId", Value: "school-1"}}
	asAdmin(c)
	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.saved)
	assert.Equal(t, "compact", mock.saved.Table.Density)
	assert.Equal(t, "Rapor", mock.saved.Labels["title"])

	c, w = newGinContext(http.MethodPut, "/schools/school-1/report-card-template", []byte(`{"table":`))
	asAdmin(c)
	handler.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
