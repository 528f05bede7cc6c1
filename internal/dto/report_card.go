package dto

import "github.com/noah-isme/sma-reportcard-api/internal/models"

// PreviewRequest captures POST /report-cards/preview payload.
type PreviewRequest struct {
	Data     *models.ReportCardData           `json:"data" validate:"required"`
	Template *models.ReportCardTemplateConfig `json:"template,omitempty"`
}

// ReportCardQuery captures GET /report-cards/students/:studentId options.
type ReportCardQuery struct {
	StudentID string
	ExamIDs   []string
	Format    models.ReportFormat
}

// BatchRequest captures POST /report-cards/batches payload.
type BatchRequest struct {
	ClassID string              `json:"classId" validate:"required"`
	ExamIDs []string            `json:"examIds" validate:"required,min=1,dive,required"`
	Format  models.ReportFormat `json:"format" validate:"omitempty,oneof=html pdf"`
}

// BatchResponse is returned after enqueueing a batch.
type BatchResponse struct {
	ID       string             `json:"id"`
	Status   models.BatchStatus `json:"status"`
	Progress int                `json:"progress"`
}

// BatchStatusResponse exposes batch progress metadata.
type BatchStatusResponse struct {
	ID        string             `json:"id"`
	ClassID   string             `json:"classId"`
	Status    models.BatchStatus `json:"status"`
	Progress  int                `json:"progress"`
	ResultURL *string            `json:"resultUrl,omitempty"`
	Skipped   []string           `json:"skipped,omitempty"`
	Error     *string            `json:"error,omitempty"`
}

// TemplateResponse returns a school's stored template with its defaults flag.
type TemplateResponse struct {
	SchoolID string                          `json:"schoolId"`
	Config   models.ReportCardTemplateConfig `json:"config"`
	// Stored is false when the school has never saved a template.
	Stored bool `json:"stored"`
}
