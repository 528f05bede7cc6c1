package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportFormat enumerates report card output formats.
type ReportFormat string

const (
	ReportFormatHTML ReportFormat = "html"
	ReportFormatPDF  ReportFormat = "pdf"
)

// BatchStatus captures background batch lifecycle states.
type BatchStatus string

const (
	BatchStatusQueued     BatchStatus = "QUEUED"
	BatchStatusProcessing BatchStatus = "PROCESSING"
	BatchStatusFinished   BatchStatus = "FINISHED"
	BatchStatusFailed     BatchStatus = "FAILED"
)

// ReportCardBatch is a persisted class-wide report card generation job.
type ReportCardBatch struct {
	ID           string      `db:"id" json:"id"`
	SchoolID     string      `db:"school_id" json:"school_id"`
	ClassID      string      `db:"class_id" json:"class_id"`
	Params       BatchParams `db:"params" json:"params"`
	Status       BatchStatus `db:"status" json:"status"`
	Progress     int         `db:"progress" json:"progress"`
	ResultURL    *string     `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string      `db:"created_by" json:"created_by"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time  `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string     `db:"error_message" json:"error_message,omitempty"`
}

// BatchParams stores request-scoped options persisted as JSONB.
type BatchParams struct {
	ExamIDs []string     `json:"examIds"`
	Format  ReportFormat `json:"format"`
	// Skipped lists students whose card could not be composed.
	Skipped []string `json:"skipped,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p BatchParams) Value() (driver.Value, error) {
	if p.ExamIDs == nil {
		p.ExamIDs = []string{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal batch params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *BatchParams) Scan(value interface{}) error {
	if value == nil {
		*p = BatchParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for BatchParams", value)
	}
	if len(data) == 0 {
		*p = BatchParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal batch params: %w", err)
	}
	return nil
}
