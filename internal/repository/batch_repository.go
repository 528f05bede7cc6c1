package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-reportcard-api/internal/models"
)

const batchColumns = `id, school_id, class_id, params, status, progress, result_url, created_by, created_at, finished_at, error_message`

// BatchRepository persists report card batch metadata.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs the repository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create inserts a new batch row with generated defaults.
func (r *BatchRepository) Create(ctx context.Context, batch *models.ReportCardBatch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.Status == "" {
		batch.Status = models.BatchStatusQueued
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_card_batches (` + batchColumns + `)
VALUES (:id, :school_id, :class_id, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("create report card batch: %w", err)
	}
	return nil
}

// GetByID returns a batch row by its identifier.
func (r *BatchRepository) GetByID(ctx context.Context, id string) (*models.ReportCardBatch, error) {
	const query = `SELECT ` + batchColumns + ` FROM report_card_batches WHERE id = $1`
	var batch models.ReportCardBatch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		return nil, fmt.Errorf("get report card batch: %w", err)
	}
	return &batch, nil
}

// UpdateBatchParams defines the mutable fields.
type UpdateBatchParams struct {
	Status       *models.BatchStatus
	Progress     *int
	Params       *models.BatchParams
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update persists the provided changes for a batch row.
func (r *BatchRepository) Update(ctx context.Context, id string, params UpdateBatchParams) error {
	set := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.Progress != nil {
		add("progress", *params.Progress)
	}
	if params.Params != nil {
		add("params", *params.Params)
	}
	if params.ResultURL != nil {
		add("result_url", *params.ResultURL)
	}
	if params.ErrorMessage != nil {
		add("error_message", *params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		add("finished_at", *params.FinishedAt)
	}

	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE report_card_batches SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update report card batch: %w", err)
	}
	return nil
}

// ListQueued fetches queued batches (used for cold start recovery).
func (r *BatchRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportCardBatch, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT ` + batchColumns + ` FROM report_card_batches WHERE status IN ('QUEUED', 'PROCESSING') ORDER BY created_at ASC LIMIT $1`
	var batches []models.ReportCardBatch
	if err := r.db.SelectContext(ctx, &batches, query, limit); err != nil {
		return nil, fmt.Errorf("list queued report card batches: %w", err)
	}
	return batches, nil
}

// ListFinishedBefore retrieves completed batches prior to cutoff for cleanup.
func (r *BatchRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportCardBatch, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT ` + batchColumns + ` FROM report_card_batches WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1 AND result_url IS NOT NULL ORDER BY finished_at ASC LIMIT $2`
	var batches []models.ReportCardBatch
	if err := r.db.SelectContext(ctx, &batches, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished report card batches: %w", err)
	}
	return batches, nil
}

// ClearResult drops the download link of an expired batch.
func (r *BatchRepository) ClearResult(ctx context.Context, id string) error {
	const query = `UPDATE report_card_batches SET result_url = NULL WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("clear report card batch result: %w", err)
	}
	return nil
}
