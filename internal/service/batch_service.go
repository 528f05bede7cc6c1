package service

import (
	"archive/zip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-reportcard-api/internal/dto"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
	"github.com/noah-isme/sma-reportcard-api/internal/repository"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
	"github.com/noah-isme/sma-reportcard-api/pkg/jobs"
	"github.com/noah-isme/sma-reportcard-api/pkg/storage"
)

// BatchJobType tags queue jobs that render a class of report cards.
const BatchJobType = "report_card_batch"

type batchStore interface {
	Create(ctx context.Context, batch *models.ReportCardBatch) error
	GetByID(ctx context.Context, id string) (*models.ReportCardBatch, error)
	Update(ctx context.Context, id string, params repository.UpdateBatchParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportCardBatch, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportCardBatch, error)
	ClearResult(ctx context.Context, id string) error
}

// BatchDispatcher hands batch jobs to background workers.
type BatchDispatcher interface {
	Enqueue(job jobs.Job) error
	Pending() int
}

type classRoster interface {
	ListByClass(ctx context.Context, schoolID, classID string) ([]models.Student, error)
}

type sessionPreparer interface {
	PrepareSession(ctx context.Context, schoolID string, examIDs []string) (*CardSession, error)
}

type batchFileStore interface {
	Create(name string) (io.WriteCloser, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// BatchServiceConfig governs batch creation, downloads and retention.
type BatchServiceConfig struct {
	Enabled    bool
	PDFEnabled bool
	// DownloadPrefix is joined with the signed token to form result URLs.
	DownloadPrefix  string
	Retention       time.Duration
	CleanupInterval time.Duration
}

// BatchDownload is an opened batch archive ready to stream.
type BatchDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

// BatchService manages class-wide report card batches.
type BatchService struct {
	repo      batchStore
	students  classRoster
	exams     examReader
	queue     BatchDispatcher
	store     batchFileStore
	signer    *storage.Signer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       BatchServiceConfig
	now       func() time.Time
}

// NewBatchService constructs the batch service.
func NewBatchService(repo batchStore, students classRoster, exams examReader, queue BatchDispatcher, store batchFileStore, signer *storage.Signer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg BatchServiceConfig) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 72 * time.Hour
	}
	cfg.DownloadPrefix = strings.TrimSuffix(cfg.DownloadPrefix, "/")
	return &BatchService{
		repo:      repo,
		students:  students,
		exams:     exams,
		queue:     queue,
		store:     store,
		signer:    signer,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create validates the request, persists the batch and enqueues it.
func (s *BatchService) Create(ctx context.Context, caps models.Capabilities, req dto.BatchRequest) (*dto.BatchResponse, error) {
	if !s.cfg.Enabled || s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "report card batches are disabled")
	}
	if !caps.RunBatches || caps.SchoolID == "" {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch request")
	}
	format := req.Format
	if format == "" {
		format = models.ReportFormatHTML
	}
	if format == models.ReportFormatPDF && !s.cfg.PDFEnabled {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "pdf report cards are disabled")
	}
	examIDs, err := normalizeExamIDs(req.ExamIDs)
	if err != nil {
		return nil, err
	}

	exams, err := s.exams.ListByIDs(ctx, caps.SchoolID, examIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exams")
	}
	if len(exams) != len(examIDs) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
	}
	students, err := s.students.ListByClass(ctx, caps.SchoolID, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class students")
	}
	if len(students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class has no active students")
	}

	batch := &models.ReportCardBatch{
		SchoolID:  caps.SchoolID,
		ClassID:   req.ClassID,
		Params:    models.BatchParams{ExamIDs: examIDs, Format: format},
		Status:    models.BatchStatusQueued,
		CreatedBy: caps.ActorID,
	}
	if err := s.repo.Create(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: batch.ID, Type: BatchJobType}); err != nil {
		status := models.BatchStatusFailed
		msg := "failed to enqueue batch"
		now := s.now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, batch.ID, repository.UpdateBatchParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		s.metrics.ObserveBatch("failed", 0)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue batch")
	}
	s.metrics.SetQueueDepth(s.queue.Pending())
	s.logger.Info("report card batch queued",
		zap.String("batch_id", batch.ID),
		zap.String("class_id", batch.ClassID),
		zap.Int("students", len(students)),
	)
	return &dto.BatchResponse{ID: batch.ID, Status: batch.Status, Progress: batch.Progress}, nil
}

// GetStatus exposes batch progress to members of the owning school.
func (s *BatchService) GetStatus(ctx context.Context, caps models.Capabilities, id string) (*dto.BatchStatusResponse, error) {
	if !caps.RunBatches {
		return nil, appErrors.ErrForbidden
	}
	batch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	if !caps.SameSchool(batch.SchoolID) {
		return nil, appErrors.ErrNotFound
	}
	resp := &dto.BatchStatusResponse{
		ID:        batch.ID,
		ClassID:   batch.ClassID,
		Status:    batch.Status,
		Progress:  batch.Progress,
		ResultURL: batch.ResultURL,
		Skipped:   batch.Params.Skipped,
	}
	if batch.ErrorMessage != nil && *batch.ErrorMessage != "" {
		resp.Error = batch.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates a signed token and opens the batch archive.
func (s *BatchService) ResolveDownload(ctx context.Context, token string) (*BatchDownload, error) {
	link, err := s.signer.Verify(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.ErrLinkExpired
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	batch, err := s.repo.GetByID(ctx, link.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	if batch.ResultURL == nil || extractToken(*batch.ResultURL) != token {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if batch.Status != models.BatchStatusFinished {
		return nil, appErrors.ErrBatchNotReady
	}
	file, err := s.store.Open(link.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch archive no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open batch archive")
	}
	return &BatchDownload{File: file, Filename: path.Base(link.Path), ExpiresAt: link.ExpiresAt}, nil
}

// RecoverPendingJobs replays unfinished batches after a restart.
func (s *BatchService) RecoverPendingJobs(ctx context.Context) {
	if !s.cfg.Enabled || s.queue == nil {
		return
	}
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued batches", zap.Error(err))
		return
	}
	for _, batch := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: batch.ID, Type: BatchJobType}); err != nil {
			s.logger.Warn("failed to requeue batch", zap.String("batch_id", batch.ID), zap.Error(err))
		}
	}
	s.metrics.SetQueueDepth(s.queue.Pending())
}

// StartCleanup purges expired archives every CleanupInterval until ctx ends.
func (s *BatchService) StartCleanup(ctx context.Context) {
	if !s.cfg.Enabled || s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *BatchService) cleanupExpired(ctx context.Context) {
	const pageSize = 100
	cutoff := s.now().Add(-s.cfg.Retention)
	for {
		batches, err := s.repo.ListFinishedBefore(ctx, cutoff, pageSize)
		if err != nil {
			s.logger.Warn("batch cleanup list failed", zap.Error(err))
			return
		}
		for _, batch := range batches {
			if batch.ResultURL != nil {
				if link, err := s.signer.Verify(extractToken(*batch.ResultURL), true); err == nil {
					if err := s.store.Delete(link.Path); err != nil {
						s.logger.Warn("batch cleanup delete failed", zap.String("batch_id", batch.ID), zap.Error(err))
					}
				}
			}
			if err := s.repo.ClearResult(ctx, batch.ID); err != nil {
				s.logger.Warn("batch cleanup clear failed", zap.String("batch_id", batch.ID), zap.Error(err))
				return
			}
		}
		if len(batches) < pageSize {
			break
		}
	}
	if removed, err := s.store.CleanupOlderThan(s.cfg.Retention); err != nil {
		s.logger.Warn("batch storage cleanup failed", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("expired batch archives removed", zap.Int("files", len(removed)))
	}
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// BatchWorker renders queued batches into a zip archive of report cards.
type BatchWorker struct {
	repo     batchStore
	students classRoster
	cards    sessionPreparer
	store    batchFileStore
	signer   *storage.Signer
	metrics  *MetricsService
	logger   *zap.Logger
	prefix   string
	now      func() time.Time
}

// NewBatchWorker constructs a worker. downloadPrefix matches BatchServiceConfig.DownloadPrefix.
func NewBatchWorker(repo batchStore, students classRoster, cards sessionPreparer, store batchFileStore, signer *storage.Signer, metrics *MetricsService, downloadPrefix string, logger *zap.Logger) *BatchWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchWorker{
		repo:     repo,
		students: students,
		cards:    cards,
		store:    store,
		signer:   signer,
		metrics:  metrics,
		logger:   logger,
		prefix:   strings.TrimSuffix(downloadPrefix, "/"),
		now:      time.Now,
	}
}

// Handle processes one queued batch. A failed attempt puts the batch back to QUEUED.
func (w *BatchWorker) Handle(ctx context.Context, job jobs.Job) error {
	batch, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if batch.Status == models.BatchStatusFinished || batch.Status == models.BatchStatusFailed {
		return nil
	}

	processing := models.BatchStatusProcessing
	progress := 5
	if err := w.repo.Update(ctx, batch.ID, repository.UpdateBatchParams{Status: &processing, Progress: &progress}); err != nil {
		return err
	}

	url, params, rendered, err := w.generate(ctx, batch)
	if err != nil {
		queued := models.BatchStatusQueued
		reset := 0
		msg := err.Error()
		if updateErr := w.repo.Update(ctx, batch.ID, repository.UpdateBatchParams{
			Status:       &queued,
			Progress:     &reset,
			ErrorMessage: &msg,
		}); updateErr != nil {
			w.logger.Warn("failed to requeue batch", zap.String("batch_id", batch.ID), zap.Error(updateErr))
		}
		return err
	}

	finished := models.BatchStatusFinished
	progress = 100
	now := w.now().UTC()
	clear := ""
	if err := w.repo.Update(ctx, batch.ID, repository.UpdateBatchParams{
		Status:       &finished,
		Progress:     &progress,
		Params:       &params,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark batch finished", zap.String("batch_id", batch.ID), zap.Error(err))
		return err
	}
	w.metrics.ObserveBatch("finished", rendered)
	w.logger.Info("report card batch finished",
		zap.String("batch_id", batch.ID),
		zap.Int("rendered", rendered),
		zap.Int("skipped", len(params.Skipped)),
	)
	return nil
}

// MarkFailed records a batch whose retries are exhausted. It matches jobs.QueueConfig.OnExhausted.
func (w *BatchWorker) MarkFailed(job jobs.Job, cause error) {
	failed := models.BatchStatusFailed
	progress := 100
	msg := cause.Error()
	now := w.now().UTC()
	if err := w.repo.Update(context.Background(), job.ID, repository.UpdateBatchParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark batch failed", zap.String("batch_id", job.ID), zap.Error(err))
	}
	w.metrics.ObserveBatch("failed", 0)
}

// generate writes every student's card into one archive. Students whose card
// cannot be composed are skipped; the batch fails only when none render.
func (w *BatchWorker) generate(ctx context.Context, batch *models.ReportCardBatch) (string, models.BatchParams, int, error) {
	params := batch.Params
	params.Skipped = nil
	format := params.Format
	if format == "" {
		format = models.ReportFormatHTML
	}

	students, err := w.students.ListByClass(ctx, batch.SchoolID, batch.ClassID)
	if err != nil {
		return "", params, 0, fmt.Errorf("list class students: %w", err)
	}
	if len(students) == 0 {
		return "", params, 0, fmt.Errorf("class %s has no active students", batch.ClassID)
	}
	session, err := w.cards.PrepareSession(ctx, batch.SchoolID, params.ExamIDs)
	if err != nil {
		return "", params, 0, fmt.Errorf("prepare report cards: %w", err)
	}

	archivePath := path.Join("batches", batch.ID, fmt.Sprintf("report_cards_%s.zip", batch.ClassID))
	file, err := w.store.Create(archivePath)
	if err != nil {
		return "", params, 0, fmt.Errorf("create archive: %w", err)
	}
	fail := func(err error) (string, models.BatchParams, int, error) {
		_ = file.Close()
		_ = w.store.Delete(archivePath)
		return "", params, 0, err
	}

	archive := zip.NewWriter(file)
	rendered, lastProgress := 0, 5
	for i, student := range students {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		card, err := session.Render(ctx, student, format)
		if err != nil {
			w.logger.Warn("report card skipped in batch",
				zap.String("batch_id", batch.ID),
				zap.String("student_id", student.ID),
				zap.Error(err),
			)
			params.Skipped = append(params.Skipped, student.ID)
		} else {
			entry, err := archive.Create(card.Filename)
			if err == nil {
				_, err = entry.Write(card.Bytes())
			}
			if err != nil {
				return fail(fmt.Errorf("write archive entry: %w", err))
			}
			rendered++
		}

		progress := 5 + 90*(i+1)/len(students)
		if progress-lastProgress >= 10 {
			lastProgress = progress
			_ = w.repo.Update(ctx, batch.ID, repository.UpdateBatchParams{Progress: &progress})
		}
	}
	if rendered == 0 {
		return fail(fmt.Errorf("no report card could be rendered for class %s", batch.ClassID))
	}
	if err := archive.Close(); err != nil {
		return fail(fmt.Errorf("finalise archive: %w", err))
	}
	if err := file.Close(); err != nil {
		_ = w.store.Delete(archivePath)
		return "", params, 0, fmt.Errorf("close archive: %w", err)
	}

	link, err := w.signer.Sign(batch.ID, archivePath)
	if err != nil {
		return "", params, 0, fmt.Errorf("sign download: %w", err)
	}
	return w.prefix + "/" + link.Token, params, rendered, nil
}
