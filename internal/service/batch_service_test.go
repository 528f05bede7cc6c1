package service

import (
	"archive/zip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-reportcard-api/internal/dto"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
	"github.com/noah-isme/sma-reportcard-api/internal/repository"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
	"github.com/noah-isme/sma-reportcard-api/pkg/jobs"
	"github.com/noah-isme/sma-reportcard-api/pkg/storage"
)

type memoryBatchStore struct {
	mu      sync.Mutex
	seq     int
	batches map[string]*models.ReportCardBatch
	cleared []string
}

func newMemoryBatchStore() *memoryBatchStore {
	return &memoryBatchStore{batches: map[string]*models.ReportCardBatch{}}
}

func (m *memoryBatchStore) Create(_ context.Context, batch *models.ReportCardBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	batch.ID = fmt.Sprintf("batch-%d", m.seq)
	batch.CreatedAt = time.Now().UTC()
	copied := *batch
	m.batches[batch.ID] = &copied
	return nil
}

func (m *memoryBatchStore) GetByID(_ context.Context, id string) (*models.ReportCardBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch, ok := m.batches[id]
	if !ok {
		return nil, fmt.Errorf("get report card batch: %w", sql.ErrNoRows)
	}
	copied := *batch
	return &copied, nil
}

func (m *memoryBatchStore) Update(_ context.Context, id string, params repository.UpdateBatchParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch, ok := m.batches[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		batch.Status = *params.Status
	}
	if params.Progress != nil {
		batch.Progress = *params.Progress
	}
	if params.Params != nil {
		batch.Params = *params.Params
	}
	if params.ResultURL != nil {
		url := *params.ResultURL
		batch.ResultURL = &url
	}
	if params.ErrorMessage != nil {
		msg := *params.ErrorMessage
		batch.ErrorMessage = &msg
	}
	if params.FinishedAt != nil {
		at := *params.FinishedAt
		batch.FinishedAt = &at
	}
	return nil
}

func (m *memoryBatchStore) ListQueued(_ context.Context, _ int) ([]models.ReportCardBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ReportCardBatch
	for _, batch := range m.batches {
		if batch.Status == models.BatchStatusQueued || batch.Status == models.BatchStatusProcessing {
			out = append(out, *batch)
		}
	}
	return out, nil
}

func (m *memoryBatchStore) ListFinishedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.ReportCardBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ReportCardBatch
	for _, batch := range m.batches {
		if batch.Status == models.BatchStatusFinished && batch.ResultURL != nil && batch.FinishedAt != nil && batch.FinishedAt.Before(cutoff) {
			out = append(out, *batch)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryBatchStore) ClearResult(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, id)
	if batch, ok := m.batches[id]; ok {
		batch.ResultURL = nil
	}
	return nil
}

type stubQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *stubQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *stubQueue) Pending() int { return len(q.jobs) }

type batchFixture struct {
	*fixture
	repo   *memoryBatchStore
	queue  *stubQueue
	store  *storage.FileStore
	dir    string
	signer *storage.Signer
	svc    *BatchService
	worker *BatchWorker
}

func newBatchFixture(t *testing.T, cfg BatchServiceConfig) *batchFixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	require.NoError(t, err)

	f := &batchFixture{
		fixture: newFixture(),
		repo:    newMemoryBatchStore(),
		queue:   &stubQueue{},
		store:   store,
		dir:     dir,
		signer:  storage.NewSigner("batch-secret", time.Hour),
	}
	cfg.DownloadPrefix = "/api/v1/export"
	f.svc = NewBatchService(f.repo, f.students, f.exams, f.queue, store, f.signer, nil, nil, nil, cfg)
	cards := f.fixture.service(ReportCardServiceConfig{PDFEnabled: true})
	f.worker = NewBatchWorker(f.repo, f.students, cards, store, f.signer, nil, cfg.DownloadPrefix, nil)
	return f
}

var enabledBatches = BatchServiceConfig{Enabled: true, PDFEnabled: true, Retention: 72 * time.Hour}

func TestBatchServiceCreate(t *testing.T) {
	f := newBatchFixture(t, enabledBatches)

	resp, err := f.svc.Create(context.Background(), adminCaps, dto.BatchRequest{ClassID: "class-1", ExamIDs: []string{"e2", "e2"}})
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusQueued, resp.Status)

	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, resp.ID, f.queue.jobs[0].ID)
	assert.Equal(t, BatchJobType, f.queue.jobs[0].Type)

	stored, err := f.repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, stored.Params.ExamIDs)
	assert.Equal(t, models.ReportFormatHTML, stored.Params.Format)
	assert.Equal(t, "school-1", stored.SchoolID)
	assert.Equal(t, "admin-1", stored.CreatedBy)
}

func TestBatchServiceCreateRejects(t *testing.T) {
	ctx := context.Background()
	valid := dto.BatchRequest{ClassID: "class-1", ExamIDs: []string{"e1"}}

	cases := []struct {
		name string
		cfg  BatchServiceConfig
		caps models.Capabilities
		req  dto.BatchRequest
		code string
	}{
		{"disabled", BatchServiceConfig{}, adminCaps, valid, appErrors.ErrFeatureDisabled.Code},
		{"teacher", enabledBatches, models.Capabilities{Role: models.RoleTeacher, SchoolID: "school-1", ViewDashboard: true}, valid, appErrors.ErrForbidden.Code},
		{"missing class", enabledBatches, adminCaps, dto.BatchRequest{ExamIDs: []string{"e1"}}, appErrors.ErrValidation.Code},
		{"bad format", enabledBatches, adminCaps, dto.BatchRequest{ClassID: "class-1", ExamIDs: []string{"e1"}, Format: "docx"}, appErrors.ErrValidation.Code},
		{"pdf disabled", BatchServiceConfig{Enabled: true}, adminCaps, dto.BatchRequest{ClassID: "class-1", ExamIDs: []string{"e1"}, Format: models.ReportFormatPDF}, appErrors.ErrFeatureDisabled.Code},
		{"unknown exam", enabledBatches, adminCaps, dto.BatchRequest{ClassID: "class-1", ExamIDs: []string{"e1", "nope"}}, appErrors.ErrNotFound.Code},
		{"empty class", enabledBatches, adminCaps, dto.BatchRequest{ClassID: "class-empty", ExamIDs: []string{"e1"}}, appErrors.ErrNotFound.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBatchFixture(t, tc.cfg)
			_, err := f.svc.Create(ctx, tc.caps, tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
			assert.Empty(t, f.queue.jobs)
		})
	}
}

func TestBatchServiceCreateEnqueueFailure(t *testing.T) {
	f := newBatchFixture(t, enabledBatches)
	f.queue.err = jobs.ErrQueueStopped

	_, err := f.svc.Create(context.Background(), adminCaps, dto.BatchRequest{ClassID: "class-1", ExamIDs: []string{"e1"}})
	require.Error(t, err)

	stored, err := f.repo.GetByID(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusFailed, stored.Status)
	assert.NotNil(t, stored.FinishedAt)
}

func TestBatchWorkerHandleWritesArchive(t *testing.T) {
	f := newBatchFixture(t, enabledBatches)
	f.marks.failFor = "st-2"
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, adminCaps, dto.BatchRequest{ClassID: "class-1", ExamIDs: []string{"e2"}})
	require.NoError(t, err)
	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))

	status, err := f.svc.GetStatus(ctx, adminCaps, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, []string{"st-2"}, status.Skipped)
	assert.Nil(t, status.Error)
	require.NotNil(t, status.ResultURL)
	assert.True(t, strings.HasPrefix(*status.ResultURL, "/api/v1/export/"))

	reader, err := zip.OpenReader(filepath.Join(f.dir, "batches", resp.ID, "report_cards_class-1.zip"))
	require.NoError(t, err)
	require.Len(t, reader.File, 1)
	assert.Equal(t, "report_card_st-1_e2.html", reader.File[0].Name)
	require.NoError(t, reader.Close())

	download, err := f.svc.ResolveDownload(ctx, extractToken(*status.ResultURL))
	require.NoError(t, err)
	assert.Equal(t, "report_cards_class-1.zip", download.Filename)
	require.NoError(t, download.File.Close())

	other := models.Capabilities{Role: models.RoleAdmin, SchoolID: "school-2", RunBatches: true}
	_, err = f.svc.GetStatus(ctx, other, resp.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// A replayed job for a finished batch is a no-op.
	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))
}

func TestBatchWorkerFailureRequeuesThenFails(t *testing.T) {
	f := newBatchFixture(t, enabledBatches)
	f.marks.marksErr = errors.New("db down")
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, adminCaps, dto.BatchRequest{ClassID: "class-1", ExamIDs: []string{"e2"}})
	require.NoError(t, err)

	err = f.worker.Handle(ctx, f.queue.jobs[0])
	require.Error(t, err)

	stored, _ := f.repo.GetByID(ctx, resp.ID)
	assert.Equal(t, models.BatchStatusQueued, stored.Status)
	assert.Equal(t, 0, stored.Progress)
	require.NotNil(t, stored.ErrorMessage)
	_, statErr := os.Stat(filepath.Join(f.dir, "batches", resp.ID, "report_cards_class-1.zip"))
	assert.True(t, os.IsNotExist(statErr))

	f.worker.MarkFailed(f.queue.jobs[0], err)
	stored, _ = f.repo.GetByID(ctx, resp.ID)
	assert.Equal(t, models.BatchStatusFailed, stored.Status)
	assert.Equal(t, 100, stored.Progress)
}

func TestBatchServiceResolveDownloadRejects(t *testing.T) {
	f := newBatchFixture(t, enabledBatches)
	ctx := context.Background()

	_, err := f.svc.ResolveDownload(ctx, "not-a-token")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	resp, err := f.svc.Create(ctx, adminCaps, dto.BatchRequest{ClassID: "class-1", ExamIDs: []string{"e2"}})
	require.NoError(t, err)
	link, err := f.signer.Sign(resp.ID, "batches/"+resp.ID+"/report_cards_class-1.zip")
	require.NoError(t, err)

	_, err = f.svc.ResolveDownload(ctx, link.Token)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	shortLived := storage.NewSigner("batch-secret", time.Nanosecond)
	expired := NewBatchService(f.repo, f.students, f.exams, f.queue, f.store, shortLived, nil, nil, nil, enabledBatches)
	link, err = shortLived.Sign(resp.ID, "batches/"+resp.ID+"/report_cards_class-1.zip")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = expired.ResolveDownload(ctx, link.Token)
	assert.Equal(t, appErrors.ErrLinkExpired.Code, appErrors.FromError(err).Code)
}

func TestBatchServiceCleanupExpired(t *testing.T) {
	f := newBatchFixture(t, enabledBatches)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, adminCaps, dto.BatchRequest{ClassID: "class-1", ExamIDs: []string{"e2"}})
	require.NoError(t, err)
	require.NoError(t, f.worker.Handle(ctx, f.queue.jobs[0]))

	f.svc.now = func() time.Time { return time.Now().Add(100 * time.Hour) }
	f.svc.cleanupExpired(ctx)

	assert.Equal(t, []string{resp.ID}, f.repo.cleared)
	stored, _ := f.repo.GetByID(ctx, resp.ID)
	assert.Nil(t, stored.ResultURL)
	_, statErr := os.Stat(filepath.Join(f.dir, "batches", resp.ID, "report_cards_class-1.zip"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestBatchServiceRecoverPendingJobs(t *testing.T) {
	f := newBatchFixture(t, enabledBatches)
	ctx := context.Background()

	require.NoError(t, f.repo.Create(ctx, &models.ReportCardBatch{SchoolID: "school-1", ClassID: "class-1", Status: models.BatchStatusQueued}))
	require.NoError(t, f.repo.Create(ctx, &models.ReportCardBatch{SchoolID: "school-1", ClassID: "class-1", Status: models.BatchStatusFinished}))

	f.svc.RecoverPendingJobs(ctx)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, "batch-1", f.queue.jobs[0].ID)
}
