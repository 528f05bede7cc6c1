package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-reportcard-api/internal/dto"
	"github.com/noah-isme/sma-reportcard-api/internal/grading"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
)

func newDashboardFixture() (*fixture, *MarksDashboardService) {
	f := newFixture()
	f.students.students = append(f.students.students, models.Student{ID: "st-3", SchoolID: "school-1", ClassID: "class-1", FullName: "Citra Dewi", AdmissionNumber: "ADM-003"})
	cache := NewCacheService(f.cache, nil, time.Minute, nil, true)
	svc := NewMarksDashboardService(f.students, f.exams, f.marks, cache, nil, nil, MarksDashboardConfig{Concurrency: 2})
	return f, svc
}

func TestMarksDashboardTotals(t *testing.T) {
	f, svc := newDashboardFixture()
	query := dto.MarksDashboardQuery{ClassID: "class-1", ExamID: "e2"}

	board, hit, err := svc.Dashboard(context.Background(), adminCaps, query)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, board.Students, 3)
	assert.Equal(t, grading.UIPassThreshold, board.PassThreshold)

	budi := board.Students[0]
	assert.Equal(t, "st-1", budi.StudentID)
	assert.Equal(t, 150.0, budi.Obtained)
	assert.Equal(t, 200.0, budi.MaxMarks)
	assert.InDelta(t, 75.0, budi.Percentage, 0.001)
	assert.Equal(t, "B+", budi.Grade)
	assert.Equal(t, grading.StatusPass, budi.Status)
	assert.Equal(t, grading.PassStatusColor(grading.StatusPass), budi.Color)

	assert.Equal(t, grading.StatusFail, board.Students[1].Status)

	citra := board.Students[2]
	assert.Equal(t, grading.StatusAbsent, citra.Status)
	assert.Equal(t, grading.NoGrade, citra.Grade)

	assert.Equal(t, dto.MarksDashboardStats{Students: 3, Passed: 1, Failed: 1, Absent: 1, Average: 47.5, Highest: 75, Lowest: 20}, board.Stats)

	calls := f.marks.calls
	_, hit, err = svc.Dashboard(context.Background(), adminCaps, query)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, calls, f.marks.calls)
}

func TestMarksDashboardAbsentSubjectCountsTowardsMaximum(t *testing.T) {
	f, svc := newDashboardFixture()

	board, _, err := svc.Dashboard(context.Background(), adminCaps, dto.MarksDashboardQuery{ClassID: "class-1", ExamID: "e1"})
	require.NoError(t, err)

	budi := board.Students[0]
	assert.Equal(t, 40.0, budi.Obtained)
	assert.Equal(t, 100.0, budi.MaxMarks)
	assert.Equal(t, 1, budi.AbsentSubjects)
	assert.Equal(t, grading.StatusPass, budi.Status)
	assert.NotZero(t, f.marks.calls)
}

func TestMarksDashboardErrors(t *testing.T) {
	_, svc := newDashboardFixture()
	ctx := context.Background()

	_, _, err := svc.Dashboard(ctx, models.Capabilities{Role: models.RoleStudent, SchoolID: "school-1"}, dto.MarksDashboardQuery{ClassID: "class-1", ExamID: "e1"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Dashboard(ctx, adminCaps, dto.MarksDashboardQuery{ClassID: "class-1"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Dashboard(ctx, adminCaps, dto.MarksDashboardQuery{ClassID: "class-1", ExamID: "missing"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	f, failing := newDashboardFixture()
	f.marks.marksErr = errors.New("db down")
	_, _, err = failing.Dashboard(ctx, adminCaps, dto.MarksDashboardQuery{ClassID: "class-1", ExamID: "e2"})
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestMarksDashboardExport(t *testing.T) {
	_, svc := newDashboardFixture()
	query := dto.MarksDashboardQuery{ClassID: "class-1", ExamID: "e2"}

	out, filename, contentType, err := svc.Export(context.Background(), adminCaps, query, "")
	require.NoError(t, err)
	assert.Equal(t, "marks_class-1_e2.csv", filename)
	assert.Equal(t, "text/csv", contentType)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Admission No,Student,Obtained,Max Marks,Percentage,Grade,Status", lines[0])
	assert.Equal(t, "ADM-001,Budi Santoso,150,200,75.00,B+,Pass", lines[1])

	pdf, filename, contentType, err := svc.Export(context.Background(), adminCaps, query, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "marks_class-1_e2.pdf", filename)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, _, _, err = svc.Export(context.Background(), adminCaps, query, "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMarksDashboardEvaluate(t *testing.T) {
	_, svc := newDashboardFixture()

	resp, err := svc.Evaluate(dto.EvaluateRequest{Entries: []dto.EvaluateEntry{
		{Obtained: fp(45), Max: 100},
		{Obtained: fp(30), Max: 100},
		{Obtained: nil, Max: 50},
		{Obtained: fp(60), Max: 50},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)

	assert.Equal(t, grading.StatusPass, resp.Results[0].Status)
	assert.Equal(t, "D", resp.Results[0].Grade)
	assert.Equal(t, grading.StatusFail, resp.Results[1].Status)
	assert.True(t, resp.Results[2].Absent)
	assert.Equal(t, grading.StatusAbsent, resp.Results[2].Status)
	assert.True(t, resp.Results[3].OutOfRange)
	assert.False(t, resp.Results[0].OutOfRange)

	_, err = svc.Evaluate(dto.EvaluateRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Evaluate(dto.EvaluateRequest{Entries: []dto.EvaluateEntry{{Obtained: fp(1), Max: 0}}})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
