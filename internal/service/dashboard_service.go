package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-reportcard-api/internal/dto"
	"github.com/noah-isme/sma-reportcard-api/internal/grading"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
	"github.com/noah-isme/sma-reportcard-api/pkg/export"
)

// ExportFormat selects the marks dashboard download format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// MarksDashboardConfig tunes dashboard behaviour.
type MarksDashboardConfig struct {
	UIPassThreshold float64
	Concurrency     int
	CacheTTL        time.Duration
}

// MarksDashboardService computes per-student exam totals for a class.
type MarksDashboardService struct {
	students  studentReader
	exams     examReader
	marks     marksReader
	cache     *CacheService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       MarksDashboardConfig
}

// NewMarksDashboardService constructs the service.
func NewMarksDashboardService(students studentReader, exams examReader, marks marksReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg MarksDashboardConfig) *MarksDashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.UIPassThreshold <= 0 {
		cfg.UIPassThreshold = grading.UIPassThreshold
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &MarksDashboardService{
		students:  students,
		exams:     exams,
		marks:     marks,
		cache:     cache,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Dashboard returns totals for every active student of the class and whether
// they came from cache.
func (s *MarksDashboardService) Dashboard(ctx context.Context, caps models.Capabilities, query dto.MarksDashboardQuery) (*dto.MarksDashboardResponse, bool, error) {
	if !caps.ViewDashboard || caps.SchoolID == "" {
		return nil, false, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "classId and examId are required")
	}

	key := fmt.Sprintf("school:%s:dashboard:%s:%s", caps.SchoolID, query.ClassID, query.ExamID)
	var cached dto.MarksDashboardResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}
	board, err := s.compute(ctx, caps.SchoolID, query)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, board, s.cfg.CacheTTL)
	return board, false, nil
}

func (s *MarksDashboardService) compute(ctx context.Context, schoolID string, query dto.MarksDashboardQuery) (*dto.MarksDashboardResponse, error) {
	exams, err := s.exams.ListByIDs(ctx, schoolID, []string{query.ExamID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if len(exams) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
	}
	students, err := s.students.ListByClass(ctx, schoolID, query.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class students")
	}

	rows := make([]dto.StudentMarksRow, len(students))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range students {
		i := i
		g.Go(func() error {
			marks, err := s.marks.ListForStudent(gctx, students[i].ID, []string{query.ExamID})
			if err != nil {
				return err
			}
			rows[i] = s.studentRow(students[i], marks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}

	return &dto.MarksDashboardResponse{
		ClassID:       query.ClassID,
		ExamID:        query.ExamID,
		PassThreshold: s.cfg.UIPassThreshold,
		Students:      rows,
		Stats:         classStats(rows),
	}, nil
}

// Export renders the dashboard as a downloadable table.
func (s *MarksDashboardService) Export(ctx context.Context, caps models.Capabilities, query dto.MarksDashboardQuery, format ExportFormat) ([]byte, string, string, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	board, _, err := s.Dashboard(ctx, caps, query)
	if err != nil {
		return nil, "", "", err
	}

	dataset := export.Dataset{Headers: []string{"Admission No", "Student", "Obtained", "Max Marks", "Percentage", "Grade", "Status"}}
	for _, row := range board.Students {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Admission No": row.AdmissionNumber,
			"Student":      row.StudentName,
			"Obtained":     formatMark(row.Obtained),
			"Max Marks":    formatMark(row.MaxMarks),
			"Percentage":   fmt.Sprintf("%.2f", row.Percentage),
			"Grade":        row.Grade,
			"Status":       string(row.Status),
		})
	}

	filename := fmt.Sprintf("marks_%s_%s.%s", query.ClassID, query.ExamID, format)
	if format == ExportFormatPDF {
		out, err := s.pdf.RenderDataset(dataset, "Marks Dashboard")
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return out, filename, "application/pdf", nil
	}
	out, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return out, filename, "text/csv", nil
}

// Evaluate previews percentage, grade and status for marks being entered.
func (s *MarksDashboardService) Evaluate(req dto.EvaluateRequest) (*dto.EvaluateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}
	resp := &dto.EvaluateResponse{
		PassThreshold: s.cfg.UIPassThreshold,
		Results:       make([]dto.EvaluatedMark, 0, len(req.Entries)),
	}
	for _, entry := range req.Entries {
		result := grading.Evaluate(entry.Obtained, entry.Max, s.cfg.UIPassThreshold)
		resp.Results = append(resp.Results, dto.EvaluatedMark{
			Result:     result,
			Color:      grading.PassStatusColor(result.Status),
			OutOfRange: entry.Obtained != nil && *entry.Obtained > entry.Max,
		})
	}
	return resp, nil
}

// studentRow totals one student's marks. Absent subjects add to the maximum only;
// a student with no recorded marks is absent.
func (s *MarksDashboardService) studentRow(student models.Student, marks []models.MarkRow) dto.StudentMarksRow {
	row := dto.StudentMarksRow{
		StudentID:       student.ID,
		StudentName:     student.FullName,
		AdmissionNumber: student.AdmissionNumber,
	}
	present := 0
	for _, mark := range marks {
		row.MaxMarks += mark.MaxMarks
		if mark.MarksObtained == nil || strings.EqualFold(strings.TrimSpace(mark.Remarks), "absent") {
			row.AbsentSubjects++
			continue
		}
		present++
		row.Obtained += *mark.MarksObtained
	}

	if present == 0 {
		row.Grade = grading.NoGrade
		row.Status = grading.StatusAbsent
	} else {
		row.Percentage = grading.CalculatePercentage(row.Obtained, row.MaxMarks)
		row.Grade = grading.GradeFromPercentage(row.Percentage)
		row.Status = grading.PassStatus(row.Percentage, s.cfg.UIPassThreshold)
	}
	row.Color = grading.PassStatusColor(row.Status)
	return row
}

func classStats(rows []dto.StudentMarksRow) dto.MarksDashboardStats {
	stats := dto.MarksDashboardStats{Students: len(rows)}
	var sum float64
	counted := 0
	for _, row := range rows {
		switch row.Status {
		case grading.StatusPass:
			stats.Passed++
		case grading.StatusFail:
			stats.Failed++
		default:
			stats.Absent++
			continue
		}
		if counted == 0 || row.Percentage > stats.Highest {
			stats.Highest = row.Percentage
		}
		if counted == 0 || row.Percentage < stats.Lowest {
			stats.Lowest = row.Percentage
		}
		sum += row.Percentage
		counted++
	}
	if counted > 0 {
		stats.Average = math.Round(sum/float64(counted)*100) / 100
	}
	return stats
}

func formatMark(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
