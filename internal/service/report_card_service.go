package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-reportcard-api/internal/dto"
	"github.com/noah-isme/sma-reportcard-api/internal/grading"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
	"github.com/noah-isme/sma-reportcard-api/internal/reportcard"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
	"github.com/noah-isme/sma-reportcard-api/pkg/export"
)

const (
	maxExamsPerCard = 6
	layoutSingle    = "single"
	layoutMulti     = "multi"
)

type schoolReader interface {
	GetByID(ctx context.Context, id string) (*models.School, error)
	GetTemplate(ctx context.Context, schoolID string) (*models.StoredTemplate, error)
}

type studentReader interface {
	GetByID(ctx context.Context, schoolID, id string) (*models.Student, error)
	ListByClass(ctx context.Context, schoolID, classID string) ([]models.Student, error)
}

type examReader interface {
	ListByIDs(ctx context.Context, schoolID string, ids []string) ([]models.Exam, error)
	GetResult(ctx context.Context, studentID, examID string) (*models.ExamResult, error)
}

type marksReader interface {
	ListForStudent(ctx context.Context, studentID string, examIDs []string) ([]models.MarkRow, error)
	ListAttendance(ctx context.Context, studentID string, examIDs []string) ([]models.AttendanceRow, error)
	ListCoScholastic(ctx context.Context, studentID, academicYear string) ([]models.CoScholasticEntry, error)
	ListGradeScales(ctx context.Context, schoolID string) ([]models.GradeScale, error)
}

// ReportCardServiceConfig tunes rendering.
type ReportCardServiceConfig struct {
	PassThreshold   float64
	CacheTTL        time.Duration
	PDFEnabled      bool
	AssembleTimeout time.Duration
}

// RenderedReportCard is a finished card ready to be served or archived.
type RenderedReportCard struct {
	Format   models.ReportFormat `json:"format"`
	Layout   string              `json:"layout"`
	Filename string              `json:"filename"`
	HTML     string              `json:"html,omitempty"`
	PDF      []byte              `json:"pdf,omitempty"`
	// Cached is set when the card was served from cache.
	Cached bool `json:"-"`
}

// Bytes returns the payload of the card in its format.
func (r *RenderedReportCard) Bytes() []byte {
	if r.Format == models.ReportFormatPDF {
		return r.PDF
	}
	return []byte(r.HTML)
}

// ContentType returns the MIME type of the payload.
func (r *RenderedReportCard) ContentType() string {
	if r.Format == models.ReportFormatPDF {
		return "application/pdf"
	}
	return "text/html; charset=utf-8"
}

// ReportCardService assembles report card data from the database and renders it.
type ReportCardService struct {
	schools   schoolReader
	students  studentReader
	exams     examReader
	marks     marksReader
	cache     *CacheService
	metrics   *MetricsService
	composer  *reportcard.Composer
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportCardServiceConfig
	now       func() time.Time
}

// NewReportCardService constructs the service.
func NewReportCardService(
	schools schoolReader,
	students studentReader,
	exams examReader,
	marks marksReader,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ReportCardServiceConfig,
) *ReportCardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.AssembleTimeout <= 0 {
		cfg.AssembleTimeout = 10 * time.Second
	}
	return &ReportCardService{
		schools:   schools,
		students:  students,
		exams:     exams,
		marks:     marks,
		cache:     cache,
		metrics:   metrics,
		composer:  reportcard.New(cfg.PassThreshold),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Render returns one student's report card for the requested exams.
func (s *ReportCardService) Render(ctx context.Context, caps models.Capabilities, query dto.ReportCardQuery) (*RenderedReportCard, error) {
	format, err := s.checkFormat(query.Format)
	if err != nil {
		return nil, err
	}
	examIDs, err := normalizeExamIDs(query.ExamIDs)
	if err != nil {
		return nil, err
	}
	if caps.SchoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "request is not scoped to a school")
	}
	if !caps.CanViewStudent(query.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this report card")
	}

	key := ReportCardKey(caps.SchoolID, query.StudentID, examIDs, format, s.now().Format("2006-01-02"))
	var cached RenderedReportCard
	if s.cache.Get(ctx, key, &cached) {
		s.metrics.ObserveRender(string(format), cached.Layout, "cached", 0)
		cached.Cached = true
		return &cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.AssembleTimeout)
	defer cancel()

	student, err := s.students.GetByID(ctx, caps.SchoolID, query.StudentID)
	if err != nil {
		return nil, mapLookupError(err, "student")
	}
	session, err := s.PrepareSession(ctx, caps.SchoolID, examIDs)
	if err != nil {
		return nil, err
	}
	card, err := session.Render(ctx, *student, format)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, card, s.cfg.CacheTTL)
	return card, nil
}

// Preview renders caller-supplied data, used by the template editor.
func (s *ReportCardService) Preview(caps models.Capabilities, req dto.PreviewRequest) (string, error) {
	if !caps.ViewAnyStudent {
		return "", appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preview payload")
	}
	if req.Template != nil {
		if err := s.validator.Struct(req.Template); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template config")
		}
	}
	html, err := s.composer.Compose(req.Data, req.Template)
	if err != nil {
		return "", mapComposeError(err)
	}
	return html, nil
}

// CardSession holds what every student of one request shares: school, template, exams and scales.
type CardSession struct {
	svc      *ReportCardService
	school   *models.School
	template *models.ReportCardTemplateConfig
	exams    []models.Exam
	examIDs  []string
	scales   []models.GradeScale
}

// PrepareSession loads the shared inputs of schoolID's cards for examIDs concurrently.
// examIDs keeps the caller's order, which becomes the column order of term-wise cards.
func (s *ReportCardService) PrepareSession(ctx context.Context, schoolID string, examIDs []string) (*CardSession, error) {
	session := &CardSession{svc: s, examIDs: examIDs}
	var exams []models.Exam

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		school, err := s.schools.GetByID(gctx, schoolID)
		if err != nil {
			return mapLookupError(err, "school")
		}
		session.school = school
		return nil
	})
	g.Go(func() error {
		session.template = s.loadTemplate(gctx, schoolID)
		return nil
	})
	g.Go(func() error {
		rows, err := s.exams.ListByIDs(gctx, schoolID, examIDs)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exams")
		}
		exams = rows
		return nil
	})
	g.Go(func() error {
		scales, err := s.marks.ListGradeScales(gctx, schoolID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade scales")
		}
		session.scales = scales
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]models.Exam, len(exams))
	for _, exam := range exams {
		byID[exam.ID] = exam
	}
	session.exams = make([]models.Exam, 0, len(examIDs))
	for _, id := range examIDs {
		exam, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("exam %s not found", id))
		}
		session.exams = append(session.exams, exam)
	}
	return session, nil
}

// Render assembles and renders the card of one student of the session's school.
func (cs *CardSession) Render(ctx context.Context, student models.Student, format models.ReportFormat) (*RenderedReportCard, error) {
	s := cs.svc
	start := time.Now()
	layout := layoutSingle
	if len(cs.exams) > 1 {
		layout = layoutMulti
	}

	data, err := cs.Assemble(ctx, &student)
	if err != nil {
		s.metrics.ObserveRender(string(format), layout, "error", time.Since(start))
		return nil, err
	}

	card := &RenderedReportCard{
		Format:   format,
		Layout:   layout,
		Filename: reportCardFilename(student.ID, cs.examIDs, format),
	}
	switch format {
	case models.ReportFormatPDF:
		doc, err := s.composer.Document(data, cs.template)
		if err == nil {
			card.PDF, err = s.pdf.Render(doc)
		}
		if err != nil {
			s.metrics.ObserveRender(string(format), layout, "error", time.Since(start))
			return nil, mapComposeError(err)
		}
	default:
		html, err := s.composer.Compose(data, cs.template)
		if err != nil {
			s.metrics.ObserveRender(string(format), layout, "error", time.Since(start))
			return nil, mapComposeError(err)
		}
		card.HTML = html
	}

	s.metrics.ObserveRender(string(format), layout, "ok", time.Since(start))
	return card, nil
}

// Assemble builds the composer input of one student, loading per-student rows concurrently.
func (cs *CardSession) Assemble(ctx context.Context, student *models.Student) (*models.ReportCardData, error) {
	s := cs.svc
	primary := cs.exams[len(cs.exams)-1]

	var (
		marks      []models.MarkRow
		attendance []models.AttendanceRow
		coScholar  []models.CoScholasticEntry
		result     *models.ExamResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.marks.ListForStudent(gctx, student.ID, cs.examIDs)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
		}
		marks = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.marks.ListAttendance(gctx, student.ID, cs.examIDs)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
		}
		attendance = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.marks.ListCoScholastic(gctx, student.ID, primary.AcademicYear)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load co-scholastic grades")
		}
		coScholar = rows
		return nil
	})
	g.Go(func() error {
		row, err := s.exams.GetResult(gctx, student.ID, primary.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam result")
		}
		result = row
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := &models.ReportCardData{
		School:       cs.school.ReportCard(),
		Student:      student.ReportCard(),
		Exam:         cs.examHeading(),
		CoScholastic: coScholar,
		GradeScales:  cs.scales,
		Attendance:   summariseAttendance(attendance),
		GeneratedOn:  s.now().Format("02 Jan 2006"),
	}
	if result != nil {
		data.Remarks = result.Remarks
		data.Rank = result.Rank
		data.Result = result.Result
		data.PromotedTo = result.PromotedTo
	}

	if len(cs.exams) == 1 {
		data.Marks = make([]models.SubjectMarks, 0, len(marks))
		for _, row := range marks {
			data.Marks = append(data.Marks, row.SubjectMarks())
		}
		return data, nil
	}

	data.ExamsList = make([]models.ExamRef, 0, len(cs.exams))
	for _, exam := range cs.exams {
		data.ExamsList = append(data.ExamsList, models.ExamRef{ID: exam.ID, Name: exam.Name})
	}
	data.MultiExamMarks = pivotMarks(marks, cs.exams)
	return data, nil
}

// examHeading names the card after its exam, or after all exams of a term-wise card.
func (cs *CardSession) examHeading() *models.ReportCardExam {
	primary := cs.exams[len(cs.exams)-1].ReportCard()
	if len(cs.exams) == 1 {
		return primary
	}
	names := make([]string, 0, len(cs.exams))
	for _, exam := range cs.exams {
		names = append(names, exam.Name)
	}
	primary.ID = ""
	primary.Name = strings.Join(names, " / ")
	return primary
}

// pivotMarks groups per-exam rows by subject. Subjects keep the repository order;
// overall figures sum the recorded exams and stay nil when every exam was missed.
func pivotMarks(rows []models.MarkRow, exams []models.Exam) []models.MultiExamSubjectMarks {
	names := make(map[string]string, len(exams))
	for _, exam := range exams {
		names[exam.ID] = exam.Name
	}

	index := map[string]int{}
	var subjects []models.MultiExamSubjectMarks
	for _, row := range rows {
		i, ok := index[row.SubjectID]
		if !ok {
			i = len(subjects)
			index[row.SubjectID] = i
			subjects = append(subjects, models.MultiExamSubjectMarks{Subject: row.SubjectName})
		}
		subject := &subjects[i]
		subject.Exams = append(subject.Exams, models.ExamMarks{
			ExamID:        row.ExamID,
			ExamName:      names[row.ExamID],
			MarksObtained: row.MarksObtained,
			MaxMarks:      row.MaxMarks,
			Grade:         row.Grade,
		})
		subject.OverallMaxMarks += row.MaxMarks
		if row.MarksObtained != nil {
			total := *row.MarksObtained
			if subject.OverallMarksObtained != nil {
				total += *subject.OverallMarksObtained
			}
			subject.OverallMarksObtained = &total
		}
	}
	return subjects
}

func summariseAttendance(rows []models.AttendanceRow) *models.AttendanceSummary {
	var present, total int
	for _, row := range rows {
		present += row.PresentDays
		total += row.TotalDays
	}
	if total <= 0 {
		return nil
	}
	return &models.AttendanceSummary{
		Present:    present,
		Total:      total,
		Percentage: grading.CalculatePercentage(float64(present), float64(total)),
	}
}

// loadTemplate degrades to the default layout when the stored template cannot be read.
func (s *ReportCardService) loadTemplate(ctx context.Context, schoolID string) *models.ReportCardTemplateConfig {
	stored, err := s.schools.GetTemplate(ctx, schoolID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("report card template unavailable, using defaults", zap.String("school_id", schoolID), zap.Error(err))
		}
		return nil
	}
	return &stored.Config
}

func (s *ReportCardService) checkFormat(format models.ReportFormat) (models.ReportFormat, error) {
	switch format {
	case "", models.ReportFormatHTML:
		return models.ReportFormatHTML, nil
	case models.ReportFormatPDF:
		if !s.cfg.PDFEnabled {
			return "", appErrors.Clone(appErrors.ErrFeatureDisabled, "pdf report cards are disabled")
		}
		return models.ReportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be html or pdf")
	}
}

// normalizeExamIDs trims and de-duplicates ids, keeping first occurrences in order.
func normalizeExamIDs(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one exam id is required")
	}
	if len(out) > maxExamsPerCard {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d exams per report card", maxExamsPerCard))
	}
	return out, nil
}

func reportCardFilename(studentID string, examIDs []string, format models.ReportFormat) string {
	return fmt.Sprintf("report_card_%s_%s.%s", studentID, strings.Join(examIDs, "-"), format)
}

func mapLookupError(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
}

func mapComposeError(err error) error {
	if errors.Is(err, reportcard.ErrInvalidInput) {
		return appErrors.Wrap(err, appErrors.ErrInvalidReportInput.Code, appErrors.ErrInvalidReportInput.Status, err.Error())
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report card")
}
