package reportcard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-reportcard-api/internal/grading"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
)

const (
	placeholderText  = "N/A"
	placeholderValue = grading.NoGrade
)

// view is the fully resolved, display-ready form of one report card. The
// HTML composer and the PDF document builder both render from it.
type view struct {
	cfg resolvedConfig

	schoolName    string
	schoolCode    string
	affiliation   string
	principalName string

	examName     string
	academicYear string
	resultDate   string

	profile []field

	multi     bool
	single    []singleRow
	exams     []models.ExamRef
	multiRows []multiRow

	summary    summaryView
	attendance *attendanceView

	coScholastic []coScholasticRow
	bands        []grading.Band

	remarks     string
	result      string
	rank        string
	promotedTo  string
	generatedOn string
}

type field struct {
	label string
	value string
}

type singleRow struct {
	serial     int
	subject    string
	maxMarks   string
	obtained   string
	percentage string
	grade      string
	absent     bool
}

type cellPair struct {
	marks string
	grade string
}

type multiRow struct {
	serial  int
	subject string
	cells   []cellPair
	overall cellPair
}

type summaryView struct {
	total      string
	max        string
	percentage string
	grade      string
}

type attendanceView struct {
	present    string
	total      string
	percentage string
}

type coScholasticRow struct {
	name  string
	term1 string
	term2 string
}

func buildView(data *models.ReportCardData, cfg *models.ReportCardTemplateConfig, passThreshold float64) view {
	rc := resolveConfig(cfg, data.School)
	bands := grading.NormalizeScales(data.GradeScales)

	v := view{
		cfg:           rc,
		schoolName:    strings.TrimSpace(data.School.Name),
		schoolCode:    strings.TrimSpace(data.School.Code),
		affiliation:   strings.TrimSpace(data.School.AffiliationNo),
		principalName: strings.TrimSpace(data.School.PrincipalName),
		examName:      strings.TrimSpace(data.Exam.Name),
		academicYear:  orPlaceholder(data.Exam.AcademicYear, placeholderText),
		resultDate:    strings.TrimSpace(data.Exam.ResultDate),
		multi:         data.IsMultiExam(),
		remarks:       orPlaceholder(data.Remarks, placeholderValue),
		rank:          orPlaceholder(data.Rank, placeholderValue),
		promotedTo:    orPlaceholder(data.PromotedTo, placeholderValue),
		generatedOn:   strings.TrimSpace(data.GeneratedOn),
		bands:         grading.SortBandsForDisplay(bands),
	}
	v.profile = profileFields(rc, data.Student)

	var totals summaryTotals
	if v.multi {
		v.exams = data.ExamsList
		v.multiRows, totals = multiExamRows(data, bands, rc)
	} else {
		v.single, totals = singleExamRows(data.Marks, bands, rc)
	}

	percentage, hasTotals := 0.0, false
	if data.Summary != nil {
		percentage, hasTotals = data.Summary.Percentage, true
		v.summary = summaryView{
			total:      formatNumber(data.Summary.TotalMarks),
			max:        formatNumber(data.Summary.TotalMaxMarks),
			percentage: formatPercent(data.Summary.Percentage),
			grade:      orPlaceholder(data.Summary.Grade, placeholderValue),
		}
	} else {
		percentage = grading.CalculatePercentage(totals.obtained, totals.max)
		hasTotals = totals.max > 0
		grade := placeholderValue
		if len(bands) > 0 && totals.max > 0 {
			grade = grading.GradeFromBands(bands, percentage)
		}
		v.summary = summaryView{
			total:      formatNumber(totals.obtained),
			max:        formatNumber(totals.max),
			percentage: formatPercent(percentage),
			grade:      grade,
		}
	}

	switch {
	case strings.TrimSpace(data.Result) != "":
		v.result = strings.TrimSpace(data.Result)
	case hasTotals:
		v.result = string(grading.PassStatus(percentage, passThreshold))
	default:
		v.result = placeholderValue
	}

	if data.Attendance != nil {
		v.attendance = &attendanceView{
			present:    strconv.Itoa(data.Attendance.Present),
			total:      strconv.Itoa(data.Attendance.Total),
			percentage: formatPercent(data.Attendance.Percentage),
		}
	}

	for _, entry := range data.CoScholastic {
		v.coScholastic = append(v.coScholastic, coScholasticRow{
			name:  orPlaceholder(entry.Name, placeholderText),
			term1: orPlaceholder(entry.Term1Grade, placeholderValue),
			term2: orPlaceholder(entry.Term2Grade, placeholderValue),
		})
	}
	return v
}

func profileFields(rc resolvedConfig, student *models.ReportCardStudent) []field {
	fields := []field{
		{rc.label(LabelStudentName), orPlaceholder(student.Name, placeholderText)},
		{rc.label(LabelAdmissionNumber), orPlaceholder(student.AdmissionNumber, placeholderText)},
		{rc.label(LabelClass), orPlaceholder(student.ClassName, placeholderText)},
		{rc.label(LabelSection), orPlaceholder(student.Section, placeholderText)},
		{rc.label(LabelRollNumber), orPlaceholder(student.RollNumber, placeholderText)},
		{rc.label(LabelDateOfBirth), orPlaceholder(student.DateOfBirth, placeholderText)},
	}
	// Parent and contact rows are printed only when present.
	optional := []field{
		{rc.label(LabelFatherName), student.FatherName},
		{rc.label(LabelMotherName), student.MotherName},
		{rc.label(LabelPhone), student.Phone},
		{rc.label(LabelAddress), student.Address},
	}
	for _, f := range optional {
		if value := strings.TrimSpace(f.value); value != "" {
			fields = append(fields, field{f.label, value})
		}
	}
	return fields
}

type summaryTotals struct {
	obtained float64
	max      float64
}

func singleExamRows(marks []models.SubjectMarks, bands []grading.Band, rc resolvedConfig) ([]singleRow, summaryTotals) {
	rows := make([]singleRow, 0, len(marks))
	var totals summaryTotals
	for i, m := range marks {
		totals.max += m.MaxMarks
		row := singleRow{
			serial:   i + 1,
			subject:  orPlaceholder(m.SubjectName, placeholderText),
			maxMarks: formatNumber(m.MaxMarks),
			absent:   isAbsent(m),
		}
		if row.absent {
			row.obtained = rc.label(LabelAbsent)
			row.percentage = placeholderValue
			row.grade = orPlaceholder(m.Grade, placeholderValue)
		} else {
			obtained := *m.MarksObtained
			totals.obtained += obtained
			percentage := grading.CalculatePercentage(obtained, m.MaxMarks)
			row.obtained = formatNumber(obtained)
			row.percentage = formatPercent(percentage)
			row.grade = gradeFor(m.Grade, bands, obtained, m.MaxMarks)
		}
		rows = append(rows, row)
	}
	return rows, totals
}

// isAbsent accepts both upstream conventions: a nil mark or an "absent" remark.
func isAbsent(m models.SubjectMarks) bool {
	return m.MarksObtained == nil || strings.EqualFold(strings.TrimSpace(m.Remarks), "absent")
}

func multiExamRows(data *models.ReportCardData, bands []grading.Band, rc resolvedConfig) ([]multiRow, summaryTotals) {
	rows := make([]multiRow, 0, len(data.MultiExamMarks))
	var totals summaryTotals
	for i, subject := range data.MultiExamMarks {
		row := multiRow{
			serial:  i + 1,
			subject: orPlaceholder(subject.Subject, placeholderText),
			cells:   make([]cellPair, len(data.ExamsList)),
		}
		for j, exam := range data.ExamsList {
			row.cells[j] = examCell(findExamMarks(subject.Exams, exam.ID, j), bands)
		}

		totals.max += subject.OverallMaxMarks
		if subject.OverallMarksObtained == nil {
			row.overall = cellPair{marks: placeholderValue, grade: orPlaceholder(subject.OverallGrade, placeholderValue)}
		} else {
			obtained := *subject.OverallMarksObtained
			totals.obtained += obtained
			row.overall = cellPair{
				marks: formatFraction(obtained, subject.OverallMaxMarks),
				grade: gradeFor(subject.OverallGrade, bands, obtained, subject.OverallMaxMarks),
			}
		}
		rows = append(rows, row)
	}
	return rows, totals
}

// findExamMarks matches by exam id, falling back to position for entries
// that carry no id.
func findExamMarks(entries []models.ExamMarks, examID string, index int) *models.ExamMarks {
	for i := range entries {
		if entries[i].ExamID != "" && entries[i].ExamID == examID {
			return &entries[i]
		}
	}
	if index < len(entries) && entries[index].ExamID == "" {
		return &entries[index]
	}
	return nil
}

func examCell(entry *models.ExamMarks, bands []grading.Band) cellPair {
	if entry == nil || entry.MarksObtained == nil {
		return cellPair{marks: placeholderValue, grade: placeholderValue}
	}
	obtained := *entry.MarksObtained
	return cellPair{
		marks: formatFraction(obtained, entry.MaxMarks),
		grade: gradeFor(entry.Grade, bands, obtained, entry.MaxMarks),
	}
}

// gradeFor prefers the supplied grade, then the caller's scales.
func gradeFor(supplied string, bands []grading.Band, obtained, max float64) string {
	if grade := strings.TrimSpace(supplied); grade != "" {
		return grade
	}
	if len(bands) == 0 || max <= 0 {
		return placeholderValue
	}
	return grading.GradeFromBands(bands, grading.CalculatePercentage(obtained, max))
}

func orPlaceholder(value, placeholder string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return placeholder
}

// formatNumber prints up to two decimals without trailing zeros.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func formatFraction(obtained, max float64) string {
	return formatNumber(obtained) + "/" + formatNumber(max)
}
