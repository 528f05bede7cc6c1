package reportcard

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-reportcard-api/internal/models"
)

func f(v float64) *float64 { return &v }
func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func baseData() *models.ReportCardData {
	return &models.ReportCardData{
		School:  &models.ReportCardSchool{Name: "SMA Negeri 1", Code: "SMA1"},
		Student: &models.ReportCardStudent{ID: "stu-1", Name: "Ana Putri"},
		Exam:    &models.ReportCardExam{ID: "exam-1", Name: "Mid Term", AcademicYear: "2024/2025"},
	}
}

func fullData() *models.ReportCardData {
	data := baseData()
	data.School.LogoURL = "https://cdn.example.com/logo.png"
	data.School.Email = "office@sma1.sch.id"
	data.School.Instructions = "Keep this card safe.\nReport any error within 7 days."
	data.School.PrincipalName = "Dr. Budi"
	data.Student.ClassName = "X"
	data.Student.Section = "A"
	data.Marks = []models.SubjectMarks{
		{SubjectName: "Mathematics", MarksObtained: f(80), MaxMarks: 100},
		{SubjectName: "Physics", MarksObtained: f(45), MaxMarks: 50},
	}
	data.Attendance = &models.AttendanceSummary{Present: 180, Total: 200, Percentage: 90}
	data.CoScholastic = []models.CoScholasticEntry{{Name: "Art", Term1Grade: "A", Term2Grade: "B"}}
	data.GradeScales = []models.GradeScale{
		{Grade: "B", MinPercentage: f(75), MaxPercentage: f(89.99)},
		{Grade: "A", MinPercentage: f(90), MaxPercentage: f(100)},
	}
	data.Remarks = "Consistent effort."
	data.Rank = "3"
	return data
}

func compose(t *testing.T, data *models.ReportCardData, cfg *models.ReportCardTemplateConfig) string {
	t.Helper()
	out, err := GenerateHTML(data, cfg)
	require.NoError(t, err)
	return out
}

func TestComposeSingleSubjectWithoutScales(t *testing.T) {
	data := baseData()
	data.Marks = []models.SubjectMarks{{SubjectName: "Mathematics", MarksObtained: f(45), MaxMarks: 100}}

	out := compose(t, data, nil)

	assert.Contains(t, out, "<td>1</td><td class=\"rc-left\">Mathematics</td><td>100</td><td>45</td><td>45.00%</td><td>-</td>")
	assert.Contains(t, out, "<span>Total: 45/100</span><span>Percentage: 45.00%</span>")
	assert.Contains(t, out, ">-</strong></span></div>")
	assert.Contains(t, out, ">Pass</strong>")
}

func TestComposeAbsentSubject(t *testing.T) {
	data := baseData()
	data.Marks = []models.SubjectMarks{
		{SubjectName: "Mathematics", MarksObtained: nil, MaxMarks: 100},
		{SubjectName: "Physics", MarksObtained: f(40), MaxMarks: 50},
		{SubjectName: "Chemistry", MarksObtained: f(12), MaxMarks: 50, Remarks: "ABSENT"},
	}

	out := compose(t, data, nil)

	assert.Contains(t, out, "<td class=\"rc-left\">Mathematics</td><td>100</td><td class=\"rc-absent\">AB</td><td>-</td><td>-</td>")
	assert.Contains(t, out, "<td class=\"rc-left\">Chemistry</td><td>50</td><td class=\"rc-absent\">AB</td><td>-</td><td>-</td>")
	assert.NotContains(t, out, "<td>0.00%</td>")
	// Absent rows add their max marks and nothing to the obtained total.
	assert.Contains(t, out, "<span>Total: 40/200</span><span>Percentage: 20.00%</span>")
	assert.Contains(t, out, ">Fail</strong>")
}

func multiExamData() *models.ReportCardData {
	data := baseData()
	data.ExamsList = []models.ExamRef{{ID: "e1", Name: "Unit 1"}, {ID: "e2", Name: "Unit 2"}, {ID: "e3", Name: "Final"}}
	data.MultiExamMarks = []models.MultiExamSubjectMarks{{
		Subject: "Mathematics",
		Exams: []models.ExamMarks{
			{ExamID: "e1", MarksObtained: f(40), MaxMarks: 50},
			{ExamID: "e2", MarksObtained: f(50), MaxMarks: 50},
			{ExamID: "e3", MarksObtained: nil, MaxMarks: 50},
		},
		OverallMaxMarks:      150,
		OverallMarksObtained: f(90),
	}}
	return data
}

func TestComposeMultiExamTable(t *testing.T) {
	out := compose(t, multiExamData(), nil)

	assert.Contains(t, out, "rc-multi")
	assert.Equal(t, 3, strings.Count(out, "<th colspan=\"2\">"))
	assert.Contains(t, out, "<th colspan=\"2\" class=\"rc-overall\">Overall</th>")

	row := "<tr><td>1</td><td class=\"rc-left\">Mathematics</td><td>40/50</td><td>-</td><td>50/50</td><td>-</td><td>-</td><td>-</td><td>90/150</td><td>-</td></tr>"
	require.Contains(t, out, row)
	assert.Equal(t, 2+3*2+2, strings.Count(row, "<td"))

	thead := out[strings.Index(out, "<thead>"):strings.Index(out, "</thead>")]
	secondRow := thead[strings.LastIndex(thead, "<tr>"):]
	// The grouped row carries two rowspan columns; the second row the remaining pairs.
	assert.Equal(t, 3*2+2, strings.Count(secondRow, "<th"))

	assert.Contains(t, out, "<span>Total: 90/150</span><span>Percentage: 60.00%</span>")
}

func TestComposeMultiExamLooksUpByExamID(t *testing.T) {
	data := multiExamData()
	exams := data.MultiExamMarks[0].Exams
	data.MultiExamMarks[0].Exams = []models.ExamMarks{exams[2], exams[0], exams[1]}

	out := compose(t, data, nil)

	assert.Contains(t, out, "<td>40/50</td><td>-</td><td>50/50</td><td>-</td><td>-</td><td>-</td>")
}

func TestComposeModeSelection(t *testing.T) {
	data := multiExamData()
	data.ExamsList = data.ExamsList[:1]
	data.Marks = []models.SubjectMarks{{SubjectName: "Biology", MarksObtained: f(70), MaxMarks: 100}}

	out := compose(t, data, nil)
	assert.NotContains(t, out, "rc-multi")
	assert.Contains(t, out, "Biology")

	data = multiExamData()
	data.Marks = []models.SubjectMarks{{SubjectName: "Biology", MarksObtained: f(70), MaxMarks: 100}}
	out = compose(t, data, nil)
	assert.Contains(t, out, "rc-multi")
	assert.NotContains(t, out, "Biology")

	data.MultiExamMarks = nil
	out = compose(t, data, nil)
	assert.NotContains(t, out, "rc-multi")
	assert.Contains(t, out, "Biology")
}

func TestComposeIsDeterministic(t *testing.T) {
	cfg := &models.ReportCardTemplateConfig{Labels: map[string]string{"remarks": "Notes", "grade": "Nilai"}}
	first := compose(t, fullData(), cfg)
	for n := 0; n < 5; n++ {
		assert.Equal(t, first, compose(t, fullData(), cfg))
	}
}

func TestComposeSectionToggleIndependence(t *testing.T) {
	full := compose(t, fullData(), nil)

	cases := []struct {
		name     string
		sections models.TemplateSections
		start    string
		end      string
	}{
		{"profile", models.TemplateSections{ShowProfile: boolPtr(false)}, "<section class=\"rc-section rc-profile\">", "</section>\n"},
		{"marks", models.TemplateSections{ShowMarksTable: boolPtr(false)}, "<table class=\"rc-marks\">", "</div>\n"},
		{"attendance", models.TemplateSections{ShowAttendance: boolPtr(false)}, "<div class=\"rc-attendance\">", "</div>\n"},
		{"co-scholastic", models.TemplateSections{ShowCoScholastic: boolPtr(false)}, "<section class=\"rc-section rc-co-scholastic\">", "</section>\n"},
		{"remarks", models.TemplateSections{ShowRemarks: boolPtr(false)}, "<section class=\"rc-section rc-remarks\">", "</section>\n"},
		{"grading scale", models.TemplateSections{ShowGradingScale: boolPtr(false)}, "<section class=\"rc-section rc-grading-scale\">", "</section>\n"},
		{"instructions", models.TemplateSections{ShowInstructions: boolPtr(false)}, "<section class=\"rc-section rc-instructions\">", "</section>\n"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			sections := tc.sections
			off := compose(t, fullData(), &models.ReportCardTemplateConfig{Sections: &sections})

			start := strings.Index(full, tc.start)
			require.GreaterOrEqual(t, start, 0)
			end := strings.Index(full[start:], tc.end)
			require.Greater(t, end, 0)
			expected := full[:start] + full[start+end+len(tc.end):]

			assert.Equal(t, expected, off)
		})
	}
}

func TestComposeEmptyConfigRendersEverySection(t *testing.T) {
	out := compose(t, fullData(), nil)

	for _, marker := range []string{
		`class="rc-header"`, `class="rc-attendance"`, `class="rc-watermark"`,
		"rc-section rc-profile", "rc-section rc-academic", "rc-section rc-co-scholastic",
		"rc-section rc-remarks", "rc-section rc-result", "rc-section rc-signatures",
		"rc-section rc-grading-scale", "rc-section rc-instructions",
	} {
		assert.Contains(t, out, marker)
	}
	for _, leak := range []string{"undefined", "<nil>", "%!", "NaN"} {
		assert.NotContains(t, out, leak)
	}
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.True(t, strings.HasSuffix(out, "</html>\n"))
}

func TestComposeMinimalDataUsesPlaceholders(t *testing.T) {
	out := compose(t, baseData(), &models.ReportCardTemplateConfig{})

	assert.Contains(t, out, "<th class=\"rc-left\">Admission No.</th><td class=\"rc-left\">N/A</td>")
	assert.Contains(t, out, "<td colspan=\"6\">-</td>")
	assert.Contains(t, out, "<span>Rank: -</span><span>Promoted To: -</span>")
	assert.Contains(t, out, "<p>-</p>")
	assert.NotContains(t, out, `class="rc-attendance"`)
	assert.NotContains(t, out, "rc-grading-scale")
	assert.NotContains(t, out, "rc-watermark")
	assert.NotContains(t, out, `class="rc-footer"`)
}

func TestComposeSummaryPrecedence(t *testing.T) {
	data := fullData()
	out := compose(t, data, nil)
	// 125/150 = 83.33% falls in the B band of the supplied scales.
	assert.Contains(t, out, "<span>Total: 125/150</span><span>Percentage: 83.33%</span>")
	assert.Contains(t, out, ">B</strong>")
	assert.Contains(t, out, "<td>80</td><td>80.00%</td><td>B</td>")
	assert.Contains(t, out, "<td>45</td><td>90.00%</td><td>A</td>")

	data.Summary = &models.ReportCardSummary{TotalMarks: 300, TotalMaxMarks: 400, Percentage: 75, Grade: "A1"}
	out = compose(t, data, nil)
	assert.Contains(t, out, "<span>Total: 300/400</span><span>Percentage: 75.00%</span>")
	assert.Contains(t, out, ">A1</strong>")
}

func TestComposeResultLine(t *testing.T) {
	data := baseData()
	data.Marks = []models.SubjectMarks{{SubjectName: "Mathematics", MarksObtained: f(45), MaxMarks: 100}}

	out, err := New(50).Compose(data, nil)
	require.NoError(t, err)
	assert.Contains(t, out, ">Fail</strong>")

	data.Result = "Promoted"
	out = compose(t, data, nil)
	assert.Contains(t, out, ">Promoted</strong>")

	assert.Equal(t, 33.0, New(0).PassThreshold())
}

func TestComposeEscapesData(t *testing.T) {
	data := fullData()
	data.Student.Name = "<script>alert(1)</script>"
	data.Remarks = `Tom & "Jerry"`
	data.Marks[0].SubjectName = "<b>Maths</b>"
	data.School.Name = "St. Mary's <School>"

	out := compose(t, data, nil)

	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<b>Maths</b>")
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, out, "Tom &amp; &#34;Jerry&#34;")
	assert.Contains(t, out, "St. Mary&#39;s &lt;School&gt;")
}

func TestComposeRejectsUnsafeStyleValues(t *testing.T) {
	data := fullData()
	data.School.LogoURL = "javascript:alert(1)"
	cfg := &models.ReportCardTemplateConfig{
		Header: &models.TemplateHeader{
			BackgroundColor: "red;}</style><script>x()</script>",
			FontFamily:      "Arial; background:url(x)",
		},
	}

	out := compose(t, data, cfg)

	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "rc-watermark")
	assert.Contains(t, out, ".rc-header { background: #1e3a8a;")
	assert.Contains(t, out, "font-family: Arial, Helvetica, sans-serif;")
}

func TestComposeWatermarkClamp(t *testing.T) {
	cfg := &models.ReportCardTemplateConfig{Watermark: &models.TemplateWatermark{Opacity: f(0.9), Size: intPtr(5000)}}
	out := compose(t, fullData(), cfg)
	assert.Contains(t, out, "opacity: 0.30;")
	assert.Contains(t, out, ".rc-watermark img { width: 420px; height: 420px;")

	cfg = &models.ReportCardTemplateConfig{Watermark: &models.TemplateWatermark{Opacity: f(0), Size: intPtr(1)}}
	out = compose(t, fullData(), cfg)
	assert.Contains(t, out, "opacity: 0.02;")
	assert.Contains(t, out, ".rc-watermark img { width: 80px; height: 80px;")

	cfg = &models.ReportCardTemplateConfig{Watermark: &models.TemplateWatermark{Show: boolPtr(false)}}
	out = compose(t, fullData(), cfg)
	assert.NotContains(t, out, "rc-watermark")
}

func TestComposeLabelOverridesAndContactFallback(t *testing.T) {
	cfg := &models.ReportCardTemplateConfig{
		Labels:  map[string]string{LabelProfile: "Profil Siswa", LabelAbsent: "TH", LabelTitle: "  "},
		Contact: &models.TemplateContact{Phone: "+62 21 555"},
	}
	data := fullData()
	data.Marks[1].MarksObtained = nil

	out := compose(t, data, cfg)

	assert.Contains(t, out, "<h2>Profil Siswa</h2>")
	assert.Contains(t, out, "<td class=\"rc-absent\">TH</td>")
	assert.Contains(t, out, "<div class=\"rc-title\">Report Card - Mid Term</div>")
	assert.Contains(t, out, "Phone: +62 21 555 | Email: office@sma1.sch.id")
}

func TestComposeInvalidInput(t *testing.T) {
	cases := map[string]*models.ReportCardData{
		"nil data":         nil,
		"missing school":   {Student: &models.ReportCardStudent{Name: "A"}, Exam: &models.ReportCardExam{Name: "E"}},
		"missing code":     {School: &models.ReportCardSchool{Name: "S"}, Student: &models.ReportCardStudent{Name: "A"}, Exam: &models.ReportCardExam{Name: "E"}},
		"missing student":  {School: &models.ReportCardSchool{Name: "S", Code: "C"}, Exam: &models.ReportCardExam{Name: "E"}},
		"blank student":    {School: &models.ReportCardSchool{Name: "S", Code: "C"}, Student: &models.ReportCardStudent{Name: " "}, Exam: &models.ReportCardExam{Name: "E"}},
		"missing exam":     {School: &models.ReportCardSchool{Name: "S", Code: "C"}, Student: &models.ReportCardStudent{Name: "A"}},
		"missing examname": {School: &models.ReportCardSchool{Name: "S", Code: "C"}, Student: &models.ReportCardStudent{Name: "A"}, Exam: &models.ReportCardExam{}},
	}
	for name, data := range cases {
		_, err := GenerateHTML(data, nil)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrInvalidInput), name)

		_, err = BuildDocument(data, nil)
		assert.True(t, errors.Is(err, ErrInvalidInput), name)
	}
}

func TestComposeGenerateOnFooter(t *testing.T) {
	data := baseData()
	data.GeneratedOn = "2024-03-01"
	out := compose(t, data, nil)
	assert.Contains(t, out, "<footer class=\"rc-footer\">Generated on: 2024-03-01</footer>")
}
