// Package reportcard turns resolved report card data and a school's template
// config into a print-ready HTML document or a tabular PDF document.
//
// The composer is pure: it performs no I/O, never reads the clock and yields
// byte-identical output for identical input, so it is safe for concurrent use.
package reportcard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/sma-reportcard-api/internal/grading"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
)

// ErrInvalidInput reports report card data missing a required object.
var ErrInvalidInput = errors.New("invalid report card input")

// Composer renders report cards using a fixed pass threshold.
type Composer struct {
	passThreshold float64
}

// New constructs a composer. A non-positive threshold selects
// grading.ReportCardPassThreshold.
func New(passThreshold float64) *Composer {
	if passThreshold <= 0 {
		passThreshold = grading.ReportCardPassThreshold
	}
	return &Composer{passThreshold: passThreshold}
}

var defaultComposer = New(grading.ReportCardPassThreshold)

// GenerateHTML renders data with the default report card pass threshold.
func GenerateHTML(data *models.ReportCardData, cfg *models.ReportCardTemplateConfig) (string, error) {
	return defaultComposer.Compose(data, cfg)
}

// PassThreshold returns the threshold used for the result line.
func (c *Composer) PassThreshold() float64 {
	return c.passThreshold
}

// Validate checks that the objects the composer cannot default are present.
func Validate(data *models.ReportCardData) error {
	switch {
	case data == nil:
		return fmt.Errorf("%w: data is required", ErrInvalidInput)
	case data.School == nil:
		return fmt.Errorf("%w: school is required", ErrInvalidInput)
	case strings.TrimSpace(data.School.Name) == "" || strings.TrimSpace(data.School.Code) == "":
		return fmt.Errorf("%w: school name and code are required", ErrInvalidInput)
	case data.Student == nil:
		return fmt.Errorf("%w: student is required", ErrInvalidInput)
	case strings.TrimSpace(data.Student.Name) == "":
		return fmt.Errorf("%w: student name is required", ErrInvalidInput)
	case data.Exam == nil:
		return fmt.Errorf("%w: exam is required", ErrInvalidInput)
	case strings.TrimSpace(data.Exam.Name) == "":
		return fmt.Errorf("%w: exam name is required", ErrInvalidInput)
	}
	return nil
}

// Compose renders data as a complete HTML document. cfg may be nil.
func (c *Composer) Compose(data *models.ReportCardData, cfg *models.ReportCardTemplateConfig) (string, error) {
	if err := Validate(data); err != nil {
		return "", err
	}
	v := buildView(data, cfg, c.passThreshold)

	var b strings.Builder
	b.Grow(16 * 1024)
	writeHead(&b, v)
	b.WriteString("<body>\n")
	if v.cfg.showWatermark {
		fmt.Fprintf(&b, "<div class=\"rc-watermark\"><img src=\"%s\" alt=\"\"></div>\n", esc(v.cfg.logoURL))
	}
	b.WriteString("<div class=\"rc-page\">\n")
	writeHeader(&b, v)
	if v.cfg.sections.profile {
		writeProfile(&b, v)
	}
	if v.cfg.sections.marksTable || (v.cfg.sections.attendance && v.attendance != nil) {
		writeAcademic(&b, v)
	}
	if v.cfg.sections.coScholastic && len(v.coScholastic) > 0 {
		writeCoScholastic(&b, v)
	}
	if v.cfg.sections.remarks {
		writeRemarks(&b, v)
	}
	writeResult(&b, v)
	writeSignatures(&b, v)
	if v.cfg.sections.gradingScale && len(v.bands) > 0 {
		writeGradingScale(&b, v)
	}
	if v.cfg.sections.instructions && v.cfg.instructions != "" {
		writeInstructions(&b, v)
	}
	if v.generatedOn != "" {
		fmt.Fprintf(&b, "<footer class=\"rc-footer\">%s: %s</footer>\n", esc(v.cfg.label(LabelGeneratedOn)), esc(v.generatedOn))
	}
	b.WriteString("</div>\n</body>\n</html>\n")
	return b.String(), nil
}
