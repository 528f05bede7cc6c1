package reportcard

import (
	"strconv"

	"github.com/noah-isme/sma-reportcard-api/internal/models"
	"github.com/noah-isme/sma-reportcard-api/pkg/export"
)

// BuildDocument maps report card data onto the sectioned layout rendered by
// export.PDFExporter, using the default report card pass threshold.
func BuildDocument(data *models.ReportCardData, cfg *models.ReportCardTemplateConfig) (export.Document, error) {
	return defaultComposer.Document(data, cfg)
}

// Document builds the PDF layout. Section order and visibility follow Compose.
func (c *Composer) Document(data *models.ReportCardData, cfg *models.ReportCardTemplateConfig) (export.Document, error) {
	if err := Validate(data); err != nil {
		return export.Document{}, err
	}
	v := buildView(data, cfg, c.passThreshold)
	rc := v.cfg

	doc := export.Document{
		Title:  v.schoolName,
		Accent: rc.accent,
	}
	if rc.showAffiliation && v.affiliation != "" {
		doc.Subtitle = append(doc.Subtitle, rc.label(LabelAffiliation)+": "+v.affiliation+" | "+v.schoolCode)
	}
	if rc.showContact {
		for _, item := range []struct{ label, value string }{
			{LabelAddress, rc.address},
			{LabelPhone, rc.phone},
			{LabelEmail, rc.email},
			{LabelWebsite, rc.website},
		} {
			if item.value != "" {
				doc.Subtitle = append(doc.Subtitle, rc.label(item.label)+": "+item.value)
			}
		}
	}
	session := rc.label(LabelAcademicYear) + ": " + v.academicYear
	if v.resultDate != "" {
		session += " | " + rc.label(LabelResultDate) + ": " + v.resultDate
	}
	doc.Subtitle = append(doc.Subtitle, rc.label(LabelTitle)+" - "+v.examName, session)

	if rc.sections.profile {
		section := export.Section{Heading: rc.label(LabelProfile)}
		for _, f := range v.profile {
			section.Fields = append(section.Fields, export.Field{Label: f.label, Value: f.value})
		}
		doc.Sections = append(doc.Sections, section)
	}

	if rc.sections.marksTable || (rc.sections.attendance && v.attendance != nil) {
		section := export.Section{Heading: rc.label(LabelAcademicPerformance)}
		if rc.sections.marksTable {
			if v.multi {
				section.Table = multiExamTable(v)
			} else {
				section.Table = singleExamTable(v)
			}
			section.Fields = append(section.Fields,
				export.Field{Label: rc.label(LabelTotal), Value: v.summary.total + "/" + v.summary.max},
				export.Field{Label: rc.label(LabelPercentage), Value: v.summary.percentage},
				export.Field{Label: rc.label(LabelGrade), Value: v.summary.grade},
			)
		}
		if rc.sections.attendance && v.attendance != nil {
			section.Fields = append(section.Fields, export.Field{
				Label: rc.label(LabelAttendance),
				Value: v.attendance.present + " / " + v.attendance.total + " (" + v.attendance.percentage + ")",
			})
		}
		doc.Sections = append(doc.Sections, section)
	}

	if rc.sections.coScholastic && len(v.coScholastic) > 0 {
		table := &export.Table{Headers: []string{rc.label(LabelActivity), rc.label(LabelTerm1), rc.label(LabelTerm2)}}
		for _, row := range v.coScholastic {
			table.Rows = append(table.Rows, []string{row.name, row.term1, row.term2})
		}
		doc.Sections = append(doc.Sections, export.Section{Heading: rc.label(LabelCoScholastic), Table: table})
	}

	if rc.sections.remarks {
		doc.Sections = append(doc.Sections, export.Section{Heading: rc.label(LabelRemarks), Text: []string{v.remarks}})
	}

	doc.Sections = append(doc.Sections, export.Section{
		Heading: rc.label(LabelResult),
		Fields: []export.Field{
			{Label: rc.label(LabelResult), Value: v.result},
			{Label: rc.label(LabelRank), Value: v.rank},
			{Label: rc.label(LabelPromotedTo), Value: v.promotedTo},
		},
	})

	var signatures []export.Field
	if rc.signClassTeacher {
		signatures = append(signatures, export.Field{Label: rc.label(LabelClassTeacherSign), Value: "________________"})
	}
	if rc.signParent {
		signatures = append(signatures, export.Field{Label: rc.label(LabelParentSign), Value: "________________"})
	}
	if rc.signPrincipal {
		value := "________________"
		if v.principalName != "" {
			value += " " + v.principalName
		}
		signatures = append(signatures, export.Field{Label: rc.label(LabelPrincipalSign), Value: value})
	}
	if len(signatures) > 0 {
		doc.Sections = append(doc.Sections, export.Section{Fields: signatures})
	}

	if rc.sections.gradingScale && len(v.bands) > 0 {
		table := &export.Table{Headers: []string{rc.label(LabelGrade), rc.label(LabelRange), rc.label(LabelRemarks)}}
		for _, band := range v.bands {
			table.Rows = append(table.Rows, []string{
				band.Grade,
				formatNumber(band.Min) + " - " + formatNumber(band.Max),
				orPlaceholder(band.Remark, placeholderValue),
			})
		}
		doc.Sections = append(doc.Sections, export.Section{Heading: rc.label(LabelGradingScale), Table: table})
	}

	if rc.sections.instructions && rc.instructions != "" {
		lines := instructionLines(rc.instructions)
		for i := range lines {
			lines[i] = strconv.Itoa(i+1) + ". " + lines[i]
		}
		doc.Sections = append(doc.Sections, export.Section{Heading: rc.label(LabelInstructions), Text: lines})
	}

	if v.generatedOn != "" {
		doc.Footer = []string{rc.label(LabelGeneratedOn) + ": " + v.generatedOn}
	}
	return doc, nil
}

func singleExamTable(v view) *export.Table {
	rc := v.cfg
	table := &export.Table{Headers: []string{
		rc.label(LabelSerial), rc.label(LabelSubject), rc.label(LabelMaxMarks),
		rc.label(LabelMarksObtained), rc.label(LabelPercentage), rc.label(LabelGrade),
	}}
	for _, row := range v.single {
		table.Rows = append(table.Rows, []string{
			strconv.Itoa(row.serial), row.subject, row.maxMarks, row.obtained, row.percentage, row.grade,
		})
	}
	return table
}

func multiExamTable(v view) *export.Table {
	rc := v.cfg
	marks, grade := rc.label(LabelMarks), rc.label(LabelGrade)
	table := &export.Table{
		Groups:  []export.ColumnGroup{{Label: "", Span: 2}},
		Headers: []string{rc.label(LabelSerial), rc.label(LabelSubject)},
	}
	for _, exam := range v.exams {
		table.Groups = append(table.Groups, export.ColumnGroup{Label: orPlaceholder(exam.Name, placeholderText), Span: 2})
		table.Headers = append(table.Headers, marks, grade)
	}
	table.Groups = append(table.Groups, export.ColumnGroup{Label: rc.label(LabelOverall), Span: 2})
	table.Headers = append(table.Headers, marks, grade)

	for _, row := range v.multiRows {
		cells := []string{strconv.Itoa(row.serial), row.subject}
		for _, cell := range row.cells {
			cells = append(cells, cell.marks, cell.grade)
		}
		table.Rows = append(table.Rows, append(cells, row.overall.marks, row.overall.grade))
	}
	return table
}
