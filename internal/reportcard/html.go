package reportcard

import (
	"fmt"
	"html"
	"strings"

	"github.com/noah-isme/sma-reportcard-api/internal/grading"
)

func esc(s string) string {
	return html.EscapeString(s)
}

func writeHead(b *strings.Builder, v view) {
	rc := v.cfg
	fmt.Fprintf(b, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>%s - %s</title>\n",
		esc(v.schoolName), esc(rc.label(LabelTitle)))
	b.WriteString("<style>\n")
	b.WriteString("@page { size: A4; margin: 10mm; }\n")
	fmt.Fprintf(b, "body { font-family: %s; font-size: %dpx; color: #111827; margin: 0; }\n", rc.fontFamily, rc.bodySize)
	b.WriteString(".rc-page { position: relative; max-width: 190mm; margin: 0 auto; }\n")
	fmt.Fprintf(b, ".rc-header { background: %s; color: %s; display: flex; align-items: center; justify-content: space-between; padding: 12px; }\n",
		rc.headerBackground, rc.headerText)
	fmt.Fprintf(b, ".rc-school-name { font-size: %dpx; font-weight: bold; margin: 0; }\n", rc.schoolNameSize)
	b.WriteString(".rc-header-text { flex: 1; text-align: center; }\n")
	fmt.Fprintf(b, ".rc-logo { width: %dpx; height: %dpx; object-fit: contain; border-radius: %s; }\n",
		rc.logoWidth, rc.logoHeight, rc.logoRadius)
	b.WriteString(".rc-title { margin-top: 6px; font-weight: bold; letter-spacing: 1px; }\n")
	b.WriteString(".rc-section { margin-top: 12px; }\n")
	fmt.Fprintf(b, ".rc-section h2 { font-size: %dpx; color: %s; border-bottom: 2px solid %s; margin: 0 0 6px 0; padding-bottom: 2px; }\n",
		rc.bodySize+2, rc.accent, rc.accent)
	b.WriteString("table { width: 100%; border-collapse: collapse; }\n")
	fmt.Fprintf(b, "th, td { border: 1px solid #d1d5db; padding: %dpx; text-align: center; }\n", rc.cellPadding)
	fmt.Fprintf(b, "th { background: %s; color: %s; }\n", rc.tableHeaderBg, rc.tableHeaderText)
	b.WriteString("td.rc-left, th.rc-left { text-align: left; }\n")
	fmt.Fprintf(b, "th.rc-overall { background: %s; color: %s; }\n", rc.accent, rc.headerText)
	if rc.stripedRows {
		b.WriteString("tbody tr:nth-child(even) { background: #f9fafb; }\n")
	}
	b.WriteString(".rc-absent { color: #9a3412; font-weight: bold; }\n")
	b.WriteString(".rc-summary, .rc-attendance, .rc-result { display: flex; gap: 24px; margin-top: 6px; }\n")
	b.WriteString(".rc-signatures { display: flex; justify-content: space-between; margin-top: 48px; }\n")
	b.WriteString(".rc-signature { border-top: 1px solid #111827; min-width: 150px; padding-top: 4px; text-align: center; }\n")
	b.WriteString(".rc-footer { margin-top: 12px; font-size: 10px; color: #6b7280; text-align: right; }\n")
	if rc.showWatermark {
		fmt.Fprintf(b, ".rc-watermark { position: fixed; top: 50%%; left: 50%%; transform: translate(-50%%, -50%%); opacity: %.2f; z-index: -1; }\n",
			rc.watermarkOpacity)
		fmt.Fprintf(b, ".rc-watermark img { width: %dpx; height: %dpx; object-fit: contain; }\n", rc.watermarkSize, rc.watermarkSize)
	}
	b.WriteString("</style>\n</head>\n")
}

func writeHeader(b *strings.Builder, v view) {
	rc := v.cfg
	b.WriteString("<header class=\"rc-header\">\n")
	if rc.showLogo && rc.logoURL != "" {
		fmt.Fprintf(b, "<img class=\"rc-logo\" src=\"%s\" alt=\"%s\">\n", esc(rc.logoURL), esc(v.schoolName))
	}
	b.WriteString("<div class=\"rc-header-text\">\n")
	fmt.Fprintf(b, "<h1 class=\"rc-school-name\">%s</h1>\n", esc(v.schoolName))
	if rc.showAffiliation && v.affiliation != "" {
		fmt.Fprintf(b, "<div class=\"rc-affiliation\">%s: %s | %s</div>\n",
			esc(rc.label(LabelAffiliation)), esc(v.affiliation), esc(v.schoolCode))
	}
	if rc.showContact {
		var parts []string
		for _, item := range []struct{ label, value string }{
			{LabelAddress, rc.address},
			{LabelPhone, rc.phone},
			{LabelEmail, rc.email},
			{LabelWebsite, rc.website},
		} {
			if item.value != "" {
				parts = append(parts, esc(rc.label(item.label))+": "+esc(item.value))
			}
		}
		if len(parts) > 0 {
			fmt.Fprintf(b, "<div class=\"rc-contact\">%s</div>\n", strings.Join(parts, " | "))
		}
	}
	fmt.Fprintf(b, "<div class=\"rc-title\">%s - %s</div>\n", esc(rc.label(LabelTitle)), esc(v.examName))
	fmt.Fprintf(b, "<div class=\"rc-session\">%s: %s", esc(rc.label(LabelAcademicYear)), esc(v.academicYear))
	if v.resultDate != "" {
		fmt.Fprintf(b, " | %s: %s", esc(rc.label(LabelResultDate)), esc(v.resultDate))
	}
	b.WriteString("</div>\n</div>\n")
	if rc.showLogo && rc.secondLogoURL != "" {
		fmt.Fprintf(b, "<img class=\"rc-logo\" src=\"%s\" alt=\"\">\n", esc(rc.secondLogoURL))
	}
	b.WriteString("</header>\n")
}

func writeProfile(b *strings.Builder, v view) {
	b.WriteString("<section class=\"rc-section rc-profile\">\n")
	fmt.Fprintf(b, "<h2>%s</h2>\n<table>\n<tbody>\n", esc(v.cfg.label(LabelProfile)))
	for i := 0; i < len(v.profile); i += 2 {
		b.WriteString("<tr>")
		for j := i; j < i+2; j++ {
			if j < len(v.profile) {
				fmt.Fprintf(b, "<th class=\"rc-left\">%s</th><td class=\"rc-left\">%s</td>", esc(v.profile[j].label), esc(v.profile[j].value))
			} else {
				b.WriteString("<th></th><td></td>")
			}
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>\n</section>\n")
}

func writeAcademic(b *strings.Builder, v view) {
	rc := v.cfg
	b.WriteString("<section class=\"rc-section rc-academic\">\n")
	fmt.Fprintf(b, "<h2>%s</h2>\n", esc(rc.label(LabelAcademicPerformance)))
	if rc.sections.marksTable {
		if v.multi {
			writeMultiExamTable(b, v)
		} else {
			writeSingleExamTable(b, v)
		}
		writeSummary(b, v)
	}
	if rc.sections.attendance && v.attendance != nil {
		fmt.Fprintf(b, "<div class=\"rc-attendance\"><strong>%s</strong><span>%s: %s / %s</span><span>%s: %s</span></div>\n",
			esc(rc.label(LabelAttendance)),
			esc(rc.label(LabelDaysPresent)), esc(v.attendance.present), esc(v.attendance.total),
			esc(rc.label(LabelPercentage)), esc(v.attendance.percentage))
	}
	b.WriteString("</section>\n")
}

func writeSingleExamTable(b *strings.Builder, v view) {
	rc := v.cfg
	b.WriteString("<table class=\"rc-marks\">\n<thead>\n<tr>")
	for _, key := range []string{LabelSerial, LabelSubject, LabelMaxMarks, LabelMarksObtained, LabelPercentage, LabelGrade} {
		fmt.Fprintf(b, "<th>%s</th>", esc(rc.label(key)))
	}
	b.WriteString("</tr>\n</thead>\n<tbody>\n")
	if len(v.single) == 0 {
		fmt.Fprintf(b, "<tr><td colspan=\"6\">%s</td></tr>\n", placeholderValue)
	}
	for _, row := range v.single {
		obtainedClass := ""
		if row.absent {
			obtainedClass = " class=\"rc-absent\""
		}
		fmt.Fprintf(b, "<tr><td>%d</td><td class=\"rc-left\">%s</td><td>%s</td><td%s>%s</td><td>%s</td><td>%s</td></tr>\n",
			row.serial, esc(row.subject), esc(row.maxMarks), obtainedClass, esc(row.obtained), esc(row.percentage), esc(row.grade))
	}
	b.WriteString("</tbody>\n</table>\n")
}

func writeMultiExamTable(b *strings.Builder, v view) {
	rc := v.cfg
	b.WriteString("<table class=\"rc-marks rc-multi\">\n<thead>\n<tr>")
	fmt.Fprintf(b, "<th rowspan=\"2\">%s</th><th rowspan=\"2\" class=\"rc-left\">%s</th>", esc(rc.label(LabelSerial)), esc(rc.label(LabelSubject)))
	for _, exam := range v.exams {
		fmt.Fprintf(b, "<th colspan=\"2\">%s</th>", esc(orPlaceholder(exam.Name, placeholderText)))
	}
	fmt.Fprintf(b, "<th colspan=\"2\" class=\"rc-overall\">%s</th></tr>\n<tr>", esc(rc.label(LabelOverall)))
	marks, grade := esc(rc.label(LabelMarks)), esc(rc.label(LabelGrade))
	for range v.exams {
		fmt.Fprintf(b, "<th>%s</th><th>%s</th>", marks, grade)
	}
	fmt.Fprintf(b, "<th class=\"rc-overall\">%s</th><th class=\"rc-overall\">%s</th></tr>\n</thead>\n<tbody>\n", marks, grade)
	for _, row := range v.multiRows {
		fmt.Fprintf(b, "<tr><td>%d</td><td class=\"rc-left\">%s</td>", row.serial, esc(row.subject))
		for _, cell := range row.cells {
			fmt.Fprintf(b, "<td>%s</td><td>%s</td>", esc(cell.marks), esc(cell.grade))
		}
		fmt.Fprintf(b, "<td>%s</td><td>%s</td></tr>\n", esc(row.overall.marks), esc(row.overall.grade))
	}
	b.WriteString("</tbody>\n</table>\n")
}

func writeSummary(b *strings.Builder, v view) {
	rc := v.cfg
	palette := grading.GradeColor(v.summary.grade)
	fmt.Fprintf(b, "<div class=\"rc-summary\"><span>%s: %s/%s</span><span>%s: %s</span><span>%s: <strong style=\"color: %s\">%s</strong></span></div>\n",
		esc(rc.label(LabelTotal)), esc(v.summary.total), esc(v.summary.max),
		esc(rc.label(LabelPercentage)), esc(v.summary.percentage),
		esc(rc.label(LabelGrade)), palette.Text, esc(v.summary.grade))
}

func writeCoScholastic(b *strings.Builder, v view) {
	rc := v.cfg
	b.WriteString("<section class=\"rc-section rc-co-scholastic\">\n")
	fmt.Fprintf(b, "<h2>%s</h2>\n<table>\n<thead>\n<tr><th class=\"rc-left\">%s</th><th>%s</th><th>%s</th></tr>\n</thead>\n<tbody>\n",
		esc(rc.label(LabelCoScholastic)), esc(rc.label(LabelActivity)), esc(rc.label(LabelTerm1)), esc(rc.label(LabelTerm2)))
	for _, row := range v.coScholastic {
		fmt.Fprintf(b, "<tr><td class=\"rc-left\">%s</td><td>%s</td><td>%s</td></tr>\n", esc(row.name), esc(row.term1), esc(row.term2))
	}
	b.WriteString("</tbody>\n</table>\n</section>\n")
}

func writeRemarks(b *strings.Builder, v view) {
	fmt.Fprintf(b, "<section class=\"rc-section rc-remarks\">\n<h2>%s</h2>\n<p>%s</p>\n</section>\n",
		esc(v.cfg.label(LabelRemarks)), esc(v.remarks))
}

func writeResult(b *strings.Builder, v view) {
	rc := v.cfg
	palette := grading.PassStatusColor(grading.Status(v.result))
	fmt.Fprintf(b, "<section class=\"rc-section rc-result\"><span>%s: <strong style=\"color: %s; background: %s; padding: 2px 8px\">%s</strong></span><span>%s: %s</span><span>%s: %s</span></section>\n",
		esc(rc.label(LabelResult)), palette.Text, palette.Background, esc(v.result),
		esc(rc.label(LabelRank)), esc(v.rank),
		esc(rc.label(LabelPromotedTo)), esc(v.promotedTo))
}

func writeSignatures(b *strings.Builder, v view) {
	rc := v.cfg
	b.WriteString("<section class=\"rc-section rc-signatures\">\n")
	if rc.signClassTeacher {
		fmt.Fprintf(b, "<div class=\"rc-signature\">%s</div>\n", esc(rc.label(LabelClassTeacherSign)))
	}
	if rc.signParent {
		fmt.Fprintf(b, "<div class=\"rc-signature\">%s</div>\n", esc(rc.label(LabelParentSign)))
	}
	if rc.signPrincipal {
		label := esc(rc.label(LabelPrincipalSign))
		if v.principalName != "" {
			label = esc(v.principalName) + "<br>" + label
		}
		fmt.Fprintf(b, "<div class=\"rc-signature\">%s</div>\n", label)
	}
	b.WriteString("</section>\n")
}

func writeGradingScale(b *strings.Builder, v view) {
	rc := v.cfg
	b.WriteString("<section class=\"rc-section rc-grading-scale\">\n")
	fmt.Fprintf(b, "<h2>%s</h2>\n<table>\n<thead>\n<tr><th>%s</th><th>%s</th><th>%s</th></tr>\n</thead>\n<tbody>\n",
		esc(rc.label(LabelGradingScale)), esc(rc.label(LabelGrade)), esc(rc.label(LabelRange)), esc(rc.label(LabelRemarks)))
	for _, band := range v.bands {
		fmt.Fprintf(b, "<tr><td>%s</td><td>%s - %s</td><td>%s</td></tr>\n",
			esc(band.Grade), formatNumber(band.Min), formatNumber(band.Max), esc(orPlaceholder(band.Remark, placeholderValue)))
	}
	b.WriteString("</tbody>\n</table>\n</section>\n")
}

func writeInstructions(b *strings.Builder, v view) {
	b.WriteString("<section class=\"rc-section rc-instructions\">\n")
	fmt.Fprintf(b, "<h2>%s</h2>\n<ol>\n", esc(v.cfg.label(LabelInstructions)))
	for _, line := range instructionLines(v.cfg.instructions) {
		fmt.Fprintf(b, "<li>%s</li>\n", esc(line))
	}
	b.WriteString("</ol>\n</section>\n")
}

func instructionLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
