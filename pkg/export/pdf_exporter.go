package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidthMM   = 210.0
	marginMM      = 10.0
	usableWidthMM = pageWidthMM - 2*marginMM
)

// Document is a print layout made of titled sections.
type Document struct {
	Title    string
	Subtitle []string
	Sections []Section
	Footer   []string
	// Accent is a #rrggbb colour used for section bars; empty means grey.
	Accent string
}

// Section is one block of the document. Any combination of fields, table and
// text may be set; they render in that order.
type Section struct {
	Heading string
	Fields  []Field
	Table   *Table
	Text    []string
}

// Field is a label/value pair.
type Field struct {
	Label string
	Value string
}

// Table is a bordered grid with an optional grouped header row.
type Table struct {
	Groups  []ColumnGroup
	Headers []string
	Rows    [][]string
}

// ColumnGroup spans Span header columns.
type ColumnGroup struct {
	Label string
	Span  int
}

// PDFExporter renders datasets and documents with gofpdf.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderDataset creates a PDF with an optional title and one table.
func (e *PDFExporter) RenderDataset(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	rows := make([][]string, 0, len(data.Rows))
	for _, row := range data.Rows {
		cells := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			cells[i] = row[header]
		}
		rows = append(rows, cells)
	}
	return e.Render(Document{
		Title:    title,
		Sections: []Section{{Table: &Table{Headers: data.Headers, Rows: rows}}},
	})
}

// Render lays the document out on A4 portrait pages.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if doc.Title == "" && len(doc.Sections) == 0 {
		return nil, fmt.Errorf("pdf requires a title or at least one section")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginMM, 12, marginMM)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 15)
		pdf.CellFormat(0, 9, tr(doc.Title), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "", 9)
	for _, line := range doc.Subtitle {
		pdf.CellFormat(0, 5, tr(line), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	r, g, b, ok := ParseHexColor(doc.Accent)
	if !ok {
		r, g, b = 220, 220, 220
	}
	for _, section := range doc.Sections {
		if section.Heading != "" {
			pdf.SetFillColor(r, g, b)
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(0, 7, tr(section.Heading), "", 1, "L", true, 0, "")
			pdf.Ln(1)
		}
		writeFields(pdf, tr, section.Fields)
		if section.Table != nil {
			writeTable(pdf, tr, section.Table)
		}
		if len(section.Text) > 0 {
			pdf.SetFont("Arial", "", 9)
			for _, line := range section.Text {
				pdf.MultiCell(0, 5, tr(line), "", "L", false)
			}
		}
		pdf.Ln(3)
	}

	if len(doc.Footer) > 0 {
		pdf.SetFont("Arial", "I", 8)
		for _, line := range doc.Footer {
			pdf.CellFormat(0, 5, tr(line), "", 1, "C", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFields(pdf *gofpdf.Fpdf, tr func(string) string, fields []Field) {
	if len(fields) == 0 {
		return
	}
	half := usableWidthMM / 2
	labelWidth := half * 0.4
	for i, field := range fields {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(labelWidth, 6, tr(field.Label), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		ln := 0
		if i%2 == 1 || i == len(fields)-1 {
			ln = 1
		}
		pdf.CellFormat(half-labelWidth, 6, tr(field.Value), "", ln, "L", false, 0, "")
	}
	pdf.Ln(1)
}

func writeTable(pdf *gofpdf.Fpdf, tr func(string) string, table *Table) {
	if len(table.Headers) == 0 {
		return
	}
	colWidth := usableWidthMM / float64(len(table.Headers))
	pdf.SetFont("Arial", "B", 8)
	if len(table.Groups) > 0 {
		for _, group := range table.Groups {
			span := group.Span
			if span <= 0 {
				span = 1
			}
			pdf.CellFormat(colWidth*float64(span), 6, tr(group.Label), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
	for _, header := range table.Headers {
		pdf.CellFormat(colWidth, 6, tr(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range table.Rows {
		for i := range table.Headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			pdf.CellFormat(colWidth, 6, tr(value), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// ParseHexColor parses #rgb or #rrggbb.
func ParseHexColor(raw string) (r, g, b int, ok bool) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if len(raw) == 3 {
		raw = string([]byte{raw[0], raw[0], raw[1], raw[1], raw[2], raw[2]})
	}
	if len(raw) != 6 {
		return 0, 0, 0, false
	}
	value, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(value >> 16 & 0xff), int(value >> 8 & 0xff), int(value & 0xff), true
}
