package grading

import "strings"

// Palette is a text/background colour pair.
type Palette struct {
	Text       string `json:"text"`
	Background string `json:"background"`
}

var (
	paletteGreen  = Palette{Text: "#166534", Background: "#dcfce7"}
	paletteBlue   = Palette{Text: "#1e40af", Background: "#dbeafe"}
	paletteYellow = Palette{Text: "#854d0e", Background: "#fef9c3"}
	paletteOrange = Palette{Text: "#9a3412", Background: "#ffedd5"}
	paletteRed    = Palette{Text: "#991b1b", Background: "#fee2e2"}
	paletteGray   = Palette{Text: "#374151", Background: "#f3f4f6"}
)

// PassStatusColor returns the palette used for a pass/fail badge.
func PassStatusColor(status Status) Palette {
	value := strings.TrimSpace(string(status))
	switch {
	case strings.EqualFold(value, string(StatusPass)):
		return paletteGreen
	case strings.EqualFold(value, string(StatusFail)):
		return paletteRed
	case strings.EqualFold(value, string(StatusAbsent)):
		return paletteOrange
	default:
		return paletteGray
	}
}

// GradeColor returns the palette for a grade keyed by its first letter.
func GradeColor(grade string) Palette {
	grade = strings.ToUpper(strings.TrimSpace(grade))
	if grade == "" {
		return paletteGray
	}
	switch grade[0] {
	case 'A':
		return paletteGreen
	case 'B':
		return paletteBlue
	case 'C':
		return paletteYellow
	case 'D':
		return paletteOrange
	case 'E', 'F':
		return paletteRed
	default:
		return paletteGray
	}
}
