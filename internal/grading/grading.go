// Package grading holds the percentage, grade and pass/fail rules shared by
// marks entry, the marks dashboard and report card generation.
package grading

import (
	"sort"
	"strings"

	"github.com/noah-isme/sma-reportcard-api/internal/models"
)

// Pass thresholds in percent. Marks pages and the report card disagree on
// purpose until the product owners settle on one value; both are overridable
// through configuration.
const (
	UIPassThreshold         = 40.0
	ReportCardPassThreshold = 33.0
)

// NoGrade is rendered when no grade can be derived.
const NoGrade = "-"

// Status is the pass/fail outcome of a percentage.
type Status string

const (
	StatusPass   Status = "Pass"
	StatusFail   Status = "Fail"
	StatusAbsent Status = "Absent"
)

// CalculatePercentage returns obtained/max*100, or 0 when max <= 0.
// Out-of-range input is passed through unclamped.
func CalculatePercentage(obtained, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return obtained / max * 100
}

// GradeFromPercentage maps a percentage onto the fixed ladder. A percentage
// sitting on a boundary belongs to the higher band.
func GradeFromPercentage(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B+"
	case percentage >= 60:
		return "B"
	case percentage >= 50:
		return "C"
	case percentage >= 40:
		return "D"
	default:
		return "F"
	}
}

// PassStatus compares a percentage against threshold (inclusive).
func PassStatus(percentage, threshold float64) Status {
	if percentage >= threshold {
		return StatusPass
	}
	return StatusFail
}

// Band is a grade scale normalised to percentages.
type Band struct {
	Grade  string  `json:"grade"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Remark string  `json:"remark,omitempty"`
}

// Contains reports whether percentage falls inside [Min, Max].
func (b Band) Contains(percentage float64) bool {
	return percentage >= b.Min && percentage <= b.Max
}

// NormalizeScale converts a scale to a percentage band. Percentage bounds win
// over marks bounds; marks are read against OutOf (default 100). The second
// return value is false when the scale carries no usable bounds.
func NormalizeScale(scale models.GradeScale) (Band, bool) {
	band := Band{Grade: strings.TrimSpace(scale.Grade), Remark: scale.Remark}
	if band.Grade == "" {
		return Band{}, false
	}
	switch {
	case scale.MinPercentage != nil || scale.MaxPercentage != nil:
		band.Min = valueOr(scale.MinPercentage, 0)
		band.Max = valueOr(scale.MaxPercentage, 100)
	case scale.MinMarks != nil || scale.MaxMarks != nil:
		outOf := valueOr(scale.OutOf, 100)
		if outOf <= 0 {
			outOf = 100
		}
		band.Min = CalculatePercentage(valueOr(scale.MinMarks, 0), outOf)
		band.Max = CalculatePercentage(valueOr(scale.MaxMarks, outOf), outOf)
	default:
		return Band{}, false
	}
	if band.Min > band.Max {
		band.Min, band.Max = band.Max, band.Min
	}
	return band, true
}

// NormalizeScales converts scales in caller order, dropping unusable entries.
func NormalizeScales(scales []models.GradeScale) []Band {
	bands := make([]Band, 0, len(scales))
	for _, scale := range scales {
		if band, ok := NormalizeScale(scale); ok {
			bands = append(bands, band)
		}
	}
	return bands
}

// GradeFromBands returns the first band in order that contains percentage.
func GradeFromBands(bands []Band, percentage float64) string {
	for _, band := range bands {
		if band.Contains(percentage) {
			return band.Grade
		}
	}
	return NoGrade
}

// GradeFromMarks derives a grade from caller supplied scales, looking them up
// in the order given. It returns NoGrade when max <= 0 or nothing matches.
func GradeFromMarks(scales []models.GradeScale, obtained, max float64) string {
	if max <= 0 {
		return NoGrade
	}
	return GradeFromBands(NormalizeScales(scales), CalculatePercentage(obtained, max))
}

// SortBandsForDisplay returns a copy ordered by upper bound, highest first.
// Lookups keep using the caller's order.
func SortBandsForDisplay(bands []Band) []Band {
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Max > sorted[j].Max
	})
	return sorted
}

// Result is the evaluation of a single mark entry.
type Result struct {
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
	Status     Status  `json:"status"`
	Absent     bool    `json:"absent"`
}

// Evaluate computes percentage, ladder grade and status for one entry.
// A nil obtained value is an absent candidate.
func Evaluate(obtained *float64, max, threshold float64) Result {
	if obtained == nil {
		return Result{Grade: NoGrade, Status: StatusAbsent, Absent: true}
	}
	percentage := CalculatePercentage(*obtained, max)
	return Result{
		Percentage: percentage,
		Grade:      GradeFromPercentage(percentage),
		Status:     PassStatus(percentage, threshold),
	}
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
