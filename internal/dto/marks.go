package dto

import "github.com/noah-isme/sma-reportcard-api/internal/grading"

// MarksDashboardQuery captures GET /marks/dashboard filters.
type MarksDashboardQuery struct {
	ClassID string `form:"classId" validate:"required"`
	ExamID  string `form:"examId" validate:"required"`
}

// MarksDashboardResponse lists per-student totals and class statistics.
type MarksDashboardResponse struct {
	ClassID       string              `json:"classId"`
	ExamID        string              `json:"examId"`
	PassThreshold float64             `json:"passThreshold"`
	Students      []StudentMarksRow   `json:"students"`
	Stats         MarksDashboardStats `json:"stats"`
}

// StudentMarksRow is one student's totals for the exam.
type StudentMarksRow struct {
	StudentID       string          `json:"studentId"`
	StudentName     string          `json:"studentName"`
	AdmissionNumber string          `json:"admissionNumber"`
	Obtained        float64         `json:"obtained"`
	MaxMarks        float64         `json:"maxMarks"`
	Percentage      float64         `json:"percentage"`
	Grade           string          `json:"grade"`
	Status          grading.Status  `json:"status"`
	AbsentSubjects  int             `json:"absentSubjects"`
	Color           grading.Palette `json:"color"`
}

// MarksDashboardStats summarises the class.
type MarksDashboardStats struct {
	Students int     `json:"students"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Absent   int     `json:"absent"`
	Average  float64 `json:"average"`
	Highest  float64 `json:"highest"`
	Lowest   float64 `json:"lowest"`
}

// EvaluateRequest captures POST /marks/evaluate payload.
type EvaluateRequest struct {
	Entries []EvaluateEntry `json:"entries" validate:"required,min=1,max=200,dive"`
}

// EvaluateEntry is one mark being typed in. A nil Obtained means absent.
type EvaluateEntry struct {
	Obtained *float64 `json:"obtained" validate:"omitempty,gte=0"`
	Max      float64  `json:"max" validate:"gt=0"`
}

// EvaluateResponse mirrors the request order.
type EvaluateResponse struct {
	PassThreshold float64         `json:"passThreshold"`
	Results       []EvaluatedMark `json:"results"`
}

// EvaluatedMark is the live preview of one entry.
type EvaluatedMark struct {
	grading.Result
	Color grading.Palette `json:"color"`
	// OutOfRange flags obtained > max; the value is still evaluated.
	OutOfRange bool `json:"outOfRange,omitempty"`
}
