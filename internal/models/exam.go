package models

import "time"

// Exam is one assessment event of a school's academic year.
type Exam struct {
	ID           string     `db:"id" json:"id"`
	SchoolID     string     `db:"school_id" json:"school_id"`
	Name         string     `db:"name" json:"name"`
	AcademicYear string     `db:"academic_year" json:"academic_year"`
	ResultDate   *time.Time `db:"result_date" json:"result_date,omitempty"`
	StartsOn     *time.Time `db:"starts_on" json:"starts_on,omitempty"`
}

// ReportCard converts the row into composer input.
func (e *Exam) ReportCard() *ReportCardExam {
	if e == nil {
		return nil
	}
	out := &ReportCardExam{ID: e.ID, Name: e.Name, AcademicYear: e.AcademicYear}
	if e.ResultDate != nil {
		out.ResultDate = e.ResultDate.Format("02 Jan 2006")
	}
	return out
}

// ExamResult holds the per-student outcome recorded for an exam.
type ExamResult struct {
	StudentID  string `db:"student_id" json:"student_id"`
	ExamID     string `db:"exam_id" json:"exam_id"`
	Remarks    string `db:"remarks" json:"remarks,omitempty"`
	Rank       string `db:"rank" json:"rank,omitempty"`
	Result     string `db:"result" json:"result,omitempty"`
	PromotedTo string `db:"promoted_to" json:"promoted_to,omitempty"`
}
