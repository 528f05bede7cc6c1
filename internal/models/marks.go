package models

// MarkRow is one subject mark of one student in one exam. A nil MarksObtained means absent.
type MarkRow struct {
	StudentID     string   `db:"student_id" json:"student_id"`
	ExamID        string   `db:"exam_id" json:"exam_id"`
	SubjectID     string   `db:"subject_id" json:"subject_id"`
	SubjectName   string   `db:"subject_name" json:"subject_name"`
	SortOrder     int      `db:"sort_order" json:"sort_order"`
	MarksObtained *float64 `db:"marks_obtained" json:"marks_obtained"`
	MaxMarks      float64  `db:"max_marks" json:"max_marks"`
	Grade         string   `db:"grade" json:"grade,omitempty"`
	Remarks       string   `db:"remarks" json:"remarks,omitempty"`
}

// SubjectMarks converts the row into a single-exam composer row.
func (m MarkRow) SubjectMarks() SubjectMarks {
	return SubjectMarks{
		SubjectID:     m.SubjectID,
		SubjectName:   m.SubjectName,
		MarksObtained: m.MarksObtained,
		MaxMarks:      m.MaxMarks,
		Grade:         m.Grade,
		Remarks:       m.Remarks,
	}
}

// AttendanceRow is the attendance recorded for a student over an exam period.
type AttendanceRow struct {
	ExamID      string `db:"exam_id" json:"exam_id"`
	PresentDays int    `db:"present_days" json:"present_days"`
	TotalDays   int    `db:"total_days" json:"total_days"`
}
