package models

// ReportCardData is the complete, already-resolved input of the report card composer.
type ReportCardData struct {
	School         *ReportCardSchool       `json:"school" validate:"required"`
	Student        *ReportCardStudent      `json:"student" validate:"required"`
	Exam           *ReportCardExam         `json:"exam" validate:"required"`
	Marks          []SubjectMarks          `json:"marks,omitempty" validate:"dive"`
	MultiExamMarks []MultiExamSubjectMarks `json:"multi_exam_marks,omitempty" validate:"dive"`
	ExamsList      []ExamRef               `json:"exams_list,omitempty" validate:"dive"`
	Summary        *ReportCardSummary      `json:"summary,omitempty"`
	Attendance     *AttendanceSummary      `json:"attendance,omitempty"`
	CoScholastic   []CoScholasticEntry     `json:"co_scholastic,omitempty"`
	GradeScales    []GradeScale            `json:"grade_scales,omitempty"`
	Remarks        string                  `json:"remarks,omitempty"`
	Rank           string                  `json:"rank,omitempty"`
	Result         string                  `json:"result,omitempty"`
	PromotedTo     string                  `json:"promoted_to,omitempty"`
	// GeneratedOn is printed verbatim in the footer when set.
	GeneratedOn string `json:"generated_on,omitempty"`
}

// ReportCardSchool carries school identity and branding.
type ReportCardSchool struct {
	Name          string `json:"name" validate:"required"`
	Code          string `json:"code" validate:"required"`
	LogoURL       string `json:"logo_url,omitempty"`
	SecondLogoURL string `json:"second_logo_url,omitempty"`
	Address       string `json:"address,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	Website       string `json:"website,omitempty"`
	AffiliationNo string `json:"affiliation_no,omitempty"`
	PrincipalName string `json:"principal_name,omitempty"`
	Instructions  string `json:"instructions,omitempty"`
}

// ReportCardStudent carries student identity fields.
type ReportCardStudent struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name" validate:"required"`
	AdmissionNumber string `json:"admission_number,omitempty"`
	ClassName       string `json:"class_name,omitempty"`
	Section         string `json:"section,omitempty"`
	RollNumber      string `json:"roll_number,omitempty"`
	FatherName      string `json:"father_name,omitempty"`
	MotherName      string `json:"mother_name,omitempty"`
	DateOfBirth     string `json:"date_of_birth,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Address         string `json:"address,omitempty"`
}

// ReportCardExam identifies the exam (or term) the card is printed for.
type ReportCardExam struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name" validate:"required"`
	AcademicYear string `json:"academic_year,omitempty"`
	ResultDate   string `json:"result_date,omitempty"`
}

// SubjectMarks is one subject row of a single-exam report card.
type SubjectMarks struct {
	SubjectID     string   `json:"subject_id,omitempty"`
	SubjectName   string   `json:"subject_name" validate:"required"`
	MarksObtained *float64 `json:"marks_obtained"`
	MaxMarks      float64  `json:"max_marks" validate:"gte=0"`
	Grade         string   `json:"grade,omitempty"`
	Remarks       string   `json:"remarks,omitempty"`
}

// ExamRef is one column group of a multi-exam report card.
type ExamRef struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// ExamMarks is one subject's result within one exam. A nil MarksObtained means absent.
type ExamMarks struct {
	ExamID        string   `json:"exam_id"`
	ExamName      string   `json:"exam_name"`
	MarksObtained *float64 `json:"marks_obtained"`
	MaxMarks      float64  `json:"max_marks"`
	Grade         string   `json:"grade,omitempty"`
}

// MultiExamSubjectMarks aggregates one subject across the exams in ExamsList.
type MultiExamSubjectMarks struct {
	Subject              string      `json:"subject" validate:"required"`
	Exams                []ExamMarks `json:"exams"`
	OverallMaxMarks      float64     `json:"overall_max_marks"`
	OverallMarksObtained *float64    `json:"overall_marks_obtained"`
	OverallGrade         string      `json:"overall_grade,omitempty"`
}

// ReportCardSummary holds precomputed totals.
type ReportCardSummary struct {
	TotalMarks    float64 `json:"total_marks"`
	TotalMaxMarks float64 `json:"total_max_marks"`
	Percentage    float64 `json:"percentage"`
	Grade         string  `json:"grade,omitempty"`
}

// AttendanceSummary is printed as supplied; Percentage is not recomputed.
type AttendanceSummary struct {
	Present    int     `json:"present"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// CoScholasticEntry is a non-academic area with up to two term grades.
type CoScholasticEntry struct {
	Name       string `db:"activity" json:"name"`
	Term1Grade string `db:"term1_grade" json:"term1_grade,omitempty"`
	Term2Grade string `db:"term2_grade" json:"term2_grade,omitempty"`
}

// GradeScale is a caller-defined grade boundary. Either the percentage pair or
// the marks pair is set; marks are read against OutOf (100 when unset).
type GradeScale struct {
	Grade         string   `db:"grade" json:"grade" validate:"required"`
	MinMarks      *float64 `db:"min_marks" json:"min_marks,omitempty"`
	MaxMarks      *float64 `db:"max_marks" json:"max_marks,omitempty"`
	MinPercentage *float64 `db:"min_percentage" json:"min_percentage,omitempty"`
	MaxPercentage *float64 `db:"max_percentage" json:"max_percentage,omitempty"`
	OutOf         *float64 `db:"out_of" json:"out_of,omitempty"`
	Remark        string   `db:"remark" json:"remark,omitempty"`
}

// IsMultiExam reports whether the term-wise layout applies.
func (d *ReportCardData) IsMultiExam() bool {
	return d != nil && len(d.ExamsList) > 1 && len(d.MultiExamMarks) > 0
}
