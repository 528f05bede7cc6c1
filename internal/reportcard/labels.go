package reportcard

// Label keys accepted in ReportCardTemplateConfig.Labels.
const (
	LabelTitle               = "title"
	LabelAffiliation         = "affiliation_no"
	LabelAcademicYear        = "academic_year"
	LabelResultDate          = "result_date"
	LabelProfile             = "student_profile"
	LabelStudentName         = "student_name"
	LabelAdmissionNumber     = "admission_number"
	LabelClass               = "class"
	LabelSection             = "section"
	LabelRollNumber          = "roll_number"
	LabelFatherName          = "father_name"
	LabelMotherName          = "mother_name"
	LabelDateOfBirth         = "date_of_birth"
	LabelPhone               = "phone"
	LabelEmail               = "email"
	LabelWebsite             = "website"
	LabelAddress             = "address"
	LabelAcademicPerformance = "academic_performance"
	LabelSerial              = "serial"
	LabelSubject             = "subject"
	LabelMaxMarks            = "max_marks"
	LabelMarksObtained       = "marks_obtained"
	LabelMarks               = "marks"
	LabelPercentage          = "percentage"
	LabelGrade               = "grade"
	LabelOverall             = "overall"
	LabelTotal               = "total"
	LabelAbsent              = "absent"
	LabelAttendance          = "attendance"
	LabelDaysPresent         = "days_present"
	LabelCoScholastic        = "co_scholastic"
	LabelActivity            = "activity"
	LabelTerm1               = "term1"
	LabelTerm2               = "term2"
	LabelRemarks             = "remarks"
	LabelResult              = "result"
	LabelRank                = "rank"
	LabelPromotedTo          = "promoted_to"
	LabelClassTeacherSign    = "class_teacher_signature"
	LabelPrincipalSign       = "principal_signature"
	LabelParentSign          = "parent_signature"
	LabelGradingScale        = "grading_scale"
	LabelRange               = "range"
	LabelInstructions        = "instructions"
	LabelGeneratedOn         = "generated_on"
)

var defaultLabels = map[string]string{
	LabelTitle:               "Report Card",
	LabelAffiliation:         "Affiliation No.",
	LabelAcademicYear:        "Academic Year",
	LabelResultDate:          "Result Date",
	LabelProfile:             "Student Profile",
	LabelStudentName:         "Student Name",
	LabelAdmissionNumber:     "Admission No.",
	LabelClass:               "Class",
	LabelSection:             "Section",
	LabelRollNumber:          "Roll No.",
	LabelFatherName:          "Father's Name",
	LabelMotherName:          "Mother's Name",
	LabelDateOfBirth:         "Date of Birth",
	LabelPhone:               "Phone",
	LabelEmail:               "Email",
	LabelWebsite:             "Website",
	LabelAddress:             "Address",
	LabelAcademicPerformance: "Academic Performance",
	LabelSerial:              "#",
	LabelSubject:             "Subject",
	LabelMaxMarks:            "Max Marks",
	LabelMarksObtained:       "Marks Obtained",
	LabelMarks:               "Marks",
	LabelPercentage:          "Percentage",
	LabelGrade:               "Grade",
	LabelOverall:             "Overall",
	LabelTotal:               "Total",
	LabelAbsent:              "AB",
	LabelAttendance:          "Attendance",
	LabelDaysPresent:         "Days Present",
	LabelCoScholastic:        "Co-Scholastic Areas",
	LabelActivity:            "Activity",
	LabelTerm1:               "Term 1",
	LabelTerm2:               "Term 2",
	LabelRemarks:             "Remarks",
	LabelResult:              "Result",
	LabelRank:                "Rank",
	LabelPromotedTo:          "Promoted To",
	LabelClassTeacherSign:    "Class Teacher",
	LabelPrincipalSign:       "Principal",
	LabelParentSign:          "Parent / Guardian",
	LabelGradingScale:        "Grading Scale",
	LabelRange:               "Range (%)",
	LabelInstructions:        "Instructions",
	LabelGeneratedOn:         "Generated on",
}
