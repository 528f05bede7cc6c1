package models

import "time"

// Student is an enrolled learner together with the class they belong to.
type Student struct {
	ID              string     `db:"id" json:"id"`
	SchoolID        string     `db:"school_id" json:"school_id"`
	ClassID         string     `db:"class_id" json:"class_id"`
	ClassName       string     `db:"class_name" json:"class_name"`
	Section         string     `db:"section" json:"section,omitempty"`
	FullName        string     `db:"full_name" json:"full_name"`
	AdmissionNumber string     `db:"admission_number" json:"admission_number"`
	RollNumber      string     `db:"roll_number" json:"roll_number,omitempty"`
	FatherName      string     `db:"father_name" json:"father_name,omitempty"`
	MotherName      string     `db:"mother_name" json:"mother_name,omitempty"`
	DateOfBirth     *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Phone           string     `db:"phone" json:"phone,omitempty"`
	Address         string     `db:"address" json:"address,omitempty"`
}

// ReportCard converts the row into composer input.
func (s *Student) ReportCard() *ReportCardStudent {
	if s == nil {
		return nil
	}
	out := &ReportCardStudent{
		ID:              s.ID,
		Name:            s.FullName,
		AdmissionNumber: s.AdmissionNumber,
		ClassName:       s.ClassName,
		Section:         s.Section,
		RollNumber:      s.RollNumber,
		FatherName:      s.FatherName,
		MotherName:      s.MotherName,
		Phone:           s.Phone,
		Address:         s.Address,
	}
	if s.DateOfBirth != nil {
		out.DateOfBirth = s.DateOfBirth.Format("02 Jan 2006")
	}
	return out
}
