package models

import "time"

// School is a tenant row with its report card branding.
type School struct {
	ID            string `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Code          string `db:"code" json:"code"`
	LogoURL       string `db:"logo_url" json:"logo_url,omitempty"`
	SecondLogoURL string `db:"second_logo_url" json:"second_logo_url,omitempty"`
	Address       string `db:"address" json:"address,omitempty"`
	Phone         string `db:"phone" json:"phone,omitempty"`
	Email         string `db:"email" json:"email,omitempty"`
	Website       string `db:"website" json:"website,omitempty"`
	AffiliationNo string `db:"affiliation_no" json:"affiliation_no,omitempty"`
	PrincipalName string `db:"principal_name" json:"principal_name,omitempty"`
	Instructions  string `db:"instructions" json:"instructions,omitempty"`
}

// ReportCard converts the row into composer input.
func (s *School) ReportCard() *ReportCardSchool {
	if s == nil {
		return nil
	}
	return &ReportCardSchool{
		Name:          s.Name,
		Code:          s.Code,
		LogoURL:       s.LogoURL,
		SecondLogoURL: s.SecondLogoURL,
		Address:       s.Address,
		Phone:         s.Phone,
		Email:         s.Email,
		Website:       s.Website,
		AffiliationNo: s.AffiliationNo,
		PrincipalName: s.PrincipalName,
		Instructions:  s.Instructions,
	}
}

// StoredTemplate is a school's persisted template configuration.
type StoredTemplate struct {
	SchoolID  string                   `db:"school_id" json:"school_id"`
	Config    ReportCardTemplateConfig `db:"config" json:"config"`
	UpdatedBy string                   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time                `db:"updated_at" json:"updated_at"`
}
