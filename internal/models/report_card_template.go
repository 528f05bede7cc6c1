package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ReportCardTemplateConfig controls report card rendering only. Every field is
// optional; the composer resolves missing values to documented defaults.
type ReportCardTemplateConfig struct {
	Logo       *TemplateLogo       `json:"logo,omitempty"`
	Header     *TemplateHeader     `json:"header,omitempty"`
	Contact    *TemplateContact    `json:"contact,omitempty"`
	Sections   *TemplateSections   `json:"sections,omitempty"`
	Labels     map[string]string   `json:"labels,omitempty"`
	Table      *TemplateTable      `json:"table,omitempty"`
	Watermark  *TemplateWatermark  `json:"watermark,omitempty"`
	Signatures *TemplateSignatures `json:"signatures,omitempty"`
}

// TemplateLogo sizes and shapes the header logos.
type TemplateLogo struct {
	Show          *bool  `json:"show,omitempty"`
	URL           string `json:"url,omitempty"`
	SecondURL     string `json:"second_url,omitempty"`
	Width         *int   `json:"width,omitempty" validate:"omitempty,min=16,max=400"`
	Height        *int   `json:"height,omitempty" validate:"omitempty,min=16,max=400"`
	Shape         string `json:"shape,omitempty" validate:"omitempty,oneof=circle square rounded"`
	ShowSecondary *bool  `json:"show_secondary,omitempty"`
}

// TemplateHeader themes the school banner.
type TemplateHeader struct {
	BackgroundColor    string `json:"background_color,omitempty"`
	TextColor          string `json:"text_color,omitempty"`
	AccentColor        string `json:"accent_color,omitempty"`
	FontFamily         string `json:"font_family,omitempty"`
	SchoolNameFontSize *int   `json:"school_name_font_size,omitempty" validate:"omitempty,min=12,max=48"`
	BodyFontSize       *int   `json:"body_font_size,omitempty" validate:"omitempty,min=8,max=18"`
	ShowAffiliation    *bool  `json:"show_affiliation,omitempty"`
	ShowContact        *bool  `json:"show_contact,omitempty"`
}

// TemplateContact overrides the school record's contact details.
type TemplateContact struct {
	Address      string `json:"address,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Website      string `json:"website,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// TemplateSections toggles optional sections. Nil means shown.
type TemplateSections struct {
	ShowProfile      *bool `json:"show_profile,omitempty"`
	ShowMarksTable   *bool `json:"show_marks_table,omitempty"`
	ShowAttendance   *bool `json:"show_attendance,omitempty"`
	ShowCoScholastic *bool `json:"show_co_scholastic,omitempty"`
	ShowRemarks      *bool `json:"show_remarks,omitempty"`
	ShowInstructions *bool `json:"show_instructions,omitempty"`
	ShowGradingScale *bool `json:"show_grading_scale,omitempty"`
}

// TemplateTable tunes the marks tables.
type TemplateTable struct {
	Density          string `json:"density,omitempty" validate:"omitempty,oneof=compact normal comfortable"`
	HeaderBackground string `json:"header_background,omitempty"`
	HeaderTextColor  string `json:"header_text_color,omitempty"`
	StripedRows      *bool  `json:"striped_rows,omitempty"`
}

// TemplateWatermark configures the faded logo behind the page.
type TemplateWatermark struct {
	Show    *bool    `json:"show,omitempty"`
	Opacity *float64 `json:"opacity,omitempty" validate:"omitempty,gte=0,lte=1"`
	Size    *int     `json:"size,omitempty" validate:"omitempty,gte=0"`
}

// TemplateSignatures toggles signature blocks.
type TemplateSignatures struct {
	ShowClassTeacher *bool `json:"show_class_teacher,omitempty"`
	ShowPrincipal    *bool `json:"show_principal,omitempty"`
	ShowParent       *bool `json:"show_parent,omitempty"`
}

// Value marshals the config for JSONB persistence.
func (c ReportCardTemplateConfig) Value() (driver.Value, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal report card template: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload.
func (c *ReportCardTemplateConfig) Scan(value interface{}) error {
	if value == nil {
		*c = ReportCardTemplateConfig{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ReportCardTemplateConfig", value)
	}
	if len(data) == 0 {
		*c = ReportCardTemplateConfig{}
		return nil
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("unmarshal report card template: %w", err)
	}
	return nil
}
