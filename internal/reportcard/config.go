package reportcard

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/noah-isme/sma-reportcard-api/internal/models"
)

const (
	defaultHeaderBackground = "#1e3a8a"
	defaultHeaderText       = "#ffffff"
	defaultAccent           = "#1e3a8a"
	defaultFontFamily       = "Arial, Helvetica, sans-serif"
	defaultTableHeaderBg    = "#f3f4f6"
	defaultTableHeaderText  = "#111827"

	defaultLogoSize    = 80
	minLogoSize        = 16
	maxLogoSize        = 400
	defaultNameSize    = 24
	minNameSize        = 12
	maxNameSize        = 48
	defaultBodySize    = 12
	minBodySize        = 8
	maxBodySize        = 18
	defaultWmOpacity   = 0.08
	minWmOpacity       = 0.02
	maxWmOpacity       = 0.3
	defaultWmSize      = 300
	minWmSize          = 80
	maxWmSize          = 420
	densityCompact     = "compact"
	densityComfortable = "comfortable"
)

var (
	hexColorPattern   = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	namedColorPattern = regexp.MustCompile(`^[a-zA-Z]{3,20}$`)
	fontFamilyPattern = regexp.MustCompile(`^[A-Za-z0-9 ,'-]{1,80}$`)
)

type sectionFlags struct {
	profile      bool
	marksTable   bool
	attendance   bool
	coScholastic bool
	remarks      bool
	instructions bool
	gradingScale bool
}

// resolvedConfig is the template config with every default applied.
type resolvedConfig struct {
	showLogo      bool
	logoURL       string
	secondLogoURL string
	logoWidth     int
	logoHeight    int
	logoRadius    string

	headerBackground string
	headerText       string
	accent           string
	fontFamily       string
	schoolNameSize   int
	bodySize         int
	showAffiliation  bool
	showContact      bool

	address      string
	phone        string
	email        string
	website      string
	instructions string

	sections sectionFlags
	labels   map[string]string

	cellPadding     int
	tableHeaderBg   string
	tableHeaderText string
	stripedRows     bool

	showWatermark    bool
	watermarkOpacity float64
	watermarkSize    int

	signClassTeacher bool
	signPrincipal    bool
	signParent       bool
}

// resolveConfig applies config value, then school record, then hard default.
func resolveConfig(cfg *models.ReportCardTemplateConfig, school *models.ReportCardSchool) resolvedConfig {
	if cfg == nil {
		cfg = &models.ReportCardTemplateConfig{}
	}
	logo := orZero(cfg.Logo)
	header := orZero(cfg.Header)
	contact := orZero(cfg.Contact)
	sections := orZero(cfg.Sections)
	table := orZero(cfg.Table)
	watermark := orZero(cfg.Watermark)
	signatures := orZero(cfg.Signatures)

	rc := resolvedConfig{
		showLogo:         boolOr(logo.Show, true),
		logoURL:          safeURL(firstNonEmpty(logo.URL, school.LogoURL)),
		logoWidth:        clampInt(intOr(logo.Width, defaultLogoSize), minLogoSize, maxLogoSize),
		logoHeight:       clampInt(intOr(logo.Height, defaultLogoSize), minLogoSize, maxLogoSize),
		logoRadius:       logoRadius(logo.Shape),
		headerBackground: safeColor(header.BackgroundColor, defaultHeaderBackground),
		headerText:       safeColor(header.TextColor, defaultHeaderText),
		accent:           safeColor(header.AccentColor, defaultAccent),
		fontFamily:       safeFont(header.FontFamily),
		schoolNameSize:   clampInt(intOr(header.SchoolNameFontSize, defaultNameSize), minNameSize, maxNameSize),
		bodySize:         clampInt(intOr(header.BodyFontSize, defaultBodySize), minBodySize, maxBodySize),
		showAffiliation:  boolOr(header.ShowAffiliation, true),
		showContact:      boolOr(header.ShowContact, true),
		address:          firstNonEmpty(contact.Address, school.Address),
		phone:            firstNonEmpty(contact.Phone, school.Phone),
		email:            firstNonEmpty(contact.Email, school.Email),
		website:          firstNonEmpty(contact.Website, school.Website),
		instructions:     firstNonEmpty(contact.Instructions, school.Instructions),
		sections: sectionFlags{
			profile:      boolOr(sections.ShowProfile, true),
			marksTable:   boolOr(sections.ShowMarksTable, true),
			attendance:   boolOr(sections.ShowAttendance, true),
			coScholastic: boolOr(sections.ShowCoScholastic, true),
			remarks:      boolOr(sections.ShowRemarks, true),
			instructions: boolOr(sections.ShowInstructions, true),
			gradingScale: boolOr(sections.ShowGradingScale, true),
		},
		labels:           cfg.Labels,
		cellPadding:      densityPadding(table.Density),
		tableHeaderBg:    safeColor(table.HeaderBackground, defaultTableHeaderBg),
		tableHeaderText:  safeColor(table.HeaderTextColor, defaultTableHeaderText),
		stripedRows:      boolOr(table.StripedRows, true),
		watermarkOpacity: clampFloat(floatOr(watermark.Opacity, defaultWmOpacity), minWmOpacity, maxWmOpacity),
		watermarkSize:    clampInt(intOr(watermark.Size, defaultWmSize), minWmSize, maxWmSize),
		signClassTeacher: boolOr(signatures.ShowClassTeacher, true),
		signPrincipal:    boolOr(signatures.ShowPrincipal, true),
		signParent:       boolOr(signatures.ShowParent, true),
	}
	if boolOr(logo.ShowSecondary, true) {
		rc.secondLogoURL = safeURL(firstNonEmpty(logo.SecondURL, school.SecondLogoURL))
	}
	rc.showWatermark = rc.logoURL != "" && boolOr(watermark.Show, true)
	return rc
}

// label returns the caller override for key, falling back to the default text.
func (rc resolvedConfig) label(key string) string {
	if override := strings.TrimSpace(rc.labels[key]); override != "" {
		return override
	}
	if text, ok := defaultLabels[key]; ok {
		return text
	}
	return key
}

func densityPadding(density string) int {
	switch strings.ToLower(strings.TrimSpace(density)) {
	case densityCompact:
		return 3
	case densityComfortable:
		return 9
	default:
		return 6
	}
}

func logoRadius(shape string) string {
	switch strings.ToLower(strings.TrimSpace(shape)) {
	case "circle":
		return "50%"
	case "rounded":
		return "8px"
	default:
		return "0"
	}
}

func safeColor(value, fallback string) string {
	value = strings.TrimSpace(value)
	if hexColorPattern.MatchString(value) || namedColorPattern.MatchString(value) {
		return value
	}
	return fallback
}

func safeFont(value string) string {
	value = strings.TrimSpace(value)
	if fontFamilyPattern.MatchString(value) {
		return value
	}
	return defaultFontFamily
}

// safeURL accepts absolute http(s) URLs, root-relative paths and inline
// images. Anything else is dropped.
func safeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "data:image/") {
		return raw
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return raw
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func orZero[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
