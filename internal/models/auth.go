package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the JWT payload for access tokens.
// SchoolID scopes every request to one tenant; StudentID is set for student accounts.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	SchoolID  string   `json:"school_id"`
	StudentID string   `json:"student_id,omitempty"`
	Email     string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Capabilities is what the caller may do, derived once from the token claims.
type Capabilities struct {
	ActorID   string
	Role      UserRole
	SchoolID  string
	StudentID string

	ViewAnyStudent  bool
	ManageTemplates bool
	ViewDashboard   bool
	RunBatches      bool
}

// CapabilitiesFromClaims maps a role onto its report-card permissions.
func CapabilitiesFromClaims(claims *JWTClaims) Capabilities {
	if claims == nil {
		return Capabilities{}
	}
	caps := Capabilities{
		ActorID:   claims.UserID,
		Role:      claims.Role,
		SchoolID:  claims.SchoolID,
		StudentID: claims.StudentID,
	}
	switch claims.Role {
	case RoleSuperAdmin, RoleAdmin:
		caps.ViewAnyStudent = true
		caps.ManageTemplates = true
		caps.ViewDashboard = true
		caps.RunBatches = true
	case RoleTeacher:
		caps.ViewAnyStudent = true
		caps.ViewDashboard = true
	}
	return caps
}

// CanViewStudent reports whether the caller may read studentID's report card.
func (c Capabilities) CanViewStudent(studentID string) bool {
	if c.ViewAnyStudent {
		return true
	}
	return c.Role == RoleStudent && c.StudentID != "" && c.StudentID == studentID
}

// SameSchool reports whether schoolID is the caller's tenant. Super admins span tenants.
func (c Capabilities) SameSchool(schoolID string) bool {
	if c.Role == RoleSuperAdmin {
		return true
	}
	return c.SchoolID != "" && c.SchoolID == schoolID
}
