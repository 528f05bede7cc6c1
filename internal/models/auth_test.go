package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilitiesFromClaims(t *testing.T) {
	admin := CapabilitiesFromClaims(&JWTClaims{UserID: "u1", Role: RoleAdmin, SchoolID: "s1"})
	assert.True(t, admin.ManageTemplates)
	assert.True(t, admin.RunBatches)
	assert.True(t, admin.CanViewStudent("any"))

	teacher := CapabilitiesFromClaims(&JWTClaims{UserID: "u2", Role: RoleTeacher, SchoolID: "s1"})
	assert.True(t, teacher.ViewDashboard)
	assert.False(t, teacher.ManageTemplates)
	assert.False(t, teacher.RunBatches)

	student := CapabilitiesFromClaims(&JWTClaims{UserID: "u3", Role: RoleStudent, SchoolID: "s1", StudentID: "st-1"})
	assert.True(t, student.CanViewStudent("st-1"))
	assert.False(t, student.CanViewStudent("st-2"))
	assert.False(t, student.ViewDashboard)

	assert.Equal(t, Capabilities{}, CapabilitiesFromClaims(nil))
}

func TestCapabilitiesSameSchool(t *testing.T) {
	caps := Capabilities{Role: RoleAdmin, SchoolID: "s1"}
	assert.True(t, caps.SameSchool("s1"))
	assert.False(t, caps.SameSchool("s2"))
	assert.False(t, Capabilities{Role: RoleAdmin}.SameSchool(""))
	assert.True(t, Capabilities{Role: RoleSuperAdmin}.SameSchool("s2"))
}

func TestBatchParamsScan(t *testing.T) {
	var p BatchParams
	assert.NoError(t, p.Scan([]byte(`{"examIds":["e1","e2"],"format":"pdf"}`)))
	assert.Equal(t, []string{"e1", "e2"}, p.ExamIDs)
	assert.Equal(t, ReportFormatPDF, p.Format)

	assert.NoError(t, p.Scan(nil))
	assert.Empty(t, p.ExamIDs)
	assert.Error(t, p.Scan(42))

	raw, err := BatchParams{Format: ReportFormatHTML}.Value()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"examIds":[],"format":"html"}`, string(raw.([]byte)))
}
