package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-reportcard-api/internal/models"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", "sma-platform")
	token, err := svc.Issue(models.JWTClaims{UserID: "u1", Role: models.RoleTeacher, SchoolID: "school-1"}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "school-1", claims.SchoolID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService("secret", "")

	expired, err := svc.Issue(models.JWTClaims{UserID: "u1", Role: models.RoleAdmin, SchoolID: "s"}, -time.Minute)
	require.NoError(t, err)
	noSchool, err := svc.Issue(models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	badRole, err := svc.Issue(models.JWTClaims{UserID: "u1", Role: "JANITOR", SchoolID: "s"}, time.Hour)
	require.NoError(t, err)
	otherKey, err := NewTokenService("other", "").Issue(models.JWTClaims{UserID: "u1", Role: models.RoleAdmin, SchoolID: "s"}, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin, SchoolID: "s"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired": expired, "no school": noSchool, "bad role": badRole, "wrong key": otherKey, "alg none": none, "garbage": "abc",
	} {
		_, err := svc.ValidateToken(token)
		require.Error(t, err, name)
		assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code, name)
	}
}

func TestTokenServiceSuperAdminWithoutSchool(t *testing.T) {
	svc := NewTokenService("secret", "")
	token, err := svc.Issue(models.JWTClaims{UserID: "root", Role: models.RoleSuperAdmin}, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.NoError(t, err)
}
