package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-reportcard-api/internal/models"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
	"github.com/noah-isme/sma-reportcard-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextCapabilitiesKey stores the capabilities derived from the claims.
	ContextCapabilitiesKey = "capabilities"
)

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token. Capabilities are
// derived once here and read by handlers through Capabilities.
func JWT(tokens tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextCapabilitiesKey, models.CapabilitiesFromClaims(claims))
		c.Next()
	}
}

// Capabilities returns what the authenticated caller may do. It falls back to
// deriving them from stored claims and reports false for anonymous requests.
func Capabilities(c *gin.Context) (models.Capabilities, bool) {
	if value, exists := c.Get(ContextCapabilitiesKey); exists {
		if caps, ok := value.(models.Capabilities); ok {
			return caps, true
		}
	}
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return models.Capabilities{}, false
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok || claims == nil {
		return models.Capabilities{}, false
	}
	return models.CapabilitiesFromClaims(claims), true
}
