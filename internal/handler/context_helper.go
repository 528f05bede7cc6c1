package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-reportcard-api/internal/middleware"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
	"github.com/noah-isme/sma-reportcard-api/pkg/response"
)

// capabilitiesOrAbort returns the caller's capabilities, answering 401 when
// the request carries no identity.
func capabilitiesOrAbort(c *gin.Context) (models.Capabilities, bool) {
	caps, ok := middleware.Capabilities(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Capabilities{}, false
	}
	return caps, true
}

// splitQueryList accepts both repeated parameters and comma separated values.
func splitQueryList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
