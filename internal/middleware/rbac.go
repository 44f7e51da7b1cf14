package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
	"github.com/noah-isme/sma-academic-core/pkg/response"
)

// RequireCapability allows the request when the caller's role grants capability.
func RequireCapability(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if !claims.Can(capability) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "missing capability "+string(capability)))
			return
		}
		c.Next()
	}
}

// StudentSelfOnly limits STUDENT callers to resources whose path parameter
// equals their own user id. Other roles pass through.
func StudentSelfOnly(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if claims.IsStudent() && c.Param(param) != claims.UserID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "students may only read their own records"))
			return
		}
		c.Next()
	}
}
