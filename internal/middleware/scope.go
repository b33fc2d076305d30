package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siak-warlock/internal/models"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
	"github.com/noah-isme/siak-warlock/pkg/response"
)

// RequireScope enforces that the token attached by JWT grants scope.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok || !claims.HasScope(scope) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "token lacks scope "+scope))
			c.Abort()
			return
		}
		c.Next()
	}
}
