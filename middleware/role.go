package middleware

import (
	"net/http"

	"lockbox/models"
	"lockbox/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole rejects callers whose token was not issued for role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "authentication required", "")
			return
		}
		if actor.Role != role {
			utils.JSONError(c, http.StatusForbidden, "forbidden", "this action requires the "+string(role)+" role")
			return
		}
		c.Next()
	}
}
