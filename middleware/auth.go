package middleware

import (
	"net/http"
	"strings"

	"lockbox/models"
	"lockbox/utils"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// JWTAuthMiddleware turns the bearer token into the request's Actor.
func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "missing or invalid Authorization header", "")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		actor, err := utils.ActorFromToken(secret, tokenString)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "invalid token", err.Error())
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the Actor set by JWTAuthMiddleware.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}
