package handlers

import (
	"lockbox/middleware"
	"lockbox/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	loggerKey       = "logger"
	requestIDHeader = "X-Request-ID"
)

// getLogger returns the request's logger, built once and tagged with the
// request id, the route, the path id and the caller.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get(loggerKey); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}

	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	logger := utils.ServiceLogger("http").With(
		zap.String("request_id", requestID),
		zap.String("route", c.FullPath()),
	)
	if id := c.Param("id"); id != "" {
		logger = logger.With(zap.String("id", id))
	}
	if actor, ok := middleware.ActorFrom(c); ok {
		logger = logger.With(zap.String("user_id", actor.UserID), zap.String("role", string(actor.Role)))
	}
	c.Set(loggerKey, logger)
	return logger
}
