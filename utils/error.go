package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed API call. Error is the short
// message, Code the stable failure class clients switch on.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// ErrorCode names the failure class behind an HTTP status.
func ErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusPaymentRequired:
		return "payment_declined"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusBadGateway:
		return "gateway_unavailable"
	case http.StatusServiceUnavailable:
		return "unavailable"
	}
	return "internal"
}

// ErrorHandler turns a panicking handler into a 500 and logs the route and
// resource it was serving.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				GetLogger().Error("handler panicked",
					zap.Any("panic", rec),
					zap.String("method", c.Request.Method),
					zap.String("route", c.FullPath()),
					zap.String("id", c.Param("id")),
					zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error: "internal error",
					Code:  ErrorCode(http.StatusInternalServerError),
				})
			}
		}()
		c.Next()
	}
}

// JSONError aborts the request with an ErrorResponse. Server-side failures
// log at error level, caller mistakes at debug.
func JSONError(c *gin.Context, status int, message string, details string) {
	fields := []zap.Field{zap.Int("status", status), zap.String("route", c.FullPath())}
	if id := c.Param("id"); id != "" {
		fields = append(fields, zap.String("id", id))
	}
	if details != "" {
		fields = append(fields, zap.String("details", details))
	}
	if status >= http.StatusInternalServerError {
		GetLogger().Error(message, fields...)
	} else {
		GetLogger().Debug(message, fields...)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: ErrorCode(status), Details: details})
}
