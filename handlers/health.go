package handlers

import (
	"net/http"

	"lockbox/utils"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	Monitor *utils.HealthMonitor
}

// HealthCheckHandler reports the last stored dependency snapshot.
func (h *HealthHandler) HealthCheckHandler(c *gin.Context) {
	if h.Monitor == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Lockbox"})
		return
	}
	status := h.Monitor.Status()
	code := http.StatusOK
	state := "ok"
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(code, gin.H{"status": state, "services": status.Services, "checkedAt": status.CheckedAt})
}
