package handlers

import (
	"net/http"

	"lockbox/services/chat"
	"lockbox/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler struct {
	Registry *chat.Registry
}

// StreamHandler holds a server-sent event stream open for the caller and
// forwards chat events delivered to their registry connection.
func (h *ChatHandler) StreamHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if h.Registry == nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "chat unavailable", "")
		return
	}

	conn := h.Registry.Register(actor.UserID)
	defer h.Registry.Unregister(conn)
	getLogger(c).Debug("Chat stream opened", zap.String("conn_id", conn.ID))

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case ev, open := <-conn.Events:
			if !open {
				return
			}
			c.SSEvent(ev.Type, ev)
			c.Writer.Flush()
		}
	}
}
