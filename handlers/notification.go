package handlers

import (
	"errors"
	"net/http"

	notificationRepo "lockbox/database/repository/notification"
	"lockbox/services/notification"
	"lockbox/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	Svc notification.NotificationService
}

func (h *NotificationHandler) ListNotificationsHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)
	items, pagination, err := h.Svc.List(c.Request.Context(), actor.UserID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "pagination": pagination})
}

func (h *NotificationHandler) MarkReadHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.Svc.MarkRead(c.Request.Context(), actor.UserID, c.Param("id")); err != nil {
		if errors.Is(err, notificationRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "not found", err.Error())
			return
		}
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
