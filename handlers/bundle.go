package handlers

import (
	"lockbox/services/booking"
	"lockbox/services/chat"
	"lockbox/services/notification"
	"lockbox/utils"
)

// HandlerBundle groups the endpoint handlers the router mounts.
type HandlerBundle struct {
	Booking      *BookingHandler
	Notification *NotificationHandler
	Chat         *ChatHandler
	Health       *HealthHandler
	JWTSecret    []byte
}

func NewHandlerBundle(svc booking.BookingService, notes notification.NotificationService, registry *chat.Registry, health *utils.HealthMonitor, secret []byte) *HandlerBundle {
	return &HandlerBundle{
		Booking:      &BookingHandler{Svc: svc},
		Notification: &NotificationHandler{Svc: notes},
		Chat:         &ChatHandler{Registry: registry},
		Health:       &HealthHandler{Monitor: health},
		JWTSecret:    secret,
	}
}
