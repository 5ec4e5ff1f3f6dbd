package handlers

import (
	"errors"
	"net/http"

	"lockbox/services/booking"
	"lockbox/services/payment"
	"lockbox/utils"

	"github.com/gin-gonic/gin"
)

// statusOf maps service errors onto HTTP status codes and a short message.
func statusOf(err error) (int, string) {
	var gatewayErr *payment.GatewayError
	switch {
	case errors.Is(err, booking.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, booking.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, booking.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, payment.ErrPaymentDeclined):
		return http.StatusPaymentRequired, "payment declined"
	case errors.As(err, &gatewayErr):
		return http.StatusBadGateway, "payment gateway unavailable"
	}
	return http.StatusInternalServerError, "internal error"
}

func respondError(c *gin.Context, err error) {
	status, message := statusOf(err)
	utils.JSONError(c, status, message, err.Error())
}
