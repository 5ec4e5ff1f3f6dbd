package handlers

import (
	"net/http"
	"strconv"

	"lockbox/middleware"
	"lockbox/models"
	"lockbox/services/booking"
	"lockbox/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	Svc booking.BookingService
}

// actorOrAbort fetches the caller set by the auth middleware.
func actorOrAbort(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", "")
	}
	return actor, ok
}

// CheckAvailabilityHandler answers GET /api/booking/availability?listingId&startDate&endDate.
func (h *BookingHandler) CheckAvailabilityHandler(c *gin.Context) {
	start, err := booking.ParseDate(c.Query("startDate"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid startDate", err.Error())
		return
	}
	end, err := booking.ParseDate(c.Query("endDate"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid endDate", err.Error())
		return
	}

	result, err := h.Svc.CheckAvailability(c.Request.Context(), booking.AvailabilityQuery{
		ListingID: c.Query("listingId"),
		Start:     start,
		End:       end,
		Hold:      models.HoldRequested,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) RequestBookingHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var input booking.RequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	b, err := h.Svc.RequestBooking(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Booking requested", zap.String("booking_id", b.ID), zap.String("listing_id", b.ListingID))
	c.JSON(http.StatusCreated, b)
}

// UpdateStatusHandler records the host's approve/reject decision.
func (h *BookingHandler) UpdateStatusHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var input struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	b, err := h.Svc.UpdateStatus(c.Request.Context(), actor, c.Param("id"), models.BookingStatus(input.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) FileDisputeHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var input booking.DisputeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	input.BookingID = c.Param("id")

	d, err := h.Svc.FileDispute(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *BookingHandler) FileCheckInHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var input booking.CheckInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	input.BookingID = c.Param("id")

	ci, err := h.Svc.FileCheckIn(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ci)
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	b, err := h.Svc.GetBooking(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ListBookingsHandler pages the caller's bookings from one side of the deal.
func (h *BookingHandler) ListBookingsHandler(as models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorOrAbort(c)
		if !ok {
			return
		}
		page, limit := pageParams(c)
		bookings, pagination, err := h.Svc.ListBookings(c.Request.Context(), actor, booking.ListQuery{
			As:    as,
			Type:  c.Query("type"),
			Page:  page,
			Limit: limit,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bookings": bookings, "pagination": pagination})
	}
}

func (h *BookingHandler) ListDisputesHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	disputes, err := h.Svc.ListDisputes(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

func (h *BookingHandler) ListCheckInsHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	checkIns, err := h.Svc.ListCheckIns(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkIns": checkIns})
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
