package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meeting-room-backend/internal/booking"
	"meeting-room-backend/internal/model"
	"meeting-room-backend/internal/mw"
	"meeting-room-backend/internal/parse"
)

type createBookingRequest struct {
	RoomID    int64  `json:"room_id" binding:"required,min=1"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

type updateBookingRequest struct {
	StartTime *string              `json:"start_time"`
	EndTime   *string              `json:"end_time"`
	Status    *model.BookingStatus `json:"status"`
}

// ListMyBookings handles GET /api/v1/bookings.
func (h *Handler) ListMyBookings(c *gin.Context) {
	bookings, err := h.store.ListUserBookings(c.Request.Context(), mw.CurrentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.presentAll(bookings))
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *Handler) GetBooking(c *gin.Context) {
	h.getBooking(c, requester(c))
}

// CreateBooking handles POST /api/v1/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := parse.Timestamp(req.StartTime, h.loc)
	if err != nil {
		badRequest(c, "start_time: "+err.Error())
		return
	}
	end, err := parse.Timestamp(req.EndTime, h.loc)
	if err != nil {
		badRequest(c, "end_time: "+err.Error())
		return
	}

	b, err := h.resolver.ProposeBooking(c.Request.Context(), booking.Proposal{
		RoomID:  req.RoomID,
		OwnerID: mw.CurrentUser(c).ID,
		Start:   start,
		End:     end,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.present(*b))
}

// UpdateBooking handles PUT /api/v1/bookings/:id. A status of "cancelled"
// cancels the booking; times and cancellation cannot be combined.
func (h *Handler) UpdateBooking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	by := requester(c)
	if req.Status != nil {
		switch *req.Status {
		case model.BookingStatusCancelled:
			if req.StartTime != nil || req.EndTime != nil {
				badRequest(c, "cannot reschedule and cancel in one request")
				return
			}
			b, err := h.resolver.Cancel(c.Request.Context(), id, by)
			if err != nil {
				h.respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, h.present(*b))
			return
		case model.BookingStatusConfirmed:
			// Confirmed is the only state a reschedule may leave a booking in.
		default:
			badRequest(c, "status must be confirmed or cancelled")
			return
		}
	}

	start, err := parse.OptionalTimestamp(req.StartTime, h.loc)
	if err != nil {
		badRequest(c, "start_time: "+err.Error())
		return
	}
	end, err := parse.OptionalTimestamp(req.EndTime, h.loc)
	if err != nil {
		badRequest(c, "end_time: "+err.Error())
		return
	}

	b, err := h.resolver.ProposeUpdate(c.Request.Context(), booking.Reschedule{
		BookingID: id,
		By:        by,
		Start:     start,
		End:       end,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if req.Status != nil && !b.IsConfirmed() {
		h.respondError(c, booking.ErrBookingCancelled)
		return
	}
	c.JSON(http.StatusOK, h.present(*b))
}

// CancelBooking handles DELETE /api/v1/bookings/:id.
func (h *Handler) CancelBooking(c *gin.Context) {
	h.cancelBooking(c, requester(c), "Booking cancelled successfully")
}

func (h *Handler) getBooking(c *gin.Context, by booking.Requester) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	b, err := h.resolver.Lookup(c.Request.Context(), id, by)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.present(*b))
}

func (h *Handler) cancelBooking(c *gin.Context, by booking.Requester, msg string) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.resolver.Cancel(c.Request.Context(), id, by); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "booking_id": id})
}
