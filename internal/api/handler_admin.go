package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meeting-room-backend/internal/parse"
	"meeting-room-backend/internal/store"
)

// AdminListBookings handles GET /api/v1/admin/bookings with optional
// room_id, start_date and end_date filters on the start time.
func (h *Handler) AdminListBookings(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	filter := store.BookingFilter{Page: page}

	if v := c.Query("room_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, "invalid room_id")
			return
		}
		filter.RoomID = id
	}
	if v := c.Query("start_date"); v != "" {
		d, err := parse.Date(v, h.loc)
		if err != nil {
			badRequest(c, "start_date: "+err.Error())
			return
		}
		filter.From = d
	}
	if v := c.Query("end_date"); v != "" {
		d, err := parse.Date(v, h.loc)
		if err != nil {
			badRequest(c, "end_date: "+err.Error())
			return
		}
		filter.To = parse.EndOfDay(d)
	}

	bookings, err := h.store.ListBookings(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.presentAll(bookings))
}

// AdminGetBooking handles GET /api/v1/admin/bookings/:id.
func (h *Handler) AdminGetBooking(c *gin.Context) {
	h.getBooking(c, adminRequester(c))
}

// AdminCancelBooking handles DELETE /api/v1/admin/bookings/:id.
func (h *Handler) AdminCancelBooking(c *gin.Context) {
	h.cancelBooking(c, adminRequester(c), fmt.Sprintf("Booking %s cancelled successfully", c.Param("id")))
}

// AdminListRooms handles GET /api/v1/admin/rooms.
func (h *Handler) AdminListRooms(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	includeInactive, err := strconv.ParseBool(c.DefaultQuery("include_inactive", "false"))
	if err != nil {
		badRequest(c, "include_inactive must be a boolean")
		return
	}
	rooms, err := h.store.ListRooms(c.Request.Context(), store.RoomFilter{Page: page, IncludeInactive: includeInactive})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// AdminListUsers handles GET /api/v1/admin/users.
func (h *Handler) AdminListUsers(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	users, err := h.store.ListUsers(c.Request.Context(), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// AdminStats handles GET /api/v1/admin/stats.
func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// MakeAdmin handles POST /api/v1/admin/make-admin/:user_id.
func (h *Handler) MakeAdmin(c *gin.Context) {
	id, ok := idParam(c, "user_id")
	if !ok {
		return
	}
	user, err := h.store.FindUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !user.IsAdmin {
		user.IsAdmin = true
		if err := h.store.SaveUser(c.Request.Context(), user); err != nil {
			h.respondError(c, err)
			return
		}
		h.log.Info("user promoted to admin", zap.Int64("user_id", user.ID))
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("User %s is now an admin", user.Email)})
}
