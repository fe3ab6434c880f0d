package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meeting-room-backend/internal/booking"
	"meeting-room-backend/internal/mw"
	"meeting-room-backend/internal/store"
)

// ConflictHeader lists the ids of the bookings a rejected proposal overlapped.
const ConflictHeader = "X-Conflicting-Bookings"

// respondError maps domain and store errors onto HTTP responses.
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		verr     *booking.ValidationError
		conflict *booking.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      verr.Violations[0].Message,
			"reason":     verr.Reason(),
			"violations": verr.Violations,
		})
	case errors.As(err, &conflict):
		ids := conflict.IDs()
		c.Header(ConflictHeader, joinIDs(ids))
		c.JSON(http.StatusConflict, gin.H{
			"error":                booking.ErrSlotConflict.Error(),
			"conflicting_ids":      ids,
			"conflicting_bookings": h.presentAll(conflict.Bookings),
		})
	case errors.Is(err, booking.ErrRoomUnavailable):
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found or inactive"})
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, booking.ErrBookingCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": "Booking is cancelled"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", mw.RequestID(c)),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
