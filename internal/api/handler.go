package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"meeting-room-backend/internal/auth"
	"meeting-room-backend/internal/booking"
	"meeting-room-backend/internal/model"
	"meeting-room-backend/internal/mw"
	"meeting-room-backend/internal/store"
)

const maxPageSize = 1000

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	resolver  *booking.Resolver
	tokens    *auth.Tokens
	roomCache *cache.Cache
	loc       *time.Location
	log       *zap.Logger
}

// NewHandler creates a new API handler. Room responses are cached in
// roomCache, which is flushed whenever a room changes.
func NewHandler(s store.Store, r *booking.Resolver, tokens *auth.Tokens, roomCache *cache.Cache, loc *time.Location, log *zap.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		store:     s,
		resolver:  r,
		tokens:    tokens,
		roomCache: roomCache,
		loc:       loc,
		log:       log,
	}
}

// requester is the caller acting on their own bookings.
func requester(c *gin.Context) booking.Requester {
	u := mw.CurrentUser(c)
	return booking.Requester{UserID: u.ID}
}

// adminRequester bypasses ownership; only mounted behind RequireAdmin.
func adminRequester(c *gin.Context) booking.Requester {
	u := mw.CurrentUser(c)
	return booking.Requester{UserID: u.ID, Admin: true}
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func pageQuery(c *gin.Context) (store.Page, bool) {
	p := store.Page{Limit: 100}
	if v := c.Query("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "skip must be a non-negative integer")
			return p, false
		}
		p.Offset = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxPageSize {
			badRequest(c, "limit must be between 1 and "+strconv.Itoa(maxPageSize))
			return p, false
		}
		p.Limit = n
	}
	return p, true
}

type bookingResponse struct {
	ID        int64               `json:"id"`
	UserID    int64               `json:"user_id"`
	RoomID    int64               `json:"room_id"`
	StartTime time.Time           `json:"start_time"`
	EndTime   time.Time           `json:"end_time"`
	Status    model.BookingStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Room      *model.Room         `json:"room,omitempty"`
	User      *model.User         `json:"user,omitempty"`
}

// present renders booking times in the business timezone.
func (h *Handler) present(b model.Booking) bookingResponse {
	return bookingResponse{
		ID:        b.ID,
		UserID:    b.UserID,
		RoomID:    b.RoomID,
		StartTime: b.StartTime.In(h.loc),
		EndTime:   b.EndTime.In(h.loc),
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
		Room:      b.Room,
		User:      b.User,
	}
}

func (h *Handler) presentAll(bookings []model.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, h.present(b))
	}
	return out
}
