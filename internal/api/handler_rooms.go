package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meeting-room-backend/internal/booking"
	"meeting-room-backend/internal/model"
	"meeting-room-backend/internal/parse"
	"meeting-room-backend/internal/store"
)

type createRoomRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity" binding:"required,min=1"`
	Amenities   string `json:"amenities"`
	IsActive    *bool  `json:"is_active"`
}

type updateRoomRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
	Capacity    *int    `json:"capacity" binding:"omitempty,min=1"`
	Amenities   *string `json:"amenities"`
	IsActive    *bool   `json:"is_active"`
}

// ListRooms handles GET /api/v1/rooms. Only active rooms are listed.
func (h *Handler) ListRooms(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	rooms, err := h.store.ListRooms(c.Request.Context(), store.RoomFilter{Page: page})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GetRoom handles GET /api/v1/rooms/:id. Inactive rooms are hidden.
func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	room, err := h.store.FindRoom(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !room.IsActive {
		h.respondError(c, booking.ErrRoomUnavailable)
		return
	}
	c.JSON(http.StatusOK, room)
}

// CreateRoom handles POST /api/v1/rooms.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	room := &model.Room{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Capacity:    req.Capacity,
		Amenities:   req.Amenities,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := h.store.CreateRoom(c.Request.Context(), room); err != nil {
		h.respondError(c, err)
		return
	}
	h.roomsChanged("room created", room)
	c.JSON(http.StatusCreated, room)
}

// UpdateRoom handles PUT /api/v1/rooms/:id. Absent fields are left unchanged.
func (h *Handler) UpdateRoom(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	room, err := h.store.FindRoom(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if req.Name != nil {
		room.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.Amenities != nil {
		room.Amenities = *req.Amenities
	}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}

	if err := h.store.SaveRoom(c.Request.Context(), room); err != nil {
		h.respondError(c, err)
		return
	}
	h.roomsChanged("room updated", room)
	c.JSON(http.StatusOK, room)
}

// DeleteRoom handles DELETE /api/v1/rooms/:id as a soft delete. Existing
// bookings are kept; the room stops accepting proposals.
func (h *Handler) DeleteRoom(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	room, err := h.store.FindRoom(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	room.IsActive = false
	if err := h.store.SaveRoom(c.Request.Context(), room); err != nil {
		h.respondError(c, err)
		return
	}
	h.roomsChanged("room deactivated", room)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Room '%s' has been deactivated", room.Name)})
}

// RoomAvailability handles GET /api/v1/rooms/:id/availability.
func (h *Handler) RoomAvailability(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	start, err := parse.Timestamp(c.Query("start_time"), h.loc)
	if err != nil {
		badRequest(c, "start_time: "+err.Error())
		return
	}
	end, err := parse.Timestamp(c.Query("end_time"), h.loc)
	if err != nil {
		badRequest(c, "end_time: "+err.Error())
		return
	}

	avail, err := h.resolver.CheckAvailability(c.Request.Context(), id, start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"available":            avail.Available,
		"conflicting_bookings": h.presentAll(avail.Conflicts),
	})
}

func (h *Handler) roomsChanged(msg string, room *model.Room) {
	h.roomCache.Flush()
	h.log.Info(msg, zap.Int64("room_id", room.ID), zap.String("name", room.Name), zap.Bool("active", room.IsActive))
}
