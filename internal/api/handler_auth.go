package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meeting-room-backend/internal/auth"
	"meeting-room-backend/internal/model"
	"meeting-room-backend/internal/mw"
	"meeting-room-backend/internal/store"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	IsAdmin  bool   `json:"is_admin"`
}

// Register handles POST /auth/register. is_admin is only honoured for the
// first account, which bootstraps administration.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	admin := false
	if req.IsAdmin {
		existing, err := h.store.ListUsers(c.Request.Context(), store.Page{Limit: 1})
		if err != nil {
			h.respondError(c, err)
			return
		}
		admin = len(existing) == 0
	}

	user := &model.User{
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		HashedPassword: hash,
		IsActive:       true,
		IsAdmin:        admin,
	}
	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			badRequest(c, "Email already registered")
			return
		}
		h.respondError(c, err)
		return
	}

	h.log.Info("user registered", zap.Int64("user_id", user.ID), zap.Bool("admin", user.IsAdmin))
	c.JSON(http.StatusCreated, gin.H{
		"message":  "User registered successfully",
		"user_id":  user.ID,
		"email":    user.Email,
		"is_admin": user.IsAdmin,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.store.FindUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.respondError(c, err)
		return
	}
	if user == nil || !user.IsActive || auth.CheckPassword(user.HashedPassword, req.Password) != nil {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(h.tokens.TTL().Seconds()),
		"user_email":   user.Email,
		"is_admin":     user.IsAdmin,
	})
}

// Me handles GET /users/me.
func (h *Handler) Me(c *gin.Context) {
	u := mw.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"is_admin":   u.IsAdmin,
		"is_active":  u.IsActive,
		"created_at": u.CreatedAt,
	})
}
