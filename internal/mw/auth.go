package mw

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"meeting-room-backend/internal/auth"
	"meeting-room-backend/internal/model"
)

const userKey = "user"

// UserFinder resolves the subject of a verified token.
type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// RequireAuth rejects requests without a valid bearer token for an active
// user and stores that user on the context.
func RequireAuth(tokens *auth.Tokens, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "not authenticated")
			return
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			unauthorized(c, "could not validate credentials")
			return
		}
		user, err := users.FindUserByEmail(c.Request.Context(), claims.Subject)
		if err != nil || !user.IsActive {
			unauthorized(c, "could not validate credentials")
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not enough permissions, admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user RequireAuth attached to c, or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
