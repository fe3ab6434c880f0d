package mw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"meeting-room-backend/internal/auth"
	"meeting-room-backend/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 2, time.Minute)
	r := gin.New()
	r.Use(RateLimiter(limiter))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	assert.Equal(t, http.StatusOK, serve(r, "GET", "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, "GET", "/ping", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, "GET", "/ping", nil).Code)

	other := http.Header{"X-Forwarded-For": {"10.0.0.9"}}
	assert.Equal(t, http.StatusOK, serve(r, "GET", "/ping", other).Code, "clients have separate buckets")
	assert.Equal(t, 2, limiter.Len())
}

func TestIPRateLimiter_EvictsIdleClients(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 1, 20*time.Millisecond)
	first := limiter.GetLimiter("10.0.0.1")
	assert.Same(t, first, limiter.GetLimiter("10.0.0.1"))

	time.Sleep(30 * time.Millisecond)
	assert.NotSame(t, first, limiter.GetLimiter("10.0.0.1"))
}

func TestCache(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	calls := 0
	r := gin.New()
	r.GET("/rooms", Cache(store, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/missing", Cache(store, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusNotFound, gin.H{"error": "nope"})
	})

	first := serve(r, "GET", "/rooms", nil)
	second := serve(r, "GET", "/rooms", nil)
	assert.JSONEq(t, `{"calls":1}`, second.Body.String())
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))

	assert.JSONEq(t, `{"calls":2}`, serve(r, "GET", "/rooms?skip=1", nil).Body.String(), "query is part of the key")

	store.Flush()
	assert.JSONEq(t, `{"calls":3}`, serve(r, "GET", "/rooms", nil).Body.String())

	serve(r, "GET", "/missing", nil)
	serve(r, "GET", "/missing", nil)
	assert.Equal(t, 5, calls, "errors are not cached")
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := serve(r, "GET", "/ok", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(r, "GET", "/boom", http.Header{"X-Request-Id": {"abc-123"}})
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "abc-123", entries[1].ContextMap()["request_id"])
	assert.Equal(t, int64(500), entries[1].ContextMap()["status"])
}

type fakeUsers map[string]*model.User

func (f fakeUsers) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := f[email]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	users := fakeUsers{
		"ada@example.com":  {ID: 1, Email: "ada@example.com", IsActive: true, IsAdmin: true},
		"bob@example.com":  {ID: 2, Email: "bob@example.com", IsActive: true},
		"gone@example.com": {ID: 3, Email: "gone@example.com", IsActive: false},
	}

	r := gin.New()
	authed := r.Group("/", RequireAuth(tokens, users))
	authed.GET("/me", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID}) })
	authed.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	bearer := func(email string, id int64) http.Header {
		raw, err := tokens.Issue(id, email, false)
		require.NoError(t, err)
		return http.Header{"Authorization": {"Bearer " + raw}}
	}

	testCases := []struct {
		name   string
		path   string
		header http.Header
		status int
	}{
		{"no header", "/me", nil, http.StatusUnauthorized},
		{"wrong scheme", "/me", http.Header{"Authorization": {"Basic abc"}}, http.StatusUnauthorized},
		{"bad token", "/me", http.Header{"Authorization": {"Bearer nope"}}, http.StatusUnauthorized},
		{"unknown user", "/me", bearer("eve@example.com", 9), http.StatusUnauthorized},
		{"inactive user", "/me", bearer("gone@example.com", 3), http.StatusUnauthorized},
		{"valid user", "/me", bearer("bob@example.com", 2), http.StatusOK},
		{"non-admin on admin route", "/admin", bearer("bob@example.com", 2), http.StatusForbidden},
		{"admin on admin route", "/admin", bearer("ada@example.com", 1), http.StatusNoContent},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(r, "GET", tc.path, tc.header)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
