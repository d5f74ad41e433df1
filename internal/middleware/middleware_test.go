package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"UFresher/internal/apperror"
	"UFresher/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth struct {
	tokens map[string]*pkg.Claims
	err    error
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*pkg.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.tokens[token]
	if !ok {
		return nil, apperror.Unauthorized("signed in elsewhere")
	}
	return c, nil
}

func newAuthRouter(auth Authenticator, roles ...string) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(auth)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint64(ContextUserIDKey), "role": c.GetString(ContextRoleKey)})
	})
	r.GET("/me", handlers...)
	return r
}

func do(r http.Handler, target, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	auth := &stubAuth{tokens: map[string]*pkg.Claims{"good": {UserID: 7, Role: "junior"}}}
	r := newAuthRouter(auth)

	w := do(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"msg":"missing or invalid authorization header","error":"unauthorized"}`, w.Body.String())

	w = do(r, "/me", "Token good")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/me", "Bearer stale")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "signed in elsewhere")

	w = do(r, "/me", "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"junior"}`, w.Body.String())

	// SSE 通过查询参数携带 token
	w = do(r, "/me?access_token=good", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_StoreFailureIs500(t *testing.T) {
	r := newAuthRouter(&stubAuth{err: errors.New("redis down")})
	w := do(r, "/me", "Bearer x")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireRole(t *testing.T) {
	auth := &stubAuth{tokens: map[string]*pkg.Claims{
		"admin":  {UserID: 1, Role: "admin"},
		"junior": {UserID: 2, Role: "junior"},
	}}
	r := newAuthRouter(auth, "admin")

	assert.Equal(t, http.StatusOK, do(r, "/me", "Bearer admin").Code)
	w := do(r, "/me", "Bearer junior")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"forbidden"`)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	w := do(r, "/", "")
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-1", w.Header().Get(RequestIDHeader))
}

type countingLimiter struct {
	allowed int
	calls   map[string]int
	err     error
}

func (l *countingLimiter) Allow(_ context.Context, key string, _ int) (bool, int, error) {
	if l.err != nil {
		return false, 0, l.err
	}
	l.calls[key]++
	return l.calls[key] <= l.allowed, 30, nil
}

func TestRateLimit(t *testing.T) {
	l := &countingLimiter{allowed: 2, calls: map[string]int{}}
	r := gin.New()
	r.GET("/login", RateLimit(l, "auth", 2), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, "/login", "").Code)
	assert.Equal(t, http.StatusOK, do(r, "/login", "").Code)
	w := do(r, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"error":"rate_limited"`)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	l := &countingLimiter{err: errors.New("redis down")}
	r := gin.New()
	r.GET("/login", RateLimit(l, "auth", 1), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, do(r, "/login", "").Code)
}

func TestMetricsMiddleware_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/clubs/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusNoContent, do(r, "/clubs/3", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, "/nope", "").Code)
}
