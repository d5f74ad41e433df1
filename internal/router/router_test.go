package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"UFresher/internal/apperror"
	"UFresher/internal/config"
	"UFresher/internal/handler"
	"UFresher/internal/pkg"
	"UFresher/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth struct{}

func (stubAuth) Authenticate(_ context.Context, token string) (*pkg.Claims, error) {
	switch token {
	case "junior":
		return &pkg.Claims{UserID: 1, Role: "junior"}, nil
	case "admin":
		return &pkg.Claims{UserID: 2, Role: "admin"}, nil
	}
	return nil, apperror.Unauthorized("invalid token")
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string, int) (bool, int, error) { return false, 30, nil }

func newTestRouter() *gin.Engine {
	modSvc := service.NewModerationService(nil, nil, nil, nil, config.ModerationConfig{})
	h := Handlers{
		Auth:       handler.NewAuthHandler(nil, nil),
		User:       handler.NewUserHandler(nil),
		Community:  handler.NewCommunityHandler(nil),
		Club:       handler.NewClubHandler(nil),
		Post:       handler.NewPostHandler(nil),
		Chat:       handler.NewChatHandler(nil),
		Mentorship: handler.NewMentorshipHandler(nil),
		Stats:      handler.NewStatsHandler(nil),
		Moderation: handler.NewModerationHandler(modSvc),
	}
	return InitRouter(h, stubAuth{}, denyAll{}, config.RateLimitConfig{AuthPerMinute: 5})
}

func serve(r http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter()
	w := serve(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics", "").Code)
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	r := newTestRouter()
	for _, target := range []string{"/api/communities", "/api/clubs", "/api/stats", "/api/mentors", "/api/admin/stats"} {
		assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, target, "").Code, target)
	}
}

func TestRouter_AdminRequiresRole(t *testing.T) {
	r := newTestRouter()
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/api/admin/moderation/1/approve", "junior").Code)
	// 管理员通过角色校验后进入 handler，非法 id 返回 400
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/api/admin/moderation/x/approve", "admin").Code)
}

func TestRouter_AuthRoutesAreRateLimited(t *testing.T) {
	r := newTestRouter()
	w := serve(r, http.MethodPost, "/api/user/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}
