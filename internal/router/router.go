package router

import (
	"net/http"

	"UFresher/internal/config"
	"UFresher/internal/handler"
	"UFresher/internal/logger"
	"UFresher/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 路由依赖的全部 handler
type Handlers struct {
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Community  *handler.CommunityHandler
	Club       *handler.ClubHandler
	Post       *handler.PostHandler
	Chat       *handler.ChatHandler
	Mentorship *handler.MentorshipHandler
	Stats      *handler.StatsHandler
	Moderation *handler.ModerationHandler
}

func InitRouter(h Handlers, auth middleware.Authenticator, limiter middleware.Limiter, limits config.RateLimitConfig) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestIDMiddleware(),
		middleware.MetricsMiddleware(),
		logger.GinLogger(),
		logger.GinRecovery(true),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authLimit := middleware.RateLimit(limiter, "auth", limits.AuthPerMinute)
	emailLimit := middleware.RateLimit(limiter, "email", limits.EmailPerMinute)
	requireAuth := middleware.AuthMiddleware(auth)

	api := r.Group("/api")

	// 邮件相关接口
	emailGroup := api.Group("/email", emailLimit)
	{
		emailGroup.POST("/:scope/code", h.Auth.SendCode)
	}

	// 用户相关接口
	userGroup := api.Group("/user", authLimit)
	{
		userGroup.POST("/register", h.Auth.Register)
		userGroup.POST("/login", h.Auth.Login)
		userGroup.POST("/reset", h.Auth.ResetPassword)
	}

	// token相关接口
	tokenGroup := api.Group("/token", authLimit)
	{
		tokenGroup.POST("/refresh", h.Auth.Refresh)
	}

	// 登录态接口
	authGroup := api.Group("/auth", requireAuth)
	{
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.POST("/change-password", h.Auth.ChangePassword)
		authGroup.GET("/session", h.Auth.Session)
		authGroup.GET("/events", h.Auth.Events)
	}

	userMe := api.Group("/users", requireAuth)
	{
		userMe.GET("/me", h.User.Me)
		userMe.PUT("/me", h.User.UpdateMe)
	}

	// 社区相关接口
	communityGroup := api.Group("/communities", requireAuth)
	{
		communityGroup.GET("", h.Community.List)
		communityGroup.GET("/mine", h.Community.Mine)
		communityGroup.GET("/:id", h.Community.Get)
		communityGroup.POST("/:id/join", h.Community.Join)
		communityGroup.POST("/:id/leave", h.Community.Leave)
	}

	// 俱乐部与帖子接口
	clubGroup := api.Group("/clubs", requireAuth)
	{
		clubGroup.GET("", h.Club.List)
		clubGroup.GET("/mine", h.Club.Mine)
		clubGroup.POST("", h.Club.Create)
		clubGroup.POST("/:id/join", h.Club.Join)
		clubGroup.POST("/:id/leave", h.Club.Leave)
		clubGroup.GET("/:id/posts", h.Post.ListByClub)
		clubGroup.POST("/:id/posts", h.Post.Create)
	}
	api.DELETE("/posts/:id", requireAuth, h.Post.Delete)

	chatGroup := api.Group("/chat/:room", requireAuth)
	{
		chatGroup.GET("/messages", h.Chat.List)
		chatGroup.POST("/messages", h.Chat.Send)
		chatGroup.GET("/stream", h.Chat.Stream)
	}

	api.GET("/stats", requireAuth, h.Stats.User)

	mentorGroup := api.Group("", requireAuth)
	{
		mentorGroup.GET("/mentors", h.Mentorship.Mentors)
		mentorGroup.GET("/mentorships", h.Mentorship.List)
		mentorGroup.POST("/mentorships", h.Mentorship.Request)
		mentorGroup.POST("/mentorships/:id/accept", h.Mentorship.Accept)
		mentorGroup.POST("/mentorships/:id/complete", h.Mentorship.Complete)
	}

	// 管理员接口
	admin := api.Group("/admin", requireAuth, middleware.RequireRole("admin"))
	{
		admin.GET("/stats", h.Stats.Admin)
		admin.POST("/communities", h.Community.Create)
		admin.DELETE("/communities/:id", h.Community.Delete)
		admin.POST("/clubs", h.Club.Create)
		admin.DELETE("/clubs/:id", h.Club.Delete)
		admin.GET("/moderation", h.Moderation.List)
		admin.GET("/moderation/settings", h.Moderation.Settings)
		admin.PUT("/moderation/settings", h.Moderation.UpdateSettings)
		admin.POST("/moderation/:id/approve", h.Moderation.Approve)
		admin.POST("/moderation/:id/reject", h.Moderation.Reject)
	}

	return r
}
