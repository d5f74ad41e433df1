package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"UFresher/internal/config"
	"UFresher/internal/handler"
	"UFresher/internal/logger"
	"UFresher/internal/pkg"
	"UFresher/internal/repository/mysql"
	"UFresher/internal/repository/redis"
	"UFresher/internal/router"
	"UFresher/internal/service"
	"UFresher/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err = logger.Init(cfg.Log, cfg.App.Mode); err != nil {
		panic(err)
	}
	defer zap.L().Sync()
	if cfg.App.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err = mysql.InitDB(cfg.MySQL); err != nil {
		zap.L().Fatal("connect mysql failed", zap.Error(err))
	}
	defer mysql.Close()
	if cfg.MySQL.AutoMigrate {
		// 自动建表（开发阶段 OK）
		if err = mysql.AutoMigrate(mysql.DB); err != nil {
			zap.L().Fatal("auto migrate failed", zap.Error(err))
		}
	}
	if sqlDB, err := mysql.DB.DB(); err == nil {
		telemetry.StartDBStatsCollector(sqlDB)
	}

	// 连接redis
	if err = redis.Init(cfg.Redis); err != nil {
		zap.L().Fatal("connect redis failed", zap.Error(err))
	}
	defer redis.Close()

	db, rdb := mysql.DB, redis.Client
	users := &mysql.UserRepository{DB: db}
	communities := &mysql.CommunityRepository{DB: db}
	members := &mysql.CommunityMemberRepository{DB: db}
	clubs := &mysql.ClubRepository{DB: db}
	posts := &mysql.PostRepository{DB: db}
	chats := &mysql.ChatRepository{DB: db}
	modLogs := &mysql.ModerationRepository{DB: db}
	mentorships := &mysql.MentorshipRepository{DB: db}
	statsRepo := &mysql.StatsRepository{DB: db}
	statsCache := &redis.StatsCache{RDB: rdb}

	jwt := pkg.NewJWT(cfg.JWT)
	hub := service.NewHub(&redis.Broker{RDB: rdb})
	emailSvc := service.NewEmailService(&redis.EmailRepository{RDB: rdb}, pkg.NewMailer(cfg.Email))
	authSvc := service.NewAuthService(users, &redis.TokenRepository{RDB: rdb, TTL: jwt.AccessTTL()}, emailSvc, jwt, hub, cfg.App.DefaultAvatar)
	communitySvc := service.NewCommunityService(communities, members, statsCache)
	clubSvc := service.NewClubService(clubs, communitySvc, statsCache)
	modSvc := service.NewModerationService(modLogs, &redis.SettingsRepository{RDB: rdb}, chats, posts, cfg.Moderation)
	config.OnModerationChange(modSvc.Apply)
	postSvc := service.NewPostService(posts, clubSvc, modSvc)
	chatSvc := service.NewChatService(chats, clubSvc, modSvc, hub)
	mentorSvc := service.NewMentorshipService(mentorships, users, statsCache)
	statsSvc := service.NewStatsService(statsRepo, statsCache)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zap.L().Error("realtime relay stopped", zap.Error(err))
		}
	}()

	var sender service.EventSender = service.LogSender{}
	if cfg.Kafka.Enabled {
		producer := pkg.NewKafkaProducer(cfg.Kafka)
		defer producer.Close()
		sender = producer
	}
	go service.NewOutboxRelayer(&mysql.OutboxRepository{DB: db}, sender).Run(ctx)
	reconciler := service.NewMemberCountReconciler(&mysql.MemberCountRepository{DB: db})
	reconciler.OnFix = func(kind string, id uint64) {
		if kind == "community" {
			communitySvc.InvalidateCached(id)
		}
	}
	go reconciler.Run(ctx)

	r := router.InitRouter(router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc, emailSvc),
		User:       handler.NewUserHandler(service.NewUserService(users)),
		Community:  handler.NewCommunityHandler(communitySvc),
		Club:       handler.NewClubHandler(clubSvc),
		Post:       handler.NewPostHandler(postSvc),
		Chat:       handler.NewChatHandler(chatSvc),
		Mentorship: handler.NewMentorshipHandler(mentorSvc),
		Stats:      handler.NewStatsHandler(statsSvc),
		Moderation: handler.NewModerationHandler(modSvc),
	}, authSvc, redis.NewRateLimiter(rdb), cfg.RateLimit)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zap.L().Info("server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("listen failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("server shutdown failed", zap.Error(err))
	}
}
