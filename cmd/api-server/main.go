package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"pixelboard/database"
	"pixelboard/internal/config"
	"pixelboard/internal/http-api/handler"
	"pixelboard/internal/http-api/middleware"
	"pixelboard/internal/http-api/repository"
	"pixelboard/internal/http-api/service"
	"pixelboard/internal/mailer"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}
	defer database.Close(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("could not connect to redis: %v", err)
	}
	cancel()
	defer rdb.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	friendRepo := repository.NewFriendRepository(db)

	// Services
	pkceService := service.NewPKCEService()
	oauthService := service.NewOAuthService(cfg, pkceService)
	sessionService := service.NewSessionService(rdb, cfg)
	accountService := service.NewAccountService(userRepo, "")
	avatarService := service.NewAvatarService(userRepo, rdb, cfg.AvatarCacheTTL, logger)
	boardService := service.NewBoardService(boardRepo, rdb)

	var notifier service.Notifier
	if m := mailer.New(cfg); m != nil {
		notifier = m
	}
	friendService := service.NewFriendService(friendRepo, userRepo, notifier, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(oauthService, accountService, sessionService, logger)
	avatarHandler := handler.NewAvatarHandler(avatarService, logger)
	boardHandler := handler.NewBoardHandler(boardService, logger)
	friendHandler := handler.NewFriendHandler(friendService, logger)
	userHandler := handler.NewUserHandler(userRepo, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.ContentSecurityPolicy())
	r.Use(middleware.SessionScope(sessionService, db, logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/auth", middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		auth.GET("/ui/signup", authHandler.Signup)
		auth.GET("/ui/signin", authHandler.Signin)
		auth.GET("/callback/signup", authHandler.CallbackSignup)
		auth.GET("/callback/signin", authHandler.CallbackSignin)
		auth.GET("/logout", authHandler.Logout)
	}

	user := r.Group("/user")
	{
		user.GET("/avatar/:user_id", avatarHandler.Serve)
		user.GET("/username/check", userHandler.CheckUsername)

		authed := user.Group("", middleware.RequireAuth())
		{
			authed.POST("/avatar", avatarHandler.Save)
			authed.GET("/search", userHandler.Search)

			authed.POST("/boards", boardHandler.Create)
			authed.GET("/boards", boardHandler.List)
			authed.GET("/boards/:board_id", boardHandler.Get)
			authed.PATCH("/boards/:board_id/name", boardHandler.Rename)
			authed.DELETE("/boards/:board_id", boardHandler.Delete)
			authed.GET("/boards/:board_id/status", boardHandler.Status)
			authed.POST("/boards/:board_id/paint", boardHandler.Paint)

			authed.POST("/friend-request", friendHandler.SendRequest)
			authed.POST("/friend-request/:request_id/accept", friendHandler.Accept)
			authed.POST("/friend-request/:request_id/reject", friendHandler.Reject)
			authed.DELETE("/friend-request/:request_id", friendHandler.Cancel)
			authed.DELETE("/friend/:friend_id", friendHandler.RemoveFriend)
			authed.GET("/friends", friendHandler.ListFriends)
			authed.GET("/friend-requests", friendHandler.ListRequests)
		}
	}

	// Public board render + device check-in
	r.GET("/user/boards/:board_id/image", boardHandler.Image)
	r.POST("/api/log", boardHandler.DeviceLog)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, draining requests")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}
