package main // Entry point package for the HTTP API

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/social-blog/internal/config"
	"github.com/iliyamo/social-blog/internal/database"
	"github.com/iliyamo/social-blog/internal/handler"
	"github.com/iliyamo/social-blog/internal/logger"
	"github.com/iliyamo/social-blog/internal/metrics"
	"github.com/iliyamo/social-blog/internal/middleware"
	"github.com/iliyamo/social-blog/internal/notify"
	"github.com/iliyamo/social-blog/internal/queue"
	"github.com/iliyamo/social-blog/internal/repository"
	"github.com/iliyamo/social-blog/internal/router"
	"github.com/iliyamo/social-blog/internal/service"
	"github.com/iliyamo/social-blog/internal/token"
)

func main() {
	cfg := config.Load()
	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync() //nolint:errcheck

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		lg.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(db.DB, lg); err != nil {
		lg.Fatal("migration failed", zap.Error(err))
	}

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	follows := repository.NewFollowRepo(db)
	posts := repository.NewPostRepo(db)
	comments := repository.NewCommentRepo(db)

	publisher := queue.NewAMQPPublisher(cfg.Mail.AMQPURL, cfg.Mail.Queue, lg)
	dispatcher := queue.NewDispatcher(publisher, cfg.Mail.Workers, cfg.Mail.Buffer, lg)
	defer dispatcher.Close()
	notifier := notify.NewNotifier(notify.NewComposer(cfg.Mail), dispatcher, lg)

	codec := token.NewCodec(cfg.SecretKey)
	accounts := service.NewAccountService(users, roles, codec, notifier, service.AccountConfig{
		AdminEmail:    cfg.AdminEmail,
		AuthTokenTTL:  cfg.AuthTokenTTL,
		ResetTokenTTL: cfg.ResetTokenTTL,
		BcryptCost:    cfg.BcryptCost,
	}, lg)
	social := service.NewSocialService(users, follows, posts, comments, service.PageSizes{
		Posts:     cfg.PostsPerPage,
		Followers: cfg.FollowersPerPage,
		Comments:  cfg.CommentsPerPage,
	}, lg)

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := accounts.SeedRoles(seedCtx); err != nil {
		cancel()
		lg.Fatal("seeding roles failed", zap.Error(err))
	}
	cancel()

	// Redis backs rate limiting and the response cache; both degrade to
	// pass-through when it is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb, lg, time.Now)
	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb, lg)

	e := echo.New()
	e.HideBanner = true
	e.Validator = middleware.Validator{}
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(lg))
	e.Use(metrics.Middleware())
	e.Use(middleware.Authenticate(accounts, lg))

	authH := handler.NewAuthHandler(accounts, lg)
	userH := handler.NewUserHandler(social, lg)
	postH := handler.NewPostHandler(social, lg)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, authH, limiter)
	router.RegisterPublic(e, userH, postH, cache)
	router.RegisterSocial(e, userH, postH)
	router.RegisterModeration(e, authH, postH)

	addr := ":" + cfg.Port
	go func() {
		lg.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := e.Shutdown(ctx); err != nil {
		lg.Error("shutdown failed", zap.Error(err))
	}
	lg.Info("server stopped")
}
