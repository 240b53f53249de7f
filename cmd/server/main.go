// @title        Festival Companion Identity API
// @version      1.0
// @description  Session, impersonation and password-reset endpoints.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/festapp/identity/internal/api"
	"github.com/festapp/identity/internal/api/handler"
	"github.com/festapp/identity/internal/api/metrics"
	"github.com/festapp/identity/internal/api/middleware"
	"github.com/festapp/identity/internal/core/service"
	"github.com/festapp/identity/internal/infrastructure/db/mongo"
	"github.com/festapp/identity/internal/infrastructure/db/redis"
	"github.com/festapp/identity/internal/infrastructure/mail"
	"github.com/festapp/identity/internal/infrastructure/queue"
	"github.com/festapp/identity/internal/pkg/config"
	"github.com/festapp/identity/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Service: "identity",
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
	})

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config) error {
	log := logger.Get()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  cfg.Mongo.AppName,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongo.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}

	dispatcher := queue.NewMailDispatcher(
		cfg.Mail.Workers,
		mail.NewLogSender(logger.Component("mail")),
		logger.Component("mail_dispatcher"),
		queue.WithObserver(metrics.MailObserver{}),
	)
	dispatcher.Start(ctx)

	limiter := middleware.NewRateLimiter(cfg.Security.RateLimitPerMinute)
	go limiter.Run(ctx)

	hasher := service.NewPasswordHasher(cfg.Security.BcryptCost)
	lockout := service.NewLockoutGuard(users, cfg.Security.LockoutThreshold, cfg.Security.LockoutWindow)
	tokens := service.NewTokenIssuer(cfg.JWTSecret)

	e := api.NewRouter(api.Deps{
		DB:       db,
		Redis:    rdb,
		Log:      logger.Component("http"),
		Sessions: service.NewSessionService(users, hasher, lockout, tokens, logger.Component("sessions")),
		Resets:   service.NewPasswordResetService(users, hasher, dispatcher, cfg.AppURL, logger.Component("password_reset")),
		Users: service.NewUserService(users, hasher,
			redis.NewRoleChangePublisher(rdb, cfg.Redis.RoleChannel), logger.Component("users")),
		Cookies: handler.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.IsProduction(),
		},
		RateLimiter: limiter,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("identity service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
