package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/festapp/identity/docs"
	"github.com/festapp/identity/internal/api/handler"
	"github.com/festapp/identity/internal/api/metrics"
	"github.com/festapp/identity/internal/api/middleware"
	"github.com/festapp/identity/internal/core/ports"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	DB    *mongo.Database
	Redis *redis.Client
	Log   zerolog.Logger

	Sessions ports.SessionService
	Resets   ports.PasswordResetService
	Users    ports.UserService

	Cookies     handler.CookieOptions
	RateLimiter *middleware.RateLimiter
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))

	// --- Dependencies ---
	sessionHandler := handler.NewSessionHandler(d.Sessions, d.Cookies, d.Log)
	resetHandler := handler.NewPasswordResetHandler(d.Resets, d.Log)
	userHandler := handler.NewUserHandler(d.Users, d.Log)
	limited := d.RateLimiter.Middleware()

	// --- Session routes ---
	auth := e.Group("/auth")
	auth.POST("/register", userHandler.Register)
	auth.POST("/login", sessionHandler.Login, limited)
	auth.POST("/logout", sessionHandler.Logout)
	auth.POST("/refresh", sessionHandler.Refresh)
	auth.GET("/session", sessionHandler.Current)
	auth.GET("/session/admin", sessionHandler.CurrentAdmin)
	auth.GET("/session/temporary", sessionHandler.IsTemporary)

	// --- Impersonation (admin checks happen against the token itself) ---
	auth.POST("/impersonate/restore", sessionHandler.Restore)
	auth.POST("/impersonate/:id", sessionHandler.BecomeUser)

	// --- Password reset ---
	auth.POST("/password-reset", resetHandler.Request, limited)
	auth.POST("/password-reset/confirm", resetHandler.Confirm)
	auth.GET("/password-reset/:token", resetHandler.Validate)

	// --- Admin ---
	admin := e.Group("/admin",
		middleware.Session(d.Sessions, d.Cookies.Jar),
		middleware.RequireSession(),
		middleware.RequireAdmin(),
	)
	admin.GET("/users", userHandler.List)
	admin.PATCH("/users/:id/role", userHandler.ChangeRole)
	admin.PATCH("/users/:id/shadow", userHandler.SetShadow)

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.DB, d.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger logs each request through zerolog and records its latency.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			metrics.HTTPRequestDuration.
				WithLabelValues(v.Method, c.Path(), strconv.Itoa(v.Status)).
				Observe(v.Latency.Seconds())

			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency.Round(time.Microsecond)).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
