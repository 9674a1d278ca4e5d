// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/learnhub/internal/access"
	"github.com/carterperez-dev/learnhub/internal/admin"
	"github.com/carterperez-dev/learnhub/internal/auth"
	"github.com/carterperez-dev/learnhub/internal/config"
	"github.com/carterperez-dev/learnhub/internal/core"
	"github.com/carterperez-dev/learnhub/internal/course"
	"github.com/carterperez-dev/learnhub/internal/enrollment"
	"github.com/carterperez-dev/learnhub/internal/entitlement"
	"github.com/carterperez-dev/learnhub/internal/health"
	"github.com/carterperez-dev/learnhub/internal/middleware"
	"github.com/carterperez-dev/learnhub/internal/notify"
	"github.com/carterperez-dev/learnhub/internal/payment"
	"github.com/carterperez-dev/learnhub/internal/server"
	"github.com/carterperez-dev/learnhub/internal/storage"
	"github.com/carterperez-dev/learnhub/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		return err
	}
	if telemetry.Exporting {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := core.Migrate(ctx, db.DB.DB); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	notifier, err := notify.New(cfg.Notify, logger)
	if err != nil {
		return err
	}
	logger.Info("notifier initialized", "driver", cfg.Notify.Driver)

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	logger.Info("object store initialized", "driver", cfg.Storage.Driver)

	tokens, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("token service initialized",
		"algorithm", "HS256",
		"access_ttl", cfg.JWT.AccessTokenExpire,
	)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(tokens, userSvc)
	resetFlow := auth.NewResetFlow(userSvc, tokens, notifier, logger, auth.ResetFlowConfig{
		CodeTTL:     cfg.Auth.ResetCodeTTL,
		MaxAttempts: cfg.Auth.ResetCodeMaxAttempts,
		ResetLink:   cfg.App.ResetLink,
	})
	authHandler := auth.NewHandler(authSvc, resetFlow, auth.HandlerConfig{
		ExposeResetCode: cfg.Auth.ExposeResetCode,
	})

	courseSvc := course.NewService(course.NewRepository(db.DB), objects)
	courseHandler := course.NewHandler(courseSvc, cfg.Storage.MaxUploadSize)

	enrollmentRepo := enrollment.NewRepository(db.DB)
	engine := entitlement.NewEngine(enrollmentRepo)
	enrollmentHandler := enrollment.NewHandler(
		enrollment.NewService(enrollmentRepo, courseSvc),
	)

	gateway := access.NewGateway(courseSvc, tokens, engine)
	accessHandler := access.NewHandler(gateway, courseSvc, objects)

	var (
		paymentSvc     *payment.Service
		paymentHandler *payment.Handler
	)
	if cfg.Payment.Enabled {
		paymentSvc = payment.NewService(
			courseSvc,
			engine,
			payment.NewStripeProvider(cfg.Payment),
			payment.NewStore(db.DB),
			logger,
			telemetry.Tracer,
			payment.ServiceConfig{
				Currency:     cfg.Payment.Currency,
				FrontendURL:  cfg.App.FrontendURL,
				GrantTimeout: cfg.Payment.GrantTimeout,
			},
		)
		paymentHandler = payment.NewHandler(paymentSvc)
		logger.Info("payments enabled", "currency", cfg.Payment.Currency)
	}

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis, Optional: true},
	)

	adminCfg := admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	}
	if paymentSvc != nil {
		adminCfg.Payments = paymentSvc
	}
	adminHandler := admin.NewHandler(adminCfg)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	clientIP, err := middleware.NewClientIP(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return err
	}

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			BypassFunc: middleware.BypassPaths(
				"/healthz",
				"/livez",
				"/readyz",
				"/v1/payments/webhook",
			),
			KeyFunc:  clientIP.KeyByIP,
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	credentialLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerWindow(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
			cfg.RateLimit.Window,
		),
		KeyFunc:  clientIP.KeyByIPAndEndpoint,
		FailOpen: true,
	}).Handler

	authenticator := middleware.Authenticator(tokens)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, credentialLimiter)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		courseHandler.RegisterRoutes(r, authenticator, adminOnly)
		enrollmentHandler.RegisterRoutes(r, authenticator)
		accessHandler.RegisterRoutes(r, authenticator)

		if paymentHandler != nil {
			paymentHandler.RegisterRoutes(r, authenticator)
		}

		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if closer, ok := notifier.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("notifier close error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
