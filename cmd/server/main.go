package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/goexpense/internal/adapter/http"
	"github.com/iho/goexpense/internal/adapter/http/handler"
	"github.com/iho/goexpense/internal/adapter/http/middleware"
	"github.com/iho/goexpense/internal/adapter/repository"
	redisRepo "github.com/iho/goexpense/internal/adapter/repository/redis"
	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/infrastructure/auth"
	"github.com/iho/goexpense/internal/infrastructure/config"
	"github.com/iho/goexpense/internal/infrastructure/eventpublisher"
	"github.com/iho/goexpense/internal/infrastructure/idgen"
	"github.com/iho/goexpense/internal/infrastructure/logger"
	"github.com/iho/goexpense/internal/infrastructure/metrics"
	"github.com/iho/goexpense/internal/infrastructure/redis"
	"github.com/iho/goexpense/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, appLogger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	st, err := repository.Open(ctx, cfg, appLogger, m)
	if err != nil {
		return err
	}
	defer st.Close()

	app, err := newApp(ctx, cfg, appLogger, m, st)
	if err != nil {
		return err
	}
	defer app.close()

	// Outbox publisher
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: st.Outbox,
		Publisher:  eventpublisher.NewLogPublisher(appLogger),
		Logger:     appLogger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	if app.rateLimiter != nil {
		go app.rateLimiter.RunCleanup(10*time.Minute, time.Hour, ctx.Done())
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      app.router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	appLogger.Info().Msg("server stopped")
	return nil
}

// app is the wired HTTP side of the server.
type app struct {
	router      http.Handler
	rateLimiter *middleware.RateLimiter
	close       func()
}

func newApp(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger, m *metrics.Metrics, st *repository.Store) (*app, error) {
	idGen := idgen.NewULID()
	closers := []func(){}

	var checks []handler.ReadinessCheck
	if st.Ping != nil {
		checks = append(checks, handler.ReadinessCheck{Name: "database", Check: st.Ping})
	}

	// Redis is optional: it backs idempotency keys and the user cache.
	var (
		users            usecase.UserRepository = st.Users
		idempotencyStore usecase.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		appLogger.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		users = redisRepo.NewCachedUserRepository(st.Users, redisRepo.NewCache(redisClient), cfg.UserCacheTTL).
			WithLogger(appLogger)
		checks = append(checks, handler.ReadinessCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redis.Ping(ctx, redisClient) },
		})
	}

	// Use cases
	workflow := usecase.NewExpenseWorkflow(st.TxManager, st.Expenses, st.Approvals, st.Outbox, idGen).
		WithMetrics(m).
		WithLogger(appLogger)
	if st.Retrier != nil {
		workflow = workflow.WithRetrier(st.Retrier)
	}
	ledgerUC := usecase.NewLedgerUseCase(st.Ledger)
	userUC := usecase.NewUserUseCase(users, idGen)

	if err := bootstrapManager(ctx, cfg, appLogger, userUC); err != nil {
		return nil, err
	}

	var authenticator *middleware.Authenticator
	if cfg.AuthEnabled() {
		authenticator = middleware.NewAuthenticator(auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration), users)
	} else {
		appLogger.Warn().Msg("JWT_SECRET is empty; every API request is unauthenticated")
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m.RateLimitHits)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ExpenseHandler:   handler.NewExpenseHandler(workflow, appLogger),
		ManagerHandler:   handler.NewManagerHandler(workflow, appLogger),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC, appLogger),
		UserHandler:      handler.NewUserHandler(userUC, appLogger),
		HealthHandler:    handler.NewHealthHandler(checks...),
		Authenticator:    authenticator,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		MetricsHandler:   promhttp.Handler(),
		Logger:           appLogger,
	})

	return &app{
		router:      router,
		rateLimiter: rateLimiter,
		close: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}

// bootstrapManager provisions the configured manager if the directory does
// not know the email yet.
func bootstrapManager(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger, users *usecase.UserUseCase) error {
	if cfg.BootstrapManagerEmail == "" {
		return nil
	}

	existing, err := users.GetUserByEmail(ctx, cfg.BootstrapManagerEmail)
	switch {
	case err == nil:
		appLogger.Info().Str("user_id", existing.ID).Msg("bootstrap manager already provisioned")
		return nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return fmt.Errorf("failed to look up bootstrap manager: %w", err)
	}

	user, err := users.CreateUser(ctx, usecase.CreateUserInput{
		Email: cfg.BootstrapManagerEmail,
		Name:  cfg.BootstrapManagerName,
		Role:  domain.RoleManager,
	})
	if err != nil {
		return fmt.Errorf("failed to provision bootstrap manager: %w", err)
	}

	appLogger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("bootstrap manager provisioned")
	return nil
}
