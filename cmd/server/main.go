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

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"rocr/backend/internal/audit"
	auditproducer "rocr/backend/internal/audit/producer"
	auditrepo "rocr/backend/internal/audit/repository"
	"rocr/backend/internal/config"
	contactrepo "rocr/backend/internal/contact/repository"
	contactservice "rocr/backend/internal/contact/service"
	"rocr/backend/internal/db"
	healthhandler "rocr/backend/internal/health/handler"
	identityservice "rocr/backend/internal/identity/service"
	"rocr/backend/internal/ratelimit"
	"rocr/backend/internal/security"
	"rocr/backend/internal/server"
	"rocr/backend/internal/server/middleware"
	sessionrepo "rocr/backend/internal/session/repository"
	telemetryotel "rocr/backend/internal/telemetry/otel"
	userrepo "rocr/backend/internal/user/repository"
	userservice "rocr/backend/internal/user/service"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "rocr-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(lvl)
	}
	if !cfg.IsProduction() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn().Msg("JWT_SECRET is the development default; set a real secret before deploying")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.Setup(ctx, telemetryotel.Config{
		Endpoint:       cfg.OTLPEndpoint,
		ServiceName:    "rocr-api",
		ServiceVersion: healthhandler.Version,
		Environment:    cfg.Env,
		Insecure:       cfg.OTLPInsecure,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("telemetry")
	}
	providers.SetGlobal()

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database")
	}
	defer sqlDB.Close()

	checks := map[string]healthhandler.CheckFunc{}
	var store ratelimit.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		store = ratelimit.NewRedisStore(rdb, "rocr:ratelimit:")
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logger.Info().Str("addr", opts.Addr).Msg("rate limiting backed by redis")
	} else {
		mem := ratelimit.NewMemoryStore(nil)
		go mem.Run(ctx, time.Minute)
		store = mem
	}
	limiter := ratelimit.NewLimiter(store, ratelimit.WithLogger(logger))

	auditOpts := []audit.Option{audit.WithLogger(logger)}
	if producer := auditproducer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuditKafkaTopic, logger); producer != nil {
		defer producer.Close()
		auditOpts = append(auditOpts, audit.WithPublisher(producer))
		logger.Info().Str("topic", cfg.AuditKafkaTopic).Msg("audit events published to kafka")
	}
	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(sqlDB), middleware.ClientIPFromContext, auditOpts...)

	hasher := security.NewHasherWithAlgo(cfg.PasswordHashAlgo, cfg.BcryptCost)
	tokens := security.NewTokenProvider(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	users := userrepo.NewPostgresRepository(sqlDB)
	sessions := sessionrepo.NewPostgresRepository(sqlDB)

	handler := server.NewRouter(server.Deps{
		Logger:         logger,
		Production:     cfg.IsProduction(),
		AllowedOrigins: cfg.AllowedOriginsList(),
		Tokens:         tokens,
		Users:          users,
		Auth:           identityservice.NewAuthService(users, sessions, hasher, tokens, auditLogger),
		Accounts:       userservice.NewUserService(users, sessions, hasher),
		Contacts:       contactservice.NewContactService(contactrepo.NewPostgresRepository(sqlDB)),
		Limiter:        limiter,
		AuditLogger:    auditLogger,
		Health:         healthhandler.NewHandler(sqlDB, checks),
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("serve")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("telemetry shutdown")
	}
	logger.Info().Msg("HTTP server stopped")
}
