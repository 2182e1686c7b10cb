// Worker consumes audit events from Kafka, logs them, and warns about repeated login
// failures from one address. Set KAFKA_BROKERS, AUDIT_KAFKA_TOPIC and AUDIT_KAFKA_GROUP_ID;
// REDIS_URL makes failure counts survive restarts and be shared between workers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"rocr/backend/internal/audit/consumer"
	"rocr/backend/internal/config"
	"rocr/backend/internal/ratelimit"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("cmd", "worker").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(lvl)
	}

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		logger.Fatal().Msg("KAFKA_BROKERS is required")
	}

	var store ratelimit.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		store = ratelimit.NewRedisStore(rdb, "rocr:audit-monitor:")
	} else {
		store = ratelimit.NewMemoryStore(nil)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.AuditKafkaTopic,
		GroupID:        cfg.AuditKafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mem, ok := store.(*ratelimit.MemoryStore); ok {
		go mem.Run(ctx, time.Minute)
	}

	logger.Info().Str("topic", cfg.AuditKafkaTopic).Str("group", cfg.AuditKafkaGroupID).Msg("consuming audit events")
	monitor := consumer.NewMonitor(store, ratelimit.Auth.Max*2, ratelimit.Auth.Window, logger)
	if err := monitor.Run(ctx, reader); err != nil {
		logger.Error().Err(err).Msg("worker stopped")
		return
	}
	logger.Info().Msg("worker stopped")
}
