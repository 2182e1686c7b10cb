// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"rocr/backend/internal/security"
)

// DefaultJWTSecret is the development signing secret. Load rejects it when APP_ENV is production.
const DefaultJWTSecret = "default-secret-change-in-production"

// Config holds application configuration loaded from the environment.
type Config struct {
	// Port is the HTTP listen port (e.g. 3000).
	Port int `mapstructure:"PORT"`
	// Env is the application environment ("development", "production", "test").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// JWTSecret is the HMAC-SHA256 secret shared by access and refresh tokens.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTAccessExpires is the access token lifetime in the "<n><s|m|h|d>" form (e.g. "15m").
	JWTAccessExpires string `mapstructure:"JWT_ACCESS_EXPIRES"`
	// JWTRefreshExpires is the refresh token and session lifetime (e.g. "7d").
	JWTRefreshExpires string `mapstructure:"JWT_REFRESH_EXPIRES"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// PasswordHashAlgo selects the algorithm for new password hashes: "bcrypt" or "argon2id".
	PasswordHashAlgo string `mapstructure:"PASSWORD_HASH_ALGO"`

	// AllowedOrigins is a comma-separated CORS allow list.
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	// RedisURL enables the shared Redis rate-limit store when set (e.g. redis://localhost:6379/0).
	RedisURL string `mapstructure:"REDIS_URL"`

	// KafkaBrokers is a comma-separated list of Kafka brokers; when set, audit events are also published.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuditKafkaTopic is the topic audit events are published to.
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`
	// AuditKafkaGroupID is the consumer group of the audit monitor worker.
	AuditKafkaGroupID string `mapstructure:"AUDIT_KAFKA_GROUP_ID"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// Seed-only: initial admin account.
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
	AdminName     string `mapstructure:"ADMIN_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("PORT", 3000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("JWT_ACCESS_EXPIRES", "15m")
	v.SetDefault("JWT_REFRESH_EXPIRES", "7d")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("PASSWORD_HASH_ALGO", security.AlgoBcrypt)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:1420")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "rocr-audit")
	v.SetDefault("AUDIT_KAFKA_GROUP_ID", "rocr-audit-monitor")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_NAME", "Administrator")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, errors.New("config: PORT must be between 1 and 65535")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set")
	}
	if cfg.IsProduction() && cfg.JWTSecret == DefaultJWTSecret {
		return nil, errors.New("config: JWT_SECRET must be changed when APP_ENV=production")
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	switch cfg.PasswordHashAlgo {
	case security.AlgoBcrypt, security.AlgoArgon2id:
	default:
		return nil, errors.New("config: PASSWORD_HASH_ALGO must be bcrypt or argon2id")
	}

	return &cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}

// AccessTTL returns the access token lifetime. Unparseable values fall back to 15m.
func (c *Config) AccessTTL() time.Duration {
	return security.ParseDuration(c.JWTAccessExpires)
}

// RefreshTTL returns the refresh token lifetime. Unparseable values fall back to 15m.
func (c *Config) RefreshTTL() time.Duration {
	return security.ParseDuration(c.JWTRefreshExpires)
}

// AllowedOriginsList returns the CORS allow list from the comma-separated config.
func (c *Config) AllowedOriginsList() []string {
	return splitList(c.AllowedOrigins)
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if audit publishing is enabled (non-empty list).
func (c *Config) KafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.KafkaBrokers)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
