package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/temaribet/lms/pkg/config"
)

// Config holds all configuration for the LMS service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"lms"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"lms_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"lms"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// PostgreSQL pool tuning
	DBMaxConns int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns int32 `env:"DB_MIN_CONNS" envDefault:"2"`

	// Redis (login lockout counters)
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Sessions. There is no default secret; an unset SESSION_SECRET is a
	// startup failure in every environment.
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// External identity provider (mini-app auto-login)
	IdentityServiceURL     string        `env:"IDENTITY_SERVICE_URL" envDefault:"http://localhost:9090"`
	IdentityServiceTimeout time.Duration `env:"IDENTITY_SERVICE_TIMEOUT" envDefault:"5s"`

	// Login lockout
	LockoutThreshold int           `env:"LOGIN_LOCKOUT_THRESHOLD" envDefault:"5"`
	LockoutWindow    time.Duration `env:"LOGIN_LOCKOUT_WINDOW" envDefault:"15m"`

	// Rate limiting on the login endpoint
	LoginRateLimit int `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateBurst int `env:"LOGIN_RATE_BURST" envDefault:"20"`

	// Tracing
	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTLPSampleRate float64 `env:"OTLP_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	// A service that falls back to a built-in signing secret signs
	// forgeable sessions; refuse to start without one.
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET must be set via environment variable")
	}
	if cfg.Environment != "development" && len(cfg.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters long, got %d", len(cfg.SessionSecret))
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("invalid session TTL: %s", cfg.SessionTTL)
	}

	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
