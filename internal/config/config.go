package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the server configuration. Secrets (DB password, JWT secret,
// generator API key) are loaded from secret files with env fallback, never
// from plain envconfig tags.
type Config struct {
	// Server
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Secret field, no envconfig tag
	DBPassword string

	// Redis session store; in-memory store is used when the address is empty
	RedisAddr  string        `envconfig:"REDIS_ADDR" default:""`
	RedisDB    int           `envconfig:"REDIS_DB" default:"0"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	// RabbitMQ game events; publishing is disabled when the URL is empty
	RabbitMQURL     string `envconfig:"RABBITMQ_URL" default:""`
	GameEventsQueue string `envconfig:"GAME_EVENTS_QUEUE" default:"game_events"`

	// Content
	CharacterCatalogPath string `envconfig:"CHARACTER_CATALOG_PATH" default:"characters.yml"`
	MaxSaveSlots         int    `envconfig:"MAX_SAVE_SLOTS" default:"3"`

	// Ledger policy: whether an award may provision a missing gem account.
	// Default false keeps accounts provisioned at registration only.
	CreateAccountOnAward bool `envconfig:"CREATE_ACCOUNT_ON_AWARD" default:"false"`

	// Text generator
	GeneratorBaseURL   string        `envconfig:"GENERATOR_BASE_URL" default:""`
	GeneratorModel     string        `envconfig:"GENERATOR_MODEL" default:"gpt-4o-mini"`
	GeneratorTimeout   time.Duration `envconfig:"GENERATOR_TIMEOUT" default:"60s"`
	GeneratorMaxTokens int           `envconfig:"GENERATOR_MAX_TOKENS" default:"1024"`
	// Secret field, no envconfig tag
	GeneratorAPIKey string

	// Secret field, no envconfig tag
	JWTSecret string
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig loads configuration from environment variables and secret files.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var loadErr error
	cfg.DBPassword, loadErr = ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.JWTSecret, loadErr = ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.GeneratorAPIKey, loadErr = ReadSecret("generator_api_key")
	if loadErr != nil {
		return nil, loadErr
	}

	return &cfg, nil
}
