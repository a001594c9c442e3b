package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	// API server configuration
	API APIConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Rollup node configuration
	Chain ChainConfig

	// Push gateway configuration
	Push PushConfig

	// Webhook ingress configuration
	Webhook WebhookConfig

	// Auth provider configuration
	Auth AuthConfig

	// Logging configuration
	Log LogConfig
}

// APIConfig holds API server settings
type APIConfig struct {
	Host            string        `envconfig:"API_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimitRPS    int           `envconfig:"API_RATE_LIMIT_RPS" default:"100"`
	CacheTTL        time.Duration `envconfig:"API_CACHE_TTL" default:"30s"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            int           `envconfig:"DB_PORT" default:"5432"`
	User            string        `envconfig:"DB_USER" default:"pocketpay"`
	Password        string        `envconfig:"DB_PASSWORD" default:"pocketpay"`
	Name            string        `envconfig:"DB_NAME" default:"pocketpay"`
	SSLMode         string        `envconfig:"DB_SSL_MODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// ChainConfig holds rollup RPC connection settings
type ChainConfig struct {
	RPCURL         string        `envconfig:"CHAIN_RPC_URL" default:"http://localhost:8545"`
	ChainID        int64         `envconfig:"CHAIN_ID" default:"8453"`
	RequestTimeout time.Duration `envconfig:"CHAIN_REQUEST_TIMEOUT" default:"30s"`
	MaxRetries     int           `envconfig:"CHAIN_MAX_RETRIES" default:"3"`
	RetryDelay     time.Duration `envconfig:"CHAIN_RETRY_DELAY" default:"1s"`

	// The one stablecoin contract this backend reconciles
	USDCAddress  string `envconfig:"CHAIN_USDC_ADDRESS" default:"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"`
	USDCDecimals int    `envconfig:"CHAIN_USDC_DECIMALS" default:"6"`
}

// PushConfig holds push-gateway settings
type PushConfig struct {
	URL            string        `envconfig:"PUSH_URL" default:"https://exp.host/--/api/v2/push/send"`
	AccessToken    string        `envconfig:"PUSH_ACCESS_TOKEN" default:""`
	RequestTimeout time.Duration `envconfig:"PUSH_REQUEST_TIMEOUT" default:"10s"`
	BatchSize      int           `envconfig:"PUSH_BATCH_SIZE" default:"100"`
}

// WebhookConfig holds chain-activity webhook settings
type WebhookConfig struct {
	SigningSecret string `envconfig:"WEBHOOK_SIGNING_SECRET" default:""`
	MaxBodyBytes  int64  `envconfig:"WEBHOOK_MAX_BODY_BYTES" default:"1048576"`
}

// AuthConfig holds auth-provider settings
type AuthConfig struct {
	UserEndpoint   string        `envconfig:"AUTH_USER_ENDPOINT" default:"http://localhost:9999/auth/v1/user"`
	APIKey         string        `envconfig:"AUTH_API_KEY" default:""`
	RequestTimeout time.Duration `envconfig:"AUTH_REQUEST_TIMEOUT" default:"5s"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
