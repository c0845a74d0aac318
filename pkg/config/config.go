package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ServiceName identifies this service in logs, traces and metrics
const ServiceName = "communities-messages"

// Environments
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Database drivers
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

var (
	// ErrAllowAllInProduction is returned when authorization is switched off in production
	ErrAllowAllInProduction = errors.New("AUTHZ_ALLOW_ALL must not be set in production")
	// ErrMissingJWTSecret is returned when no signing key could be found
	ErrMissingJWTSecret = errors.New("JWT_SECRET_KEY is required")
)

// Config holds all application configuration
type Config struct {
	Environment string `validate:"oneof=development test production"`

	// Server configuration
	Server struct {
		APIPort         string `validate:"required"`
		HealthPort      string `validate:"required"`
		GRPCHealthPort  string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	// Database configuration
	Database struct {
		Driver         string `validate:"oneof=mongo memory"`
		URI            string `validate:"required_if=Driver mongo"`
		Name           string `validate:"required"`
		Timeout        time.Duration
		ConnectRetries int `validate:"gte=1"`
		RetryDelay     time.Duration
		Transactions   bool
	}

	// JWT configuration
	JWT struct {
		Secret     string
		CookieName string `validate:"required"`
		Expiry     time.Duration
	}

	// Authorization backend
	Authz struct {
		Endpoint string `validate:"omitempty,url"`
		Token    string
		Timeout  time.Duration
		AllowAll bool
	}

	// Security configuration
	Security struct {
		RateLimit      float64 `validate:"gt=0"`
		RateLimitBurst int     `validate:"gte=1"`
		AllowedOrigins []string
		MaxBodySize    int64 `validate:"gt=0"`
	}

	// Redis backs token revocation when Addr is set
	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	// Vault configuration
	Vault struct {
		Enabled     bool
		Addr        string `validate:"required_if=Enabled true"`
		Token       string `validate:"required_if=Enabled true"`
		Namespace   string
		SecretsPath string
	}

	// Logging configuration
	Logging struct {
		Level  string `validate:"oneof=debug info warn error"`
		Format string `validate:"oneof=json text"`
	}

	// Observability and request validation switches
	Features struct {
		Tracing           bool
		Metrics           bool
		OpenAPIValidation bool
	}

	RoutingConfigPath string `validate:"required"`
}

// Load reads the environment, with a .env file when present, and validates the result
func Load() (*Config, error) {
	godotenv.Load()
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.IsProduction() && c.Authz.AllowAll {
		return ErrAllowAllInProduction
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// SecretSource resolves named secrets
type SecretSource interface {
	GetSecretWithDefault(ctx context.Context, key, defaultValue string) string
}

// ResolveSecrets fills the signing key and authorization token from the secret source,
// keeping environment values as fallback
func (c *Config) ResolveSecrets(ctx context.Context, source SecretSource) error {
	c.JWT.Secret = source.GetSecretWithDefault(ctx, "jwt_secret_key", c.JWT.Secret)
	c.Authz.Token = source.GetSecretWithDefault(ctx, "authz_token", c.Authz.Token)

	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// FromEnv reads configuration from the environment without caching it
func FromEnv() *Config {
	cfg := &Config{}

	cfg.Environment = strings.ToLower(getEnvString("ENVIRONMENT", EnvDevelopment))

	// Server config
	cfg.Server.APIPort = getEnvString("API_PORT", "8080")
	cfg.Server.HealthPort = getEnvString("HEALTH_PORT", "8081")
	cfg.Server.GRPCHealthPort = getEnvString("GRPC_HEALTH_PORT", "")
	cfg.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	cfg.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	cfg.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)

	// Database config
	cfg.Database.Driver = getEnvString("DATABASE_DRIVER", DriverMongo)
	cfg.Database.URI = getEnvString("DATABASE_URI", "mongodb://localhost:27017")
	cfg.Database.Name = getEnvString("DATABASE_NAME", "communities")
	cfg.Database.Timeout = getEnvDuration("DATABASE_TIMEOUT", 5*time.Second)
	cfg.Database.ConnectRetries = getEnvInt("DATABASE_CONNECT_RETRIES", 5)
	cfg.Database.RetryDelay = getEnvDuration("DATABASE_RETRY_DELAY", 2*time.Second)
	cfg.Database.Transactions = getEnvBool("DATABASE_TRANSACTIONS", true)

	// JWT config
	cfg.JWT.Secret = getEnvString("JWT_SECRET_KEY", "")
	cfg.JWT.CookieName = getEnvString("JWT_COOKIE_NAME", "access_token")
	cfg.JWT.Expiry = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

	// Authorization config
	cfg.Authz.Endpoint = getEnvString("AUTHZ_ENDPOINT", "")
	cfg.Authz.Token = getEnvString("AUTHZ_TOKEN", "")
	cfg.Authz.Timeout = getEnvDuration("AUTHZ_TIMEOUT", 2*time.Second)
	cfg.Authz.AllowAll = getEnvBool("AUTHZ_ALLOW_ALL", false)

	// Security config
	cfg.Security.RateLimit = getEnvFloat("RATE_LIMIT", 20)
	cfg.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 40)
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	cfg.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 1<<20) // 1MiB

	// Redis config
	cfg.Redis.Addr = getEnvString("REDIS_ADDR", "")
	cfg.Redis.Password = getEnvString("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// Vault config
	cfg.Vault.Enabled = getEnvBool("VAULT_ENABLED", false)
	cfg.Vault.Addr = getEnvString("VAULT_ADDR", "")
	cfg.Vault.Token = getEnvString("VAULT_TOKEN", "")
	cfg.Vault.Namespace = getEnvString("VAULT_NAMESPACE", "")
	cfg.Vault.SecretsPath = getEnvString("VAULT_SECRETS_PATH", "communities-messages")

	// Logging config
	cfg.Logging.Level = strings.ToLower(getEnvString("LOG_LEVEL", "info"))
	cfg.Logging.Format = strings.ToLower(getEnvString("LOG_FORMAT", "json"))

	// Feature flags
	cfg.Features.Tracing = getEnvBool("TRACING_ENABLED", false)
	cfg.Features.Metrics = getEnvBool("METRICS_ENABLED", true)
	cfg.Features.OpenAPIValidation = getEnvBool("OPENAPI_VALIDATION", true)

	cfg.RoutingConfigPath = getEnvString("ROUTING_CONFIG_PATH", "config/routing.yaml")

	return cfg
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
