package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	S3        S3Config
	Catalogue CatalogueConfig
	Checkout  CheckoutConfig
	Support   SupportConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host            string
	Port            int
	AllowedOrigin   string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds document store configuration.
type DatabaseConfig struct {
	Backend         string // "memory" or "postgres"
	URL             string // overrides the individual connection fields
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// S3Config holds AWS S3 configuration for the catalogue file.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "catalog/")
}

// CatalogueConfig holds pharmacy listing configuration.
type CatalogueConfig struct {
	Path              string
	SearchLatency     time.Duration
	LowStockThreshold int
}

// CheckoutConfig holds checkout workflow configuration.
type CheckoutConfig struct {
	ClearDelay    time.Duration
	MaxIDAttempts int
}

// SupportConfig holds help-desk contact form configuration.
type SupportConfig struct {
	SubmitDelay time.Duration
}

// RedisConfig holds the preferences cache configuration.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// KafkaConfig holds the order event stream configuration.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment wins.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigin:   getEnv("CORS_ALLOWED_ORIGIN", "*"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Backend:         getEnv("STORE_BACKEND", BackendMemory),
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "pharmago"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "ap-south-1"),
			Prefix:  getEnv("S3_PREFIX", "catalog/"),
		},
		Catalogue: CatalogueConfig{
			Path:              getEnv("CATALOGUE_PATH", "data/catalog/pharmacies.yaml"),
			SearchLatency:     getEnvAsDuration("SEARCH_LATENCY", time.Second),
			LowStockThreshold: getEnvAsInt("LOW_STOCK_THRESHOLD", 10),
		},
		Checkout: CheckoutConfig{
			ClearDelay:    getEnvAsDuration("CHECKOUT_CLEAR_DELAY", 3*time.Second),
			MaxIDAttempts: getEnvAsInt("CHECKOUT_MAX_ID_ATTEMPTS", 5),
		},
		Support: SupportConfig{
			SubmitDelay: getEnvAsDuration("SUPPORT_SUBMIT_DELAY", 2*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "pharmago:prefs"),
			TTL:      getEnvAsDuration("REDIS_TTL", 0),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: getEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "pharmago.orders"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Backend {
	case BackendMemory:
	case BackendPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be memory or postgres)", c.Database.Backend)
	}

	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT secret is required and must be at least 16 characters")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT TTL must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Catalogue.Path == "" {
		return fmt.Errorf("catalogue path is required")
	}

	if c.Catalogue.SearchLatency < 0 {
		return fmt.Errorf("search latency cannot be negative")
	}

	if c.Checkout.ClearDelay < 0 {
		return fmt.Errorf("checkout clear delay cannot be negative")
	}

	if c.Checkout.MaxIDAttempts < 1 {
		return fmt.Errorf("checkout max ID attempts must be at least 1")
	}

	if c.Support.SubmitDelay < 0 {
		return fmt.Errorf("support submit delay cannot be negative")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.URL == "" {
		if c.Host == "" {
			return fmt.Errorf("database host is required")
		}

		if c.Port < 1 || c.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Port)
		}

		if c.User == "" {
			return fmt.Errorf("database user is required")
		}

		if c.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a time.Duration ("3s", "500ms").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList retrieves a comma separated environment variable.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
