package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Env             string        `mapstructure:"env"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects the SQL driver and connection string
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite or pgx
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// AuthConfig holds identity provider settings. Tokens are verified locally
// when JWTSecret is set, otherwise against Supabase.
type AuthConfig struct {
	SupabaseURL string `mapstructure:"supabase_url"`
	ServiceKey  string `mapstructure:"service_key"`
	JWTSecret   string `mapstructure:"jwt_secret"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Backend   string `mapstructure:"backend"`
	File      string `mapstructure:"file"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// RedisConfig enables the Redis idempotency store when Addr is set
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig enables S3 backups when Bucket is set
type StorageConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// RateLimitConfig holds per-user request limits
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// Load reads configuration from a .env file, environment variables and
// config files
func Load() (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()

	// Set default values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:data/healthlog.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.backend", "slog")
	v.SetDefault("ratelimit.requests_per_minute", 300)

	// Read from environment variables
	v.SetEnvPrefix("HEALTHLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also bind to non-prefixed environment variables for backward compatibility
	v.BindEnv("server.port", "HEALTHLOG_SERVER_PORT", "PORT")
	v.BindEnv("auth.supabase_url", "HEALTHLOG_AUTH_SUPABASE_URL", "SUPABASE_URL")
	v.BindEnv("auth.service_key", "HEALTHLOG_AUTH_SERVICE_KEY", "SUPABASE_SERVICE_KEY")
	v.BindEnv("auth.jwt_secret", "HEALTHLOG_AUTH_JWT_SECRET", "SUPABASE_JWT_SECRET")
	v.BindEnv("database.dsn", "HEALTHLOG_DATABASE_DSN", "DATABASE_URL")
	v.BindEnv("logging.sentry_dsn", "HEALTHLOG_LOGGING_SENTRY_DSN", "SENTRY_DSN")

	// Read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// It's okay if config file doesn't exist
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that all required configuration values are present
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("database.driver must be sqlite or pgx, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("HEALTHLOG_DATABASE_DSN is required")
	}
	if c.Auth.JWTSecret == "" {
		if c.Auth.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL or SUPABASE_JWT_SECRET is required")
		}
		if c.Auth.ServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
		}
	}
	if c.Storage.Bucket != "" && c.Storage.Region == "" {
		return fmt.Errorf("storage.region is required when storage.bucket is set")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
