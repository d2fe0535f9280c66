// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Gemini    GeminiConfig
	Advice    AdviceConfig
	Chat      ChatConfig
	Events    EventsConfig
	Archive   ArchiveConfig
	Jobs      JobsConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	AutoMigrate  bool
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

// GeminiConfig holds settings for the generative text service. An empty
// APIKey disables the service.
type GeminiConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	Timeout        time.Duration
	CircuitBreaker CircuitBreakerConfig
}

// Enabled reports whether a credential is configured.
func (g GeminiConfig) Enabled() bool { return g.APIKey != "" }

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	MaxFailures  int
	ResetTimeout time.Duration
}

// AdviceConfig holds advice generation settings.
type AdviceConfig struct {
	AverageCarbon float64
}

// ChatConfig holds per-user chat rate limits.
type ChatConfig struct {
	RatePerMinute float64
	Burst         int
}

// EventsConfig holds event publishing settings. An empty NATSURL disables
// publishing.
type EventsConfig struct {
	NATSURL string
	Subject string
}

// ArchiveConfig holds the daily impact-log archive settings.
type ArchiveConfig struct {
	Enabled  bool
	Schedule string
	Backend  string // local or s3
	LocalDir string
	S3       S3Config
}

// S3Config holds S3 (or S3-compatible) bucket settings.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// JobsConfig holds background job settings.
type JobsConfig struct {
	StatsSchedule string
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string
	Format string
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
}

// Load loads configuration from environment variables. A .env file in the
// working directory, if present, is read first; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8000),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			RequestTimeout:  getEnvDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "ecotrack"),
			Password:     getEnv("DB_PASSWORD", ""),
			Name:         getEnv("DB_NAME", "ecotrack"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvDuration("DB_MAX_LIFETIME", 5*time.Minute),
			AutoMigrate:  getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			TokenExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		},
		Gemini: loadGemini(),
		Advice: AdviceConfig{
			AverageCarbon: getEnvFloat("AVERAGE_CARBON_KG", 12.0),
		},
		Chat: ChatConfig{
			RatePerMinute: getEnvFloat("CHAT_RATE_PER_MINUTE", 10),
			Burst:         getEnvInt("CHAT_BURST", 3),
		},
		Events: EventsConfig{
			NATSURL: getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", "impact.calculated"),
		},
		Archive: ArchiveConfig{
			Enabled:  getEnvBool("ARCHIVE_ENABLED", false),
			Schedule: getEnv("ARCHIVE_SCHEDULE", "0 15 0 * * *"),
			Backend:  strings.ToLower(getEnv("ARCHIVE_BACKEND", "local")),
			LocalDir: getEnv("ARCHIVE_LOCAL_DIR", "./archive"),
			S3: S3Config{
				Bucket:    getEnv("ARCHIVE_S3_BUCKET", ""),
				Region:    getEnv("ARCHIVE_S3_REGION", ""),
				Endpoint:  getEnv("ARCHIVE_S3_ENDPOINT", ""),
				AccessKey: getEnv("ARCHIVE_S3_ACCESS_KEY", ""),
				SecretKey: getEnv("ARCHIVE_S3_SECRET_KEY", ""),
			},
		},
		Jobs: JobsConfig{
			StatsSchedule: getEnv("JOB_STATS_SCHEDULE", "0 0 * * * *"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvBool("OTEL_ENABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ecotrack"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadGemini reads only the generative service settings. Commands that score
// offline use it so they do not need database or auth configuration.
func LoadGemini() (GeminiConfig, error) {
	if err := loadDotEnv(); err != nil {
		return GeminiConfig{}, err
	}
	return loadGemini(), nil
}

func loadGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:  getEnv("GEMINI_API_KEY", ""),
		Model:   getEnv("GEMINI_MODEL", "gemini-pro"),
		BaseURL: strings.TrimRight(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"), "/"),
		Timeout: getEnvDuration("GEMINI_TIMEOUT", 20*time.Second),
		CircuitBreaker: CircuitBreakerConfig{
			MaxFailures:  getEnvInt("GEMINI_CB_FAILURES", 5),
			ResetTimeout: getEnvDuration("GEMINI_CB_RESET", 30*time.Second),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Chat.RatePerMinute <= 0 {
		return fmt.Errorf("CHAT_RATE_PER_MINUTE must be positive")
	}
	switch c.Archive.Backend {
	case "local":
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return fmt.Errorf("ARCHIVE_S3_BUCKET is required when ARCHIVE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("ARCHIVE_BACKEND must be local or s3, got %q", c.Archive.Backend)
	}
	return nil
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL returns the database connection string in URL form.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func loadDotEnv() error {
	path := getEnv("ECOTRACK_ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
