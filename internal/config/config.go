package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrInvalidPoolBounds  = errors.New("DB_MIN_CONNS must be >= 1 and <= DB_MAX_CONNS")
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Detect   DetectConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"PORT" default:"5000"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	MaxBodyBytes    int64         `envconfig:"MAX_BODY_BYTES" default:"16777216"`
	CORSOrigins     []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"pantry-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT"` // json or console; console by default in development

	// AdminAPIKeys guard /api/admin; empty leaves it open.
	AdminAPIKeys []string `envconfig:"ADMIN_API_KEYS"`
}

// DatabaseConfig holds the connection pool and migration settings.
type DatabaseConfig struct {
	URL             string        `envconfig:"DATABASE_URL"`
	Driver          string        `envconfig:"DB_DRIVER"` // postgres, mysql or sqlite; inferred from URL when empty
	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"1"`
	AcquireTimeout  time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"5s"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"5m"`

	// SSLMode forces the SSL mode for every host when set.
	SSLMode             string   `envconfig:"DB_SSLMODE"`
	SSLDisabledHosts    []string `envconfig:"DB_SSL_DISABLED_HOSTS" default:"localhost,127.0.0.1,::1"`
	SSLDisabledSuffixes []string `envconfig:"DB_SSL_DISABLED_SUFFIXES" default:".internal,.local"`

	MigrateFailFast bool `envconfig:"MIGRATE_FAIL_FAST" default:"true"`
}

// CacheConfig holds cache settings for detection results.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"15m"`

	MaxEntries int `envconfig:"CACHE_MAX_ENTRIES" default:"1024"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"pantry:detect"`
}

// DetectConfig holds settings for the image-detection workflow API.
type DetectConfig struct {
	APIURL      string        `envconfig:"ROBOFLOW_API_URL" default:"https://detect.roboflow.com"`
	APIKey      string        `envconfig:"ROBOFLOW_API_KEY"`
	Workspace   string        `envconfig:"ROBOFLOW_WORKSPACE" default:"masid-nert8"`
	Workflow    string        `envconfig:"ROBOFLOW_WORKFLOW" default:"detect-count-and-visualize"`
	Timeout     time.Duration `envconfig:"DETECT_TIMEOUT" default:"30s"`
	MaxRetries  int           `envconfig:"DETECT_MAX_RETRIES" default:"2"`
	BackoffBase time.Duration `envconfig:"DETECT_BACKOFF_BASE" default:"400ms"`
	MaxUpload   int64         `envconfig:"DETECT_MAX_UPLOAD" default:"10485760"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return net.JoinHostPort(c.RedisHost, strconv.Itoa(c.RedisPort))
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Enabled reports whether detection requests can be forwarded.
func (d *DetectConfig) Enabled() bool {
	return strings.TrimSpace(d.APIKey) != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.App.LogFormat == "" {
		cfg.App.LogFormat = "json"
		if cfg.App.IsDevelopment() {
			cfg.App.LogFormat = "console"
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks invariants envconfig cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return ErrMissingDatabaseURL
	}
	if c.Database.MinConns < 1 || c.Database.MinConns > c.Database.MaxConns {
		return ErrInvalidPoolBounds
	}
	return nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
