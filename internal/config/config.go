package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// devJWTSecret is only ever used when DSP_ENV=development and no secret is set.
const devJWTSecret = "dsp-console-development-secret"

// Config holds all configuration for the console. Every field is read from
// a DSP_-prefixed environment variable.
type Config struct {
	Server     ServerConfig     `envPrefix:"HTTP_"`
	Env        string           `env:"ENV" envDefault:"development"`
	Database   DatabaseConfig   `envPrefix:"DB_"`
	Redis      RedisConfig      `envPrefix:"REDIS_"`
	ClickHouse ClickHouseConfig `envPrefix:"CLICKHOUSE_"`
	S3         S3Config         `envPrefix:"S3_"`
	Auth       AuthConfig       `envPrefix:"AUTH_"`
	RateLimit  RateLimitConfig  `envPrefix:"RATE_LIMIT_"`
	Log        LogConfig        `envPrefix:"LOG_"`
	Metrics    MetricsConfig    `envPrefix:"METRICS_"`
	Upload     UploadConfig     `envPrefix:"UPLOAD_"`
	Dashboard  DashboardConfig  `envPrefix:"DASHBOARD_"`
	Sheet      SheetConfig      `envPrefix:"SHEET_"`
}

type ServerConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	PublicURL       string        `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type DatabaseConfig struct {
	Enabled       bool   `env:"ENABLED" envDefault:"true"`
	Host          string `env:"HOST" envDefault:"localhost"`
	Port          int    `env:"PORT" envDefault:"5432"`
	User          string `env:"USER" envDefault:"dsp"`
	Password      string `env:"PASSWORD" envDefault:"dsp_secret"`
	DBName        string `env:"NAME" envDefault:"dsp"`
	SSLMode       string `env:"SSLMODE" envDefault:"disable"`
	MaxConns      int    `env:"MAX_CONNS" envDefault:"25"`
	MinConns      int    `env:"MIN_CONNS" envDefault:"2"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// MigrateURL is the DSN in the form the migrate pgx/v5 driver expects.
func (d DatabaseConfig) MigrateURL() string {
	return "pgx5" + strings.TrimPrefix(d.DSN(), "postgres")
}

type RedisConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"true"`
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type ClickHouseConfig struct {
	Enabled  bool     `env:"ENABLED" envDefault:"false"`
	Addr     []string `env:"ADDR" envSeparator:"," envDefault:"localhost:9000"`
	Database string   `env:"DATABASE" envDefault:"default"`
	Username string   `env:"USERNAME" envDefault:"default"`
	Password string   `env:"PASSWORD"`
}

// S3Config configures the report and creative bucket. With Enabled=false
// objects are kept in memory.
type S3Config struct {
	Enabled         bool   `env:"ENABLED" envDefault:"false"`
	Endpoint        string `env:"ENDPOINT"`
	Region          string `env:"REGION" envDefault:"ap-south-1"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	Bucket          string `env:"BUCKET" envDefault:"dsp-console"`
	PublicURL       string `env:"PUBLIC_URL"`
	BasePath        string `env:"BASE_PATH"`
	ForcePathStyle  bool   `env:"FORCE_PATH_STYLE" envDefault:"false"`
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	AccessTTL  time.Duration `env:"ACCESS_TTL" envDefault:"1h"`
	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
	SkipPaths  []string      `env:"SKIP_PATHS" envSeparator:"," envDefault:"/health,/metrics,/media,/api/register,/api/token"`
}

type RateLimitConfig struct {
	Enabled   bool    `env:"ENABLED" envDefault:"true"`
	RPS       float64 `env:"RPS" envDefault:"200"`
	Burst     int     `env:"BURST" envDefault:"50"`
	AuthRPS   float64 `env:"AUTH_RPS" envDefault:"1"`
	AuthBurst int     `env:"AUTH_BURST" envDefault:"5"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

// UploadConfig bounds performance uploads.
type UploadConfig struct {
	MaxBytes int64         `env:"MAX_BYTES" envDefault:"10485760"`
	LockTTL  time.Duration `env:"LOCK_TTL" envDefault:"30s"`
}

type DashboardConfig struct {
	WindowDays int           `env:"WINDOW_DAYS" envDefault:"180"`
	CacheTTL   time.Duration `env:"CACHE_TTL" envDefault:"60s"`
}

// SheetConfig overrides the header synonyms per metric. Empty lists keep
// the built-in table.
type SheetConfig struct {
	Impressions []string `env:"IMPRESSIONS_COLUMNS" envSeparator:","`
	Clicks      []string `env:"CLICKS_COLUMNS" envSeparator:","`
	Views       []string `env:"VIEWS_COLUMNS" envSeparator:","`
	Spend       []string `env:"SPEND_COLUMNS" envSeparator:","`
}

// Load reads .env.local and .env (process env wins), then parses DSP_*
// variables.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "DSP_"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.Auth.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() {
	var files []string
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			files = append(files, f)
		}
	}
	if len(files) > 0 {
		_ = godotenv.Load(files...)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("DSP_AUTH_JWT_SECRET is required outside development"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL < c.Auth.AccessTTL {
		errs = append(errs, errors.New("DSP_AUTH_REFRESH_TTL must be at least DSP_AUTH_ACCESS_TTL"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("DSP_UPLOAD_MAX_BYTES must be positive"))
	}
	if c.Dashboard.WindowDays <= 0 {
		errs = append(errs, errors.New("DSP_DASHBOARD_WINDOW_DAYS must be positive"))
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		errs = append(errs, errors.New("DSP_S3_BUCKET is required when S3 is enabled"))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
