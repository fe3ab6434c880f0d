package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Env      string         `yaml:"env"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Booking  BookingConfig  `yaml:"booking"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                    string `yaml:"driver"` // postgres or sqlite
	DSN                       string `yaml:"dsn"`
	MaxOpenConns              int    `yaml:"max_open_conns"`
	MaxIdleConns              int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes    int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel                  string `yaml:"log_level"`
	EnableExclusionConstraint bool   `yaml:"enable_exclusion_constraint"`
}

// AuthConfig holds the bearer token settings.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTLMinutes int           `yaml:"token_ttl_minutes"`
	TokenTTL        time.Duration `yaml:"-"`
}

// BookingConfig holds the business rules applied to every reservation.
type BookingConfig struct {
	OpenHour           int            `yaml:"open_hour"`
	CloseHour          int            `yaml:"close_hour"`
	GranularityMinutes int            `yaml:"granularity_minutes"`
	MinDurationMinutes int            `yaml:"min_duration_minutes"`
	MaxDurationMinutes int            `yaml:"max_duration_minutes"`
	Timezone           string         `yaml:"timezone"`
	Location           *time.Location `yaml:"-"`
}

// Load reads the configuration from the given path, then applies .env and
// environment overrides. A missing file is tolerated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded, using process environment")
	}

	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		log.Printf("config file %s not found, relying on defaults and environment", path)
	default:
		return nil, err
	}

	applyEnv(&cfg)
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("BUSINESS_TIMEZONE"); v != "" {
		cfg.Booking.Timezone = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			log.Printf("ignoring invalid SERVER_PORT %q", v)
		}
	}
}

func applyDefaults(cfg *Config) error {
	if cfg.Env == "" {
		cfg.Env = "development"
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database.driver %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is required (set DATABASE_DSN)")
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMinutes <= 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.Env == "production" {
			return errors.New("auth.jwt_secret is required in production (set JWT_SECRET)")
		}
		log.Printf("auth.jwt_secret is not set; using an insecure development secret")
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}
	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 30
	}
	cfg.Auth.TokenTTL = time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute

	b := &cfg.Booking
	if b.OpenHour == 0 && b.CloseHour == 0 {
		b.OpenHour, b.CloseHour = 8, 18
	}
	if b.OpenHour < 0 || b.CloseHour > 24 || b.OpenHour >= b.CloseHour {
		return fmt.Errorf("invalid booking hours %d-%d", b.OpenHour, b.CloseHour)
	}
	if b.GranularityMinutes <= 0 {
		b.GranularityMinutes = 30
	}
	if 60%b.GranularityMinutes != 0 {
		return fmt.Errorf("booking.granularity_minutes must divide 60, got %d", b.GranularityMinutes)
	}
	if b.MinDurationMinutes <= 0 {
		b.MinDurationMinutes = 30
	}
	if b.MaxDurationMinutes <= 0 {
		b.MaxDurationMinutes = 240
	}
	if b.MinDurationMinutes > b.MaxDurationMinutes {
		return fmt.Errorf("booking.min_duration_minutes (%d) exceeds max (%d)", b.MinDurationMinutes, b.MaxDurationMinutes)
	}
	if b.Timezone == "" {
		b.Timezone = "Local"
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return fmt.Errorf("load booking.timezone %q: %w", b.Timezone, err)
	}
	b.Location = loc

	return nil
}
