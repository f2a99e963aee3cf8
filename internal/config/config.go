// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/msomdec/estate-listings/internal/input"
	"github.com/msomdec/estate-listings/internal/media"
)

// Config holds every runtime setting.
type Config struct {
	Env  string
	Port string

	DatabaseDriver string // "sqlite" or "postgres"
	DatabasePath   string
	DatabaseURL    string

	JWTSecret    string
	TokenTTL     time.Duration
	BcryptCost   int
	NumberPolicy input.NumberPolicy

	CORSOrigins []string

	Cloudinary   media.CloudinaryConfig
	MediaBaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AuthRate      float64 // requests per second per client
	AuthBurst     int

	KafkaBrokers []string
	KafkaTopic   string

	OTelEndpoint    string
	OTelServiceName string
}

// Development reports whether APP_ENV is "development".
func (c *Config) Development() bool {
	return c.Env == "development"
}

// Load reads a .env file when one exists, then the environment. Variables
// already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables and validates it.
func FromEnv() (*Config, error) {
	var errs []error

	cfg := &Config{
		Env:            envOrDefault("APP_ENV", "production"),
		Port:           envOrDefault("PORT", "8000"),
		DatabaseDriver: strings.ToLower(envOrDefault("DATABASE_DRIVER", "sqlite")),
		DatabasePath:   envOrDefault("DATABASE_PATH", "estate.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		CORSOrigins:    splitList(envOrDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		Cloudinary: media.CloudinaryConfig{
			URL:       os.Getenv("CLOUDINARY_URL"),
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    envOrDefault("CLOUDINARY_FOLDER", "property-management"),
		},
		MediaBaseURL:    os.Getenv("MEDIA_BASE_URL"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      envOrDefault("KAFKA_TOPIC", "estate.leads"),
		OTelEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTelServiceName: envOrDefault("OTEL_SERVICE_NAME", "estate-listings"),
	}
	if cfg.MediaBaseURL == "" {
		cfg.MediaBaseURL = "http://localhost:" + cfg.Port
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(envOrDefault("TOKEN_TTL", "168h")); err != nil {
		errs = append(errs, fmt.Errorf("invalid TOKEN_TTL: %w", err))
	}
	if cfg.BcryptCost, err = strconv.Atoi(envOrDefault("BCRYPT_COST", "10")); err != nil {
		errs = append(errs, fmt.Errorf("invalid BCRYPT_COST: %w", err))
	}
	if cfg.NumberPolicy, err = input.ParseNumberPolicy(os.Getenv("NUMBER_POLICY")); err != nil {
		errs = append(errs, fmt.Errorf("invalid NUMBER_POLICY: %w", err))
	}
	if cfg.RedisDB, err = strconv.Atoi(envOrDefault("REDIS_DB", "0")); err != nil {
		errs = append(errs, fmt.Errorf("invalid REDIS_DB: %w", err))
	}
	if cfg.AuthRate, err = strconv.ParseFloat(envOrDefault("AUTH_RATE_PER_SEC", "0.2"), 64); err != nil {
		errs = append(errs, fmt.Errorf("invalid AUTH_RATE_PER_SEC: %w", err))
	}
	if cfg.AuthBurst, err = strconv.Atoi(envOrDefault("AUTH_RATE_BURST", "10")); err != nil {
		errs = append(errs, fmt.Errorf("invalid AUTH_RATE_BURST: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would make the server insecure or unusable.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	switch c.DatabaseDriver {
	case "sqlite":
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for sqlite"))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", c.DatabaseDriver))
	}
	if c.AuthRate < 0 || c.AuthBurst < 1 {
		errs = append(errs, errors.New("AUTH_RATE_PER_SEC must be >= 0 and AUTH_RATE_BURST >= 1"))
	}

	return errors.Join(errs...)
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
