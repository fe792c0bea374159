package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hongminglow/recruit-portal/internal/auth"
	"github.com/hongminglow/recruit-portal/internal/eligibility"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port               string
	StorageBackend     string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTTTL             time.Duration
	SessionSecret      string
	CORSOrigins        []string
	PasswordStorage    string
	MinAge             int
	MaxAge             int
	MaxUploadBytes     int64
	LoginRatePerMinute int
	StoreMaxAttempts   int
	LogLevel           string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:            fallback(os.Getenv("PORT"), "8080"),
		StorageBackend:  strings.ToLower(fallback(os.Getenv("STORAGE_BACKEND"), BackendMemory)),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:        strings.TrimSpace(os.Getenv("REDIS_URL")),
		JWTSecret:       strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:       fallback(os.Getenv("JWT_ISSUER"), "recruit-portal"),
		CORSOrigins:     parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		PasswordStorage: strings.ToLower(fallback(os.Getenv("PASSWORD_STORAGE"), auth.PasswordBcrypt)),
		LogLevel:        fallback(os.Getenv("LOG_LEVEL"), "info"),
	}
	cfg.SessionSecret = fallback(os.Getenv("SESSION_COOKIE_SECRET"), cfg.JWTSecret)

	cfg.JWTTTL = time.Duration(positiveInt("JWT_TTL_MINUTES", 60)) * time.Minute
	cfg.MinAge = positiveInt("MIN_AGE", eligibility.DefaultMinAge)
	cfg.MaxAge = positiveInt("MAX_AGE", eligibility.DefaultMaxAge)
	cfg.MaxUploadBytes = int64(positiveInt("MAX_UPLOAD_MB", 10)) << 20
	cfg.LoginRatePerMinute = positiveInt("LOGIN_RATE_PER_MINUTE", 10)
	cfg.StoreMaxAttempts = positiveInt("STORE_MAX_CAS_ATTEMPTS", 5)

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	switch cfg.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for the postgres backend")
		}
	case BackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, errors.New("REDIS_URL is required for the redis backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	switch cfg.PasswordStorage {
	case auth.PasswordBcrypt, auth.PasswordPlaintext:
	default:
		return Config{}, fmt.Errorf("unknown PASSWORD_STORAGE %q", cfg.PasswordStorage)
	}

	if cfg.MinAge > cfg.MaxAge {
		return Config{}, fmt.Errorf("MIN_AGE (%d) must not exceed MAX_AGE (%d)", cfg.MinAge, cfg.MaxAge)
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Policy returns the eligibility policy described by the age bounds.
func (c Config) Policy() eligibility.Policy {
	return eligibility.Policy{MinAge: c.MinAge, MaxAge: c.MaxAge}
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

// positiveInt reads key as a positive integer, falling back to def when unset or invalid.
func positiveInt(key string, def int) int {
	n, err := strconv.Atoi(fallback(os.Getenv(key), strconv.Itoa(def)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
