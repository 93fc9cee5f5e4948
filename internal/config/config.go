// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"invoicing/internal/logger"
)

type Config struct {
	// Database
	DatabaseURL string
	DBMaxConns  int32

	// HTTP
	ServerPort     string
	AppBaseURL     string
	AllowedOrigins string
	RequestTimeout time.Duration

	// Auth
	JWTSecret string

	// Email (Resend)
	ResendAPIKey string
	EmailFrom    string
	EmailAPIURL  string
	EmailTimeout time.Duration

	// Public share links
	PublicShowNotes bool
	PublicRateLimit float64 // requests per second per client IP
	PublicRateBurst int

	// Issuer shown on invoices
	CompanyName  string
	CompanyEmail string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the environment. It reports malformed values but does not
// require any key; callers check what they need with the Require methods.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DBMaxConns:      int32(getInt("DB_MAX_CONNS", 10, &errs)),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		AppBaseURL:      strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", ""),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 15*time.Second, &errs),
		JWTSecret:       getEnv("AUTH_JWT_SECRET", ""),
		ResendAPIKey:    getEnv("RESEND_API_KEY", ""),
		EmailFrom:       getEnv("EMAIL_FROM", ""),
		EmailAPIURL:     getEnv("EMAIL_API_URL", "https://api.resend.com/emails"),
		EmailTimeout:    getDuration("EMAIL_TIMEOUT", 10*time.Second, &errs),
		PublicShowNotes: getBool("PUBLIC_SHOW_NOTES", false, &errs),
		PublicRateLimit: getFloat("PUBLIC_RATE_LIMIT", 2, &errs),
		PublicRateBurst: getInt("PUBLIC_RATE_BURST", 10, &errs),
		CompanyName:     getEnv("COMPANY_NAME", "Invoicing"),
		CompanyEmail:    getEnv("COMPANY_EMAIL", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBMaxConns < 0 {
		return fmt.Errorf("DB_MAX_CONNS must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.EmailTimeout <= 0 {
		return fmt.Errorf("EMAIL_TIMEOUT must be positive")
	}
	if c.PublicRateLimit <= 0 || c.PublicRateBurst <= 0 {
		return fmt.Errorf("PUBLIC_RATE_LIMIT and PUBLIC_RATE_BURST must be positive")
	}
	return nil
}

// RequireDatabase checks the keys every database-backed command needs.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// RequireAuth checks the keys needed to verify or mint session tokens.
func (c *Config) RequireAuth() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	return nil
}

// EmailEnabled reports whether enough is configured to send invoice email.
func (c *Config) EmailEnabled() bool {
	return c.ResendAPIKey != "" && c.EmailFrom != ""
}

// LoggerConfig returns the logger settings.
func (c *Config) LoggerConfig() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Format = c.LogFormat
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int, errs *[]error) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not an integer", key, raw))
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64, errs *[]error) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a number", key, raw))
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool, errs *[]error) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a boolean", key, raw))
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a duration", key, raw))
		return defaultValue
	}
	return v
}
