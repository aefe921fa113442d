package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "VaultBank"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultSessionTTL    = 30 * time.Minute
	defaultLoginPerMin   = 5
	defaultCookieName    = "session"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration

	// Session settings.
	JWTSecret      string
	SessionTTL     time.Duration
	CookieName     string
	CookieSecure   bool
	CookieSameSite string

	// Abuse controls.
	LoginAttemptsPerMin int

	// Optional bootstrap admin, provisioned at startup when all three are set.
	AdminUsername string
	AdminAccount  string
	AdminPassword string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:             getEnv("APP_NAME", defaultAppName),
		AppEnv:              getEnv("APP_ENV", defaultAppEnv),
		Port:                getEnv("PORT", defaultPort),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		ShutdownPeriod:      defaultShutdownDelay,
		JWTSecret:           os.Getenv("JWT_SECRET"),
		SessionTTL:          defaultSessionTTL,
		CookieName:          getEnv("SESSION_COOKIE_NAME", defaultCookieName),
		CookieSecure:        getEnv("COOKIE_SECURE", "true") == "true",
		CookieSameSite:      getEnv("COOKIE_SAMESITE", "Strict"),
		LoginAttemptsPerMin: defaultLoginPerMin,
		AdminUsername:       os.Getenv("ADMIN_USERNAME"),
		AdminAccount:        os.Getenv("ADMIN_ACCOUNT_NUMBER"),
		AdminPassword:       os.Getenv("ADMIN_PASSWORD"),
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = d
	}

	if v := os.Getenv("LOGIN_ATTEMPTS_PER_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOGIN_ATTEMPTS_PER_MIN: %w", err)
		}
		cfg.LoginAttemptsPerMin = n
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
