package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config is built once at startup from the environment and passed to every
// component at construction time. It is never mutated afterwards.
type Config struct {
	// HTTP server
	Port string

	// Database
	SQLiteDBPath string

	// Auth
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Brute-force login protection
	LoginMaxAttempts   int
	LoginLockoutWindow time.Duration

	// Notifications
	NotifyDedup      bool
	WarningThreshold float64 // fraction of the limit that triggers a warning

	// Rate limiting
	RequestsPerMinute int

	// AMQP job queue
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// AI provider
	AIEnabled   bool
	OpenAIKey   string
	OpenAIBase  string
	OpenAIModel string

	// Outbound email
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Google Sheets export
	SheetsSpreadsheetID   string
	GoogleOAuthClientJSON string
	GoogleOAuthTokenJSON  string

	// CORS
	AllowedOrigin string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/hisab.db"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		LoginMaxAttempts:   getEnvInt("LOGIN_MAX_ATTEMPTS", 3),
		LoginLockoutWindow: getEnvDuration("LOGIN_LOCKOUT_WINDOW", 15*time.Minute),

		NotifyDedup:      getEnvBool("NOTIFY_DEDUP", false),
		WarningThreshold: getEnvFloat("BUDGET_WARNING_THRESHOLD", 0.9),

		RequestsPerMinute: getEnvInt("REQUESTS_PER_MINUTE", 60),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "hisab"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "jobs"),

		AIEnabled:   getEnvBool("AI_ENABLED", false),
		OpenAIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBase:  getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel: getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnvInt("SMTP_PORT", 587),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		MailFrom: getEnv("MAIL_FROM", "no-reply@hisab.local"),

		SheetsSpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
		GoogleOAuthClientJSON: getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:  getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),

		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
	}
}

// Validate checks the configuration and returns a combined error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
			}
		}
	}

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 bytes")
	}

	if c.AccessTokenTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid access token TTL %v: must be at least 1 minute", c.AccessTokenTTL))
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		errs = append(errs, "refresh token TTL must exceed access token TTL")
	}

	if c.LoginMaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("invalid login max attempts %d: must be at least 1", c.LoginMaxAttempts))
	}
	if c.WarningThreshold <= 0 || c.WarningThreshold >= 1 {
		errs = append(errs, fmt.Sprintf("invalid warning threshold %v: must be in (0, 1)", c.WarningThreshold))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.AIEnabled && c.OpenAIKey == "" {
		errs = append(errs, "OPENAI_API_KEY is required when AI_ENABLED is set")
	}

	if c.SheetsSpreadsheetID != "" {
		if c.GoogleOAuthClientJSON == "" || c.GoogleOAuthTokenJSON == "" {
			errs = append(errs, "GOOGLE_OAUTH_CLIENT_JSON and GOOGLE_OAUTH_TOKEN_JSON are required for sheets export")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
