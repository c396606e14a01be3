package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
)

type Config struct {
	// HTTP Server
	Port string

	// Mutating requests allowed per client per minute
	RateLimitPerMinute int

	// Persistence
	DataBackend      string
	SQLiteDBPath     string
	SQLiteMaxPages   int
	MemoryQuotaBytes int64

	// AMQP (change events are disabled when AMQPURL is empty)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID    string
	GoogleSheetName        string
	GoogleBudgetsSheetName string

	// Worker
	MirrorTarget string
	SyncInterval time.Duration

	// Reports
	Currency        string
	ReportCacheSize int
	ReportCacheTTL  time.Duration

	LogLevel string
}

var (
	validBackends      = []string{"memory", "sqlite"}
	validMirrorTargets = []string{"memory", "sheets"}
	validLogLevels     = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend:      getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),
		SQLiteMaxPages:   getEnvInt("SQLITE_MAX_PAGES", 0),
		MemoryQuotaBytes: int64(getEnvInt("MEMORY_QUOTA_BYTES", 5*1024*1024)),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changes"),

		GoogleSpreadsheetID:    getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:        getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleBudgetsSheetName: getEnv("GOOGLE_BUDGETS_SHEET_NAME", "Budgets"),

		MirrorTarget: getEnv("MIRROR_TARGET", "sheets"),
		SyncInterval: getEnvDuration("SYNC_INTERVAL", 5*time.Minute),

		Currency:        strings.ToUpper(getEnv("CURRENCY", "USD")),
		ReportCacheSize: getEnvInt("REPORT_CACHE_SIZE", 128),
		ReportCacheTTL:  getEnvDuration("REPORT_CACHE_TTL", time.Minute),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Validate data backend
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
		if c.SQLiteMaxPages < 0 {
			errors = append(errors, fmt.Sprintf("invalid SQLite max pages %d: must not be negative", c.SQLiteMaxPages))
		}
	}

	if c.DataBackend == "memory" && c.MemoryQuotaBytes < 0 {
		errors = append(errors, fmt.Sprintf("invalid memory quota %d: must not be negative", c.MemoryQuotaBytes))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !slices.Contains(validMirrorTargets, c.MirrorTarget) {
		errors = append(errors, fmt.Sprintf("invalid mirror target '%s': must be one of %v", c.MirrorTarget, validMirrorTargets))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if money.GetCurrency(c.Currency) == nil {
		errors = append(errors, fmt.Sprintf("invalid currency '%s': must be an ISO 4217 code", c.Currency))
	}

	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}
	if c.ReportCacheTTL < 0 || c.ReportCacheTTL > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must be between 0 and 1 hour", c.ReportCacheTTL))
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// MirrorEnabled reports whether the worker writes to Google Sheets.
func (c *Config) MirrorEnabled() bool {
	return c.MirrorTarget == "sheets" && c.GoogleSpreadsheetID != ""
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
