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
)

// Data backends
const (
	BackendHTTP   = "http"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Export targets
const (
	ExportDisk  = "disk"
	ExportDrive = "drive"
	ExportGCS   = "gcs"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Backend selection
	DataBackend string

	// Remote API
	APIBaseURL string
	APIToken   string
	APITimeout time.Duration

	// Database
	SQLiteDBPath string

	// AMQP notices, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string

	// Export
	ExportTarget     string
	ExportDir        string
	ExportPassphrase string
	GCSBucket        string
	GCSPrefix        string
	DriveFolderID    string

	// Google service account, shared by drive and gcs targets
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Series cache
	SeriesCacheSize int
	SeriesCacheTTL  time.Duration
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend: getEnv("DATA_BACKEND", BackendMemory),

		APIBaseURL: getEnv("API_BASE_URL", ""),
		APIToken:   getEnv("API_TOKEN", ""),
		APITimeout: getEnvDuration("API_TIMEOUT", 10*time.Second),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finboard.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finboard.notices"),

		ExportTarget:     getEnv("EXPORT_TARGET", ExportDisk),
		ExportDir:        getEnv("EXPORT_DIR", "./exports"),
		ExportPassphrase: getEnv("EXPORT_PASSPHRASE", ""),
		GCSBucket:        getEnv("GCS_BUCKET", ""),
		GCSPrefix:        getEnv("GCS_PREFIX", "exports"),
		DriveFolderID:    getEnv("GOOGLE_DRIVE_FOLDER_ID", ""),

		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		SeriesCacheSize: getEnvInt("SERIES_CACHE_SIZE", 16),
		SeriesCacheTTL:  getEnvDuration("SERIES_CACHE_TTL", 5*time.Minute),
	}
}

// Validate validates the configuration and returns every problem found in one error.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	validBackends := []string{BackendHTTP, BackendSQLite, BackendMemory}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendHTTP:
		if c.APIBaseURL == "" {
			errors = append(errors, "API_BASE_URL is required when using http backend")
		} else if u, err := url.Parse(c.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s': must be an absolute http(s) URL", c.APIBaseURL))
		}
		if c.APITimeout <= 0 {
			errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be positive", c.APITimeout))
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	validTargets := []string{ExportDisk, ExportDrive, ExportGCS}
	switch c.ExportTarget {
	case ExportDisk:
		if c.ExportDir == "" {
			errors = append(errors, "EXPORT_DIR is required when using disk export target")
		}
	case ExportDrive:
		if c.DriveFolderID == "" {
			errors = append(errors, "GOOGLE_DRIVE_FOLDER_ID is required when using drive export target")
		}
		errors = append(errors, c.validateServiceAccount()...)
	case ExportGCS:
		if c.GCSBucket == "" {
			errors = append(errors, "GCS_BUCKET is required when using gcs export target")
		}
		errors = append(errors, c.validateServiceAccount()...)
	default:
		errors = append(errors, fmt.Sprintf("invalid export target '%s': must be one of %v", c.ExportTarget, validTargets))
	}

	if c.SeriesCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid series cache size %d: must be at least 1", c.SeriesCacheSize))
	}
	if c.SeriesCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid series cache TTL %v: must not be negative", c.SeriesCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// validateServiceAccount only checks that an explicitly named key file exists.
// Missing credentials surface when the saver is built.
func (c *Config) validateServiceAccount() []string {
	if c.GoogleServiceAccountFile == "" {
		return nil
	}
	if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
		return []string{fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile)}
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
