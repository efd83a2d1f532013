package backend

import (
	"fmt"
	"time"

	"finboard/internal/config"
	"finboard/internal/export"
	"finboard/internal/remote/memory"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// HTTP specific
	APIBaseURL string
	APIToken   string
	APITimeout time.Duration

	// SQLite specific
	SQLiteDBPath string

	// Memory specific
	MemoryEnvelope memory.Envelope

	// Notices
	AMQPURL      string
	AMQPExchange string

	// Export
	Export           ExportTarget
	ExportDir        string
	ExportPassphrase string
	DriveFolderID    string
	GCSBucket        string
	GCSPrefix        string
	Credentials      export.Credentials
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Type: BackendType(appConfig.DataBackend),

		APIBaseURL: appConfig.APIBaseURL,
		APIToken:   appConfig.APIToken,
		APITimeout: appConfig.APITimeout,

		SQLiteDBPath:   appConfig.SQLiteDBPath,
		MemoryEnvelope: memory.EnvelopeTransactions,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,

		Export:           ExportTarget(appConfig.ExportTarget),
		ExportDir:        appConfig.ExportDir,
		ExportPassphrase: appConfig.ExportPassphrase,
		DriveFolderID:    appConfig.DriveFolderID,
		GCSBucket:        appConfig.GCSBucket,
		GCSPrefix:        appConfig.GCSPrefix,
		Credentials: export.Credentials{
			JSON: appConfig.GoogleServiceAccountJSON,
			File: appConfig.GoogleServiceAccountFile,
		},
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	switch c.Type {
	case HTTPBackend:
		if c.APIBaseURL == "" {
			return fmt.Errorf("API base URL is required for http backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	}

	if !c.Export.IsValid() {
		return fmt.Errorf("invalid export target: %s", c.Export)
	}
	switch c.Export {
	case DriveTarget:
		if c.DriveFolderID == "" {
			return fmt.Errorf("Drive folder ID is required for drive export")
		}
	case GCSTarget:
		if c.GCSBucket == "" {
			return fmt.Errorf("bucket is required for gcs export")
		}
	}
	return nil
}
