package backend

import (
	"context"
	"fmt"

	"finboard/internal/amqp"
	"finboard/internal/export/disk"
	"finboard/internal/export/drive"
	"finboard/internal/export/gcs"
	"finboard/internal/log"
	"finboard/internal/notify"
	"finboard/internal/remote/httpapi"
	"finboard/internal/remote/memory"
	"finboard/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create builds the store, the export saver and the notifier. On failure
// everything built so far is released.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	if err := f.createStore(config, res); err != nil {
		res.Close()
		return nil, err
	}
	if err := f.createSaver(ctx, config, res); err != nil {
		res.Close()
		return nil, err
	}
	f.createNotifier(config, res)
	return res, nil
}

func (f *DefaultFactory) createStore(config Config, res *Result) error {
	switch config.Type {
	case HTTPBackend:
		client, err := httpapi.New(httpapi.Options{
			BaseURL: config.APIBaseURL,
			Token:   config.APIToken,
			Timeout: config.APITimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize API client: %w", err)
		}
		res.Store = client
		f.logger.Info("Initialized HTTP backend", "base_url", config.APIBaseURL, "timeout", config.APITimeout)

	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.Store = repo
		res.addCleanup(repo.Close)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	case MemoryBackend:
		res.Store = memory.New(config.MemoryEnvelope)
		f.logger.Info("Initialized memory backend", "envelope", string(config.MemoryEnvelope))

	default:
		return fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	return nil
}

func (f *DefaultFactory) createSaver(ctx context.Context, config Config, res *Result) error {
	switch config.Export {
	case DiskTarget:
		s, err := disk.New(config.ExportDir, config.ExportPassphrase)
		if err != nil {
			return fmt.Errorf("failed to initialize disk export: %w", err)
		}
		res.Saver = s
		f.logger.Info("Exports saved to disk", "dir", config.ExportDir, "encrypted", config.ExportPassphrase != "")

	case DriveTarget:
		s, err := drive.New(ctx, config.Credentials, config.DriveFolderID)
		if err != nil {
			return fmt.Errorf("failed to initialize Drive export: %w", err)
		}
		res.Saver = s
		f.logger.Info("Exports uploaded to Drive", "folder_id", config.DriveFolderID)

	case GCSTarget:
		s, err := gcs.New(ctx, config.Credentials, config.GCSBucket, config.GCSPrefix)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloud Storage export: %w", err)
		}
		res.Saver = s
		res.addCleanup(s.Close)
		f.logger.Info("Exports uploaded to Cloud Storage", "bucket", config.GCSBucket)

	default:
		return fmt.Errorf("unsupported export target: %s", config.Export)
	}
	return nil
}

// createNotifier always logs notices and also publishes them when AMQP is configured.
func (f *DefaultFactory) createNotifier(config Config, res *Result) {
	logNotifier := notify.NewLog(f.logger.WithComponent(log.ComponentNotify))
	if config.AMQPURL == "" {
		res.Notifier = logNotifier
		return
	}

	pub := amqp.NewPublisher(config.AMQPURL, config.AMQPExchange, f.logger.WithComponent(log.ComponentAMQP))
	res.Notifier = notify.Fanout{logNotifier, pub}
	res.addCleanup(pub.Close)
	f.logger.Info("Publishing notices over AMQP", "exchange", config.AMQPExchange)
}
