package backend

import (
	"context"
	"errors"

	"finboard/internal/export"
	"finboard/internal/notify"
	"finboard/internal/remote"
)

// CleanupFunc releases a resource created by the factory
type CleanupFunc func() error

// Result bundles everything the services need from the outside world.
type Result struct {
	Store    remote.Store
	Saver    export.Saver
	Notifier notify.Notifier
	cleanups []CleanupFunc
}

func (r *Result) addCleanup(fn CleanupFunc) {
	if fn != nil {
		r.cleanups = append(r.cleanups, fn)
	}
}

// Close runs cleanups in reverse creation order and joins their errors.
func (r *Result) Close() error {
	var errs []error
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		if err := r.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.cleanups = nil
	return errors.Join(errs...)
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// BackendType represents the type of data backend
type BackendType string

const (
	HTTPBackend   BackendType = "http"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case HTTPBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// ExportTarget is where export downloads are written.
type ExportTarget string

const (
	DiskTarget  ExportTarget = "disk"
	DriveTarget ExportTarget = "drive"
	GCSTarget   ExportTarget = "gcs"
)

func (t ExportTarget) IsValid() bool {
	switch t {
	case DiskTarget, DriveTarget, GCSTarget:
		return true
	default:
		return false
	}
}
