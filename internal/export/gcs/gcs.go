// Package gcs writes exported files to a Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"cloud.google.com/go/storage"
	goption "google.golang.org/api/option"

	"finboard/internal/export"
)

type Saver struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a saver for bucket. Objects are written under prefix, which
// may be empty.
func New(ctx context.Context, creds export.Credentials, bucket, prefix string) (*Saver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("missing bucket name")
	}
	credentialsJSON, err := creds.Load()
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx, goption.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Saver{client: client, bucket: bucket, prefix: prefix}, nil
}

// ObjectName is the object key a file is stored under: the prefix, a UTC
// timestamp and the file name, so repeated exports never overwrite.
func ObjectName(prefix, name string, at time.Time) string {
	return path.Join(prefix, at.UTC().Format("20060102T150405Z")+"-"+name)
}

// Save implements export.Saver and returns the gs:// URI.
func (s *Saver) Save(ctx context.Context, name string, data []byte) (string, error) {
	object := ObjectName(s.prefix, name, time.Now())
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", object, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", s.bucket, object)
	slog.InfoContext(ctx, "Export written to Cloud Storage", "uri", uri, "bytes", len(data))
	return uri, nil
}

// Close releases the storage client.
func (s *Saver) Close() error {
	return s.client.Close()
}
