// Package drive uploads exported files to a Google Drive folder.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"

	"finboard/internal/export"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Saver struct {
	svc      *gdrive.Service
	folderID string
}

// New creates a Drive saver authenticated as a service account.
func New(ctx context.Context, creds export.Credentials, folderID string) (*Saver, error) {
	credentialsJSON, err := creds.Load()
	if err != nil {
		return nil, err
	}
	svc, err := gdrive.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gdrive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Saver{svc: svc, folderID: folderID}, nil
}

// Save implements export.Saver and returns the Drive file ID.
func (s *Saver) Save(ctx context.Context, name string, data []byte) (string, error) {
	file := &gdrive.File{Name: name, MimeType: xlsxMIME}
	if s.folderID != "" {
		file.Parents = []string{s.folderID}
	}

	created, err := s.svc.Files.Create(file).
		Media(bytes.NewReader(data)).
		Fields("id", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload %s to drive: %w", name, err)
	}

	slog.InfoContext(ctx, "Export uploaded to Google Drive",
		"file_id", created.Id,
		"name", name,
		"folder_id", s.folderID,
		"bytes", len(data))
	if created.WebViewLink != "" {
		return created.WebViewLink, nil
	}
	return created.Id, nil
}
