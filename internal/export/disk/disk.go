// Package disk saves exported files to a local directory, optionally
// encrypted with an age passphrase.
package disk

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"filippo.io/age"
)

type Saver struct {
	dir       string
	recipient *age.ScryptRecipient
}

// New returns a saver writing into dir. A non-empty passphrase makes every
// file age-encrypted and suffixed with ".age".
func New(dir, passphrase string) (*Saver, error) {
	if dir == "" {
		dir = "."
	}
	s := &Saver{dir: dir}
	if passphrase != "" {
		r, err := age.NewScryptRecipient(passphrase)
		if err != nil {
			return nil, fmt.Errorf("age recipient: %w", err)
		}
		s.recipient = r
	}
	return s, nil
}

// Save implements export.Saver.
func (s *Saver) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	if s.recipient != nil {
		enc, err := encrypt(data, s.recipient)
		if err != nil {
			return "", fmt.Errorf("encrypt export: %w", err)
		}
		data = enc
		name += ".age"
	}

	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}

	slog.InfoContext(ctx, "Export saved to disk", "path", path, "bytes", len(data), "encrypted", s.recipient != nil)
	return path, nil
}

func encrypt(data []byte, recipient *age.ScryptRecipient) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
