package export

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Credentials holds service account credentials for the Google savers,
// either inline JSON or a path to a key file.
type Credentials struct {
	JSON string
	File string
}

// Load returns the credential bytes, preferring inline JSON, then File, then
// GOOGLE_APPLICATION_CREDENTIALS.
func (c Credentials) Load() ([]byte, error) {
	if js := strings.TrimSpace(c.JSON); js != "" {
		return []byte(js), nil
	}
	file := strings.TrimSpace(c.File)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}
