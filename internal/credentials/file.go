package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName       = "claude-tray"
	credentialsFileName = "credentials.json"
)

// FileStore persists credentials as pretty-printed JSON under the user's
// config directory. Writes overwrite the previous content and are not
// transactional: a crash mid-write can corrupt the file, which at worst
// forces a re-login.
type FileStore struct {
	path string
}

// NewFileStore resolves the credentials path under the user's home
// directory. A non-empty path overrides the default location.
func NewFileStore(path string) (*FileStore, error) {
	if path != "" {
		return &FileStore{path: path}, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvUnset, err)
	}

	return &FileStore{
		path: filepath.Join(home, ".config", configDirName, credentialsFileName),
	}, nil
}

// Path returns the location of the credentials file.
func (s *FileStore) Path() string { return s.path }

// Load reads and decodes the credentials file.
func (s *FileStore) Load(_ context.Context) (Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return creds, nil
}

// Save writes creds to the credentials file, creating the config directory
// if needed and overwriting any previous content.
func (s *FileStore) Save(_ context.Context, creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

// Clear removes the credentials file.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}
