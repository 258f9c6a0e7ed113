package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "claude-tray"
	keyringUser    = "oauth-credentials"
)

// KeyringStore keeps the credential pair in the OS keyring as a JSON blob.
type KeyringStore struct {
	service string
	user    string
}

// NewKeyringStore creates a store backed by the OS keyring.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService, user: keyringUser}
}

// Load reads and decodes the keyring entry.
func (s *KeyringStore) Load(_ context.Context) (Credentials, error) {
	secret, err := keyring.Get(s.service, s.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Credentials{}, ErrNotFound
		}
		return Credentials{}, fmt.Errorf("failed to read keyring: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(secret), &creds); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return creds, nil
}

// Save replaces the keyring entry with creds.
func (s *KeyringStore) Save(_ context.Context, creds Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}

	if err := keyring.Set(s.service, s.user, string(data)); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}

	return nil
}

// Clear removes the keyring entry.
func (s *KeyringStore) Clear(_ context.Context) error {
	if err := keyring.Delete(s.service, s.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to clear keyring: %w", err)
	}
	return nil
}
