// Package credentials persists the single OAuth credential pair this machine
// holds. Storage backends share the Store interface so the rest of the
// application never touches paths, keyrings or environment variables.
package credentials

import (
	"context"
	"errors"
)

// Credentials is the persisted token pair. Both fields must be non-empty for
// the pair to be considered valid; the pair is only ever replaced as a whole,
// never partially updated.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Valid reports whether both tokens are present.
func (c Credentials) Valid() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// Store persists the credential pair.
type Store interface {
	// Load retrieves the stored pair.
	Load(ctx context.Context) (Credentials, error)

	// Save replaces any stored pair with creds.
	Save(ctx context.Context, creds Credentials) error

	// Clear removes the stored pair. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

var (
	// ErrEnvUnset indicates the environment needed to locate credentials is
	// missing (no home directory, or the token variable is unset).
	ErrEnvUnset = errors.New("credentials environment not set")

	// ErrNotFound indicates no credentials are stored.
	ErrNotFound = errors.New("credentials not found")

	// ErrCorrupt indicates stored credentials could not be decoded.
	ErrCorrupt = errors.New("credentials corrupt")

	// ErrReadOnly indicates the storage backend cannot be written.
	ErrReadOnly = errors.New("credential storage is read-only")
)
