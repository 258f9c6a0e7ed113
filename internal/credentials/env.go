package credentials

import (
	"context"
	"fmt"
	"os"
)

// EnvTokenVar names the environment variable holding a raw access token.
const EnvTokenVar = "CLAUDE_TRAY_OAUTH_TOKEN"

// EnvStore reads a raw access token from the environment. It is read-only:
// there is no refresh token, so the watcher cannot recover from expiry and
// login/logout are rejected on this backend.
type EnvStore struct {
	lookup func(string) (string, bool)
}

// NewEnvStore creates a store backed by the process environment.
func NewEnvStore() *EnvStore {
	return &EnvStore{lookup: os.LookupEnv}
}

// Load returns a credential pair holding only the access token.
func (s *EnvStore) Load(_ context.Context) (Credentials, error) {
	token, ok := s.lookup(EnvTokenVar)
	if !ok || token == "" {
		return Credentials{}, fmt.Errorf("%w: %s", ErrEnvUnset, EnvTokenVar)
	}
	return Credentials{AccessToken: token}, nil
}

// Save is not supported on the environment backend.
func (s *EnvStore) Save(context.Context, Credentials) error { return ErrReadOnly }

// Clear is not supported on the environment backend.
func (s *EnvStore) Clear(context.Context) error { return ErrReadOnly }
