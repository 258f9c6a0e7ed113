package app

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jrdx0/claudetray/internal/credentials"
)

// TokenStorageType selects where OAuth credentials are persisted.
type TokenStorageType string

const (
	TokenStorageFile    TokenStorageType = "file"
	TokenStorageKeyring TokenStorageType = "keyring"
	TokenStorageEnv     TokenStorageType = "env"
)

// Config is the application configuration, populated from defaults, an
// optional TOML file, and CLAUDETRAY_* environment variables.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Auth    AuthConfig    `koanf:"auth"`
	Monitor MonitorConfig `koanf:"monitor"`
	Status  StatusConfig  `koanf:"status"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"required,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"required,oneof=text json otlp"`
}

type AuthConfig struct {
	Storage TokenStorageType `koanf:"storage" validate:"required,oneof=file keyring env"`
	// Path overrides the credentials file location for file storage.
	Path            string        `koanf:"path"`
	CallbackTimeout time.Duration `koanf:"callback_timeout" validate:"gte=0"`
}

type MonitorConfig struct {
	Interval time.Duration `koanf:"interval" validate:"required,gte=1s"`
}

type StatusConfig struct {
	Enabled bool   `koanf:"enabled"`
	Listen  string `koanf:"listen" validate:"required_if=Enabled true,omitempty,hostname_port"`
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// NewTokenStore builds the credential store selected by the configuration.
func (c AuthConfig) NewTokenStore() (credentials.Store, error) {
	switch c.Storage {
	case TokenStorageFile:
		return credentials.NewFileStore(c.Path)
	case TokenStorageKeyring:
		return credentials.NewKeyringStore(), nil
	case TokenStorageEnv:
		return credentials.NewEnvStore(), nil
	default:
		return nil, fmt.Errorf("unsupported token storage type %q", c.Storage)
	}
}
