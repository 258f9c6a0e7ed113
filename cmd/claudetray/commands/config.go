package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/jrdx0/claudetray/internal/app"
	"github.com/jrdx0/claudetray/internal/auth"
	"github.com/jrdx0/claudetray/internal/monitor"
)

const envPrefix = "CLAUDETRAY_"

// loadConfig builds the configuration from layered sources, lowest to
// highest precedence: defaults, an optional TOML file, CLAUDETRAY_*
// environment variables, and command-line flags. Environment keys use a
// double underscore as section separator, e.g. CLAUDETRAY_AUTH__STORAGE
// maps to auth.storage.
func loadConfig(path string, cmd *cli.Command, environ func() []string) (app.Config, error) {
	k := koanf.New(".")

	defaults := confmap.Provider(map[string]interface{}{
		"log.level":             "info",
		"log.format":            "text",
		"auth.storage":          "file",
		"auth.callback_timeout": auth.DefaultCallbackTimeout,
		"monitor.interval":      monitor.DefaultInterval,
		"status.enabled":        false,
		"status.listen":         "127.0.0.1:8234",
	}, ".")
	if err := k.Load(defaults, nil); err != nil {
		return app.Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			// A missing file is only an error when the user named it explicitly
			if !errors.Is(err, fs.ErrNotExist) || cmd.IsSet("config") {
				return app.Config{}, fmt.Errorf("failed to load config file %q: %w", path, err)
			}
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix:      envPrefix,
		EnvironFunc: environ,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			// "__" separates sections so keys like callback_timeout survive
			return strings.ReplaceAll(key, "__", "."), value
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return app.Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	flagOverrides := map[string]interface{}{}
	if cmd.IsSet("log-level") {
		flagOverrides["log.level"] = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		flagOverrides["log.format"] = cmd.String("log-format")
	}
	if len(flagOverrides) > 0 {
		if err := k.Load(confmap.Provider(flagOverrides, "."), nil); err != nil {
			return app.Config{}, fmt.Errorf("failed to apply flags: %w", err)
		}
	}

	var cfg app.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return app.Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return app.Config{}, err
	}

	return cfg, nil
}

// formatDuration renders a duration the way humans read countdowns, dropping
// zero components ("2h 5m", "45s").
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < 0 {
		d = 0
	}

	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second

	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
