// Package cache persists the most recent usage snapshot so one-shot readers
// (the status command, scripts) can avoid hitting the provider on every call.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jrdx0/claudetray/internal/usage"
)

const defaultTTL = 60 * time.Second

// Entry is one cached snapshot with its fetch time.
type Entry struct {
	Snapshot  *usage.Snapshot `json:"snapshot"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// IsValid reports whether the entry is fresh enough to serve.
func (e *Entry) IsValid() bool {
	return time.Since(e.FetchedAt) < defaultTTL
}

func cachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "claude-tray", "usage.json"), nil
}

// Read loads the cached entry.
func Read() (*Entry, error) {
	path, err := cachePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Write stores snapshot via a temp file and rename so concurrent readers
// never observe a partial entry.
func Write(snapshot *usage.Snapshot) error {
	path, err := cachePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.Marshal(Entry{Snapshot: snapshot, FetchedAt: time.Now()})
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	return os.Rename(tmp, path)
}
