// Package checkpointfile persists run progress as a JSON document on disk.
package checkpointfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/domain"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/ports"
)

// Store reads and writes the checkpoint file. Loads never fail loudly: a
// missing or malformed file is simply "no checkpoint".
type Store struct {
	path   string
	logger *slog.Logger
}

var _ ports.CheckpointStore = (*Store)(nil)

// New wires a store at the given path.
func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load returns the prior checkpoint and whether one existed.
func (s *Store) Load(_ context.Context) (domain.Progress, bool, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.warn("checkpoint unreadable, starting fresh", "path", s.path, "error", err)
		}
		return domain.Progress{}, false, nil
	}

	var progress domain.Progress
	if err := json.Unmarshal(raw, &progress); err != nil {
		s.warn("checkpoint malformed, starting fresh", "path", s.path, "error", err)
		return domain.Progress{}, false, nil
	}

	return progress, true, nil
}

// Save overwrites the checkpoint atomically via a temp file and rename.
func (s *Store) Save(_ context.Context, p domain.Progress) error {
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.json")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace checkpoint: %w", err)
	}

	return nil
}

// Clear removes the checkpoint; a missing file is not an error.
func (s *Store) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}

func (s *Store) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
