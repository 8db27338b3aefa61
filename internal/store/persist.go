package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Persist writes the current state as JSON to path via a temp-file rename.
// Persistence is best-effort: callers log failures and carry on, because the
// in-memory state is the source of truth.
func (s *Store) Persist(path string) error {
	if path == "" {
		return nil
	}
	snap := s.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
