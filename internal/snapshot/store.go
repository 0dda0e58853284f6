// Package snapshot persists tracker state: the JSON data file, the CSV
// exchange files and the XLSX workbook export.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"spendlog/internal/core"
)

// FileStore keeps the snapshot in a single JSON file, replaced atomically
// on every save.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is empty: %w", core.ErrPersistence)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w: %w", core.ErrPersistence, err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the snapshot. A missing file yields an empty snapshot.
// Month keys are normalized; unknown months are dropped with a warning.
func (s *FileStore) Load(ctx context.Context) (core.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.InfoContext(ctx, "No snapshot found, starting empty", "path", s.path)
		return core.NewSnapshot(), nil
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read snapshot: %w: %w", core.ErrPersistence, err)
	}

	var raw core.Snapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode snapshot %s: %w: %w", s.path, core.ErrPersistence, err)
	}
	return normalize(ctx, raw), nil
}

// Save writes the snapshot to a temporary file and renames it into place.
func (s *FileStore) Save(ctx context.Context, snap core.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w: %w", core.ErrPersistence, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w: %w", core.ErrPersistence, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w: %w", core.ErrPersistence, err)
	}

	slog.DebugContext(ctx, "Snapshot saved", "path", s.path)
	return nil
}

func normalize(ctx context.Context, raw core.Snapshot) core.Snapshot {
	out := core.NewSnapshot()
	for month, bucket := range raw.Expenses {
		m, err := core.ParseMonth(month)
		if err != nil {
			slog.WarnContext(ctx, "Dropping expenses with invalid month from snapshot", "month", month)
			continue
		}
		merged := out.Expenses[string(m)]
		if merged == nil {
			merged = make(map[string]float64, len(bucket))
			out.Expenses[string(m)] = merged
		}
		for name, amount := range bucket {
			merged[name] = amount
		}
	}
	for category, names := range raw.Categories {
		if names == nil {
			names = []string{}
		}
		out.Categories[category] = names
	}
	for month, limit := range raw.Budgets {
		m, err := core.ParseMonth(month)
		if err != nil {
			slog.WarnContext(ctx, "Dropping budget with invalid month from snapshot", "month", month)
			continue
		}
		out.Budgets[string(m)] = limit
	}
	return out
}
