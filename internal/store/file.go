package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileSnapshots keeps State documents as YAML files, one per name, inside dir.
type FileSnapshots struct {
	dir string
}

func NewFileSnapshots(dir string) *FileSnapshots {
	return &FileSnapshots{dir: dir}
}

func (s *FileSnapshots) path(name string) string {
	return filepath.Join(s.dir, name+".yaml")
}

// SaveState writes to a temporary file first and renames it into place.
func (s *FileSnapshots) SaveState(_ context.Context, name string, state State) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	target := s.path(name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

func (s *FileSnapshots) LoadState(_ context.Context, name string) (State, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, notFound("snapshot", name)
	}
	if err != nil {
		return State{}, fmt.Errorf("read state: %w", err)
	}
	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, nil
}

func (s *FileSnapshots) Close() error { return nil }
