package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/juanGallardor/ReproductorMusica/internal/playlist"
)

// JSONStore persists playlist snapshots to a single JSON file. Writes go
// through a temp file plus rename so a crash mid-write never truncates the
// existing data.
type JSONStore struct {
	path   string
	logger *logrus.Logger
}

// wrapper is the on-disk envelope. Load also accepts a bare array for files
// written by older versions.
type wrapper struct {
	Playlists []playlist.Snapshot `json:"playlists"`
}

// NewJSONStore creates a store backed by the given file path, creating the
// parent directory if needed.
func NewJSONStore(path string, logger *logrus.Logger) (*JSONStore, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("storage: failed to create data directory: %w", err)
	}
	return &JSONStore{path: path, logger: logger}, nil
}

// Path returns the backing file path.
func (s *JSONStore) Path() string { return s.path }

// Load reads every stored playlist snapshot. A missing file is not an error;
// it returns an empty slice so a fresh install starts with no playlists.
func (s *JSONStore) Load() ([]playlist.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.WithField("path", s.path).Debug("Playlist file does not exist yet")
			return nil, nil
		}
		return nil, fmt.Errorf("storage: failed to read %s: %w", s.path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var w wrapper
	if err := json.Unmarshal(data, &w); err == nil && w.Playlists != nil {
		return w.Playlists, nil
	}

	// Older files hold a bare array.
	var snapshots []playlist.Snapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("storage: failed to parse %s: %w", s.path, err)
	}
	return snapshots, nil
}

// Save writes the given snapshots, replacing the previous file contents.
func (s *JSONStore) Save(snapshots []playlist.Snapshot) error {
	if snapshots == nil {
		snapshots = []playlist.Snapshot{}
	}

	data, err := json.MarshalIndent(wrapper{Playlists: snapshots}, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: failed to encode playlists: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("storage: failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("storage: failed to replace %s: %w", s.path, err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":  s.path,
		"count": len(snapshots),
	}).Debug("Playlists saved")
	return nil
}
