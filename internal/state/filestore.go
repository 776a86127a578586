package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the mapping as a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a JSON-file-backed store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the mapping. A missing file yields an empty mapping.
func (s *FileStore) Load() (Map, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Map{}, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	if m == nil {
		m = Map{}
	}
	return m, nil
}

// Save writes the whole mapping atomically (temp file then rename).
func (s *FileStore) Save(m Map) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
