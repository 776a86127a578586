package state

import (
	"fmt"
	"path/filepath"
)

// Store persists the item-record mapping as a whole snapshot.
type Store interface {
	Load() (Map, error)
	Save(Map) error
}

// Open creates the configured store backend inside dataDir.
func Open(backend, dataDir string) (Store, error) {
	switch backend {
	case "json":
		return NewFileStore(filepath.Join(dataDir, "photos_map.json")), nil
	case "sqlite":
		return NewSQLiteStore(filepath.Join(dataDir, "photosync.db"))
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}
