// Package state holds the durable per-item sync records.
package state

import (
	"slices"
	"time"
)

// Record is the synchronization state for one remote media item. The map
// key (the remote item ID) is not repeated inside the record.
type Record struct {
	// Filename is the base name used both remotely and locally.
	Filename string `json:"filename"`

	// LocalFolder is where the physical file currently is ("" = root).
	// It reflects actual placement, not desired placement.
	LocalFolder string `json:"localFolder"`

	// IsStarred is the last known favorite status.
	IsStarred bool `json:"isStarred"`

	// InWindow reports whether the capture time fell inside the trailing
	// window at the last check. The JSON key predates the rename.
	InWindow bool `json:"inLastNDays"`

	// Albums are the album titles the item is known to belong to.
	Albums []string `json:"albums"`

	// CreationTime is the RFC 3339 capture timestamp, set once when the
	// record is first created from remote data. May be empty.
	CreationTime string `json:"creationTime,omitempty"`
}

// Retained reports whether any tag justifies keeping a local copy.
func (r *Record) Retained() bool {
	return r.IsStarred || r.InWindow || len(r.Albums) > 0
}

// Created parses the capture timestamp, if present.
func (r *Record) Created() (time.Time, bool) {
	if r.CreationTime == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, r.CreationTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HasAlbum reports album membership.
func (r *Record) HasAlbum(title string) bool {
	return slices.Contains(r.Albums, title)
}

// AddAlbum adds an album title, deduplicated. Reports whether the set changed.
func (r *Record) AddAlbum(title string) bool {
	if r.HasAlbum(title) {
		return false
	}
	r.Albums = append(r.Albums, title)
	return true
}

// RemoveAlbum removes an album title. Reports whether the set changed.
func (r *Record) RemoveAlbum(title string) bool {
	i := slices.Index(r.Albums, title)
	if i < 0 {
		return false
	}
	r.Albums = slices.Delete(r.Albums, i, i+1)
	return true
}

// Map is the full item-record mapping, keyed by remote item ID.
type Map map[string]*Record

// SortedIDs returns the record IDs in lexical order, for stable iteration.
func (m Map) SortedIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
