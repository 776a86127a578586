package syncer

import (
	"slices"

	"github.com/ScottStevenWhite/photosync/internal/state"
)

// Resolve maps a record's tags to its canonical local folder.
//
// Album membership wins: the lexicographically smallest title decides
// the folder, independent of insertion order. Starred and in-window
// items live at the library root. A record with no retention tag also
// resolves to the root, but such a record is a prune candidate and the
// value is never materialized for it.
func Resolve(rec *state.Record) string {
	if len(rec.Albums) > 0 {
		titles := slices.Clone(rec.Albums)
		slices.Sort(titles)
		return titles[0]
	}
	return ""
}
