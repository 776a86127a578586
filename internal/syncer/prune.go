package syncer

import (
	"context"

	"github.com/ScottStevenWhite/photosync/internal/logging"
	"github.com/ScottStevenWhite/photosync/internal/metrics"
)

// prunePass deletes every record that no longer satisfies any retention
// tag, along with its local file. A failed file delete is logged but the
// record is dropped regardless; blocking cleanup on a broken delete
// would retry it forever.
func (s *Syncer) prunePass(ctx context.Context) error {
	var doomed []string
	for _, id := range s.records.SortedIDs() {
		if !s.records[id].Retained() {
			doomed = append(doomed, id)
		}
	}
	if len(doomed) == 0 {
		return nil
	}

	for _, id := range doomed {
		rec := s.records[id]
		if err := s.files.Remove(rec.LocalFolder, rec.Filename); err != nil {
			logging.Error("delete local file",
				logging.String("id", id),
				logging.String("file", recordRel(rec)),
				logging.Err(err))
		}
		delete(s.records, id)
		metrics.RecordPrune()
		logging.Info("pruned", logging.String("id", id), logging.String("file", recordRel(rec)))
	}

	s.flush()
	return nil
}
