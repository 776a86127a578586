package syncer

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ScottStevenWhite/photosync/internal/logging"
	"github.com/ScottStevenWhite/photosync/internal/photos"
	"github.com/ScottStevenWhite/photosync/internal/state"
)

// gather pulls the three membership facts from the remote library into
// the record map, persisting after each query so a crash mid-gather
// keeps the tags committed so far.
func (s *Syncer) gather(ctx context.Context) error {
	s.refreshWindow()
	s.flush()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(s.gatherStarred(ctx))
	if ctx.Err() != nil {
		return ctx.Err()
	}
	record(s.gatherWindow(ctx))
	for _, title := range s.cfg.Albums {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		record(s.gatherAlbum(ctx, title))
	}
	return firstErr
}

// refreshWindow recomputes InWindow from the stored capture time. Window
// membership decays purely with time, so no remote call is needed.
// Records without a capture time are left untouched.
func (s *Syncer) refreshWindow() {
	cutoff := s.now().UTC().AddDate(0, 0, -s.cfg.WindowDays)
	for _, id := range s.records.SortedIDs() {
		rec := s.records[id]
		ct, ok := rec.Created()
		if !ok {
			continue
		}
		rec.InWindow = !ct.Before(cutoff)
	}
}

// gatherStarred tags every currently-favorited item and un-stars records
// absent from the result. The negative path only runs on a complete
// result set; a failed query leaves starred state as it was.
func (s *Syncer) gatherStarred(ctx context.Context) error {
	seen := make(map[string]bool)
	err := s.lib.SearchAll(ctx, photos.SearchRequest{Filters: photos.FavoritesFilter()},
		func(item photos.MediaItem) error {
			seen[item.ID] = true
			s.touch(item).IsStarred = true
			return nil
		})
	if err != nil {
		s.flush()
		return err
	}

	for _, id := range s.records.SortedIDs() {
		rec := s.records[id]
		if rec.IsStarred && !seen[id] {
			rec.IsStarred = false
			logging.Debug("un-starred", logging.String("id", id))
		}
	}
	s.flush()
	return nil
}

// gatherWindow tags items captured inside the trailing window. The
// negative direction is refreshWindow; the remote query only adds.
func (s *Syncer) gatherWindow(ctx context.Context) error {
	end := s.now().UTC()
	start := end.AddDate(0, 0, -s.cfg.WindowDays)

	err := s.lib.SearchAll(ctx, photos.SearchRequest{Filters: photos.DateRangeFilter(start, end)},
		func(item photos.MediaItem) error {
			s.touch(item).InWindow = true
			return nil
		})
	s.flush()
	return err
}

// gatherAlbum tags the album's current members and removes the title
// from records no longer in it. An unresolvable title gathers nothing
// and removes nothing.
func (s *Syncer) gatherAlbum(ctx context.Context, title string) error {
	albumID, ok, err := s.albumID(ctx, title)
	if err != nil {
		return err
	}
	if !ok {
		logging.Warn("album not found remotely", logging.String("album", title))
		return nil
	}

	seen := make(map[string]bool)
	err = s.lib.SearchAll(ctx, photos.SearchRequest{AlbumID: albumID},
		func(item photos.MediaItem) error {
			seen[item.ID] = true
			s.touch(item).AddAlbum(title)
			return nil
		})
	if err != nil {
		s.flush()
		return err
	}

	for _, id := range s.records.SortedIDs() {
		rec := s.records[id]
		if rec.HasAlbum(title) && !seen[id] {
			rec.RemoveAlbum(title)
			logging.Debug("left album", logging.String("id", id), logging.String("album", title))
		}
	}
	s.flush()
	return nil
}

// touch returns the record for a sighted item, creating it on first
// sighting with the capture time from the remote payload.
func (s *Syncer) touch(item photos.MediaItem) *state.Record {
	rec, ok := s.records[item.ID]
	if !ok {
		rec = &state.Record{
			Filename:     item.Filename,
			Albums:       []string{},
			CreationTime: item.MediaMetadata.CreationTime,
		}
		s.records[item.ID] = rec
	}
	return rec
}

// albumID resolves an album title to its remote ID, memoized across the
// run (and across daemon runs until the cache entry expires).
func (s *Syncer) albumID(ctx context.Context, title string) (string, bool, error) {
	if v, ok := s.albumIDs.Get(title); ok {
		return v.(string), true, nil
	}

	albums, err := s.lib.ListAlbums(ctx)
	if err != nil {
		return "", false, err
	}

	id := ""
	for _, a := range albums {
		s.albumIDs.Set(a.Title, a.ID, gocache.DefaultExpiration)
		if a.Title == title {
			id = a.ID
		}
	}
	return id, id != "", nil
}
