package syncer

import (
	"context"
	"errors"
	"io"
	"slices"

	"github.com/ScottStevenWhite/photosync/internal/localfs"
	"github.com/ScottStevenWhite/photosync/internal/logging"
	"github.com/ScottStevenWhite/photosync/internal/metrics"
	"github.com/ScottStevenWhite/photosync/internal/photos"
	"github.com/ScottStevenWhite/photosync/internal/state"
)

// fetchPass downloads every retained record whose file is missing
// locally, writing it to the record's current folder. Missing-ness is
// decided up front: when two records share a filename, the second write
// must hit the collision disambiguator instead of mistaking the first
// record's fresh file for its own. A failed fetch leaves the record
// untouched for the next run.
func (s *Syncer) fetchPass(ctx context.Context) error {
	var missing []string
	for _, id := range s.records.SortedIDs() {
		rec := s.records[id]
		if rec.Retained() && !s.files.Exists(rec.LocalFolder, rec.Filename) {
			missing = append(missing, id)
		}
	}

	for _, id := range missing {
		if ctx.Err() != nil {
			break
		}
		s.fetchItem(ctx, id, s.records[id])
	}
	s.flush()
	return ctx.Err()
}

func (s *Syncer) fetchItem(ctx context.Context, id string, rec *state.Record) {
	item, err := s.lib.Get(ctx, id)
	if err != nil {
		if errors.Is(err, photos.ErrNotFound) {
			logging.Warn("item missing remotely", logging.String("id", id))
		} else {
			logging.Error("fetch item", logging.String("id", id), logging.Err(err))
		}
		metrics.RecordDownload("error", 0)
		return
	}
	if item.BaseURL == "" {
		logging.Warn("item has no content reference", logging.String("id", id))
		metrics.RecordDownload("error", 0)
		return
	}

	body, err := s.lib.Download(ctx, item.BaseURL)
	if err != nil {
		logging.Error("download", logging.String("id", id), logging.Err(err))
		metrics.RecordDownload("error", 0)
		return
	}
	counted := &countingReader{r: body}
	final, err := s.files.Write(rec.LocalFolder, rec.Filename, counted)
	body.Close()
	if err != nil {
		logging.Error("write local file", logging.String("id", id), logging.Err(err))
		metrics.RecordDownload("error", 0)
		return
	}

	rec.Filename = final
	if ct, ok := item.CreationTime(); ok {
		if err := s.files.SetModTime(rec.LocalFolder, final, ct); err != nil {
			logging.Debug("set mod time", logging.String("id", id), logging.Err(err))
		}
	}

	metrics.RecordDownload("ok", counted.n)
	logging.Info("downloaded",
		logging.String("id", id),
		logging.String("folder", rec.LocalFolder),
		logging.String("file", final))
}

// pushPass uploads local media files no record accounts for, then makes
// sure every record sitting in an album folder is actually linked to
// that album remotely. The second step covers records that acquired a
// folder by upload or by a prior run's move before the album link was
// confirmed.
func (s *Syncer) pushPass(ctx context.Context) error {
	tracked := make(map[string]bool, len(s.records))
	for _, rec := range s.records {
		tracked[recordRel(rec)] = true
	}

	files, err := s.files.Walk()
	if err != nil {
		logging.Error("walk library", logging.Err(err))
		return err
	}

	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		if tracked[f.Rel] {
			continue
		}
		s.pushFile(ctx, f)
	}

	s.ensureAlbumMembership(ctx)
	s.flush()
	return ctx.Err()
}

// recordRel is a record's path relative to the library root.
func recordRel(rec *state.Record) string {
	if rec.LocalFolder == "" {
		return rec.Filename
	}
	return rec.LocalFolder + "/" + rec.Filename
}

// pushFile uploads one untracked file and creates its record. A failure
// leaves no record, so the file stays unaccounted for and is retried on
// the next run.
func (s *Syncer) pushFile(ctx context.Context, f localfs.LocalFile) {
	data, err := s.files.ReadRel(f.Rel)
	if err != nil {
		logging.Error("read local file", logging.String("file", f.Rel), logging.Err(err))
		return
	}

	token, err := s.lib.Upload(ctx, f.Name, data)
	if err != nil {
		logging.Error("upload", logging.String("file", f.Rel), logging.Err(err))
		metrics.RecordUpload("error", 0)
		return
	}
	item, err := s.lib.Create(ctx, token, uploadDescription)
	if err != nil {
		logging.Error("finalize upload", logging.String("file", f.Rel), logging.Err(err))
		metrics.RecordUpload("error", 0)
		return
	}
	metrics.RecordUpload("ok", int64(len(data)))
	logging.Info("uploaded", logging.String("file", f.Rel), logging.String("id", item.ID))

	rec, ok := s.records[item.ID]
	if !ok {
		rec = &state.Record{Filename: f.Name, Albums: []string{}}
		s.records[item.ID] = rec
	}
	rec.LocalFolder = f.Folder

	if f.Folder != "" && slices.Contains(s.cfg.Albums, f.Folder) {
		s.linkToAlbum(ctx, item.ID, rec, f.Folder)
	}
}

// ensureAlbumMembership links records whose folder names a tracked album
// but whose album set does not contain it yet.
func (s *Syncer) ensureAlbumMembership(ctx context.Context) {
	for _, id := range s.records.SortedIDs() {
		if ctx.Err() != nil {
			return
		}
		rec := s.records[id]
		folder := rec.LocalFolder
		if folder == "" || !slices.Contains(s.cfg.Albums, folder) || rec.HasAlbum(folder) {
			continue
		}
		s.linkToAlbum(ctx, id, rec, folder)
	}
}

func (s *Syncer) linkToAlbum(ctx context.Context, id string, rec *state.Record, title string) {
	albumID, ok, err := s.albumID(ctx, title)
	if err != nil {
		logging.Error("resolve album", logging.String("album", title), logging.Err(err))
		return
	}
	if !ok {
		logging.Warn("album not found remotely", logging.String("album", title))
		return
	}
	if err := s.lib.AddToAlbum(ctx, albumID, id); err != nil {
		logging.Error("link to album",
			logging.String("id", id), logging.String("album", title), logging.Err(err))
		return
	}
	rec.AddAlbum(title)
	logging.Info("linked to album", logging.String("id", id), logging.String("album", title))
}

// placementPass moves every record whose file is not in its canonical
// folder. A missing source file is a benign no-op: the folder field is
// still updated so bookkeeping matches the desired state.
func (s *Syncer) placementPass(ctx context.Context) error {
	for _, id := range s.records.SortedIDs() {
		if ctx.Err() != nil {
			break
		}
		rec := s.records[id]
		want := Resolve(rec)
		if want == rec.LocalFolder {
			continue
		}

		final, moved, err := s.files.Move(rec.LocalFolder, rec.Filename, want)
		if err != nil {
			logging.Error("move file",
				logging.String("id", id),
				logging.String("from", rec.LocalFolder),
				logging.String("to", want),
				logging.Err(err))
			continue
		}
		if moved {
			rec.Filename = final
			metrics.RecordMove()
			logging.Info("moved",
				logging.String("id", id),
				logging.String("from", rec.LocalFolder),
				logging.String("to", want),
				logging.String("file", final))
		}
		rec.LocalFolder = want
	}
	s.flush()
	return ctx.Err()
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
