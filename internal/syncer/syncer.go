// Package syncer reconciles the local photo library with the remote one.
//
// A run is a fixed pipeline: gather remote tags into the record map, fetch
// missing local copies, push untracked local files upward, move files to
// their canonical folders, then prune whatever no longer earns a local
// copy. Every operation is idempotent; a failed operation is retried by
// the next run rather than inline.
package syncer

import (
	"context"
	"io"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ScottStevenWhite/photosync/internal/localfs"
	"github.com/ScottStevenWhite/photosync/internal/logging"
	"github.com/ScottStevenWhite/photosync/internal/metrics"
	"github.com/ScottStevenWhite/photosync/internal/photos"
	"github.com/ScottStevenWhite/photosync/internal/state"
)

// uploadDescription is attached to items created from local files.
const uploadDescription = "Uploaded via PhotoSync"

// Library is the remote photo library boundary.
type Library interface {
	SearchAll(ctx context.Context, req photos.SearchRequest, fn func(photos.MediaItem) error) error
	Get(ctx context.Context, id string) (*photos.MediaItem, error)
	ListAlbums(ctx context.Context) ([]photos.Album, error)
	Download(ctx context.Context, baseURL string) (io.ReadCloser, error)
	Upload(ctx context.Context, filename string, data []byte) (string, error)
	Create(ctx context.Context, uploadToken, description string) (*photos.MediaItem, error)
	AddToAlbum(ctx context.Context, albumID string, itemIDs ...string) error
}

// Files is the local file store boundary.
type Files interface {
	Exists(folder, name string) bool
	Write(folder, name string, r io.Reader) (string, error)
	ReadRel(rel string) ([]byte, error)
	Move(folder, name, dstFolder string) (string, bool, error)
	Remove(folder, name string) error
	SetModTime(folder, name string, t time.Time) error
	Walk() ([]localfs.LocalFile, error)
}

// Config holds the membership rules for a run.
type Config struct {
	WindowDays int
	Albums     []string
}

// Syncer drives the sync pipeline. It is not safe for concurrent use;
// the record map is owned by the single flow of control driving Run.
type Syncer struct {
	lib   Library
	files Files
	store state.Store
	cfg   Config

	records  state.Map
	albumIDs *gocache.Cache // album title -> remote album ID
	now      func() time.Time
}

// New creates a syncer.
func New(lib Library, files Files, store state.Store, cfg Config) *Syncer {
	return &Syncer{
		lib:      lib,
		files:    files,
		store:    store,
		cfg:      cfg,
		albumIDs: gocache.New(30*time.Minute, 10*time.Minute),
		now:      time.Now,
	}
}

// Run executes one full pipeline pass. Remote and local failures inside a
// stage are logged and skipped; only state-load failures and cancellation
// abort the run.
func (s *Syncer) Run(ctx context.Context) error {
	started := time.Now()

	m, err := s.store.Load()
	if err != nil {
		metrics.RecordSyncRun("error", time.Since(started))
		return err
	}
	s.records = m
	logging.Info("sync run starting", logging.Int("records", len(s.records)))

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"gather", s.gather},
		{"fetch", s.fetchPass},
		{"push", s.pushPass},
		{"placement", s.placementPass},
		{"prune", s.prunePass},
	}

	for _, stage := range stages {
		if ctx.Err() != nil {
			s.flush()
			metrics.RecordSyncRun("canceled", time.Since(started))
			return ctx.Err()
		}
		if err := stage.fn(ctx); err != nil {
			// Stage errors are degraded, never fatal: the next run
			// converges from whatever state was persisted.
			logging.Error("stage finished with errors",
				logging.String("stage", stage.name), logging.Err(err))
		}
	}

	metrics.SetRecordsTracked(len(s.records))
	metrics.RecordSyncRun("ok", time.Since(started))
	logging.Info("sync run complete",
		logging.Int("records", len(s.records)),
		logging.String("duration", time.Since(started).Round(time.Millisecond).String()))
	return ctx.Err()
}

// flush persists the record map. Persistence failures are logged, not
// propagated: the in-memory map stays authoritative for the rest of the
// run and the next flush retries.
func (s *Syncer) flush() {
	if err := s.store.Save(s.records); err != nil {
		logging.Error("persist state", logging.Err(err))
	}
}
