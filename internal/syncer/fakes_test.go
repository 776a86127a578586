package syncer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ScottStevenWhite/photosync/internal/photos"
	"github.com/ScottStevenWhite/photosync/internal/state"
)

// fakeLibrary is an in-memory remote library that counts calls per op.
type fakeLibrary struct {
	items      map[string]*photos.MediaItem // id -> item
	content    map[string][]byte            // baseURL -> raw bytes
	favorites  []string                     // ids returned by the favorites query
	window     []string                     // ids returned by the date-range query
	albums     []photos.Album
	albumItems map[string][]string // albumID -> member ids
	added      map[string][]string // albumID -> ids linked via AddToAlbum

	failFavorites bool
	failUpload    bool

	uploads map[string]string // uploadToken -> filename
	nextID  int
	calls   map[string]int
	now     time.Time
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{
		items:      map[string]*photos.MediaItem{},
		content:    map[string][]byte{},
		albumItems: map[string][]string{},
		added:      map[string][]string{},
		uploads:    map[string]string{},
		calls:      map[string]int{},
		now:        time.Now().UTC(),
	}
}

// addItem registers a remote item with downloadable content.
func (f *fakeLibrary) addItem(id, filename string, created time.Time, data []byte) {
	baseURL := "base-" + id
	f.items[id] = &photos.MediaItem{
		ID:            id,
		Filename:      filename,
		BaseURL:       baseURL,
		MediaMetadata: photos.MediaMetadata{CreationTime: created.Format(time.RFC3339)},
	}
	f.content[baseURL] = data
}

func (f *fakeLibrary) SearchAll(ctx context.Context, req photos.SearchRequest, fn func(photos.MediaItem) error) error {
	f.calls["search"]++

	var ids []string
	switch {
	case req.AlbumID != "":
		ids = f.albumItems[req.AlbumID]
	case req.Filters != nil && req.Filters.FeatureFilter != nil:
		if f.failFavorites {
			return fmt.Errorf("favorites query failed")
		}
		ids = f.favorites
	case req.Filters != nil && req.Filters.DateFilter != nil:
		ids = f.window
	}

	for _, id := range ids {
		item, ok := f.items[id]
		if !ok {
			continue
		}
		if err := fn(*item); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeLibrary) Get(ctx context.Context, id string) (*photos.MediaItem, error) {
	f.calls["get"]++
	item, ok := f.items[id]
	if !ok {
		return nil, photos.ErrNotFound
	}
	return item, nil
}

func (f *fakeLibrary) ListAlbums(ctx context.Context) ([]photos.Album, error) {
	f.calls["list_albums"]++
	return f.albums, nil
}

func (f *fakeLibrary) Download(ctx context.Context, baseURL string) (io.ReadCloser, error) {
	f.calls["download"]++
	data, ok := f.content[baseURL]
	if !ok {
		return nil, fmt.Errorf("no content for %s", baseURL)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeLibrary) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	f.calls["upload"]++
	if f.failUpload {
		return "", fmt.Errorf("upload failed")
	}
	token := "tok-" + filename
	f.uploads[token] = filename
	return token, nil
}

func (f *fakeLibrary) Create(ctx context.Context, uploadToken, description string) (*photos.MediaItem, error) {
	f.calls["create"]++
	filename, ok := f.uploads[uploadToken]
	if !ok {
		return nil, fmt.Errorf("unknown upload token %q", uploadToken)
	}
	f.nextID++
	id := fmt.Sprintf("up-%d", f.nextID)
	f.addItem(id, filename, f.now, []byte("uploaded"))
	return f.items[id], nil
}

func (f *fakeLibrary) AddToAlbum(ctx context.Context, albumID string, itemIDs ...string) error {
	f.calls["add_to_album"]++
	f.added[albumID] = append(f.added[albumID], itemIDs...)
	f.albumItems[albumID] = append(f.albumItems[albumID], itemIDs...)
	return nil
}

// memStore is an in-memory state store that counts saves.
type memStore struct {
	m     state.Map
	saves int
}

func (s *memStore) Load() (state.Map, error) {
	if s.m == nil {
		return state.Map{}, nil
	}
	return s.m, nil
}

func (s *memStore) Save(m state.Map) error {
	s.saves++
	s.m = m
	return nil
}
