package syncer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ScottStevenWhite/photosync/internal/photos"
	"github.com/ScottStevenWhite/photosync/internal/state"
)

func writeLocal(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFetchDownloadsMissingRetained(t *testing.T) {
	lib := newFakeLibrary()
	created := lib.now.AddDate(0, 0, -3)
	lib.addItem("D1", "beach.jpg", created, []byte("beach bytes"))

	s, _, files := newTestSyncer(t, lib, Config{WindowDays: 90})
	s.records = state.Map{
		"D1": {Filename: "beach.jpg", InWindow: true, Albums: []string{}},
	}

	if err := s.fetchPass(context.Background()); err != nil {
		t.Fatalf("fetchPass: %v", err)
	}

	data, err := os.ReadFile(files.Path("", "beach.jpg"))
	if err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if string(data) != "beach bytes" {
		t.Errorf("content = %q", data)
	}
	info, _ := os.Stat(files.Path("", "beach.jpg"))
	if !info.ModTime().UTC().Truncate(time.Second).Equal(created.Truncate(time.Second)) {
		t.Errorf("mod time = %v, want capture time %v", info.ModTime().UTC(), created)
	}

	// Second pass finds the file on disk and downloads nothing.
	if err := s.fetchPass(context.Background()); err != nil {
		t.Fatalf("second fetchPass: %v", err)
	}
	if lib.calls["download"] != 1 {
		t.Errorf("download called %d times, want 1", lib.calls["download"])
	}
}

func TestFetchSkipsUnretained(t *testing.T) {
	lib := newFakeLibrary()
	lib.addItem("U1", "u.jpg", lib.now, []byte("x"))

	s, _, _ := newTestSyncer(t, lib, Config{WindowDays: 90})
	s.records = state.Map{
		"U1": {Filename: "u.jpg", Albums: []string{}},
	}

	if err := s.fetchPass(context.Background()); err != nil {
		t.Fatalf("fetchPass: %v", err)
	}
	if lib.calls["download"] != 0 {
		t.Error("unretained record must not be downloaded")
	}
}

func TestFetchDisambiguatesCollision(t *testing.T) {
	lib := newFakeLibrary()
	lib.addItem("C1", "photo.jpg", lib.now, []byte("first copy"))
	lib.addItem("C2", "photo.jpg", lib.now, []byte("second copy"))

	s, _, files := newTestSyncer(t, lib, Config{WindowDays: 90})
	s.records = state.Map{
		"C1": {Filename: "photo.jpg", IsStarred: true, Albums: []string{}},
		"C2": {Filename: "photo.jpg", IsStarred: true, Albums: []string{}},
	}

	if err := s.fetchPass(context.Background()); err != nil {
		t.Fatalf("fetchPass: %v", err)
	}

	if got := s.records["C1"].Filename; got != "photo.jpg" {
		t.Errorf("C1 filename = %q, want photo.jpg", got)
	}
	if got := s.records["C2"].Filename; got != "photo(1).jpg" {
		t.Fatalf("C2 filename = %q, want photo(1).jpg", got)
	}
	data, err := os.ReadFile(files.Path("", "photo(1).jpg"))
	if err != nil || string(data) != "second copy" {
		t.Fatalf("disambiguated file wrong: %q, %v", data, err)
	}
	if got, _ := os.ReadFile(files.Path("", "photo.jpg")); string(got) != "first copy" {
		t.Errorf("first copy clobbered: %q", got)
	}
}

func TestFetchMissingRemoteLeavesRecord(t *testing.T) {
	lib := newFakeLibrary()
	s, _, _ := newTestSyncer(t, lib, Config{WindowDays: 90})
	s.records = state.Map{
		"gone": {Filename: "gone.jpg", IsStarred: true, Albums: []string{}},
	}

	if err := s.fetchPass(context.Background()); err != nil {
		t.Fatalf("fetchPass: %v", err)
	}
	if _, ok := s.records["gone"]; !ok {
		t.Error("record for remotely missing item must survive the pass")
	}
}

func TestPushUploadsUntrackedFiles(t *testing.T) {
	lib := newFakeLibrary()
	lib.albums = []photos.Album{{ID: "alb-w", Title: "Wedding"}}

	s, _, files := newTestSyncer(t, lib, Config{WindowDays: 90, Albums: []string{"Wedding"}})
	writeLocal(t, files.Root(), "IMG1.jpg", "root shot")
	writeLocal(t, files.Root(), "Wedding/IMG2.jpg", "wedding shot")
	writeLocal(t, files.Root(), "notes.txt", "not media")
	s.records = state.Map{}

	if err := s.pushPass(context.Background()); err != nil {
		t.Fatalf("pushPass: %v", err)
	}

	if lib.calls["upload"] != 2 {
		t.Fatalf("upload called %d times, want 2", lib.calls["upload"])
	}

	var root, wedding *state.Record
	for _, rec := range s.records {
		switch rec.Filename {
		case "IMG1.jpg":
			root = rec
		case "IMG2.jpg":
			wedding = rec
		}
	}
	if root == nil || wedding == nil {
		t.Fatalf("records missing after push: %+v", s.records)
	}
	if root.LocalFolder != "" || len(root.Albums) != 0 {
		t.Errorf("root upload record = %+v", root)
	}
	if wedding.LocalFolder != "Wedding" || !wedding.HasAlbum("Wedding") {
		t.Errorf("album upload record = %+v", wedding)
	}
	if len(lib.added["alb-w"]) != 1 {
		t.Errorf("AddToAlbum recorded %v", lib.added)
	}
}

func TestPushSkipsTrackedFiles(t *testing.T) {
	lib := newFakeLibrary()
	s, _, files := newTestSyncer(t, lib, Config{WindowDays: 90})
	writeLocal(t, files.Root(), "known.jpg", "x")
	s.records = state.Map{
		"K1": {Filename: "known.jpg", IsStarred: true, Albums: []string{}},
	}

	if err := s.pushPass(context.Background()); err != nil {
		t.Fatalf("pushPass: %v", err)
	}
	if lib.calls["upload"] != 0 {
		t.Error("tracked file must not be re-uploaded")
	}
}

func TestPushUploadFailureLeavesNoRecord(t *testing.T) {
	lib := newFakeLibrary()
	lib.failUpload = true

	s, _, files := newTestSyncer(t, lib, Config{WindowDays: 90})
	writeLocal(t, files.Root(), "flaky.jpg", "x")
	s.records = state.Map{}

	if err := s.pushPass(context.Background()); err != nil {
		t.Fatalf("pushPass: %v", err)
	}
	if len(s.records) != 0 {
		t.Errorf("failed upload must not create a record: %+v", s.records)
	}
}

func TestEnsureAlbumMembershipLinksFolderResidents(t *testing.T) {
	lib := newFakeLibrary()
	lib.albums = []photos.Album{{ID: "alb-h", Title: "Hiking"}}

	s, _, _ := newTestSyncer(t, lib, Config{WindowDays: 90, Albums: []string{"Hiking"}})
	s.records = state.Map{
		"H1": {Filename: "trail.jpg", LocalFolder: "Hiking", Albums: []string{}},
	}

	s.ensureAlbumMembership(context.Background())

	if !s.records["H1"].HasAlbum("Hiking") {
		t.Error("folder resident not linked to its album")
	}
	if len(lib.added["alb-h"]) != 1 {
		t.Errorf("AddToAlbum recorded %v", lib.added)
	}
}

func TestPlacementMovesToSmallestAlbum(t *testing.T) {
	lib := newFakeLibrary()
	s, _, files := newTestSyncer(t, lib, Config{WindowDays: 90})
	writeLocal(t, files.Root(), "pic.jpg", "x")
	s.records = state.Map{
		"P1": {Filename: "pic.jpg", Albums: []string{"Zoo", "Alps"}},
	}

	if err := s.placementPass(context.Background()); err != nil {
		t.Fatalf("placementPass: %v", err)
	}

	rec := s.records["P1"]
	if rec.LocalFolder != "Alps" {
		t.Errorf("folder = %q, want Alps", rec.LocalFolder)
	}
	if !files.Exists("Alps", "pic.jpg") {
		t.Error("file not in Alps/")
	}
	if files.Exists("", "pic.jpg") {
		t.Error("file still at root")
	}
}

func TestPlacementCollisionKeepsSingleCopy(t *testing.T) {
	lib := newFakeLibrary()
	s, _, files := newTestSyncer(t, lib, Config{WindowDays: 90})
	writeLocal(t, files.Root(), "dup.jpg", "mover")
	writeLocal(t, files.Root(), "Trips/dup.jpg", "resident")
	s.records = state.Map{
		"M1": {Filename: "dup.jpg", Albums: []string{"Trips"}},
	}

	if err := s.placementPass(context.Background()); err != nil {
		t.Fatalf("placementPass: %v", err)
	}

	rec := s.records["M1"]
	if rec.Filename != "dup(1).jpg" {
		t.Errorf("filename = %q, want dup(1).jpg", rec.Filename)
	}
	if files.Exists("", "dup.jpg") {
		t.Error("source copy left behind")
	}
	data, err := os.ReadFile(files.Path("Trips", "dup(1).jpg"))
	if err != nil || string(data) != "mover" {
		t.Fatalf("moved copy wrong: %q, %v", data, err)
	}
}

func TestPlacementMissingSourceUpdatesFolder(t *testing.T) {
	lib := newFakeLibrary()
	s, _, _ := newTestSyncer(t, lib, Config{WindowDays: 90})
	s.records = state.Map{
		"G1": {Filename: "ghost.jpg", Albums: []string{"Alps"}},
	}

	if err := s.placementPass(context.Background()); err != nil {
		t.Fatalf("placementPass: %v", err)
	}
	if got := s.records["G1"].LocalFolder; got != "Alps" {
		t.Errorf("folder = %q, want Alps even with no file on disk", got)
	}
}

func TestRecordRel(t *testing.T) {
	cases := []struct {
		rec  state.Record
		want string
	}{
		{state.Record{Filename: "a.jpg"}, "a.jpg"},
		{state.Record{Filename: "a.jpg", LocalFolder: "Alps"}, "Alps/a.jpg"},
	}
	for _, c := range cases {
		if got := recordRel(&c.rec); got != c.want {
			t.Errorf("recordRel(%+v) = %q, want %q", c.rec, got, c.want)
		}
	}
	if strings.Contains(recordRel(&state.Record{Filename: "a.jpg"}), "/") {
		t.Error("root-level rel must not contain a separator")
	}
}
