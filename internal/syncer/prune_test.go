package syncer

import (
	"context"
	"testing"

	"github.com/ScottStevenWhite/photosync/internal/state"
)

func TestPruneRemovesUntaggedRecordAndFile(t *testing.T) {
	lib := newFakeLibrary()
	s, store, files := newTestSyncer(t, lib, Config{WindowDays: 90})
	writeLocal(t, files.Root(), "stale.jpg", "x")
	s.records = state.Map{
		"S1": {Filename: "stale.jpg", Albums: []string{}},
	}

	if err := s.prunePass(context.Background()); err != nil {
		t.Fatalf("prunePass: %v", err)
	}

	if _, ok := s.records["S1"]; ok {
		t.Error("untagged record not dropped")
	}
	if files.Exists("", "stale.jpg") {
		t.Error("local file not deleted")
	}
	if store.saves == 0 {
		t.Error("prune result not persisted")
	}
}

func TestPruneKeepsRetained(t *testing.T) {
	lib := newFakeLibrary()
	s, store, files := newTestSyncer(t, lib, Config{WindowDays: 90})
	writeLocal(t, files.Root(), "star.jpg", "x")
	s.records = state.Map{
		"A": {Filename: "star.jpg", IsStarred: true, Albums: []string{}},
		"B": {Filename: "win.jpg", InWindow: true, Albums: []string{}},
		"C": {Filename: "alb.jpg", Albums: []string{"Alps"}},
	}

	if err := s.prunePass(context.Background()); err != nil {
		t.Fatalf("prunePass: %v", err)
	}

	if len(s.records) != 3 {
		t.Errorf("records = %d, want 3", len(s.records))
	}
	if !files.Exists("", "star.jpg") {
		t.Error("retained file deleted")
	}
	if store.saves != 0 {
		t.Error("no-op prune should not persist")
	}
}

func TestPruneMissingFileStillDropsRecord(t *testing.T) {
	lib := newFakeLibrary()
	s, _, _ := newTestSyncer(t, lib, Config{WindowDays: 90})
	s.records = state.Map{
		"gone": {Filename: "never-downloaded.jpg", Albums: []string{}},
	}

	if err := s.prunePass(context.Background()); err != nil {
		t.Fatalf("prunePass: %v", err)
	}
	if _, ok := s.records["gone"]; ok {
		t.Error("record must be dropped even when no file exists")
	}
}
