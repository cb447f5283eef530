package runindex_test

import (
	"context"
	"testing"
	"time"

	"gbxstrip/internal/runindex"
)

func TestRecordAndFetch(t *testing.T) {
	ctx := context.Background()
	store, err := runindex.Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	run := runindex.Run{
		ArtifactID:   "20260825-130405-deadbeef",
		InputPath:    "/in/track.Map.Gbx",
		OutputPath:   "/out/track.Map.Gbx",
		GhostRemoved: true,
		GhostUID:     "ABC123",
		AuthorTimeMS: 45000,
		MapLogPath:   "/logs/maps/track.Map.Gbx",
		GhostLogPath: "/logs/ghosts/track.Ghost.Gbx",
		CreatedAt:    time.Date(2026, 8, 25, 13, 4, 5, 0, time.UTC),
	}
	if err := store.Record(ctx, run); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.ByArtifactID(ctx, run.ArtifactID)
	if err != nil {
		t.Fatalf("ByArtifactID: %v", err)
	}
	if got == nil {
		t.Fatal("run not found")
	}
	if got.GhostUID != "ABC123" || !got.GhostRemoved || got.AuthorTimeMS != 45000 {
		t.Fatalf("stored run mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Fatalf("created at = %v", got.CreatedAt)
	}
}

func TestFetchMissingRun(t *testing.T) {
	ctx := context.Background()
	store, err := runindex.Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	got, err := store.ByArtifactID(ctx, "nope")
	if err != nil {
		t.Fatalf("ByArtifactID: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestReopenExistingIndex(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	store, err := runindex.Open(ctx, root)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := store.Record(ctx, runindex.Run{ArtifactID: "a", InputPath: "i", OutputPath: "o", AuthorTimeMS: -1}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := runindex.Open(ctx, root)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.ByArtifactID(ctx, "a")
	if err != nil || got == nil {
		t.Fatalf("run lost across reopen: %v %+v", err, got)
	}
	if got.AuthorTimeMS != -1 {
		t.Fatalf("author time = %d, want -1 sentinel", got.AuthorTimeMS)
	}
}
