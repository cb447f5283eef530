package artifacts_test

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"gbxstrip/internal/artifacts"
	"gbxstrip/internal/logging"
)

func TestNewIDFormat(t *testing.T) {
	now := time.Date(2026, 8, 25, 13, 4, 5, 0, time.UTC)
	id := artifacts.NewID(now)
	pattern := regexp.MustCompile(`^20260825-130405-[0-9a-f]{8}$`)
	if !pattern.MatchString(id) {
		t.Fatalf("artifact id %q does not match %v", id, pattern)
	}
	if other := artifacts.NewID(now); other == id {
		t.Fatalf("two ids share the random suffix: %q", id)
	}
}

func TestStem(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"track.Map.Gbx", "track"},
		{"/data/maps/Alpine Valley.Map.Gbx", "Alpine Valley"},
		{"old.Challenge.Gbx", "old"},
		{"loose.gbx", "loose"},
		{"weird:na*me?.Map.Gbx", "weird_na_me_"},
		{"nested/part.Map.Gbx", "part"},
		{".Map.Gbx", "Map"},
		{"...", "map"},
	}
	for _, tc := range cases {
		if got := artifacts.Stem(tc.in); got != tc.want {
			t.Fatalf("Stem(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPipelinePathsShareID(t *testing.T) {
	p := artifacts.NewPipeline("/logs", "20260825-130405-deadbeef", "track", logging.NewNop())
	mapPath := p.MapLogPath()
	ghostPath := p.GhostLogPath()

	if mapPath != filepath.Join("/logs", "maps", "track-no-validation-replay-20260825-130405-deadbeef.Map.Gbx") {
		t.Fatalf("map log path = %q", mapPath)
	}
	if ghostPath != filepath.Join("/logs", "ghosts", "track-validation-ghost-20260825-130405-deadbeef.Ghost.Gbx") {
		t.Fatalf("ghost log path = %q", ghostPath)
	}
	if !strings.Contains(mapPath, "20260825-130405-deadbeef") || !strings.Contains(ghostPath, "20260825-130405-deadbeef") {
		t.Fatal("artifact id missing from a log path")
	}
}

func TestLogAndReturn(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(t.TempDir(), "cleaned.Map.Gbx")
	if err := os.WriteFile(src, []byte("map bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	p := artifacts.NewPipeline(root, "20260825-130405-0badc0de", "track", logging.NewNop())
	var logged string
	err := p.WithLock(func() error {
		var err error
		logged, err = p.LogMap(src)
		return err
	})
	if err != nil {
		t.Fatalf("log map: %v", err)
	}
	data, err := os.ReadFile(logged)
	if err != nil || string(data) != "map bytes" {
		t.Fatalf("logged artifact unreadable: %v (%q)", err, data)
	}

	returnDir := filepath.Join(t.TempDir(), "returned")
	dst, ok, err := p.Return(returnDir, logged)
	if err != nil || !ok {
		t.Fatalf("Return: ok=%v err=%v", ok, err)
	}
	if filepath.Dir(dst) != returnDir {
		t.Fatalf("returned into %q", dst)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("returned copy missing: %v", err)
	}
}

func TestReturnWithoutArtifact(t *testing.T) {
	p := artifacts.NewPipeline(t.TempDir(), "id", "track", logging.NewNop())
	dst, ok, err := p.Return(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if ok || dst != "" {
		t.Fatalf("expected nothing returned, got %q (ok=%v)", dst, ok)
	}
}

func TestLogOverwritesExisting(t *testing.T) {
	root := t.TempDir()
	p := artifacts.NewPipeline(root, "fixed-id", "track", logging.NewNop())

	src := filepath.Join(t.TempDir(), "cleaned.Map.Gbx")
	if err := os.WriteFile(src, []byte("first"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if _, err := p.LogMap(src); err != nil {
		t.Fatalf("first log: %v", err)
	}
	if err := os.WriteFile(src, []byte("second"), 0o644); err != nil {
		t.Fatalf("rewrite source: %v", err)
	}
	logged, err := p.LogMap(src)
	if err != nil {
		t.Fatalf("second log: %v", err)
	}
	data, _ := os.ReadFile(logged)
	if string(data) != "second" {
		t.Fatalf("overwrite failed, got %q", data)
	}
}
