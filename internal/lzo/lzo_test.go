package lzo_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gbxstrip/internal/lzo"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub codec requires a unix shell")
	}
}

func TestLocateExplicit(t *testing.T) {
	requireUnix(t)
	path := writeStub(t, t.TempDir(), "gbxlzo", "#!/bin/sh\nexit 0\n")
	runner, err := lzo.Locate(path)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if runner.ExePath != path {
		t.Fatalf("ExePath = %q", runner.ExePath)
	}
}

func TestLocateExplicitMissing(t *testing.T) {
	_, err := lzo.Locate(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, lzo.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLocateOnSearchPath(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	writeStub(t, dir, "gbxlzo", "#!/bin/sh\nexit 0\n")
	t.Setenv("PATH", dir)
	runner, err := lzo.Locate("")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if filepath.Dir(runner.ExePath) != dir {
		t.Fatalf("ExePath = %q, want inside %q", runner.ExePath, dir)
	}
}

func TestRunCopiesThroughStub(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	// Argument contract: <input> <mode> -v -o <output>.
	stub := writeStub(t, dir, "gbxlzo", "#!/bin/sh\ncp \"$1\" \"$5\"\n")

	input := filepath.Join(dir, "in.bin")
	output := filepath.Join(dir, "out.bin")
	if err := os.WriteFile(input, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	runner := &lzo.Runner{ExePath: stub}
	if err := runner.Run(input, output, lzo.Compress); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil || string(data) != "payload" {
		t.Fatalf("output = %q, err = %v", data, err)
	}
}

func TestRunNonZeroExitCarriesOutput(t *testing.T) {
	requireUnix(t)
	stub := writeStub(t, t.TempDir(), "gbxlzo", "#!/bin/sh\necho 'corrupt stream' >&2\nexit 3\n")
	runner := &lzo.Runner{ExePath: stub}
	err := runner.Run("in", "out", lzo.Decompress)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "corrupt stream") {
		t.Fatalf("error does not carry captured output: %v", err)
	}
}
