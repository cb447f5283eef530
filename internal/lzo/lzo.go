// Package lzo drives the external gbxlzo executable, the only component
// able to produce or expand the container's compressed encoding.
package lzo

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Mode selects the codec direction.
type Mode string

const (
	Compress   Mode = "-c"
	Decompress Mode = "-d"
)

// ErrNotFound reports that no codec executable could be located.
var ErrNotFound = errors.New("gbxlzo executable not found")

const executableName = "gbxlzo"

// Runner invokes the codec as a subprocess. It performs no retries; a codec
// failure always aborts the run.
type Runner struct {
	ExePath string
}

// Locate resolves the codec executable. An explicit path wins; otherwise the
// directory of the running binary, the working directory, and finally the
// search path are probed.
func Locate(explicit string) (*Runner, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("%w: configured path %q: %v", ErrNotFound, explicit, err)
		}
		return &Runner{ExePath: explicit}, nil
	}
	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), executableName)
		if _, err := os.Stat(candidate); err == nil {
			return &Runner{ExePath: candidate}, nil
		}
	}
	if wd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(wd, executableName)
		if _, err := os.Stat(candidate); err == nil {
			return &Runner{ExePath: candidate}, nil
		}
	}
	if path, err := exec.LookPath(executableName); err == nil {
		return &Runner{ExePath: path}, nil
	}
	return nil, ErrNotFound
}

// Run transforms input into output in the given direction. Both output
// streams are drained before the exit code is checked; a non-zero exit is a
// fatal failure carrying the captured output.
func (r *Runner) Run(input, output string, mode Mode) error {
	cmd := exec.Command(r.ExePath, input, string(mode), "-v", "-o", output)
	captured, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("gbxlzo %s %q: %w: %s", mode, input, err, strings.TrimSpace(string(captured)))
	}
	return nil
}
