package pipeline

import (
	"errors"

	"gbxstrip/internal/containerio"
	"gbxstrip/internal/lzo"
)

// Sentinel errors for run-level failure classification.
var (
	// ErrUsage marks bad caller input (missing paths, malformed options).
	ErrUsage = errors.New("usage error")
	// ErrInputNotFound marks a missing or unreadable input file.
	ErrInputNotFound = errors.New("input file not found")
)

// Process exit codes.
const (
	ExitOK               = 0
	ExitUsage            = 1
	ExitInputNotFound    = 2
	ExitCodecUnavailable = 3
	ExitDecodeFailure    = 4
	ExitUnhandled        = 99
)

// ExitCode maps a run error to the process exit code. Codec execution
// failures and anything else unclassified fall through to the catch-all.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrInputNotFound):
		return ExitInputNotFound
	case errors.Is(err, lzo.ErrNotFound):
		return ExitCodecUnavailable
	case errors.Is(err, containerio.ErrDecode):
		return ExitDecodeFailure
	default:
		return ExitUnhandled
	}
}
