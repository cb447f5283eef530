package pipeline_test

import (
	"errors"
	"fmt"
	"testing"

	"gbxstrip/internal/containerio"
	"gbxstrip/internal/lzo"
	"gbxstrip/internal/pipeline"
)

func TestExitCodeClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, pipeline.ExitOK},
		{"usage", fmt.Errorf("%w: missing paths", pipeline.ErrUsage), pipeline.ExitUsage},
		{"input missing", fmt.Errorf("%w: %q", pipeline.ErrInputNotFound, "x"), pipeline.ExitInputNotFound},
		{"codec unavailable", fmt.Errorf("locate: %w", lzo.ErrNotFound), pipeline.ExitCodecUnavailable},
		{"decode failure", fmt.Errorf("%w: truncated", containerio.ErrDecode), pipeline.ExitDecodeFailure},
		{"unhandled", errors.New("disk on fire"), pipeline.ExitUnhandled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pipeline.ExitCode(tc.err); got != tc.want {
				t.Fatalf("ExitCode = %d, want %d", got, tc.want)
			}
		})
	}
}
