// Package containerio opens and saves track containers, sequencing the
// external-decompression fallback around the in-process decoder.
package containerio

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gbxstrip/internal/gbx"
	"gbxstrip/internal/lzo"
)

// ErrDecode marks an unrecoverable container parse failure, as opposed to a
// codec subprocess failure during the fallback.
var ErrDecode = errors.New("container decode failure")

// Codec is the external compression executable boundary.
type Codec interface {
	Run(input, output string, mode lzo.Mode) error
}

// IO decodes and encodes container files. The decoder and codec are
// explicit dependencies; nothing here reaches for ambient registration
// state.
type IO struct {
	decoder *gbx.Decoder
	codec   Codec
	scratch string
	logger  *slog.Logger
}

// New builds an IO around an injected decoder and codec. scratch is the
// per-run directory for intermediate uncompressed copies.
func New(decoder *gbx.Decoder, codec Codec, scratch string, logger *slog.Logger) *IO {
	if logger != nil {
		logger = logger.With(slog.String("component", "containerio"))
	}
	return &IO{decoder: decoder, codec: codec, scratch: scratch, logger: logger}
}

// Open decodes the container at path. A body whose compression the decoder
// cannot expand is decompressed externally to a scratch copy and decoded
// from there; every other decode failure is terminal.
func (io *IO) Open(path string) (*gbx.Container, error) {
	result := io.decoder.DecodeFile(path)
	switch result.Status {
	case gbx.StatusDecoded:
		return result.Container, nil
	case gbx.StatusNeedsExternalDecompress:
		// Fall through to the external codec.
	default:
		return nil, fmt.Errorf("%w: %w", ErrDecode, result.Err)
	}

	if io.logger != nil {
		io.logger.Info("body compression not registered, decompressing externally",
			slog.String("input", path))
	}
	expanded := filepath.Join(io.scratch, "decompressed-"+filepath.Base(path))
	if err := io.codec.Run(path, expanded, lzo.Decompress); err != nil {
		return nil, err
	}
	result = io.decoder.DecodeFile(expanded)
	if result.Status != gbx.StatusDecoded {
		if result.Err != nil {
			return nil, fmt.Errorf("%w: externally decompressed copy: %w", ErrDecode, result.Err)
		}
		return nil, fmt.Errorf("%w: externally decompressed copy of %q still reports a compressed body", ErrDecode, path)
	}
	return result.Container, nil
}

// Save serializes the container to path with every encoding option forced
// uncompressed. Compressing the result is the codec's job, not the writer's.
func (io *IO) Save(c *gbx.Container, path string) error {
	return gbx.EncodeFile(c, path, gbx.Uncompressed())
}

// SaveGhost serializes an extracted ghost standalone to path, uncompressed.
func (io *IO) SaveGhost(g *gbx.ValidationGhost, path string) error {
	data, err := gbx.EncodeGhost(g, gbx.Uncompressed())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
