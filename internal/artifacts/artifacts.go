// Package artifacts derives run-stable artifact names and logs cleaned
// maps and extracted ghosts under the processed root, plus optional
// return copies for the caller.
package artifacts

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"gbxstrip/internal/fileutil"
)

const (
	defaultStem   = "map"
	mapsDir       = "maps"
	ghostsDir     = "ghosts"
	lockFileName  = ".gbxstrip.lock"
	mapSuffix     = ".Map.Gbx"
	ghostSuffix   = ".Ghost.Gbx"
	mapMarker     = "no-validation-replay"
	ghostMarker   = "validation-ghost"
	timeIDLayout  = "20060102-150405"
	randomIDBytes = 4
)

// NewID builds the run artifact identifier: a UTC timestamp plus eight
// lowercase hex characters drawn from a random 128-bit value. Generated
// once per run so the map and ghost logs correlate.
func NewID(now time.Time) string {
	random := uuid.New()
	return fmt.Sprintf("%s-%x", now.UTC().Format(timeIDLayout), random[:randomIDBytes])
}

// containerSuffixes are stripped from the input name, longest first.
var containerSuffixes = []string{".Challenge.Gbx", ".Map.Gbx", ".Gbx"}

// Stem derives the filename stem from the input path: known container
// suffixes stripped, the rest NFC-normalized with filesystem-invalid
// characters replaced by underscores.
func Stem(inputPath string) string {
	name := filepath.Base(inputPath)
	for _, suffix := range containerSuffixes {
		if len(name) > len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix) {
			name = name[:len(name)-len(suffix)]
			break
		}
	}
	name = norm.NFC.String(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsControl(r) || strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), " .")
	if out == "" {
		return defaultStem
	}
	return out
}

// Pipeline logs artifacts for one run under a processed root.
type Pipeline struct {
	Root   string
	ID     string
	Stem   string
	logger *slog.Logger
}

// NewPipeline builds the artifact pipeline for one run.
func NewPipeline(root, id, stem string, logger *slog.Logger) *Pipeline {
	if logger != nil {
		logger = logger.With(slog.String("component", "artifacts"))
	}
	return &Pipeline{Root: root, ID: id, Stem: stem, logger: logger}
}

// MapLogPath is where the cleaned map is logged.
func (p *Pipeline) MapLogPath() string {
	name := fmt.Sprintf("%s-%s-%s%s", p.Stem, mapMarker, p.ID, mapSuffix)
	return filepath.Join(p.Root, mapsDir, name)
}

// GhostLogPath is where the extracted ghost is logged.
func (p *Pipeline) GhostLogPath() string {
	name := fmt.Sprintf("%s-%s-%s%s", p.Stem, ghostMarker, p.ID, ghostSuffix)
	return filepath.Join(p.Root, ghostsDir, name)
}

// WithLock runs fn while holding the processed-root lock, so concurrent
// invocations sharing a root do not interleave their log-and-index phase.
func (p *Pipeline) WithLock(fn func() error) error {
	if err := fileutil.EnsureDir(p.Root); err != nil {
		return fmt.Errorf("ensure processed root: %w", err)
	}
	lock := flock.New(filepath.Join(p.Root, lockFileName))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire processed-root lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

// LogMap copies the recompressed map at src into the maps log location,
// overwriting any same-named file. The artifact id makes collisions
// effectively impossible, so overwrite is a safety net.
func (p *Pipeline) LogMap(src string) (string, error) {
	return p.log(src, p.MapLogPath())
}

// LogGhost copies the recompressed ghost at src into the ghosts log location.
func (p *Pipeline) LogGhost(src string) (string, error) {
	return p.log(src, p.GhostLogPath())
}

func (p *Pipeline) log(src, dst string) (string, error) {
	if err := fileutil.EnsureDir(filepath.Dir(dst)); err != nil {
		return "", fmt.Errorf("ensure log directory: %w", err)
	}
	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		return "", fmt.Errorf("log artifact: %w", err)
	}
	if p.logger != nil {
		p.logger.Info("artifact logged", slog.String("path", dst))
	}
	return dst, nil
}

// Return copies the logged artifact at loggedPath into dir. A missing
// artifact (no ghost was found, say) is not an error: it reports ok=false.
func (p *Pipeline) Return(dir, loggedPath string) (string, bool, error) {
	if loggedPath == "" {
		return "", false, nil
	}
	if err := fileutil.EnsureDir(dir); err != nil {
		return "", false, fmt.Errorf("ensure return directory: %w", err)
	}
	dst := filepath.Join(dir, filepath.Base(loggedPath))
	if err := fileutil.CopyFile(loggedPath, dst); err != nil {
		return "", false, fmt.Errorf("return artifact: %w", err)
	}
	return dst, true, nil
}
