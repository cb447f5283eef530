// Package pipeline sequences one sanitizing run: decode, extract and
// record the validation ghost, re-encode, recompress externally, log and
// return artifacts.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gbxstrip/internal/artifacts"
	"gbxstrip/internal/config"
	"gbxstrip/internal/containerio"
	"gbxstrip/internal/gbx"
	"gbxstrip/internal/lzo"
	"gbxstrip/internal/metadata"
	"gbxstrip/internal/runindex"
)

// Options is the immutable per-run caller configuration.
type Options struct {
	InputPath  string
	OutputPath string
	Note       string

	ReturnMapDir    string
	ReturnGhostDir  string
	ReturnReplayDir string
}

// ReplayUnavailableNotice explains the permanent replay-export capability
// gap: replay records can be read but there is no writer for the format.
const ReplayUnavailableNotice = "replay export is unavailable: replay records can be read but not re-serialized"

// ReturnResult reports one requested return copy.
type ReturnResult struct {
	Requested bool
	Dir       string
	// Path is the final copied location, empty when nothing was returned.
	Path string
	// Notice explains an empty Path. Not an error.
	Notice string
}

// Report summarizes one completed run.
type Report struct {
	ArtifactID   string
	Removed      bool
	GhostUID     string
	MetaKey      string
	OutputPath   string
	MapLogPath   string
	GhostLogPath string
	IndexPath    string

	MapReturn    ReturnResult
	GhostReturn  ReturnResult
	ReplayReturn ReturnResult
}

// Run executes the full pipeline. Either every step completes or the run
// aborts; there is no partial-success state.
func Run(ctx context.Context, cfg config.Config, opts Options, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.InputPath == "" || opts.OutputPath == "" {
		return nil, fmt.Errorf("%w: input and output paths are required", ErrUsage)
	}
	if err := checkReadableFile(opts.InputPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputNotFound, err)
	}

	codec, err := lzo.Locate(cfg.LZOPath)
	if err != nil {
		return nil, err
	}

	scratch, err := os.MkdirTemp("", "gbxstrip-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	// Cleanup is best-effort; failures are never surfaced.
	defer func() { _ = os.RemoveAll(scratch) }()

	cio := containerio.New(gbx.NewDecoder(), codec, scratch, logger)
	container, err := cio.Open(opts.InputPath)
	if err != nil {
		return nil, err
	}
	if container.IsReplay() {
		return nil, fmt.Errorf("%q is a replay container; replays can be read but not rewritten", opts.InputPath)
	}

	metaKey := cfg.MetaKey
	if metaKey == "" {
		metaKey = metadata.DefaultKey
	}

	report := &Report{
		ArtifactID: artifacts.NewID(time.Now()),
		MetaKey:    metaKey,
		OutputPath: opts.OutputPath,
	}

	var ghost *gbx.ValidationGhost
	if container.Challenge != nil && container.Challenge.Ghost != nil {
		ghost = container.Challenge.Ghost
		metadata.AttachRemovalRecord(container, metaKey, ghost)
		container.Challenge.Ghost = nil
		report.Removed = true
		report.GhostUID = ghost.UID
		logger.Info("validation ghost removed",
			slog.String("uid", ghost.UID),
			slog.String("meta_key", metaKey))
	} else {
		logger.Info("no validation ghost present, metadata left untouched")
	}

	if note := cfg.ResolveNote(opts.Note); note != "" {
		container.AppendComment(note)
	}

	rawMap := filepath.Join(scratch, "uncompressed.Map.Gbx")
	if err := cio.Save(container, rawMap); err != nil {
		return nil, fmt.Errorf("serialize map: %w", err)
	}
	if err := codec.Run(rawMap, opts.OutputPath, lzo.Compress); err != nil {
		return nil, err
	}

	var ghostCompressed string
	if ghost != nil {
		rawGhost := filepath.Join(scratch, "extracted.Ghost.Gbx")
		if err := cio.SaveGhost(ghost, rawGhost); err != nil {
			return nil, fmt.Errorf("serialize ghost: %w", err)
		}
		ghostCompressed = filepath.Join(scratch, "extracted-compressed.Ghost.Gbx")
		if err := codec.Run(rawGhost, ghostCompressed, lzo.Compress); err != nil {
			return nil, err
		}
	}

	root := cfg.ProcessedRoot
	if root == "" {
		root = filepath.Dir(opts.OutputPath)
	}
	pipe := artifacts.NewPipeline(root, report.ArtifactID, artifacts.Stem(opts.InputPath), logger)

	err = pipe.WithLock(func() error {
		mapLog, err := pipe.LogMap(opts.OutputPath)
		if err != nil {
			return err
		}
		report.MapLogPath = mapLog
		if ghostCompressed != "" {
			ghostLog, err := pipe.LogGhost(ghostCompressed)
			if err != nil {
				return err
			}
			report.GhostLogPath = ghostLog
		}
		recordRun(ctx, root, report, opts, container, logger)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := applyReturns(pipe, opts, report); err != nil {
		return nil, err
	}
	return report, nil
}

// checkReadableFile distinguishes input-path failures from container decode
// failures. Missing, unopenable, or non-regular inputs are all input errors,
// never decode errors.
func checkReadableFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%q: %v", path, err)
	}
	info, err := f.Stat()
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("%q: %v", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%q is not a regular file", path)
	}
	return nil
}

// recordRun appends the run to the audit index. Index failures are warned
// and swallowed: the logged copies are the record, the index is convenience.
func recordRun(ctx context.Context, root string, report *Report, opts Options, container *gbx.Container, logger *slog.Logger) {
	store, err := runindex.Open(ctx, root)
	if err != nil {
		logger.Warn("run index unavailable", slog.Any("error", err))
		return
	}
	defer func() { _ = store.Close() }()

	var authorMS int64 = -1
	if author := metadata.ResolveTimes(container).Author; author.Valid {
		authorMS = int64(author.Millis)
	}
	run := runindex.Run{
		ArtifactID:   report.ArtifactID,
		InputPath:    opts.InputPath,
		OutputPath:   opts.OutputPath,
		GhostRemoved: report.Removed,
		GhostUID:     report.GhostUID,
		AuthorTimeMS: authorMS,
		MapLogPath:   report.MapLogPath,
		GhostLogPath: report.GhostLogPath,
	}
	if err := store.Record(ctx, run); err != nil {
		logger.Warn("run index write failed", slog.Any("error", err))
		return
	}
	report.IndexPath = store.Path()
}

func applyReturns(pipe *artifacts.Pipeline, opts Options, report *Report) error {
	if opts.ReturnMapDir != "" {
		path, ok, err := pipe.Return(opts.ReturnMapDir, report.MapLogPath)
		if err != nil {
			return err
		}
		report.MapReturn = ReturnResult{Requested: true, Dir: opts.ReturnMapDir, Path: path}
		if !ok {
			report.MapReturn.Notice = "no map artifact was logged"
		}
	}
	if opts.ReturnGhostDir != "" {
		path, ok, err := pipe.Return(opts.ReturnGhostDir, report.GhostLogPath)
		if err != nil {
			return err
		}
		report.GhostReturn = ReturnResult{Requested: true, Dir: opts.ReturnGhostDir, Path: path}
		if !ok {
			report.GhostReturn.Notice = "no ghost artifact was logged (no validation ghost was found)"
		}
	}
	if opts.ReturnReplayDir != "" {
		report.ReplayReturn = ReturnResult{
			Requested: true,
			Dir:       opts.ReturnReplayDir,
			Notice:    ReplayUnavailableNotice,
		}
	}
	return nil
}
