package pipeline

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/backmassage/tiff2video/internal/config"
	"github.com/backmassage/tiff2video/internal/display"
	"github.com/backmassage/tiff2video/internal/ffmpeg"
	"github.com/backmassage/tiff2video/internal/imageio"
	"github.com/backmassage/tiff2video/internal/logging"
	"github.com/backmassage/tiff2video/internal/naming"
	"github.com/backmassage/tiff2video/internal/probe"
)

// stderrTail is how many ffmpeg stderr lines are logged on failure.
const stderrTail = 20

// Run is the top-level entry point for both binaries. In batch mode every
// multi-page file under cfg.InputPath becomes its own video (or the single
// file given becomes one); in aggregate mode the directory's images become
// one video. Per-file failures are logged and counted, never returned.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, conv *Converter) RunStats {
	var stats RunStats

	log.Info("Video speed (FPS): %d", cfg.FPS)
	if cfg.Mode == config.ModeAggregate {
		runAggregate(ctx, cfg, log, conv, &stats)
	} else {
		runBatch(ctx, cfg, log, conv, &stats)
	}

	logSummary(cfg, log, &stats)
	return stats
}

func runAggregate(ctx context.Context, cfg *config.Config, log *logging.Logger, conv *Converter, stats *RunStats) {
	fi, err := conv.Fs.Stat(cfg.InputPath)
	if err != nil || !fi.IsDir() {
		log.Error("Input is not a directory: %s", cfg.InputPath)
		stats.Failed++
		return
	}
	log.Info("Input directory: %s", cfg.InputPath)
	log.Info("Output directory or file: %s", cfg.OutputPath)

	stats.Total, stats.Current = 1, 1
	res := conv.Dir(ctx, cfg.InputPath, cfg.OutputPath)
	handleResult(ctx, cfg, log, conv, stats, cfg.InputPath, res)
}

func runBatch(ctx context.Context, cfg *config.Config, log *logging.Logger, conv *Converter, stats *RunStats) {
	fi, err := conv.Fs.Stat(cfg.InputPath)
	if err != nil {
		log.Error("Input not found: %s", cfg.InputPath)
		stats.Failed++
		return
	}

	if !fi.IsDir() {
		log.Info("Input file: %s", cfg.InputPath)
		log.Info("Output directory or file: %s", cfg.OutputPath)
		stats.Total, stats.Current = 1, 1
		res := conv.File(ctx, cfg.InputPath, cfg.OutputPath)
		handleResult(ctx, cfg, log, conv, stats, cfg.InputPath, res)
		return
	}

	outDir, err := naming.PrepareOutputDir(conv.Fs, cfg.OutputPath)
	if err != nil {
		log.Error("Cannot prepare output directory: %v", err)
		stats.Failed++
		return
	}
	if outDir != cfg.OutputPath {
		log.Info("Output directory is a file. The parent folder is used instead: %s", outDir)
	}

	files, err := Discover(conv.Fs, cfg.InputPath, cfg.DiscoveryExtensions()...)
	if err != nil {
		log.Error("File discovery failed: %v", err)
		stats.Failed++
		return
	}
	log.Info("Input folder: %s", cfg.InputPath)
	log.Info("Images TIFF found: %d", len(files))
	log.Info("Output folder: %s", outDir)

	stats.Total = len(files)
	resolver := naming.NewCollisionResolver()
	for i, path := range files {
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			break
		}
		stats.Current = i + 1

		log.Info("File (%d/%d): %q", stats.Current, stats.Total, path)
		want := filepath.Join(outDir, naming.Stem(path)+cfg.VideoExt())
		dest := resolver.Resolve(path, want)
		if dest != want {
			log.Warn("Output name taken in this run, writing %s", filepath.Base(dest))
		}
		res := conv.File(ctx, path, dest)
		handleResult(ctx, cfg, log, conv, stats, path, res)
	}
}

// handleResult counts res and logs it. A failed encode whose writer was
// opened leaves a partial file behind, which is removed.
func handleResult(ctx context.Context, cfg *config.Config, log *logging.Logger, conv *Converter, stats *RunStats, src string, res Result) {
	stats.Record(res)

	switch res.Outcome {
	case OutcomeWritten:
		if fi, err := conv.Fs.Stat(res.Path); err == nil {
			stats.TotalOutputBytes += fi.Size()
		}
		log.Success("%s: %d frames (%s) -> %s", filepath.Base(src), res.Frames,
			display.FormatClipLength(res.Frames, cfg.FPS), res.Path)
		if cfg.Verify {
			verifyOutput(ctx, cfg, log, res)
		}

	case OutcomeFailed:
		log.Error("Something went wrong with %s: %v", src, res.Err)
		logStderr(log, res.Err)
		if res.Path != "" && res.Shape != (imageio.Shape{}) {
			_ = conv.Fs.Remove(res.Path)
		}
	}
}

// verifyOutput probes a written video and warns about any difference from
// what was requested.
func verifyOutput(ctx context.Context, cfg *config.Config, log *logging.Logger, res Result) {
	pr, err := probe.Probe(ctx, cfg.FFmpeg.Probe, res.Path)
	if err != nil {
		log.Warn("  Verify: %v", err)
		return
	}
	want := probe.Expect{
		Width:  res.Shape.Width,
		Height: res.Shape.Height,
		Frames: res.Frames,
		FPS:    cfg.FPS,
	}
	problems := pr.Mismatches(want)
	for _, p := range problems {
		log.Warn("  Verify: %s", p)
	}
	if len(problems) == 0 {
		log.Success("  Verified: %d frames, %s @ %d fps", res.Frames, pr.Resolution(), cfg.FPS)
	}
}

func logStderr(log *logging.Logger, err error) {
	var ee *ffmpeg.ExecError
	if !errors.As(err, &ee) || ee.Stderr == "" {
		return
	}
	log.Error("Last ffmpeg output:")
	for _, line := range ee.Tail(stderrTail) {
		log.Error("  %s", line)
	}
}

func logSummary(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	log.Info("==============================")
	log.Info("Done: %d converted, %d skipped, %d failed", stats.Converted, stats.Skipped, stats.Failed)
	log.Info("Summary report:")
	log.Info("  Total inputs processed: %d", stats.Current)
	log.Info("  Frames written: %d (skipped: %d)", stats.FramesWritten, stats.FramesSkipped)

	if cfg.DryRun {
		log.Info("  Output size: n/a (dry run)")
		return
	}
	log.Info("  Output size: %s", display.FormatBytes(stats.TotalOutputBytes))
}
