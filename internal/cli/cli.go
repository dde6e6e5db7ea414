// Package cli holds the startup sequence shared by the tiff2video and
// dirtiff2video commands. It parses flags, validates configuration and
// paths, and either runs system diagnostics (--check) or the conversion
// pipeline.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/backmassage/tiff2video/internal/check"
	"github.com/backmassage/tiff2video/internal/config"
	"github.com/backmassage/tiff2video/internal/display"
	"github.com/backmassage/tiff2video/internal/logging"
	"github.com/backmassage/tiff2video/internal/pipeline"
)

// Run executes one invocation of prog in the given mode and returns the
// process exit code. Per-file failures do not change the exit code; only
// startup errors (bad flags, missing input, missing tools) return 1.
func Run(prog string, mode config.Mode, args []string) int {
	return run(prog, mode, args, os.Stderr)
}

func run(prog string, mode config.Mode, args []string, stderr io.Writer) int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr.
	cfg := config.DefaultConfig()
	cfg.Mode = mode
	if err := config.ParseFlags(&cfg, prog, args); err != nil {
		if errors.Is(err, config.ErrHelp) || errors.Is(err, config.ErrVersion) {
			return 0
		}
		fmt.Fprintf(stderr, "%s: %v\n", prog, err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", prog, err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", prog, err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available.
	if cfg.Verbosity > 0 {
		display.PrintBanner(os.Stdout, prog, config.Version)
	}

	if cfg.CheckOnly {
		if !check.RunCheck(context.Background(), &cfg, log) {
			return 1
		}
		return 0
	}

	if _, err := os.Stat(cfg.InputPath); err != nil {
		log.Error("Input not found: %s", cfg.InputPath)
		return 1
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutput(cfg.InputPath)
	}
	for _, w := range startupWarnings(&cfg) {
		log.Warn("%s", w)
	}

	if err := check.CheckDeps(context.Background(), &cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	// Phase 3: Signal handling. Cancelling stops the pipeline between
	// frames; the current video is closed and its partial file removed.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Phase 4: Run.
	pipeline.Run(ctx, &cfg, log, pipeline.NewConverter(&cfg, log))
	return 0
}

// startupWarnings lists what the user should know before a run starts.
// Vidio installs its own SIGINT handler per video that exits the process
// at once, so the context cancellation below never reaches that video.
func startupWarnings(cfg *config.Config) []string {
	var out []string
	if cfg.DryRun {
		out = append(out, "DRY RUN: no files will be written")
	}
	if cfg.Encoder == config.EncoderVidio && !cfg.DryRun {
		out = append(out, "vidio backend: Ctrl-C exits immediately and leaves the current video partial; use --encoder ffmpeg for clean interruption")
	}
	return out
}

// DefaultOutput is the output location used when -out is not given: the
// input directory itself, or the directory holding the input file.
func DefaultOutput(input string) string {
	if fi, err := os.Stat(input); err == nil && !fi.IsDir() {
		return filepath.Dir(input)
	}
	return input
}
