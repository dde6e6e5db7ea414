package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/backmassage/tiff2video/internal/config"
	"github.com/backmassage/tiff2video/internal/imageio"
	"github.com/backmassage/tiff2video/internal/logging"
	"github.com/backmassage/tiff2video/internal/naming"
	"github.com/backmassage/tiff2video/internal/video"
)

// Outcome classifies how one conversion ended.
type Outcome int

const (
	OutcomeWritten     Outcome = iota // A video was written.
	OutcomeInvalid                    // Source path empty or not a regular file.
	OutcomeFailed                     // Decode or encoder failure; Result.Err is set.
	OutcomeTooFewPages                // Zero or one page: nothing to animate.
	OutcomeNoInput                    // Directory holds no matching files.
	OutcomeNoFrames                   // Files found but none decoded.
	OutcomeSkipped                    // Output exists and SkipExisting is set.
	OutcomePlanned                    // Dry run: output resolved, nothing written.
)

var outcomeNames = [...]string{
	OutcomeWritten:     "written",
	OutcomeInvalid:     "invalid source",
	OutcomeFailed:      "failed",
	OutcomeTooFewPages: "too few pages",
	OutcomeNoInput:     "no input",
	OutcomeNoFrames:    "no frames",
	OutcomeSkipped:     "skipped",
	OutcomePlanned:     "planned",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result is what a conversion reports back to the batch driver.
type Result struct {
	Outcome Outcome
	Path    string        // Resolved video path; empty when never resolved.
	Shape   imageio.Shape // Shape the video was opened with.
	Frames  int           // Frames written.
	Skipped int           // Frames or files dropped (decode error, size mismatch).
	Err     error
}

// Converter turns image sources into videos. Fs is used for every read and
// for creating output directories; the video itself is written by Open.
type Converter struct {
	Fs   afero.Fs
	Log  *logging.Logger
	Cfg  *config.Config
	Open video.Opener
}

// NewConverter wires a Converter to the OS filesystem and the configured
// encoder backend. In dry-run mode directory creation lands in an in-memory
// layer over the real filesystem, so nothing on disk changes.
func NewConverter(cfg *config.Config, log *logging.Logger) *Converter {
	var fsys afero.Fs = afero.NewOsFs()
	if cfg.DryRun {
		fsys = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(fsys), afero.NewMemMapFs())
	}
	return &Converter{
		Fs:   fsys,
		Log:  log,
		Cfg:  cfg,
		Open: video.NewOpener(cfg, log),
	}
}

// File converts every page of the multi-page image src into one video at
// dest (resolved with [naming.ResolveVideoPath]). A source with fewer than
// two pages produces no video.
func (c *Converter) File(ctx context.Context, src, dest string) Result {
	if src == "" {
		c.Log.Error("Source file is empty")
		return Result{Outcome: OutcomeInvalid}
	}
	if fi, err := c.Fs.Stat(src); err != nil || !fi.Mode().IsRegular() {
		c.Log.Error("Source is not a file: %s", src)
		return Result{Outcome: OutcomeInvalid}
	}

	out, err := naming.ResolveVideoPath(c.Fs, dest, filepath.Dir(src), naming.Stem(src), c.Cfg.VideoExt())
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: err}
	}
	if r, done := c.precheck(out); done {
		return r
	}

	pages, err := imageio.DecodePages(c.Fs, src)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Path: out, Err: err}
	}
	if len(pages) <= 1 {
		c.Log.Info("%s is a single image. The video is not recorded", src)
		return Result{Outcome: OutcomeTooFewPages, Path: out}
	}

	s := &session{c: c, path: out}
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return s.fail(err)
		}
		if err := s.write(ctx, page); err != nil {
			if errors.Is(err, video.ErrFrameSize) {
				c.Log.Error("Page %d of %s skipped: %v", i+1, src, err)
				s.res.Skipped++
				continue
			}
			return s.fail(err)
		}
	}
	r := s.finish()
	if r.Outcome == OutcomeWritten {
		c.Log.Info("tiff2video -> %s", out)
	}
	return r
}

// Dir converts the single-page images in dir, in discovery order, into one
// video at dest. The first decoded frame fixes the video's shape; later
// frames that differ are skipped, as are files that fail to decode.
func (c *Converter) Dir(ctx context.Context, dir, dest string) Result {
	files, err := Discover(c.Fs, dir, c.Cfg.DiscoveryExtensions()...)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("discover %s: %w", dir, err)}
	}
	if len(files) == 0 {
		c.Log.Error("Directory input is empty: %s", dir)
		return Result{Outcome: OutcomeNoInput}
	}
	c.Log.Info("Number of TIFF files: %d", len(files))

	out, err := naming.ResolveVideoPath(c.Fs, dest, dir, naming.Stem(files[0]), c.Cfg.VideoExt())
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: err}
	}
	c.Log.Info("Video destination path: %s", out)
	if r, done := c.precheck(out); done {
		return r
	}

	s := &session{c: c, path: out}
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return s.fail(err)
		}
		err := c.addFile(ctx, s, path)
		switch {
		case err == nil:
			c.Log.Info("%d/%d - Fill the video with: %s", i+1, len(files), path)
		case errors.Is(err, imageio.ErrDecode), errors.Is(err, video.ErrFrameSize):
			c.Log.Error("%v", err)
			s.res.Skipped++
		default:
			return s.fail(err)
		}
	}

	if s.w == nil {
		c.Log.Error("No image could be decoded in %s", dir)
		return Result{Outcome: OutcomeNoFrames, Path: out, Skipped: s.res.Skipped}
	}
	r := s.finish()
	if r.Outcome == OutcomeWritten {
		c.Log.Info("dirtiff2video -> %s", out)
	}
	return r
}

// addFile decodes one image and appends it to the session. Shape mismatch
// against the first frame is reported as video.ErrFrameSize.
func (c *Converter) addFile(ctx context.Context, s *session, path string) error {
	img, err := imageio.DecodeFile(c.Fs, path)
	if err != nil {
		return err
	}
	if s.w != nil {
		if got := imageio.ShapeOf(img); got != s.res.Shape {
			return fmt.Errorf("%w: %s is %v, previous images are %v", video.ErrFrameSize, path, got, s.res.Shape)
		}
	}
	return s.write(ctx, img)
}

// precheck applies --skip-existing and --dry-run once the output is known.
func (c *Converter) precheck(out string) (Result, bool) {
	if c.Cfg.SkipExisting {
		if _, err := c.Fs.Stat(out); err == nil {
			c.Log.Warn("Skip (exists): %s", out)
			return Result{Outcome: OutcomeSkipped, Path: out}, true
		}
	}
	if c.Cfg.DryRun {
		c.Log.Success("[DRY] Would write %s", out)
		return Result{Outcome: OutcomePlanned, Path: out}, true
	}
	return Result{}, false
}

// session owns the writer of one output video. The writer is opened by the
// first frame and closed exactly once by finish or fail.
type session struct {
	c    *Converter
	path string
	w    video.Writer
	res  Result
}

func (s *session) write(ctx context.Context, img image.Image) error {
	if s.w == nil {
		shape := imageio.ShapeOf(img)
		w, err := s.c.Open.Open(ctx, video.Options{Path: s.path, FPS: s.c.Cfg.FPS, Shape: shape})
		if err != nil {
			return err
		}
		s.w, s.res.Shape = w, shape
	}
	return s.w.WriteFrame(img)
}

func (s *session) finish() Result {
	s.res.Path = s.path
	s.res.Outcome = OutcomeWritten
	if s.w == nil {
		return s.res
	}
	s.res.Frames = s.w.Frames()
	if err := s.w.Close(); err != nil {
		s.res.Outcome, s.res.Err = OutcomeFailed, err
	}
	return s.res
}

func (s *session) fail(err error) Result {
	s.res.Path = s.path
	if s.w != nil {
		s.res.Frames = s.w.Frames()
		_ = s.w.Close()
	}
	s.res.Outcome, s.res.Err = OutcomeFailed, err
	return s.res
}
