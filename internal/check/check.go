// Package check provides system diagnostics (--check mode) and pre-run
// dependency validation (CheckDeps) for ffmpeg, ffprobe and the mpeg4
// encoder.
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/backmassage/tiff2video/internal/config"
	"github.com/backmassage/tiff2video/internal/ffmpeg"
	"github.com/backmassage/tiff2video/internal/imageio"
	"github.com/backmassage/tiff2video/internal/probe"
	"github.com/backmassage/tiff2video/internal/video"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrFfmpegNotFound   = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound  = errors.New("ffprobe not found on PATH")
	ErrMPEG4Unavailable = errors.New("ffmpeg was built without the mpeg4 encoder")
)

// Test encode parameters.
const (
	cardWidth  = 320
	cardHeight = 240
	cardFrames = 12
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// RunCheck runs the interactive --check flow: tool versions, encoder
// availability, and a test encode of a generated card through the selected
// backend. It reports whether the selected backend works.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	checkVersion(ctx, log, cfg.FFmpeg.Binary)
	checkVersion(ctx, log, cfg.FFmpeg.Probe)
	if !checkEncoder(ctx, log, cfg) && cfg.Encoder == config.EncoderFFmpeg {
		return false
	}

	log.Info("Test encode (%s backend, %d frames %dx%d)...", cfg.Encoder, cardFrames, cardWidth, cardHeight)
	dir, err := os.MkdirTemp("", "tiff2video-check-*")
	if err != nil {
		log.Error("Cannot create temp directory: %v", err)
		return false
	}
	defer os.RemoveAll(dir)

	path, err := TestEncode(ctx, cfg, dir)
	if err != nil {
		log.Error("Test encode failed: %v", err)
		return false
	}
	log.Success("Test encode works: %s", filepath.Base(path))

	if _, err := exec.LookPath(cfg.FFmpeg.Probe); err == nil {
		pr, err := probe.Probe(ctx, cfg.FFmpeg.Probe, path)
		if err != nil {
			log.Warn("Cannot probe test video: %v", err)
			return true
		}
		want := probe.Expect{Width: cardWidth, Height: cardHeight, Frames: cardFrames, FPS: cfg.FPS}
		for _, m := range pr.Mismatches(want) {
			log.Warn("Test video: %s", m)
		}
	}
	return true
}

// TestEncode writes a short video of test cards into dir through the
// configured backend and returns its path.
func TestEncode(ctx context.Context, cfg *config.Config, dir string) (string, error) {
	path := filepath.Join(dir, "testcard"+cfg.VideoExt())
	opts := video.Options{
		Path:  path,
		FPS:   cfg.FPS,
		Shape: imageio.Shape{Width: cardWidth, Height: cardHeight, Color: true},
	}
	w, err := video.NewOpener(cfg, nil).Open(ctx, opts)
	if err != nil {
		return "", err
	}
	for i := 0; i < cardFrames; i++ {
		img, err := TestCard(cardWidth, cardHeight, fmt.Sprintf("tiff2video %d/%d", i+1, cardFrames))
		if err != nil {
			_ = w.Close()
			return "", err
		}
		if err := w.WriteFrame(img); err != nil {
			_ = w.Close()
			return "", err
		}
	}
	return path, w.Close()
}

// CheckDeps is the pre-run validation. The ffmpeg backend needs ffmpeg on
// PATH with the mpeg4 encoder, the vidio backend needs plain "ffmpeg" on
// PATH, and --verify needs ffprobe. The mjpeg backend needs nothing. Returns a sentinel error on failure.
func CheckDeps(ctx context.Context, cfg *config.Config) error {
	switch cfg.Encoder {
	case config.EncoderVidio:
		if _, err := exec.LookPath(video.VidioBinary); err != nil {
			return ErrFfmpegNotFound
		}
	case config.EncoderFFmpeg:
		if _, err := exec.LookPath(cfg.FFmpeg.Binary); err != nil {
			return ErrFfmpegNotFound
		}
		res := ffmpeg.Execute(ctx, cfg.FFmpeg.Binary, "-hide_banner", "-encoders")
		if res.Err == nil && !hasEncoder(res.Stdout, cfg.FFmpeg.Codec) {
			return ErrMPEG4Unavailable
		}
	}
	if cfg.Verify {
		if _, err := exec.LookPath(cfg.FFmpeg.Probe); err != nil {
			return ErrFfprobeNotFound
		}
	}
	return nil
}

// --- internal helpers ---

// checkVersion verifies bin is on PATH and logs the first line of -version.
func checkVersion(ctx context.Context, log Logger, bin string) {
	if _, err := exec.LookPath(bin); err != nil {
		log.Warn("%s not found", bin)
		return
	}
	res := ffmpeg.Execute(ctx, bin, "-version")
	if res.Err != nil {
		log.Warn("%s found but -version failed: %v", bin, res.Err)
		return
	}
	firstLine, _, _ := strings.Cut(strings.TrimSpace(res.Stdout), "\n")
	log.Success("%s: %s", filepath.Base(bin), firstLine)
}

// checkEncoder reports whether ffmpeg lists the configured video encoder
// and accepts it with the configured tag in a short lavfi encode.
func checkEncoder(ctx context.Context, log Logger, cfg *config.Config) bool {
	if _, err := exec.LookPath(cfg.FFmpeg.Binary); err != nil {
		return false
	}
	res := ffmpeg.Execute(ctx, cfg.FFmpeg.Binary, "-hide_banner", "-encoders")
	if res.Err != nil {
		log.Warn("Could not list encoders: %v", res.Err)
		return false
	}
	if !hasEncoder(res.Stdout, cfg.FFmpeg.Codec) {
		log.Error("Encoder %s missing", cfg.FFmpeg.Codec)
		return false
	}
	log.Success("Encoder %s available", cfg.FFmpeg.Codec)

	res = ffmpeg.Execute(ctx, cfg.FFmpeg.Binary, ffmpeg.TestEncodeArgs(cfg)...)
	if res.Err != nil {
		if kind := ffmpeg.Classify(res.Stderr); kind != nil {
			log.Error("Encoder %s with tag %s failed: %v", cfg.FFmpeg.Codec, cfg.FFmpeg.Tag, kind)
		} else {
			log.Error("Encoder %s with tag %s failed: %v", cfg.FFmpeg.Codec, cfg.FFmpeg.Tag, res.Err)
		}
		return false
	}
	log.Success("Encoder %s accepts tag %s", cfg.FFmpeg.Codec, cfg.FFmpeg.Tag)
	return true
}

// hasEncoder scans `ffmpeg -encoders` output for an encoder named name.
// Listing lines look like " V....D mpeg4    MPEG-4 part 2".
func hasEncoder(list, name string) bool {
	for _, line := range strings.Split(list, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name && len(fields[0]) == 6 {
			return true
		}
	}
	return false
}
