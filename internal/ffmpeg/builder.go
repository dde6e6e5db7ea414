package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/backmassage/tiff2video/internal/config"
)

// RawInput describes the frames streamed to ffmpeg's stdin.
type RawInput struct {
	Width  int
	Height int
	Gray   bool // Single-channel frames (pix_fmt gray) instead of rgb24.
	FPS    int
}

// PixFmt returns the rawvideo pixel format name for the input.
func (in RawInput) PixFmt() string {
	if in.Gray {
		return "gray"
	}
	return "rgb24"
}

// FrameSize returns the number of bytes in one raw frame.
func (in RawInput) FrameSize() int {
	if in.Gray {
		return in.Width * in.Height
	}
	return in.Width * in.Height * 3
}

// Build constructs the complete ffmpeg argument slice for one video. The
// first element is the ffmpeg binary. The container is always forced to MP4
// so that an output path with any extension still gets a valid file.
func Build(cfg *config.Config, in RawInput, output string) []string {
	args := make([]string, 0, 40)

	// --- Preamble ---
	args = append(args, cfg.FFmpeg.Binary, "-hide_banner", "-nostdin", "-y")
	if cfg.Verbosity >= config.VerbosityDebug {
		args = append(args, "-loglevel", "info")
	} else {
		args = append(args, "-loglevel", "error")
	}

	// --- Input: raw frames on stdin ---
	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", in.PixFmt(),
		"-s", fmt.Sprintf("%dx%d", in.Width, in.Height),
		"-framerate", strconv.Itoa(in.FPS),
		"-i", "-",
	)

	// --- Video filter: yuv420p needs even dimensions ---
	if in.Width%2 != 0 || in.Height%2 != 0 {
		args = append(args, "-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2")
	}

	// --- Video codec ---
	args = append(args,
		"-an",
		"-c:v", cfg.FFmpeg.Codec,
		"-tag:v", cfg.FFmpeg.Tag,
		"-q:v", strconv.Itoa(cfg.FFmpeg.Quality),
		"-pix_fmt", "yuv420p",
	)

	// --- Output ---
	args = append(args, "-f", "mp4", output)

	return args
}

// TestEncodeArgs returns the arguments (without the binary) for a minimal
// lavfi encode through the configured codec, discarding the result.
func TestEncodeArgs(cfg *config.Config) []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=64x64:d=0.1",
		"-c:v", cfg.FFmpeg.Codec, "-tag:v", cfg.FFmpeg.Tag,
		"-f", "null", "-",
	}
}
