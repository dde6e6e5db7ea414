package video

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/backmassage/tiff2video/internal/config"
	"github.com/backmassage/tiff2video/internal/ffmpeg"
	"github.com/backmassage/tiff2video/internal/imageio"
	"github.com/backmassage/tiff2video/internal/logging"
)

// ffmpegWriter streams raw frames into an ffmpeg child process.
type ffmpegWriter struct {
	proc   *ffmpeg.Process
	in     ffmpeg.RawInput
	shape  imageio.Shape
	frames int
	closed bool
	err    error
}

// OpenFFmpeg starts ffmpeg for opts and returns a Writer feeding it.
func OpenFFmpeg(ctx context.Context, cfg *config.Config, log *logging.Logger, opts Options) (Writer, error) {
	in := ffmpeg.RawInput{
		Width:  opts.Shape.Width,
		Height: opts.Shape.Height,
		Gray:   !opts.Shape.Color,
		FPS:    opts.FPS,
	}
	args := ffmpeg.Build(cfg, in, opts.Path)
	log.Debug("ffmpeg: %s", strings.Join(args, " "))

	proc, err := ffmpeg.Start(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Path, err)
	}
	return &ffmpegWriter{proc: proc, in: in, shape: opts.Shape}, nil
}

func (w *ffmpegWriter) WriteFrame(img image.Image) error {
	if w.closed {
		return fmt.Errorf("write to closed video")
	}
	if err := checkSize(img, w.shape); err != nil {
		return err
	}
	raw := Raw(img, w.shape.Color)
	if len(raw) != w.in.FrameSize() {
		return fmt.Errorf("raw frame is %d bytes, ffmpeg expects %d", len(raw), w.in.FrameSize())
	}
	if err := w.proc.Write(raw); err != nil {
		return err
	}
	w.frames++
	return nil
}

func (w *ffmpegWriter) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	w.err = w.proc.Close()
	return w.err
}

func (w *ffmpegWriter) Frames() int { return w.frames }
