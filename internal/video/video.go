// Package video writes decoded frames into a video file. A Writer is opened
// with a fixed frame shape and frame rate; every frame it accepts must have
// exactly that pixel size.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/backmassage/tiff2video/internal/config"
	"github.com/backmassage/tiff2video/internal/imageio"
	"github.com/backmassage/tiff2video/internal/logging"
)

// ErrFrameSize is returned by WriteFrame when a frame's dimensions differ
// from the size the writer was opened with. The frame is not written.
var ErrFrameSize = errors.New("frame size does not match video")

// Writer is an open video being filled frame by frame.
type Writer interface {
	// WriteFrame appends img as the next frame. Color frames written to a
	// grayscale video (and the reverse) are converted.
	WriteFrame(img image.Image) error
	// Close finalizes the container. Only the first call has an effect.
	Close() error
	// Frames returns the number of frames written so far.
	Frames() int
}

// Options fix the properties of a video when it is opened.
type Options struct {
	Path  string
	FPS   int
	Shape imageio.Shape
}

// Opener creates Writers. Conversions receive one so tests can substitute
// a recording fake for the real encoder.
type Opener interface {
	Open(ctx context.Context, opts Options) (Writer, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, opts Options) (Writer, error)

// Open calls f(ctx, opts).
func (f OpenerFunc) Open(ctx context.Context, opts Options) (Writer, error) {
	return f(ctx, opts)
}

// NewOpener returns the Opener for the backend selected in cfg.
func NewOpener(cfg *config.Config, log *logging.Logger) Opener {
	switch cfg.Encoder {
	case config.EncoderMJPEG:
		return OpenerFunc(func(_ context.Context, opts Options) (Writer, error) {
			return OpenMJPEG(opts, cfg.MJPEG.Quality)
		})
	case config.EncoderVidio:
		return OpenerFunc(func(_ context.Context, opts Options) (Writer, error) {
			return OpenVidio(opts, cfg.FFmpeg.Codec, cfg.FFmpeg.Quality)
		})
	}
	return OpenerFunc(func(ctx context.Context, opts Options) (Writer, error) {
		return OpenFFmpeg(ctx, cfg, log, opts)
	})
}

// checkSize rejects frames whose pixel size differs from s.
func checkSize(img image.Image, s imageio.Shape) error {
	b := img.Bounds()
	if b.Dx() != s.Width || b.Dy() != s.Height {
		return fmt.Errorf("%w: got %dx%d, video is %dx%d", ErrFrameSize, b.Dx(), b.Dy(), s.Width, s.Height)
	}
	return nil
}
