package video

import (
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"

	vidio "github.com/AlexEidt/Vidio"

	"github.com/backmassage/tiff2video/internal/ffmpeg"
	"github.com/backmassage/tiff2video/internal/imageio"
)

// VidioBinary is the executable Vidio runs. It is looked up on PATH and
// cannot be overridden by --config.
const VidioBinary = "ffmpeg"

// ErrOddSize is returned by OpenVidio for a frame width or height that is
// not even. yuv420p needs even sizes and Vidio can only rescale, not pad.
var ErrOddSize = errors.New("vidio needs even frame dimensions (use --encoder ffmpeg to pad)")

// vidioWriter hands RGBA frames to a Vidio VideoWriter.
type vidioWriter struct {
	vw     *vidio.VideoWriter
	path   string
	shape  imageio.Shape
	frames int
	closed bool
	err    error
}

// OpenVidio creates the video at opts.Path with the given ffmpeg codec.
// quality is the mpeg4 quantizer (1 best, 31 worst) and is passed through
// unchanged as Vidio's -qscale:v.
func OpenVidio(opts Options, codec string, quality int) (Writer, error) {
	if _, err := exec.LookPath(VidioBinary); err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Path, ffmpeg.ErrEncoderMissing)
	}
	if opts.Shape.Width%2 != 0 || opts.Shape.Height%2 != 0 {
		return nil, fmt.Errorf("open %s: %w: got %dx%d", opts.Path, ErrOddSize, opts.Shape.Width, opts.Shape.Height)
	}
	vw, err := vidio.NewVideoWriter(opts.Path, opts.Shape.Width, opts.Shape.Height, &vidio.Options{
		FPS:     float64(opts.FPS),
		Codec:   codec,
		Quality: vidioQuality(quality),
		// Block size 1: Vidio rescales to a multiple of Macro otherwise.
		Macro: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Path, err)
	}
	return &vidioWriter{vw: vw, path: opts.Path, shape: opts.Shape}, nil
}

// vidioQuality maps a quantizer onto Vidio's Quality (0 best, 1 worst),
// which Vidio turns back into -qscale:v int(Quality*30)+1. Zero means
// "default" to Vidio, so q=1 maps to a small positive value.
func vidioQuality(q int) float64 {
	q = max(1, min(q, 31))
	return min(1, (float64(q-1)+0.03)/30)
}

func (w *vidioWriter) WriteFrame(img image.Image) error {
	if w.closed {
		return fmt.Errorf("write to closed video")
	}
	if err := checkSize(img, w.shape); err != nil {
		return err
	}
	if err := w.vw.Write(RGBA32(img)); err != nil {
		return &ffmpeg.ExecError{Err: err, Kind: ffmpeg.ErrBrokenPipe}
	}
	w.frames++
	return nil
}

// Close waits for ffmpeg. Vidio drops ffmpeg's exit status, so a missing or
// empty output file after frames were written is reported as a failure.
func (w *vidioWriter) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	w.vw.Close()
	if w.frames == 0 {
		return nil
	}
	if fi, err := os.Stat(w.path); err != nil || fi.Size() == 0 {
		w.err = &ffmpeg.ExecError{Err: fmt.Errorf("ffmpeg wrote no data to %s", w.path), Kind: ffmpeg.ErrBrokenPipe}
	}
	return w.err
}

func (w *vidioWriter) Frames() int { return w.frames }
