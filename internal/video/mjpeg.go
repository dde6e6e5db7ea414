package video

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/icza/mjpeg"

	"github.com/backmassage/tiff2video/internal/imageio"
)

// mjpegWriter encodes each frame as JPEG into a Motion-JPEG AVI.
type mjpegWriter struct {
	aw      mjpeg.AviWriter
	shape   imageio.Shape
	quality int
	buf     bytes.Buffer
	frames  int
	closed  bool
	err     error
}

// OpenMJPEG creates the AVI file at opts.Path. It needs no external tools.
func OpenMJPEG(opts Options, quality int) (Writer, error) {
	aw, err := mjpeg.New(opts.Path, int32(opts.Shape.Width), int32(opts.Shape.Height), int32(opts.FPS))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Path, err)
	}
	return &mjpegWriter{aw: aw, shape: opts.Shape, quality: quality}, nil
}

func (w *mjpegWriter) WriteFrame(img image.Image) error {
	if w.closed {
		return fmt.Errorf("write to closed video")
	}
	if err := checkSize(img, w.shape); err != nil {
		return err
	}

	var frame image.Image = img
	if !w.shape.Color {
		b := img.Bounds()
		frame = &image.Gray{Pix: Gray8(img), Stride: b.Dx(), Rect: image.Rect(0, 0, b.Dx(), b.Dy())}
	}

	w.buf.Reset()
	if err := jpeg.Encode(&w.buf, frame, &jpeg.Options{Quality: w.quality}); err != nil {
		return fmt.Errorf("jpeg encode: %w", err)
	}
	if err := w.aw.AddFrame(w.buf.Bytes()); err != nil {
		return err
	}
	w.frames++
	return nil
}

func (w *mjpegWriter) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	w.err = w.aw.Close()
	return w.err
}

func (w *mjpegWriter) Frames() int { return w.frames }
