// Package imageio decodes raster files into frames. Single-image decoding
// covers every format registered with the image package (PNG, JPEG, GIF,
// BMP, TIFF, WebP); page decoding additionally understands multi-page TIFF
// and animated GIF.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode wraps every failure to read or parse an image file.
var ErrDecode = errors.New("cannot decode image")

// ErrUnsupportedFormat is wrapped into ErrDecode when no decoder is registered
// for the file's contents (e.g. Radiance .hdr).
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Shape is the (height, width, color) triple a video session locks in from
// its first frame.
type Shape struct {
	Width  int
	Height int
	Color  bool // False for single-channel grayscale sources.
}

func (s Shape) String() string {
	mode := "gray"
	if s.Color {
		mode = "color"
	}
	return fmt.Sprintf("%dx%d %s", s.Width, s.Height, mode)
}

// ShapeOf returns the shape of img. Grayscale color models map to Color=false;
// everything else (RGB, paletted, CMYK, YCbCr) is treated as color.
func ShapeOf(img image.Image) Shape {
	b := img.Bounds()
	m := img.ColorModel()
	return Shape{
		Width:  b.Dx(),
		Height: b.Dy(),
		Color:  m != color.GrayModel && m != color.Gray16Model,
	}
}

// DecodeFile decodes the first (or only) image of the file at path.
func DecodeFile(fsys afero.Fs, path string) (image.Image, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, wrapDecodeErr(path, err)
	}
	return img, nil
}

// DecodePages decodes every page of the file at path, in file order.
// TIFF pages come from the IFD chain, GIF pages from the animation frames;
// any other format yields a single page.
func DecodePages(fsys afero.Fs, path string) ([]image.Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif":
		return decodeGIFPages(fsys, path)
	case ".tif", ".tiff":
		return decodeTIFFPages(fsys, path)
	}
	img, err := DecodeFile(fsys, path)
	if err != nil {
		return nil, err
	}
	return []image.Image{img}, nil
}

func decodeTIFFPages(fsys afero.Fs, path string) ([]image.Image, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	offsets, err := PageOffsets(f, fi.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	pages := make([]image.Image, 0, len(offsets))
	for i, off := range offsets {
		img, err := tiff.Decode(pageReader(f, fi.Size(), off))
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %v", ErrDecode, path, i+1, err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// decodeGIFPages composites each animation frame onto the logical screen so
// every page has the full canvas size. Each frame's disposal method is
// applied after its page is taken: background clears the frame's area to
// transparent, previous restores the canvas as it was before the frame.
func decodeGIFPages(fsys afero.Fs, path string) ([]image.Image, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, wrapDecodeErr(path, err)
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() && len(g.Image) > 0 {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)
	pages := make([]image.Image, 0, len(g.Image))
	for i, frame := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		var saved []byte
		if disposal == gif.DisposalPrevious {
			saved = append([]byte(nil), canvas.Pix...)
		}

		drawOver(canvas, frame)
		snapshot := image.NewRGBA(bounds)
		copy(snapshot.Pix, canvas.Pix)
		pages = append(pages, snapshot)

		switch disposal {
		case gif.DisposalBackground:
			clearRect(canvas, frame.Bounds())
		case gif.DisposalPrevious:
			copy(canvas.Pix, saved)
		}
	}
	return pages, nil
}

func wrapDecodeErr(path string, err error) error {
	if errors.Is(err, image.ErrFormat) {
		return fmt.Errorf("%w: %s: %w", ErrDecode, path, ErrUnsupportedFormat)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: truncated file", ErrDecode, path)
	}
	return fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
}
