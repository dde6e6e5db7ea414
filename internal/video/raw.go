package video

import (
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// RGB24 returns the pixels of img as packed 8-bit R,G,B triples, row-major,
// with the image origin at (0, 0). Alpha is dropped.
func RGB24(img image.Image) []byte {
	src := imaging.Clone(img)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			out = append(out, row[x], row[x+1], row[x+2])
		}
	}
	return out
}

// RGBA32 returns the pixels of img as packed non-premultiplied 8-bit
// R,G,B,A quadruples, row-major.
func RGBA32(img image.Image) []byte {
	return imaging.Clone(img).Pix
}

// Gray8 returns the pixels of img converted to 8-bit luminance, row-major.
func Gray8(img image.Image) []byte {
	if g, ok := img.(*image.Gray); ok && g.Stride == g.Rect.Dx() {
		return g.Pix[:g.Rect.Dx()*g.Rect.Dy()]
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst.Pix
}

// Raw returns the frame bytes for the given color mode.
func Raw(img image.Image, color bool) []byte {
	if color {
		return RGB24(img)
	}
	return Gray8(img)
}
