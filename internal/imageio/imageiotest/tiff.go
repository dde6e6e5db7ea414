// Package imageiotest builds image fixtures for tests: uncompressed
// multi-page TIFF files and solid-color frames.
package imageiotest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// TIFF field types.
const (
	typeShort = 3
	typeLong  = 4
)

type ifdEntry struct {
	tag, typ uint16
	count    uint32
	value    uint32
}

// EncodeTIFF writes pages as an uncompressed little-endian multi-page TIFF.
// Grayscale pages (*image.Gray) are stored with one sample per pixel; all
// others as 8-bit RGB. Zero pages yield a header whose IFD offset is 0.
func EncodeTIFF(pages ...image.Image) []byte {
	le := binary.LittleEndian
	var buf bytes.Buffer
	buf.WriteString("II*\x00")
	buf.Write(make([]byte, 4))
	linkPos := 4

	for _, img := range pages {
		b := img.Bounds()
		_, gray := img.(*image.Gray)
		spp := uint32(3)
		if gray {
			spp = 1
		}

		dataOff := buf.Len()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if gray {
					buf.WriteByte(img.(*image.Gray).GrayAt(x, y).Y)
					continue
				}
				r, g, bl, _ := img.At(x, y).RGBA()
				buf.Write([]byte{byte(r >> 8), byte(g >> 8), byte(bl >> 8)})
			}
		}
		dataLen := buf.Len() - dataOff

		bps := ifdEntry{258, typeShort, 1, 8}
		if !gray {
			if buf.Len()%2 == 1 {
				buf.WriteByte(0)
			}
			bps = ifdEntry{258, typeShort, 3, uint32(buf.Len())}
			for i := 0; i < 3; i++ {
				_ = binary.Write(&buf, le, uint16(8))
			}
		}
		photometric := uint32(2)
		if gray {
			photometric = 1
		}

		entries := []ifdEntry{
			{256, typeLong, 1, uint32(b.Dx())},
			{257, typeLong, 1, uint32(b.Dy())},
			bps,
			{259, typeShort, 1, 1},
			{262, typeShort, 1, photometric},
			{273, typeLong, 1, uint32(dataOff)},
			{277, typeShort, 1, spp},
			{278, typeLong, 1, uint32(b.Dy())},
			{279, typeLong, 1, uint32(dataLen)},
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

		if buf.Len()%2 == 1 {
			buf.WriteByte(0)
		}
		ifdOff := buf.Len()
		le.PutUint32(buf.Bytes()[linkPos:], uint32(ifdOff))

		_ = binary.Write(&buf, le, uint16(len(entries)))
		for _, e := range entries {
			var field [12]byte
			le.PutUint16(field[0:], e.tag)
			le.PutUint16(field[2:], e.typ)
			le.PutUint32(field[4:], e.count)
			if e.typ == typeShort && e.count == 1 {
				le.PutUint16(field[8:], uint16(e.value))
			} else {
				le.PutUint32(field[8:], e.value)
			}
			buf.Write(field[:])
		}
		linkPos = buf.Len()
		buf.Write(make([]byte, 4))
	}
	return buf.Bytes()
}

// WriteTIFF encodes pages with EncodeTIFF and writes them to path on fsys,
// creating parent directories.
func WriteTIFF(fsys afero.Fs, path string, pages ...image.Image) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(fsys, path, EncodeTIFF(pages...), 0o644)
}

// Solid returns a w×h RGBA frame filled with c.
func Solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b, a := c.RGBA()
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8)
	}
	return img
}

// SolidGray returns a w×h grayscale frame filled with level y.
func SolidGray(w, h int, y uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = y
	}
	return img
}

// Pages returns n solid RGBA frames of the same size with distinct colors.
func Pages(n, w, h int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		out[i] = Solid(w, h, color.RGBA{R: uint8(40 * i), G: 100, B: 200, A: 255})
	}
	return out
}
