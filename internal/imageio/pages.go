package imageio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/draw"
)

// maxPages bounds the IFD walk; a corrupt chain must not loop forever.
const maxPages = 1 << 16

var (
	errNotTIFF  = errors.New("not a TIFF file")
	errBigTIFF  = errors.New("BigTIFF is not supported")
	errIFDRange = errors.New("IFD offset out of range")
)

// PageOffsets walks the IFD chain of a classic TIFF and returns the byte
// offset of every page's IFD, in file order. The chain stops at a zero
// offset; a repeated offset is treated as the end of the chain. A header
// pointing at offset 0 yields no pages and no error.
func PageOffsets(r io.ReaderAt, size int64) ([]uint32, error) {
	var hdr [8]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var order binary.ByteOrder
	switch string(hdr[0:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, errNotTIFF
	}
	switch order.Uint16(hdr[2:4]) {
	case 42:
	case 43:
		return nil, errBigTIFF
	default:
		return nil, errNotTIFF
	}

	var offsets []uint32
	seen := make(map[uint32]bool)
	off := order.Uint32(hdr[4:8])
	for off != 0 && !seen[off] && len(offsets) < maxPages {
		if int64(off)+2 > size {
			return nil, fmt.Errorf("%w: %d", errIFDRange, off)
		}
		seen[off] = true
		offsets = append(offsets, off)

		var cnt [2]byte
		if _, err := r.ReadAt(cnt[:], int64(off)); err != nil {
			return nil, fmt.Errorf("read IFD at %d: %w", off, err)
		}
		nextPos := int64(off) + 2 + 12*int64(order.Uint16(cnt[:]))
		if nextPos+4 > size {
			// Truncated chain: keep the pages found so far.
			break
		}
		var next [4]byte
		if _, err := r.ReadAt(next[:], nextPos); err != nil {
			return nil, fmt.Errorf("read next IFD offset at %d: %w", nextPos, err)
		}
		off = order.Uint32(next[:])
	}
	return offsets, nil
}

// pageReader presents the file as if its header pointed at the IFD at ifd,
// so a first-page-only decoder reads that page instead. All other offsets
// in a TIFF are absolute, so only header bytes 4..8 need rewriting.
func pageReader(r io.ReaderAt, size int64, ifd uint32) *io.SectionReader {
	var order binary.ByteOrder = binary.LittleEndian
	var magic [2]byte
	if _, err := r.ReadAt(magic[:], 0); err == nil && string(magic[:]) == "MM" {
		order = binary.BigEndian
	}
	o := &ifdOverlay{r: r}
	order.PutUint32(o.ifd[:], ifd)
	return io.NewSectionReader(o, 0, size)
}

type ifdOverlay struct {
	r   io.ReaderAt
	ifd [4]byte
}

func (o *ifdOverlay) ReadAt(p []byte, off int64) (int, error) {
	n, err := o.r.ReadAt(p, off)
	for i := 0; i < n; i++ {
		if pos := off + int64(i); pos >= 4 && pos < 8 {
			p[i] = o.ifd[pos-4]
		}
	}
	return n, err
}

// drawOver composites src onto dst at src's own bounds.
func drawOver(dst draw.Image, src image.Image) {
	draw.Draw(dst, src.Bounds(), src, src.Bounds().Min, draw.Over)
}

// clearRect makes r fully transparent in dst.
func clearRect(dst draw.Image, r image.Rectangle) {
	draw.Draw(dst, r, image.Transparent, image.Point{}, draw.Src)
}
