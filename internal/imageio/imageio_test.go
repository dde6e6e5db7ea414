package imageio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"testing"

	"github.com/spf13/afero"
	"golang.org/x/image/tiff"

	"github.com/backmassage/tiff2video/internal/imageio/imageiotest"
)

func writeFile(t *testing.T, fsys afero.Fs, path string, data []byte) {
	t.Helper()
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPageOffsets_MultiPage(t *testing.T) {
	data := imageiotest.EncodeTIFF(imageiotest.Pages(3, 8, 4)...)
	offs, err := PageOffsets(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("PageOffsets: %v", err)
	}
	if len(offs) != 3 {
		t.Fatalf("got %d offsets, want 3", len(offs))
	}
	for i := 1; i < len(offs); i++ {
		if offs[i] <= offs[i-1] {
			t.Errorf("offsets not in file order: %v", offs)
		}
	}
}

func TestPageOffsets_ZeroPages(t *testing.T) {
	data := imageiotest.EncodeTIFF()
	offs, err := PageOffsets(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("PageOffsets: %v", err)
	}
	if len(offs) != 0 {
		t.Errorf("got %d offsets, want 0", len(offs))
	}
}

func TestPageOffsets_Errors(t *testing.T) {
	bigTIFF := []byte("II+\x00\x08\x00\x00\x00")
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"png magic", []byte("\x89PNG\r\n\x1a\n"), errNotTIFF},
		{"bad version", []byte("II\x2b\x01\x08\x00\x00\x00"), errNotTIFF},
		{"bigtiff", bigTIFF, errBigTIFF},
		{"offset past end", []byte("II*\x00\xff\x00\x00\x00"), errIFDRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PageOffsets(bytes.NewReader(tt.data), int64(len(tt.data)))
			if !errors.Is(err, tt.want) {
				t.Errorf("PageOffsets error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPageOffsets_CycleStops(t *testing.T) {
	data := imageiotest.EncodeTIFF(imageiotest.Pages(1, 4, 4)...)
	first := binary.LittleEndian.Uint32(data[4:8])
	// The last four bytes are the next-IFD link; point it back at page 1.
	binary.LittleEndian.PutUint32(data[len(data)-4:], first)

	offs, err := PageOffsets(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("PageOffsets: %v", err)
	}
	if len(offs) != 1 {
		t.Errorf("got %d offsets, want 1 (cycle must terminate)", len(offs))
	}
}

func TestDecodePages_MultiPageTIFF(t *testing.T) {
	fsys := afero.NewMemMapFs()
	pages := imageiotest.Pages(4, 10, 6)
	writeFile(t, fsys, "/in/stack.tif", imageiotest.EncodeTIFF(pages...))

	got, err := DecodePages(fsys, "/in/stack.tif")
	if err != nil {
		t.Fatalf("DecodePages: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d pages, want 4", len(got))
	}
	for i, img := range got {
		s := ShapeOf(img)
		if s != (Shape{Width: 10, Height: 6, Color: true}) {
			t.Errorf("page %d shape = %v", i, s)
		}
		wantR := uint8(40 * i)
		r, _, _, _ := img.At(0, 0).RGBA()
		if uint8(r>>8) != wantR {
			t.Errorf("page %d red = %d, want %d (pages out of order?)", i, r>>8, wantR)
		}
	}
}

func TestDecodePages_GrayTIFF(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/g.tiff", imageiotest.EncodeTIFF(
		imageiotest.SolidGray(5, 5, 10),
		imageiotest.SolidGray(5, 5, 200),
	))

	got, err := DecodePages(fsys, "/g.tiff")
	if err != nil {
		t.Fatalf("DecodePages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d pages, want 2", len(got))
	}
	if ShapeOf(got[0]).Color {
		t.Error("gray page reported as color")
	}
}

func TestDecodePages_SinglePageFromStdEncoder(t *testing.T) {
	fsys := afero.NewMemMapFs()
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, imageiotest.Solid(7, 3, color.White), &tiff.Options{Compression: tiff.Deflate}); err != nil {
		t.Fatal(err)
	}
	writeFile(t, fsys, "/one.tif", buf.Bytes())

	got, err := DecodePages(fsys, "/one.tif")
	if err != nil {
		t.Fatalf("DecodePages: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d pages, want 1", len(got))
	}
}

func TestDecodePages_ZeroPageTIFF(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/empty.tif", imageiotest.EncodeTIFF())

	got, err := DecodePages(fsys, "/empty.tif")
	if err != nil {
		t.Fatalf("DecodePages: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d pages, want 0", len(got))
	}
}

func TestDecodePages_CorruptTIFF(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/bad.tif", []byte("this is not a tiff"))

	_, err := DecodePages(fsys, "/bad.tif")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("DecodePages error = %v, want ErrDecode", err)
	}
}

func TestDecodePages_AnimatedGIF(t *testing.T) {
	fsys := afero.NewMemMapFs()
	g := &gif.GIF{Config: image.Config{Width: 6, Height: 4, ColorModel: color.Palette(palette.Plan9)}}
	for i := 0; i < 3; i++ {
		// Later frames only cover part of the canvas.
		fr := image.NewPaletted(image.Rect(0, 0, 6-i, 4-i), palette.Plan9)
		g.Image = append(g.Image, fr)
		g.Delay = append(g.Delay, 10)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatal(err)
	}
	writeFile(t, fsys, "/anim.gif", buf.Bytes())

	got, err := DecodePages(fsys, "/anim.gif")
	if err != nil {
		t.Fatalf("DecodePages: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d pages, want 3", len(got))
	}
	for i, p := range got {
		if b := p.Bounds(); b.Dx() != 6 || b.Dy() != 4 {
			t.Errorf("page %d bounds = %v, want full 6x4 canvas", i, b)
		}
	}
}

func TestDecodeFile_PNG(t *testing.T) {
	fsys := afero.NewMemMapFs()
	var buf bytes.Buffer
	if err := png.Encode(&buf, imageiotest.SolidGray(3, 2, 50)); err != nil {
		t.Fatal(err)
	}
	writeFile(t, fsys, "/a.png", buf.Bytes())

	img, err := DecodeFile(fsys, "/a.png")
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if s := ShapeOf(img); s != (Shape{Width: 3, Height: 2, Color: false}) {
		t.Errorf("shape = %v", s)
	}

	pages, err := DecodePages(fsys, "/a.png")
	if err != nil || len(pages) != 1 {
		t.Errorf("DecodePages(png) = %d pages, %v; want 1, nil", len(pages), err)
	}
}

func TestDecodeFile_Errors(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/sky.hdr", []byte("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 1 +X 1\n"))

	_, err := DecodeFile(fsys, "/sky.hdr")
	if !errors.Is(err, ErrDecode) || !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("DecodeFile(hdr) error = %v, want ErrDecode+ErrUnsupportedFormat", err)
	}

	_, err = DecodeFile(fsys, "/missing.png")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("DecodeFile(missing) error = %v, want ErrDecode", err)
	}
}

func TestShape_String(t *testing.T) {
	if got := (Shape{Width: 100, Height: 50, Color: true}).String(); got != "100x50 color" {
		t.Errorf("String() = %q", got)
	}
	if got := (Shape{Width: 1, Height: 2}).String(); got != "1x2 gray" {
		t.Errorf("String() = %q", got)
	}
}

// disposalGIF builds a 6x4 animation: a full red frame, then a 2x2 blue
// frame in the top-left corner, then a 1x1 transparent frame, with the
// given disposal methods.
func disposalGIF(t *testing.T, fsys afero.Fs, path string, disposal []byte) {
	t.Helper()
	pal := color.Palette{color.RGBA{}, color.RGBA{R: 255, A: 255}, color.RGBA{B: 255, A: 255}}
	fill := func(r image.Rectangle, idx uint8) *image.Paletted {
		p := image.NewPaletted(r, pal)
		for i := range p.Pix {
			p.Pix[i] = idx
		}
		return p
	}
	g := &gif.GIF{
		Image: []*image.Paletted{
			fill(image.Rect(0, 0, 6, 4), 1),
			fill(image.Rect(0, 0, 2, 2), 2),
			fill(image.Rect(5, 3, 6, 4), 0),
		},
		Delay:    []int{10, 10, 10},
		Disposal: disposal,
		Config:   image.Config{Width: 6, Height: 4, ColorModel: pal},
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatal(err)
	}
	writeFile(t, fsys, path, buf.Bytes())
}

func TestDecodePages_GIFDisposal(t *testing.T) {
	tests := []struct {
		name     string
		disposal []byte
		page     int
		x, y     int
		want     color.RGBA
	}{
		{"none keeps red under later frames", []byte{gif.DisposalNone, gif.DisposalNone, gif.DisposalNone}, 1, 4, 2, color.RGBA{R: 255, A: 255}},
		{"background clears first frame", []byte{gif.DisposalBackground, gif.DisposalNone, gif.DisposalNone}, 1, 4, 2, color.RGBA{}},
		{"background keeps current frame on its page", []byte{gif.DisposalNone, gif.DisposalBackground, gif.DisposalNone}, 1, 0, 0, color.RGBA{B: 255, A: 255}},
		{"background clears blue for next page", []byte{gif.DisposalNone, gif.DisposalBackground, gif.DisposalNone}, 2, 0, 0, color.RGBA{}},
		{"previous restores red", []byte{gif.DisposalNone, gif.DisposalPrevious, gif.DisposalNone}, 2, 0, 0, color.RGBA{R: 255, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			disposalGIF(t, fsys, "/d.gif", tt.disposal)

			pages, err := DecodePages(fsys, "/d.gif")
			if err != nil {
				t.Fatalf("DecodePages: %v", err)
			}
			if len(pages) != 3 {
				t.Fatalf("got %d pages, want 3", len(pages))
			}
			got := pages[tt.page].(*image.RGBA).RGBAAt(tt.x, tt.y)
			if got != tt.want {
				t.Errorf("page %d at (%d,%d) = %v, want %v", tt.page, tt.x, tt.y, got, tt.want)
			}
		})
	}
}
