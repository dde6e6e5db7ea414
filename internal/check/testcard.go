package check

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
)

var cardFont *truetype.Font

// Color bars across the top two thirds of the card.
var cardBars = []color.Color{
	color.RGBA{192, 192, 192, 255},
	color.RGBA{192, 192, 0, 255},
	color.RGBA{0, 192, 192, 255},
	color.RGBA{0, 192, 0, 255},
	color.RGBA{192, 0, 192, 255},
	color.RGBA{192, 0, 0, 255},
	color.RGBA{0, 0, 192, 255},
}

// TestCard renders a width×height frame of color bars over a gray ramp with
// label drawn in the middle. It is the input for diagnostic test encodes.
func TestCard(width, height int, label string) (image.Image, error) {
	dc := gg.NewContext(width, height)
	w, h := float64(width), float64(height)

	barW := w / float64(len(cardBars))
	for i, c := range cardBars {
		dc.SetColor(c)
		dc.DrawRectangle(float64(i)*barW, 0, barW, h*2/3)
		dc.Fill()
	}

	steps := 16
	stepW := w / float64(steps)
	for i := 0; i < steps; i++ {
		dc.SetColor(color.Gray{Y: uint8(i * 255 / (steps - 1))})
		dc.DrawRectangle(float64(i)*stepW, h*2/3, stepW, h/3)
		dc.Fill()
	}

	if cardFont == nil {
		f, err := truetype.Parse(gobold.TTF)
		if err != nil {
			return nil, err
		}
		cardFont = f
	}
	dc.SetFontFace(truetype.NewFace(cardFont, &truetype.Options{Size: h / 8}))
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(label, w/2+2, h/3+2, 0.5, 0.5)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(label, w/2, h/3, 0.5, 0.5)

	return dc.Image(), nil
}
