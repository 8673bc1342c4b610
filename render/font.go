package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the bounding box
	Alignment Alignment
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}

// StatusFont returns the font used for the frame status lines
func StatusFont() Font {
	f := DefaultFont()
	f.Face = gocv.FontHersheyPlain
	f.Scale = 1
	f.Color = Green
	f.Thickness = 2
	return f
}

// Text writes text at pos using the font
func Text(img *gocv.Mat, text string, pos image.Point, font Font) {
	gocv.PutTextWithParams(img, text, pos, font.Face, font.Scale, font.Color,
		font.Thickness, font.LineType, false)
}

// StatusLines writes lines of text down the top left corner of the image
func StatusLines(img *gocv.Mat, lines []string, font Font) {

	y := 0

	for _, line := range lines {
		size := gocv.GetTextSize(line, font.Face, font.Scale, font.Thickness)
		y += size.Y + font.TopPad
		Text(img, line, image.Pt(font.LeftPad, y), font)
	}
}
