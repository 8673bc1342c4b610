package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/swdee/go-buildverify/build"
	"github.com/swdee/go-buildverify/calibrate"
)

func vecPoint(v r2.Vec) image.Point {
	return image.Pt(int(v.X), int(v.Y))
}

// hline draws a full width horizontal line at y
func hline(img *gocv.Mat, y int, clr color.RGBA, thickness int) {
	gocv.Line(img, image.Pt(0, y), image.Pt(img.Cols(), y), clr, thickness)
}

// ReferenceLines draws the marker alignment band around the horizon, blue
// when the markers are aligned and red otherwise, and the yellow band the
// bottom of a body must fall in
func ReferenceLines(img *gocv.Mat, horizon int, arucoLine, bodyLine int, aligned bool) {

	bound := Red
	if aligned {
		bound = Blue
	}

	hline(img, horizon+arucoLine, bound, 1)
	hline(img, horizon-arucoLine, bound, 1)

	hline(img, horizon+bodyLine, Yellow, 1)
	hline(img, horizon-bodyLine, Yellow, 1)
}

// Markers outlines detected markers and joins the two reference marker
// centers when both were found
func Markers(img *gocv.Mat, markers []calibrate.Marker, ref *calibrate.Reference) {

	for _, m := range markers {
		for i := 0; i < 4; i++ {
			gocv.Line(img, vecPoint(m.Corners[i]), vecPoint(m.Corners[(i+1)%4]), Green, 1)
		}

		if c, ok := m.Center(); ok {
			gocv.Circle(img, vecPoint(c), 3, Red, -1)
		}
	}

	if ref != nil && ref.Valid() {
		left, right := ref.Centers()
		gocv.Line(img, vecPoint(left), vecPoint(right), Green, 1)
	}
}

// BuildLine draws the vertical line between the head and foot anchors of a
// measurement with its build written next to the head anchor
func BuildLine(img *gocv.Mat, m build.Measurement, text string, verified bool, font Font) {

	clr := statusColor(verified)

	gocv.Line(img, vecPoint(m.Top), vecPoint(m.Bottom), clr, 2)
	gocv.Circle(img, vecPoint(m.Top), 4, clr, -1)
	gocv.Circle(img, vecPoint(m.Bottom), 4, clr, -1)

	font.Color = clr
	Text(img, text, vecPoint(m.Top).Add(image.Pt(font.LeftPad*2, font.TopPad*4)), font)
}

// Crosshairs draws lines through the image center
func Crosshairs(img *gocv.Mat) {

	w, h := img.Cols(), img.Rows()

	gocv.Line(img, image.Pt(w/2, 0), image.Pt(w/2, h), Orange, 1)
	gocv.Line(img, image.Pt(0, h/2), image.Pt(w, h/2), Orange, 1)
}
