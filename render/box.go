package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-buildverify/observation"
)

// boxLabel holds the details of a box label for deferred rendering
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// LabelColor returns the box color of a face label.  Unknown faces are grey.
func LabelColor(label string, labels []string) color.RGBA {

	for i, l := range labels {
		if l == label {
			return labelColors[i%len(labelColors)]
		}
	}

	return Grey
}

// FaceBoxes renders the boxes, bottom chin points and labels of the detected
// faces.  labels are
// the gallery labels in order and pick the color of each known face.
func FaceBoxes(img *gocv.Mat, faces []observation.Face, labels []string,
	font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(faces))

	for _, f := range faces {

		useClr := LabelColor(f.Label, labels)

		rect := image.Rect(f.Box.Left, f.Box.Top, f.Box.Right, f.Box.Bottom)
		gocv.Rectangle(img, rect, useClr, lineThickness)
		gocv.Circle(img, vecPoint(f.BottomChin()), 2, useClr, -1)

		text := fmt.Sprintf("%s %.2f", f.Label, f.Distance)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (f.Box.Left + f.Box.Right) / 2

		case Right:
			centerX = f.Box.Right - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = f.Box.Left + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		labelPosition := image.Pt(centerX-textSize.X/2, f.Box.Top-font.BottomPad)

		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			f.Box.Top-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, f.Box.Top)

		boxLabels = append(boxLabels, boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		})
	}

	// draw labels last so they are the top most layer
	for _, box := range boxLabels {
		gocv.Rectangle(img, box.rect, box.clr, -1)

		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
