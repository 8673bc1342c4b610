package pose

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Letterbox holds the scale and padding used to fit a source image into the
// model input whilst keeping its aspect
type Letterbox struct {
	srcWidth   int
	srcHeight  int
	destWidth  int
	destHeight int
	xPad       int
	yPad       int
	scale      float32
	resizeW    int
	resizeH    int
}

// NewLetterbox precalculates the letterbox scaling of a source image size to
// the destination size
func NewLetterbox(srcWidth, srcHeight, destWidth, destHeight int) Letterbox {

	l := Letterbox{
		srcWidth:   srcWidth,
		srcHeight:  srcHeight,
		destWidth:  destWidth,
		destHeight: destHeight,
		resizeW:    destWidth,
		resizeH:    destHeight,
	}

	scaleW := float32(destWidth) / float32(srcWidth)
	scaleH := float32(destHeight) / float32(srcHeight)
	l.scale = scaleH

	if scaleW < scaleH {
		l.scale = scaleW
		l.resizeH = int(float32(srcHeight) * l.scale)
	} else {
		l.resizeW = int(float32(srcWidth) * l.scale)
	}

	l.yPad = (destHeight - l.resizeH) / 2 // padding height / 2
	l.xPad = (destWidth - l.resizeW) / 2  // padding width / 2

	return l
}

// ScaleFactor returns the scale factor used in letterbox resize
func (l Letterbox) ScaleFactor() float32 {
	return l.scale
}

// XPad returns the x padding used in letterbox resize
func (l Letterbox) XPad() int {
	return l.xPad
}

// YPad returns the y padding used in letterbox resize
func (l Letterbox) YPad() int {
	return l.yPad
}

// ToSource maps a point in model input coordinates back to the source image
func (l Letterbox) ToSource(x, y float32) (float64, float64) {
	return float64((x - float32(l.xPad)) / l.scale),
		float64((y - float32(l.yPad)) / l.scale)
}

// Fits reports whether the letterbox was calculated for the given source size
func (l Letterbox) Fits(srcWidth, srcHeight int) bool {
	return l.srcWidth == srcWidth && l.srcHeight == srcHeight
}

// Resizer letterboxes camera frames to the pose model input size
type Resizer struct {
	Letterbox
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
}

// NewResizer returns a resizer used for scaling an image to the needed
// dimensions for the model input
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {
	return &Resizer{
		Letterbox: NewLetterbox(srcWidth, srcHeight, destWidth, destHeight),
		tempMat:   gocv.NewMat(),
	}
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// LetterBoxResize resizes the input image to the model input dimensions
// keeping the image aspect.  Color is that used for letter box padding.
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, color color.RGBA) {

	gocv.Resize(src, &r.tempMat, image.Pt(r.resizeW, r.resizeH),
		0, 0, gocv.InterpolationArea)

	gocv.CopyMakeBorder(r.tempMat, dest, r.yPad, r.destHeight-r.resizeH-r.yPad,
		r.xPad, r.destWidth-r.resizeW-r.xPad, gocv.BorderConstant, color)
}
