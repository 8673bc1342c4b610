package pose

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-buildverify/observation"
)

// Estimator finds the bodies in a camera frame
type Estimator interface {
	Detect(img gocv.Mat) ([]observation.Body, error)
}

// letterbox padding color used by the YOLOv8 training pipeline
var padColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// Detector runs a YOLOv8-pose ONNX model on the OpenCV DNN module
type Detector struct {
	net     gocv.Net
	decoder *Decoder
	resizer *Resizer
	// input is the letterboxed frame reused between detections
	input gocv.Mat
}

// NewDetector loads the ONNX model at path
func NewDetector(path string, p Params) (*Detector, error) {

	net := gocv.ReadNetFromONNX(path)

	if net.Empty() {
		return nil, fmt.Errorf("error loading pose model %s", path)
	}

	return &Detector{
		net:     net,
		decoder: NewDecoder(p),
		input:   gocv.NewMat(),
	}, nil
}

// Detect runs pose estimation on a BGR frame
func (d *Detector) Detect(img gocv.Mat) ([]observation.Body, error) {

	if img.Empty() {
		return nil, nil
	}

	p := d.decoder.Params

	if d.resizer == nil || !d.resizer.Fits(img.Cols(), img.Rows()) {

		if d.resizer != nil {
			d.resizer.Close()
		}

		d.resizer = NewResizer(img.Cols(), img.Rows(), p.InputWidth, p.InputHeight)
	}

	d.resizer.LetterBoxResize(img, &d.input, padColor)

	blob := gocv.BlobFromImage(d.input, 1.0/255.0, image.Pt(p.InputWidth, p.InputHeight),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	out := d.net.Forward("")
	defer out.Close()

	// output shape is [1, rows, anchors]
	sizes := out.Size()

	if len(sizes) != 3 || sizes[1] != d.decoder.Rows() {
		return nil, fmt.Errorf("unexpected pose output shape %v", sizes)
	}

	data, err := out.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading pose output: %w", err)
	}

	return d.decoder.Decode(data, sizes[2], d.resizer.Letterbox)
}

// Close releases the model and buffers
func (d *Detector) Close() error {

	if d.resizer != nil {
		d.resizer.Close()
	}

	d.input.Close()

	return d.net.Close()
}
