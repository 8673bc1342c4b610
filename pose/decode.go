package pose

import (
	"fmt"

	"github.com/swdee/go-buildverify/observation"
)

// Params defines the YOLOv8-pose post processing parameters
type Params struct {
	// BoxThreshold is the minimum person confidence for a detection to be
	// considered for processing
	BoxThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
	// MaxObjectNumber is the maximum number of bodies returned
	MaxObjectNumber int
	// KeyPointsNumber is the number of COCO keypoints of each body
	KeyPointsNumber int
	// InputWidth and InputHeight are the model input dimensions
	InputWidth  int
	InputHeight int
}

// COCOParams returns Params for the YOLOv8-pose COCO model featuring:
// - Box Threshold: 0.5
// - NMS Threshold: 0.4
// - Maximum Object Number: 64
// - KeyPoints Number: 17
// - Input: 640x640
func COCOParams() Params {
	return Params{
		BoxThreshold:    0.5,
		NMSThreshold:    0.4,
		MaxObjectNumber: 64,
		KeyPointsNumber: observation.KeyPointsNumber,
		InputWidth:      640,
		InputHeight:     640,
	}
}

// boxAttrs are cx, cy, w, h and the person confidence ahead of the keypoints
const boxAttrs = 5

// Decoder turns raw YOLOv8-pose output into bodies
type Decoder struct {
	Params Params
	idGen  *IDGenerator
}

// NewDecoder returns a YOLOv8-pose output decoder
func NewDecoder(p Params) *Decoder {
	return &Decoder{
		Params: p,
		idGen:  NewIDGenerator(),
	}
}

// Rows returns the number of attributes per candidate the model outputs
func (d *Decoder) Rows() int {
	return boxAttrs + d.Params.KeyPointsNumber*3
}

// Decode processes the model output tensor laid out as [rows, anchors] in
// row major order, where each column is one candidate.  Coordinates are
// mapped from model input space back to the source image using lb.
func (d *Decoder) Decode(output []float32, anchors int, lb Letterbox) ([]observation.Body, error) {

	rows := d.Rows()

	if anchors <= 0 || len(output) < rows*anchors {
		return nil, fmt.Errorf("output tensor has %d values, need %d rows of %d anchors",
			len(output), rows, anchors)
	}

	at := func(row, anchor int) float32 {
		return output[row*anchors+anchor]
	}

	// filterBoxes holds x, y, w, h and the anchor index for each candidate
	var filterBoxes []float32
	var objProbs []float32

	validCount := 0

	for a := 0; a < anchors; a++ {

		conf := at(4, a)

		if conf < d.Params.BoxThreshold {
			continue
		}

		cx, cy, w, h := at(0, a), at(1, a), at(2, a), at(3, a)

		filterBoxes = append(filterBoxes, cx-w/2, cy-h/2, w, h, float32(a))
		objProbs = append(objProbs, conf)
		validCount++
	}

	if validCount == 0 {
		return nil, nil
	}

	indexArray := make([]int, validCount)

	for i := range indexArray {
		indexArray[i] = i
	}

	quickSortIndiceInverse(objProbs, 0, validCount-1, indexArray)

	nms(validCount, filterBoxes, indexArray, d.Params.NMSThreshold, boxAttrs)

	bodies := make([]observation.Body, 0)

	for i := 0; i < validCount; i++ {

		if indexArray[i] == -1 || len(bodies) >= d.Params.MaxObjectNumber {
			continue
		}

		n := indexArray[i]

		x1 := filterBoxes[n*boxAttrs+0] - float32(lb.XPad())
		y1 := filterBoxes[n*boxAttrs+1] - float32(lb.YPad())
		x2 := x1 + filterBoxes[n*boxAttrs+2]
		y2 := y1 + filterBoxes[n*boxAttrs+3]
		anchor := int(filterBoxes[n*boxAttrs+4])

		box := observation.BoxRect{
			Left:   int(clamp(x1, 0, lb.resizeW) / lb.ScaleFactor()),
			Top:    int(clamp(y1, 0, lb.resizeH) / lb.ScaleFactor()),
			Right:  int(clamp(x2, 0, lb.resizeW) / lb.ScaleFactor()),
			Bottom: int(clamp(y2, 0, lb.resizeH) / lb.ScaleFactor()),
		}

		kps := make([]observation.KeyPoint, d.Params.KeyPointsNumber)

		for j := range kps {
			row := boxAttrs + j*3
			x, y := lb.ToSource(at(row, anchor), at(row+1, anchor))

			kps[j] = observation.KeyPoint{
				X:     x,
				Y:     y,
				Score: float64(at(row+2, anchor)),
			}
		}

		body, err := observation.NewBody(d.idGen.GetNext(), box, kps)

		if err != nil {
			return nil, err
		}

		bodies = append(bodies, body)
	}

	return bodies, nil
}
