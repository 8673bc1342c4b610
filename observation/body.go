package observation

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

/* COCO skeleton keypoints produced by the pose model
0: Nose
1: Left Eye
2: Right Eye
3: Left Ear
4: Right Ear
5: Left Shoulder
6: Right Shoulder
7: Left Elbow
8: Right Elbow
9: Left Wrist
10: Right Wrist
11: Left Hip
12: Right Hip
13: Left Knee
14: Right Knee
15: Left Ankle
16: Right Ankle
*/

// Part is the anatomical index of a keypoint
type Part int

const (
	Nose Part = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
)

// KeyPointsNumber is the number of keypoints in a body skeleton
const KeyPointsNumber = 17

// FaceKeyPointsNumber is the number of leading keypoints that belong to the
// face region (nose, eyes and left ear)
const FaceKeyPointsNumber = 4

// KeyPoint is a single pose keypoint with its visibility score
type KeyPoint struct {
	X float64
	Y float64
	// Score is the visibility/confidence of the keypoint in the range [0,1]
	Score float64
}

// Pos returns the keypoint position
func (k KeyPoint) Pos() r2.Vec {
	return r2.Vec{X: k.X, Y: k.Y}
}

// BoxRect are the dimensions of a bounding box
type BoxRect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Contains reports whether p lies inside the box, edges included
func (b BoxRect) Contains(p r2.Vec) bool {
	return float64(b.Left) <= p.X && p.X <= float64(b.Right) &&
		float64(b.Top) <= p.Y && p.Y <= float64(b.Bottom)
}

// Body is one person detected by the pose model in one frame
type Body struct {
	// ID is the detection ID assigned by the pose detector
	ID int64
	// Box is the person bounding box (x1,y1,x2,y2)
	Box BoxRect
	// keyPoints in anatomical order
	keyPoints []KeyPoint
}

// NewBody returns a Body for the given keypoints which must cover the full
// COCO skeleton
func NewBody(id int64, box BoxRect, keyPoints []KeyPoint) (Body, error) {

	if len(keyPoints) < KeyPointsNumber {
		return Body{}, fmt.Errorf("body requires %d keypoints, got %d",
			KeyPointsNumber, len(keyPoints))
	}

	kp := make([]KeyPoint, len(keyPoints))
	copy(kp, keyPoints)

	return Body{
		ID:        id,
		Box:       box,
		keyPoints: kp,
	}, nil
}

// KeyPoint returns the keypoint of the given part
func (b Body) KeyPoint(part Part) KeyPoint {
	return b.keyPoints[part]
}

// Point returns the position of the given part
func (b Body) Point(part Part) r2.Vec {
	return b.keyPoints[part].Pos()
}

// KeyPoints returns a copy of all keypoints
func (b Body) KeyPoints() []KeyPoint {
	kp := make([]KeyPoint, len(b.keyPoints))
	copy(kp, b.keyPoints)
	return kp
}

// MeanVisibility returns the mean score across all keypoints
func (b Body) MeanVisibility() float64 {

	scores := make([]float64, len(b.keyPoints))

	for i, kp := range b.keyPoints {
		scores[i] = kp.Score
	}

	return stat.Mean(scores, nil)
}
