package observation

import (
	"errors"
	"fmt"
	"image"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrLandmarks is returned when a face landmark table is missing the points
// needed for build estimation
var ErrLandmarks = errors.New("invalid face landmarks")

// LandmarkGroup names a group of face landmark points
type LandmarkGroup int

const (
	Chin LandmarkGroup = iota
	LeftEyebrow
	RightEyebrow
	NoseBridge
	NoseTip
	LeftEyeMark
	RightEyeMark
	TopLip
	BottomLip
	landmarkGroups
)

// String returns the group name
func (g LandmarkGroup) String() string {
	switch g {
	case Chin:
		return "chin"
	case LeftEyebrow:
		return "left_eyebrow"
	case RightEyebrow:
		return "right_eyebrow"
	case NoseBridge:
		return "nose_bridge"
	case NoseTip:
		return "nose_tip"
	case LeftEyeMark:
		return "left_eye"
	case RightEyeMark:
		return "right_eye"
	case TopLip:
		return "top_lip"
	case BottomLip:
		return "bottom_lip"
	default:
		return fmt.Sprintf("group(%d)", int(g))
	}
}

// indexes into landmark groups used for build estimation
const (
	BottomChinIndex = 8
	TopLipTopIndex  = 3
	BottomLipIndex  = 3
)

// Landmarks is a table of face landmark groups indexed by LandmarkGroup
type Landmarks struct {
	groups [landmarkGroups][]r2.Vec
}

// minimum number of points each group must hold, groups not listed may be
// empty
var minGroupPoints = map[LandmarkGroup]int{
	Chin:         BottomChinIndex + 1,
	LeftEyeMark:  1,
	RightEyeMark: 1,
	TopLip:       TopLipTopIndex + 1,
	BottomLip:    BottomLipIndex + 1,
}

// NewLandmarks validates and returns a landmark table.  The groups map must
// contain enough points in the chin, eye and lip groups for the build
// estimator.
func NewLandmarks(groups map[LandmarkGroup][]r2.Vec) (Landmarks, error) {

	var lm Landmarks

	for g, pts := range groups {
		if g < 0 || g >= landmarkGroups {
			return Landmarks{}, fmt.Errorf("%w: unknown group %d", ErrLandmarks, int(g))
		}

		lm.groups[g] = append([]r2.Vec(nil), pts...)
	}

	for g, need := range minGroupPoints {
		if len(lm.groups[g]) < need {
			return Landmarks{}, fmt.Errorf("%w: %s has %d points, need %d",
				ErrLandmarks, g, len(lm.groups[g]), need)
		}
	}

	return lm, nil
}

// Shape68Points is the number of points in a dlib/iBUG 68 point face shape
const Shape68Points = 68

// LandmarksFromShape68 groups a dlib 68 point face shape into landmark groups
// using the iBUG index layout
func LandmarksFromShape68(shape []image.Point) (Landmarks, error) {

	if len(shape) != Shape68Points {
		return Landmarks{}, fmt.Errorf("%w: expected %d shape points, got %d",
			ErrLandmarks, Shape68Points, len(shape))
	}

	pts := make([]r2.Vec, len(shape))

	for i, p := range shape {
		pts[i] = r2.Vec{X: float64(p.X), Y: float64(p.Y)}
	}

	span := func(idx ...int) []r2.Vec {
		out := make([]r2.Vec, len(idx))
		for i, n := range idx {
			out[i] = pts[n]
		}
		return out
	}

	rng := func(from, to int) []r2.Vec {
		return append([]r2.Vec(nil), pts[from:to]...)
	}

	return NewLandmarks(map[LandmarkGroup][]r2.Vec{
		Chin:         rng(0, 17),
		LeftEyebrow:  rng(17, 22),
		RightEyebrow: rng(22, 27),
		NoseBridge:   rng(27, 31),
		NoseTip:      rng(31, 36),
		LeftEyeMark:  rng(36, 42),
		RightEyeMark: rng(42, 48),
		TopLip:       span(48, 49, 50, 51, 52, 53, 54, 64, 63, 62, 61, 60),
		BottomLip:    span(54, 55, 56, 57, 58, 59, 48, 60, 67, 66, 65, 64),
	})
}

// Group returns the points of a landmark group
func (l Landmarks) Group(g LandmarkGroup) []r2.Vec {

	if g < 0 || g >= landmarkGroups {
		return nil
	}

	return l.groups[g]
}
