package observation

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/swdee/go-buildverify/geom"
)

// UnknownLabel is the label given to faces not matched against the gallery
const UnknownLabel = "unknown"

// Face is one face detected in one frame
type Face struct {
	// Box is the face location
	Box BoxRect
	// Landmarks are the face landmark groups
	Landmarks Landmarks
	// Label is the best matching gallery label or UnknownLabel
	Label string
	// Distance is the match distance of Label, lower is more confident
	Distance float64

	midEye     r2.Vec
	bottomChin r2.Vec
	midLip     r2.Vec
}

// FaceBox returns a BoxRect from a location given in (top, right, bottom,
// left) order
func FaceBox(top, right, bottom, left int) BoxRect {
	return BoxRect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// NewFace returns a Face.  The landmark table must have been built with
// NewLandmarks so the eye, chin and lip groups are populated.
func NewFace(box BoxRect, lm Landmarks, label string, distance float64) (Face, error) {

	leftEye, err := geom.Centroid(lm.Group(LeftEyeMark))

	if err != nil {
		return Face{}, ErrLandmarks
	}

	rightEye, err := geom.Centroid(lm.Group(RightEyeMark))

	if err != nil {
		return Face{}, ErrLandmarks
	}

	chin := lm.Group(Chin)
	top := lm.Group(TopLip)
	bottom := lm.Group(BottomLip)

	if len(chin) <= BottomChinIndex || len(top) <= TopLipTopIndex ||
		len(bottom) <= BottomLipIndex {
		return Face{}, ErrLandmarks
	}

	if label == "" {
		label = UnknownLabel
	}

	return Face{
		Box:        box,
		Landmarks:  lm,
		Label:      label,
		Distance:   distance,
		midEye:     geom.Midpoint(leftEye, rightEye),
		bottomChin: chin[BottomChinIndex],
		midLip:     geom.Midpoint(top[TopLipTopIndex], bottom[BottomLipIndex]),
	}, nil
}

// Known reports whether the face matched a gallery label
func (f Face) Known() bool {
	return f.Label != UnknownLabel
}

// EyeLineToChin returns the distance from the point between the eye centers
// to the bottom of the chin
func (f Face) EyeLineToChin() float64 {
	return geom.Distance(f.midEye, f.bottomChin)
}

// ChinToMidLip returns the distance from the bottom of the chin to the point
// between the lips
func (f Face) ChinToMidLip() float64 {
	return geom.Distance(f.bottomChin, f.midLip)
}

// BottomChin returns the bottom chin landmark
func (f Face) BottomChin() r2.Vec {
	return f.bottomChin
}
