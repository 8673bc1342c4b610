/*
Package calibrate derives the pixel to real world scale of the scene from two
ArUco markers placed a known distance apart on the floor line.

Marker 0 and marker 1 are used.  The point where each marker's diagonals cross
is its center, the distance between the two centers in pixels together with
the measured real distance between the markers gives the scale.  The mean Y
of both centers is the horizon line the feet of a measured person must stand
on.
*/
package calibrate

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/swdee/go-buildverify/geom"
)

const (
	// LeftMarkerID and RightMarkerID are the marker IDs used as reference
	LeftMarkerID  = 0
	RightMarkerID = 1
)

// Marker is a detected marker with its four corners in detection order
type Marker struct {
	ID      int
	Corners [4]r2.Vec
}

// Center returns the point where the marker diagonals p0-p2 and p1-p3 cross
// truncated to whole pixels.  False is returned when the diagonals do not
// intersect.
func (m Marker) Center() (r2.Vec, bool) {

	c, ok := geom.SegmentIntersection(m.Corners[0], m.Corners[2], m.Corners[1], m.Corners[3])

	if !ok {
		return r2.Vec{}, false
	}

	return geom.Truncate(c), true
}

// Reference is the pair of reference marker centers found in a frame
type Reference struct {
	// tolerance is the maximum Y distance of each center from the horizon
	tolerance float64
	valid     bool
	left      r2.Vec
	right     r2.Vec
}

// NewReference returns a Reference that considers the markers aligned when
// both centers are within tolerance pixels of the horizon
func NewReference(tolerance float64) *Reference {
	return &Reference{tolerance: tolerance}
}

// Detect updates the reference from the markers found in a frame.  It
// returns true when both reference markers are present and usable.
func (r *Reference) Detect(markers []Marker) bool {

	r.valid = false

	var left, right r2.Vec
	var haveLeft, haveRight bool

	for _, m := range markers {

		switch m.ID {
		case LeftMarkerID:
			if haveLeft {
				continue
			}
			left, haveLeft = m.Center()

		case RightMarkerID:
			if haveRight {
				continue
			}
			right, haveRight = m.Center()
		}
	}

	if !haveLeft || !haveRight {
		return false
	}

	r.left = left
	r.right = right
	r.valid = true

	return true
}

// Valid reports whether the last Detect found both markers
func (r *Reference) Valid() bool {
	return r.valid
}

// Centers returns the left and right marker centers
func (r *Reference) Centers() (r2.Vec, r2.Vec) {
	return r.left, r.right
}

// Horizon returns the integer mean Y of both marker centers
func (r *Reference) Horizon() int {
	return int((r.left.Y + r.right.Y) / 2)
}

// IsAligned reports whether both marker centers sit on the horizon line
func (r *Reference) IsAligned() bool {

	if !r.valid {
		return false
	}

	return geom.AlignedY(float64(r.Horizon()), r.tolerance, r.left, r.right)
}

// Distance returns the pixel distance between the marker centers
func (r *Reference) Distance() float64 {

	if !r.valid {
		return math.NaN()
	}

	return geom.Distance(r.left, r.right)
}

// WithinHorizon reports whether the bottom Y of a body is within tolerance
// pixels of the horizon line
func WithinHorizon(bottomY float64, horizon int, tolerance float64) bool {
	return geom.Within(bottomY, float64(horizon), tolerance)
}
