/*
Package geom holds the 2-D point maths shared by the posture, calibration and
build packages.  Points are gonum r2.Vec values in image pixel coordinates,
where Y grows downwards.
*/
package geom

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrDegenerate is returned when an operation receives geometry it can not
// work with, such as normalizing a zero length vector
var ErrDegenerate = errors.New("degenerate geometry")

// Midpoint returns the point halfway between a and b
func Midpoint(a, b r2.Vec) r2.Vec {
	return r2.Scale(0.5, r2.Add(a, b))
}

// Distance returns the Euclidean distance between a and b
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(b, a))
}

// Curveness measures how far an ordered chain of points deviates from a
// straight line.  It is the absolute difference between the summed segment
// lengths and the distance between the first and last point, so a perfectly
// straight chain returns zero.  A chain of less than two points returns -1
// and a chain of two points returns their distance.
func Curveness(points ...r2.Vec) float64 {

	if len(points) <= 1 {
		return -1
	}

	straight := Distance(points[0], points[len(points)-1])

	if len(points) == 2 {
		return straight
	}

	total := 0.0

	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}

	return math.Abs(total - straight)
}

// Within reports whether value lies in the inclusive range ref±tolerance
func Within(value, ref, tolerance float64) bool {
	return ref-tolerance <= value && value <= ref+tolerance
}

// AlignedY reports whether every point's Y coordinate is within tolerance of y
func AlignedY(y, tolerance float64, points ...r2.Vec) bool {

	for _, p := range points {
		if !Within(p.Y, y, tolerance) {
			return false
		}
	}

	return true
}

// Normalize returns the unit vector of v.  A zero length vector can not be
// normalized and returns ErrDegenerate.
func Normalize(v r2.Vec) (r2.Vec, error) {

	if r2.Norm(v) == 0 {
		return r2.Vec{}, ErrDegenerate
	}

	return r2.Unit(v), nil
}

// Centroid returns the mean position of the given points.  An empty slice
// returns ErrDegenerate.
func Centroid(points []r2.Vec) (r2.Vec, error) {

	if len(points) == 0 {
		return r2.Vec{}, ErrDegenerate
	}

	var sum r2.Vec

	for _, p := range points {
		sum = r2.Add(sum, p)
	}

	return r2.Scale(1/float64(len(points)), sum), nil
}

// SegmentIntersection returns the point where segment p1-p2 crosses segment
// p3-p4.  The boolean is false when the segments are parallel or do not meet
// within their lengths.
func SegmentIntersection(p1, p2, p3, p4 r2.Vec) (r2.Vec, bool) {

	dir1 := r2.Sub(p2, p1)
	dir2 := r2.Sub(p4, p3)

	denom := r2.Cross(dir1, dir2)

	if denom == 0 {
		// parallel lines
		return r2.Vec{}, false
	}

	diff := r2.Sub(p3, p1)
	t1 := r2.Cross(diff, dir2) / denom
	t2 := r2.Cross(diff, dir1) / denom

	if t1 < 0 || t1 > 1 || t2 < 0 || t2 > 1 {
		return r2.Vec{}, false
	}

	return r2.Add(p1, r2.Scale(t1, dir1)), true
}

// ExtendLineToY returns the X coordinate at which the line through (x1,y1)
// and (x2,y2) reaches the given Y.  Vertical and horizontal lines are handled
// by returning x1.
func ExtendLineToY(a, b r2.Vec, y float64) float64 {

	if a.X == b.X || a.Y == b.Y {
		return a.X
	}

	m := (b.Y - a.Y) / (b.X - a.X)

	return (y-a.Y)/m + a.X
}

// Truncate drops the fractional part of each coordinate, matching integer
// pixel positions
func Truncate(v r2.Vec) r2.Vec {
	return r2.Vec{X: math.Trunc(v.X), Y: math.Trunc(v.Y)}
}
