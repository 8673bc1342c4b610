/*
Package build estimates the silhouette build of a standing person from their
pose keypoints and face landmarks.

The body top anchor is raised above the eye line by the eye line to chin
distance of the face, which approximates the top of the head.  The bottom
anchor is lowered below the ankles by the chin to mid lip distance, which
approximates the sole of the foot.  Both anchors share the X of the point
between the hips and shoulders midpoints.
*/
package build

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/swdee/go-buildverify/calibrate"
	"github.com/swdee/go-buildverify/geom"
	"github.com/swdee/go-buildverify/observation"
)

// Measurement is the build of one body
type Measurement struct {
	// Top and Bottom are the head and foot anchors
	Top    r2.Vec
	Bottom r2.Vec
	// Width is the shoulder width in pixels
	Width float64
	// Height is the anchor to anchor height in pixels
	Height float64
}

// Estimate returns the pixel build of a body using its associated face
func Estimate(body observation.Body, face observation.Face) Measurement {

	midShoulder := geom.Midpoint(body.Point(observation.LeftShoulder), body.Point(observation.RightShoulder))
	midHip := geom.Midpoint(body.Point(observation.LeftHip), body.Point(observation.RightHip))
	midEye := geom.Midpoint(body.Point(observation.LeftEye), body.Point(observation.RightEye))
	midAnkle := geom.Midpoint(body.Point(observation.LeftAnkle), body.Point(observation.RightAnkle))

	mid := geom.Midpoint(midHip, midShoulder)

	top := r2.Vec{X: mid.X, Y: midEye.Y - face.EyeLineToChin()}
	bottom := r2.Vec{X: mid.X, Y: midAnkle.Y + face.ChinToMidLip()}

	return Measurement{
		Top:    top,
		Bottom: bottom,
		Width:  geom.Distance(body.Point(observation.LeftShoulder), body.Point(observation.RightShoulder)),
		Height: math.Abs(top.Y - bottom.Y),
	}
}

// Build is a width and height pair in real world units
type Build struct {
	Width  float64
	Height float64
	Unit   string
}

// String returns the build formatted for logs
func (b Build) String() string {
	return fmt.Sprintf("%.1fx%.1f%s", b.Width, b.Height, b.Unit)
}

// Real converts the measurement to real world units using a single ratio
func (m Measurement) Real(cal calibrate.Calibration) Build {
	return Build{
		Width:  cal.ToReal(m.Width),
		Height: cal.ToReal(m.Height),
		Unit:   cal.Unit,
	}
}

// Pixels returns the measurement as an unscaled build
func (m Measurement) Pixels() Build {
	return Build{Width: m.Width, Height: m.Height, Unit: "px"}
}
