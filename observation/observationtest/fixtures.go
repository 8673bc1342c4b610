// Package observationtest provides body and face fixtures for tests.  The
// fixture person stands upright facing the camera, so the subject's left side
// appears on the right of the image.
package observationtest

import (
	"image"

	"github.com/swdee/go-buildverify/observation"
)

// DefaultScore is the visibility given to every fixture keypoint
const DefaultScore = 0.9

// StandingKeyPoints returns the keypoints of a firm standing pose shifted
// horizontally by dx pixels
func StandingKeyPoints(dx float64) []observation.KeyPoint {

	pts := [observation.KeyPointsNumber][2]float64{
		{100, 40},  // nose
		{108, 32},  // left eye
		{92, 32},   // right eye
		{116, 36},  // left ear
		{84, 36},   // right ear
		{130, 80},  // left shoulder
		{70, 80},   // right shoulder
		{135, 120}, // left elbow
		{65, 120},  // right elbow
		{138, 160}, // left wrist
		{62, 160},  // right wrist
		{115, 160}, // left hip
		{85, 160},  // right hip
		{115, 220}, // left knee
		{85, 220},  // right knee
		{115, 280}, // left ankle
		{85, 280},  // right ankle
	}

	kps := make([]observation.KeyPoint, len(pts))

	for i, p := range pts {
		kps[i] = observation.KeyPoint{X: p[0] + dx, Y: p[1], Score: DefaultScore}
	}

	return kps
}

// Body returns a body built from the given keypoints
func Body(id int64, kps []observation.KeyPoint) observation.Body {

	b, err := observation.NewBody(id, boundingBox(kps), kps)

	if err != nil {
		panic(err)
	}

	return b
}

// StandingBody returns a firm standing body shifted horizontally by dx
func StandingBody(dx float64) observation.Body {
	return Body(1, StandingKeyPoints(dx))
}

// Shape68 returns a 68 point face shape for the standing fixture shifted by
// dx.  The eye centers meet at (100,32), the bottom of the chin is at
// (100,60) and the lips meet at (100,52), giving an eye line to chin distance
// of 28 and a chin to mid lip distance of 8.
func Shape68(dx int) []image.Point {

	shape := make([]image.Point, observation.Shape68Points)

	for i := range shape {
		shape[i] = image.Pt(100+dx, 45)
	}

	for i := 36; i < 42; i++ {
		shape[i] = image.Pt(92+dx, 32)
	}

	for i := 42; i < 48; i++ {
		shape[i] = image.Pt(108+dx, 32)
	}

	shape[8] = image.Pt(100+dx, 60)
	shape[51] = image.Pt(100+dx, 50)
	shape[57] = image.Pt(100+dx, 54)

	return shape
}

// Face returns a face whose box contains the nose of StandingBody(dx)
func Face(dx int, label string) observation.Face {

	lm, err := observation.LandmarksFromShape68(Shape68(dx))

	if err != nil {
		panic(err)
	}

	f, err := observation.NewFace(observation.FaceBox(20, 120+dx, 65, 80+dx), lm, label, 0.3)

	if err != nil {
		panic(err)
	}

	return f
}

// boundingBox returns the box enclosing all keypoints
func boundingBox(kps []observation.KeyPoint) observation.BoxRect {

	box := observation.BoxRect{
		Left: int(kps[0].X), Top: int(kps[0].Y),
		Right: int(kps[0].X), Bottom: int(kps[0].Y),
	}

	for _, kp := range kps[1:] {
		box.Left = min(box.Left, int(kp.X))
		box.Top = min(box.Top, int(kp.Y))
		box.Right = max(box.Right, int(kp.X))
		box.Bottom = max(box.Bottom, int(kp.Y))
	}

	return box
}
