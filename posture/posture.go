/*
Package posture decides whether a detected body is standing still, upright
and facing the camera ("firm") so it can be measured.
*/
package posture

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/swdee/go-buildverify/geom"
	"github.com/swdee/go-buildverify/observation"
)

// Thresholds are the tolerances used by the posture checks
type Thresholds struct {
	// BodyVisibility is the minimum mean visibility of all keypoints
	BodyVisibility float64
	// FaceVisibility is the visibility each face keypoint must exceed
	FaceVisibility float64
	// ShoulderLine is the maximum Y distance of each shoulder from the
	// shoulders mid Y
	ShoulderLine float64
	// AnkleLine is the maximum Y distance of each ankle from the ankles mid Y
	AnkleLine float64
	// KneeBend is the maximum curveness of a hip-knee-ankle chain
	KneeBend float64
	// HeadAngle is the maximum absolute angle in degrees of the mid eye to
	// nose line
	HeadAngle float64
}

// Check identifies one of the firm posture checks
type Check int

const (
	CheckNone Check = iota
	CheckVisibility
	CheckShoulders
	CheckLegs
	CheckAnkles
)

// String returns the check name
func (c Check) String() string {
	switch c {
	case CheckVisibility:
		return "visibility"
	case CheckShoulders:
		return "shoulders"
	case CheckLegs:
		return "legs"
	case CheckAnkles:
		return "ankles"
	default:
		return "none"
	}
}

// Verdict is the outcome of evaluating a body posture.  Checks run in order
// and stop at the first failure, so values of the checks after Failed are
// left at their zero value.
type Verdict struct {
	Firm bool
	// Failed is the first check that failed or CheckNone
	Failed Check
	// Visibility is the mean keypoint visibility
	Visibility float64
	// ShoulderY and AnkleY are the truncated mid Y lines used for alignment
	ShoulderY float64
	AnkleY    float64
	// LeftLeg and RightLeg are the curveness of each leg chain
	LeftLeg  float64
	RightLeg float64
}

// Passed reports whether check c ran and passed
func (v Verdict) Passed(c Check) bool {
	return v.Firm || (c != CheckNone && c < v.Failed)
}

// Validator evaluates body postures against a set of thresholds
type Validator struct {
	th Thresholds
}

// New returns a posture Validator
func New(th Thresholds) *Validator {
	return &Validator{th: th}
}

// Thresholds returns the thresholds the validator was created with
func (v *Validator) Thresholds() Thresholds {
	return v.th
}

// IsFirm reports whether the body is standing firm
func (v *Validator) IsFirm(body observation.Body) bool {
	return v.Evaluate(body).Firm
}

// Evaluate runs the firm posture checks in order, cheapest first, and stops
// at the first check that fails
func (v *Validator) Evaluate(body observation.Body) Verdict {

	verdict := Verdict{
		Visibility: body.MeanVisibility(),
	}

	if verdict.Visibility < v.th.BodyVisibility {
		verdict.Failed = CheckVisibility
		return verdict
	}

	var ok bool

	verdict.ShoulderY, ok = v.shouldersAligned(body)

	if !ok {
		verdict.Failed = CheckShoulders
		return verdict
	}

	verdict.LeftLeg, verdict.RightLeg, ok = v.legsStraight(body)

	if !ok {
		verdict.Failed = CheckLegs
		return verdict
	}

	verdict.AnkleY, ok = v.anklesAligned(body)

	if !ok {
		verdict.Failed = CheckAnkles
		return verdict
	}

	verdict.Firm = true

	return verdict
}

// shouldersAligned checks both shoulders sit on a near horizontal line
func (v *Validator) shouldersAligned(body observation.Body) (float64, bool) {

	left := body.Point(observation.LeftShoulder)
	right := body.Point(observation.RightShoulder)

	midY := math.Trunc((left.Y + right.Y) / 2)

	return midY, geom.AlignedY(midY, v.th.ShoulderLine, left, right)
}

// legsStraight checks each hip-knee-ankle chain is close to a straight line
func (v *Validator) legsStraight(body observation.Body) (float64, float64, bool) {

	left := geom.Curveness(
		body.Point(observation.LeftHip),
		body.Point(observation.LeftKnee),
		body.Point(observation.LeftAnkle),
	)

	right := geom.Curveness(
		body.Point(observation.RightHip),
		body.Point(observation.RightKnee),
		body.Point(observation.RightAnkle),
	)

	return left, right, left <= v.th.KneeBend && right <= v.th.KneeBend
}

// anklesAligned checks the ankles sit on a near horizontal line, are not
// spread wider than the shoulders and are not crossed
func (v *Validator) anklesAligned(body observation.Body) (float64, bool) {

	leftAnkle := body.Point(observation.LeftAnkle)
	rightAnkle := body.Point(observation.RightAnkle)

	leftShoulderX := body.Point(observation.LeftShoulder).X
	rightShoulderX := body.Point(observation.RightShoulder).X

	// the subject faces the camera so their left side is on the image right
	leftWithin := leftAnkle.X <= leftShoulderX
	rightWithin := rightAnkle.X >= rightShoulderX
	crossed := rightAnkle.X > leftAnkle.X

	midY := math.Trunc((leftAnkle.Y + rightAnkle.Y) / 2)

	aligned := geom.AlignedY(midY, v.th.AnkleLine, leftAnkle, rightAnkle)

	return midY, aligned && leftWithin && rightWithin && !crossed
}

// FaceVisible reports whether every face keypoint is more visible than the
// face visibility threshold
func (v *Validator) FaceVisible(body observation.Body) bool {

	for i := 0; i < observation.FaceKeyPointsNumber; i++ {
		if body.KeyPoint(observation.Part(i)).Score <= v.th.FaceVisibility {
			return false
		}
	}

	return true
}

// HeadAngle returns the angle in degrees of the line from the point between
// the eyes to the nose, measured from the image vertical.  The angle does not
// depend on camera roll of the body box.  Coincident eye and nose points
// return geom.ErrDegenerate.
func HeadAngle(body observation.Body) (float64, error) {

	nose := body.Point(observation.Nose)
	midEye := geom.Midpoint(body.Point(observation.LeftEye), body.Point(observation.RightEye))

	u, err := geom.Normalize(r2.Sub(nose, midEye))

	if err != nil {
		return 0, err
	}

	return math.Atan2(u.X, u.Y) * 180 / math.Pi, nil
}

// HeadLine returns the mid eye point and the point where the mid eye to nose
// line reaches the shoulder line
func HeadLine(body observation.Body) (r2.Vec, r2.Vec) {

	nose := body.Point(observation.Nose)
	midEye := geom.Midpoint(body.Point(observation.LeftEye), body.Point(observation.RightEye))
	shoulderY := geom.Midpoint(body.Point(observation.LeftShoulder), body.Point(observation.RightShoulder)).Y

	return midEye, r2.Vec{X: geom.ExtendLineToY(midEye, nose, shoulderY), Y: shoulderY}
}

// HeadFirm reports whether all face keypoints are visible and the head is
// held upright.  A degenerate head geometry is returned as an error together
// with false, callers should treat it as a head that is not firm.
func (v *Validator) HeadFirm(body observation.Body) (bool, error) {

	if !v.FaceVisible(body) {
		return false, nil
	}

	angle, err := HeadAngle(body)

	if err != nil {
		return false, err
	}

	return math.Abs(angle) <= v.th.HeadAngle, nil
}
