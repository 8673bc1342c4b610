package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/swdee/go-buildverify/build"
	"github.com/swdee/go-buildverify/calibrate"
	"github.com/swdee/go-buildverify/observation"
	"github.com/swdee/go-buildverify/observation/observationtest"
)

func TestLabelColor(t *testing.T) {
	labels := []string{"alice", "bob"}

	assert.Equal(t, labelColors[0], LabelColor("alice", labels))
	assert.Equal(t, labelColors[1], LabelColor("bob", labels))
	assert.Equal(t, Grey, LabelColor(observation.UnknownLabel, labels))
}

func TestSkeletonCoversKeyPoints(t *testing.T) {
	assert.Len(t, limbColors, len(skeleton)/2)
	assert.Len(t, keyPointColors, observation.KeyPointsNumber)

	for _, n := range skeleton {
		assert.True(t, n >= 1 && n <= observation.KeyPointsNumber)
	}
}

func TestDrawOverlay(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 360, 640, gocv.MatTypeCV8UC3)
	defer img.Close()

	body := observationtest.StandingBody(0)
	face := observationtest.Face(0, "alice")

	PoseKeyPoints(&img, []observation.Body{body}, 1)
	PostureChecks(&img, body, true, false, true)
	FaceBoxes(&img, []observation.Face{face}, []string{"alice"}, DefaultFont(), 1)
	ReferenceLines(&img, 300, 10, 40, true)
	Markers(&img, []calibrate.Marker{{ID: 0, Corners: [4]r2.Vec{{X: 10, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 20}, {X: 10, Y: 20}}}}, nil)
	BuildLine(&img, build.Estimate(body, face), "25x170cm", true, DefaultFont())
	Crosshairs(&img)
	StatusLines(&img, []string{"Face: Detected=1, Known=1"}, StatusFont())

	// crosshairs cross at the center pixel
	v := img.GetVecbAt(180, 320)
	assert.NotEqual(t, []uint8{0, 0, 0}, []uint8{v[0], v[1], v[2]})
}

func TestFaceBoxesMarkChin(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 200, 200, gocv.MatTypeCV8UC3)
	defer img.Close()

	FaceBoxes(&img, []observation.Face{observationtest.Face(0, "alice")}, []string{"alice"}, DefaultFont(), 1)

	v := img.GetVecbAt(60, 100)
	assert.NotEqual(t, []uint8{0, 0, 0}, []uint8{v[0], v[1], v[2]})
}

func TestHeadLine(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 200, 200, gocv.MatTypeCV8UC3)
	defer img.Close()

	HeadLine(&img, observationtest.StandingBody(0), 0, true, DefaultFont())

	// the line runs from the mid eye point at y=32 down to the shoulders at y=80
	v := img.GetVecbAt(56, 100)
	assert.Equal(t, []uint8{Green.B, Green.G, Green.R}, []uint8{v[0], v[1], v[2]})
}
