package observation_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/swdee/go-buildverify/observation"
	"github.com/swdee/go-buildverify/observation/observationtest"
)

func TestNewBodyRequiresSkeleton(t *testing.T) {
	_, err := observation.NewBody(1, observation.BoxRect{}, make([]observation.KeyPoint, 5))
	assert.Error(t, err)
}

func TestBodyMeanVisibility(t *testing.T) {
	kps := observationtest.StandingKeyPoints(0)
	kps[0].Score = 0
	kps[1].Score = 0

	b := observationtest.Body(1, kps)

	want := (observationtest.DefaultScore * 15) / 17
	assert.InDelta(t, want, b.MeanVisibility(), 1e-9)
}

func TestBoxContainsInclusive(t *testing.T) {
	box := observation.FaceBox(10, 50, 40, 20)

	assert.Equal(t, observation.BoxRect{Left: 20, Top: 10, Right: 50, Bottom: 40}, box)
	assert.True(t, box.Contains(r2.Vec{X: 20, Y: 10}))
	assert.True(t, box.Contains(r2.Vec{X: 50, Y: 40}))
	assert.False(t, box.Contains(r2.Vec{X: 50.5, Y: 40}))
}

func TestLandmarksFromShape68(t *testing.T) {
	shape := make([]image.Point, observation.Shape68Points)

	for i := range shape {
		shape[i] = image.Pt(i, i)
	}

	lm, err := observation.LandmarksFromShape68(shape)
	require.NoError(t, err)

	assert.Len(t, lm.Group(observation.Chin), 17)
	assert.Len(t, lm.Group(observation.LeftEyeMark), 6)
	assert.Equal(t, r2.Vec{X: 8, Y: 8}, lm.Group(observation.Chin)[observation.BottomChinIndex])
	assert.Equal(t, r2.Vec{X: 51, Y: 51}, lm.Group(observation.TopLip)[observation.TopLipTopIndex])
	assert.Equal(t, r2.Vec{X: 57, Y: 57}, lm.Group(observation.BottomLip)[observation.BottomLipIndex])

	_, err = observation.LandmarksFromShape68(shape[:5])
	assert.ErrorIs(t, err, observation.ErrLandmarks)
}

func TestNewLandmarksValidatesGroups(t *testing.T) {
	_, err := observation.NewLandmarks(map[observation.LandmarkGroup][]r2.Vec{
		observation.Chin: make([]r2.Vec, 4),
	})

	assert.ErrorIs(t, err, observation.ErrLandmarks)
}

func TestFaceDistances(t *testing.T) {
	f := observationtest.Face(0, "alice")

	assert.True(t, f.Known())
	assert.InDelta(t, 28.0, f.EyeLineToChin(), 1e-9)
	assert.InDelta(t, 8.0, f.ChinToMidLip(), 1e-9)
	assert.Equal(t, r2.Vec{X: 100, Y: 60}, f.BottomChin())

	unknown := observationtest.Face(0, "")
	assert.Equal(t, observation.UnknownLabel, unknown.Label)
	assert.False(t, unknown.Known())
}
