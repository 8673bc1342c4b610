package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/swdee/go-buildverify/calibrate"
	"github.com/swdee/go-buildverify/observation"
	"github.com/swdee/go-buildverify/observation/observationtest"
)

func TestEstimate(t *testing.T) {
	m := Estimate(observationtest.StandingBody(0), observationtest.Face(0, "alice"))

	assert.Equal(t, r2.Vec{X: 100, Y: 4}, m.Top)
	assert.Equal(t, r2.Vec{X: 100, Y: 288}, m.Bottom)
	assert.InDelta(t, 60.0, m.Width, 1e-9)
	assert.InDelta(t, 284.0, m.Height, 1e-9)
}

func TestEstimateAnchorsShareMidX(t *testing.T) {
	kps := observationtest.StandingKeyPoints(0)
	// shift the hips right, the anchor X follows half way
	kps[observation.LeftHip].X += 20
	kps[observation.RightHip].X += 20

	m := Estimate(observationtest.Body(1, kps), observationtest.Face(0, "alice"))

	assert.Equal(t, 110.0, m.Top.X)
	assert.Equal(t, m.Top.X, m.Bottom.X)
}

func TestMeasurementReal(t *testing.T) {
	cal := calibrate.Calibration{PixelDistance: 200, RealDistance: 50, Unit: "cm"}

	b := Measurement{Width: 100, Height: 680}.Real(cal)

	assert.InDelta(t, 25.0, b.Width, 1e-9)
	assert.InDelta(t, 170.0, b.Height, 1e-9)
	assert.Equal(t, "cm", b.Unit)
	assert.Equal(t, "25.0x170.0cm", b.String())
}
