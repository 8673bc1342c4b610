package buildverify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/swdee/go-buildverify/calibrate"
	"github.com/swdee/go-buildverify/config"
	"github.com/swdee/go-buildverify/debounce"
	"github.com/swdee/go-buildverify/observation"
	"github.com/swdee/go-buildverify/observation/observationtest"
	"github.com/swdee/go-buildverify/registry"
)

type queued struct {
	label   string
	payload string
}

type fakeSignaler struct {
	calls []queued
	err   error
}

func (f *fakeSignaler) Queue(label, payload string) (bool, error) {
	f.calls = append(f.calls, queued{label, payload})
	return f.err == nil, f.err
}

type fakePose struct {
	bodies []observation.Body
	err    error
}

func (f *fakePose) Detect(gocv.Mat) ([]observation.Body, error) {
	return f.bodies, f.err
}

type fakeFaces struct {
	faces []observation.Face
	err   error
}

func (f *fakeFaces) Detect(gocv.Mat) ([]observation.Face, error) {
	return f.faces, f.err
}

type fakeMarkers struct {
	markers []calibrate.Marker
}

func (f *fakeMarkers) DetectMarkers(gocv.Mat) []calibrate.Marker {
	return f.markers
}

// square returns a marker centered on (cx,cy)
func square(id int, cx, cy, side float64) calibrate.Marker {
	h := side / 2
	return calibrate.Marker{
		ID: id,
		Corners: [4]r2.Vec{
			{X: cx - h, Y: cy - h},
			{X: cx + h, Y: cy - h},
			{X: cx + h, Y: cy + h},
			{X: cx - h, Y: cy + h},
		},
	}
}

// testConfig is calibrated at 200px for 50cm with the horizon at y=300
func testConfig() config.Config {
	cfg := config.Default()
	cfg.Reference.DistancePixel = 200
	cfg.Reference.DistanceValue = 50
	cfg.Reference.DistanceUnit = "cm"
	cfg.Reference.LineY = 300
	return cfg
}

func testRegistry() *registry.Registry {
	return registry.New([]registry.Entry{{Label: "alice", Width: 15, Height: 71}}, 3)
}

func staticScene(cfg config.Config) Scene {
	cal := StaticCalibration(cfg)
	return Scene{Calibration: cal, Scaled: cal.Valid(), HasHorizon: cal.Valid()}
}

func TestEvaluateVerifies(t *testing.T) {
	cfg := testConfig()
	sig := &fakeSignaler{}
	p := NewPipeline(cfg, Collaborators{}, testRegistry(), sig)

	report := p.Evaluate(
		[]observation.Body{observationtest.StandingBody(0)},
		[]observation.Face{observationtest.Face(0, "alice")},
		staticScene(cfg),
	)

	assert.Equal(t, 1, report.Faces)
	assert.Equal(t, 1, report.KnownFaces)
	assert.Equal(t, 1, report.Bodies)
	assert.Equal(t, 1, report.ValidBodies)
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	assert.True(t, res.Verdict.Firm)
	assert.True(t, res.HeadFirm)
	assert.InDelta(t, 0.0, res.HeadAngle, 1e-9)
	assert.True(t, res.Measured())
	assert.Equal(t, "alice", res.Label)
	assert.InDelta(t, 60.0, res.Measurement.Width, 1e-9)
	assert.InDelta(t, 284.0, res.Measurement.Height, 1e-9)
	assert.True(t, res.Scaled)
	assert.InDelta(t, 15.0, res.Build.Width, 1e-9)
	assert.InDelta(t, 71.0, res.Build.Height, 1e-9)
	assert.Equal(t, "cm", res.Build.Unit)
	assert.True(t, res.Verified)
	assert.True(t, res.Signalled)

	assert.Equal(t, []queued{{"alice", debounce.Verified}}, sig.calls)

	require.NotNil(t, report.Last)
	last, ok := p.LastResult()
	require.True(t, ok)
	assert.Equal(t, "alice", last.Label)
}

func TestEvaluateNotVerified(t *testing.T) {
	cfg := testConfig()
	sig := &fakeSignaler{}
	p := NewPipeline(cfg, Collaborators{},
		registry.New([]registry.Entry{{Label: "alice", Width: 30, Height: 71}}, 3), sig)

	report := p.Evaluate(
		[]observation.Body{observationtest.StandingBody(0)},
		[]observation.Face{observationtest.Face(0, "alice")},
		staticScene(cfg),
	)

	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Verified)
	assert.Equal(t, []queued{{"alice", debounce.NotVerified}}, sig.calls)
}

func TestEvaluateUnknownFaceSignalsNotVerified(t *testing.T) {
	cfg := testConfig()
	sig := &fakeSignaler{}
	p := NewPipeline(cfg, Collaborators{}, testRegistry(), sig)

	report := p.Evaluate(
		[]observation.Body{observationtest.StandingBody(0)},
		[]observation.Face{observationtest.Face(0, observation.UnknownLabel)},
		staticScene(cfg),
	)

	assert.Equal(t, 0, report.KnownFaces)
	assert.Equal(t, 1, report.ValidBodies)
	assert.Equal(t, []queued{{observation.UnknownLabel, debounce.NotVerified}}, sig.calls)
}

func TestEvaluateOutsideHorizon(t *testing.T) {
	cfg := testConfig()
	cfg.Reference.LineY = 400
	sig := &fakeSignaler{}
	p := NewPipeline(cfg, Collaborators{}, testRegistry(), sig)

	report := p.Evaluate(
		[]observation.Body{observationtest.StandingBody(0)},
		[]observation.Face{observationtest.Face(0, "alice")},
		staticScene(cfg),
	)

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.True(t, res.Paired)
	assert.True(t, res.OutsideHorizon)
	assert.False(t, res.Measured())
	assert.False(t, res.Scaled)
	assert.Equal(t, 0, report.ValidBodies)
	assert.Nil(t, report.Last)
	assert.Empty(t, sig.calls)
}

func TestEvaluateWithoutScale(t *testing.T) {
	cfg := config.Default()
	sig := &fakeSignaler{}
	p := NewPipeline(cfg, Collaborators{}, testRegistry(), sig)

	report := p.Evaluate(
		[]observation.Body{observationtest.StandingBody(0)},
		[]observation.Face{observationtest.Face(0, "alice")},
		staticScene(cfg),
	)

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.True(t, res.Measured())
	assert.False(t, res.Scaled)
	assert.InDelta(t, 60.0, res.Filtered.Width, 1e-9)
	assert.Equal(t, 1, report.ValidBodies)
	assert.Empty(t, sig.calls)

	_, ok := p.LastResult()
	assert.False(t, ok)
}

func TestEvaluatePairsFacesExclusively(t *testing.T) {
	cfg := testConfig()
	p := NewPipeline(cfg, Collaborators{}, testRegistry(), nil)

	// both bodies overlap the same single face
	report := p.Evaluate(
		[]observation.Body{observationtest.StandingBody(0), observationtest.StandingBody(5)},
		[]observation.Face{observationtest.Face(0, "alice")},
		staticScene(cfg),
	)

	require.Len(t, report.Results, 2)
	assert.True(t, report.Results[0].Paired)
	assert.False(t, report.Results[1].Paired)
	assert.Equal(t, 1, report.ValidBodies)
}

func TestEvaluateRejectsLooseBody(t *testing.T) {
	cfg := testConfig()
	sig := &fakeSignaler{}
	p := NewPipeline(cfg, Collaborators{}, testRegistry(), sig)

	kps := observationtest.StandingKeyPoints(0)
	kps[observation.LeftShoulder].Y += 50

	report := p.Evaluate(
		[]observation.Body{observationtest.Body(1, kps)},
		[]observation.Face{observationtest.Face(0, "alice")},
		staticScene(cfg),
	)

	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Verdict.Firm)
	assert.False(t, report.Results[0].Paired)
	assert.Equal(t, 0, report.ValidBodies)
	assert.Empty(t, sig.calls)
}

func TestEvaluateTiltedHead(t *testing.T) {
	cfg := testConfig()
	sig := &fakeSignaler{}
	p := NewPipeline(cfg, Collaborators{}, testRegistry(), sig)

	kps := observationtest.StandingKeyPoints(0)
	kps[observation.Nose].X = 108

	report := p.Evaluate(
		[]observation.Body{observationtest.Body(1, kps)},
		[]observation.Face{observationtest.Face(0, "alice")},
		staticScene(cfg),
	)

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.True(t, res.Verdict.Firm)
	assert.False(t, res.HeadFirm)
	assert.InDelta(t, 45.0, res.HeadAngle, 1e-9)
	assert.False(t, res.Paired)
	assert.Empty(t, sig.calls)
}

func TestEvaluateSignalError(t *testing.T) {
	cfg := testConfig()
	sig := &fakeSignaler{err: errors.New("port closed")}
	p := NewPipeline(cfg, Collaborators{}, testRegistry(), sig)

	report := p.Evaluate(
		[]observation.Body{observationtest.StandingBody(0)},
		[]observation.Face{observationtest.Face(0, "alice")},
		staticScene(cfg),
	)

	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Verified)
	assert.False(t, report.Results[0].Signalled)
}

func TestProcessStatic(t *testing.T) {
	cfg := testConfig()
	sig := &fakeSignaler{}

	collab := Collaborators{
		Pose:  &fakePose{bodies: []observation.Body{observationtest.StandingBody(0)}},
		Faces: &fakeFaces{faces: []observation.Face{observationtest.Face(0, "alice")}},
	}

	p := NewPipeline(cfg, collab, testRegistry(), sig)

	img := gocv.NewMat()
	defer img.Close()

	report, err := p.Process(img)
	require.NoError(t, err)

	assert.True(t, report.Scene.Scaled)
	assert.Equal(t, 300, report.Scene.Calibration.Horizon)
	assert.Equal(t, 1, report.ValidBodies)
	assert.Len(t, sig.calls, 1)
}

func TestProcessLiveReference(t *testing.T) {
	cfg := config.Default()
	cfg.Reference.UseLiveRef = true
	cfg.Reference.DistanceValue = 50

	markers := &fakeMarkers{}
	sig := &fakeSignaler{}

	collab := Collaborators{
		Pose:    &fakePose{bodies: []observation.Body{observationtest.StandingBody(0)}},
		Faces:   &fakeFaces{faces: []observation.Face{observationtest.Face(0, "alice")}},
		Markers: markers,
	}

	p := NewPipeline(cfg, collab, testRegistry(), sig)

	img := gocv.NewMat()
	defer img.Close()

	// no markers seen yet so there is neither scale nor horizon
	report, err := p.Process(img)
	require.NoError(t, err)
	assert.False(t, report.Scene.Scaled)
	assert.False(t, report.Scene.HasHorizon)
	assert.Equal(t, 1, report.ValidBodies)
	assert.Empty(t, sig.calls)

	markers.markers = []calibrate.Marker{
		square(calibrate.LeftMarkerID, 100, 300, 20),
		square(calibrate.RightMarkerID, 300, 300, 20),
	}

	report, err = p.Process(img)
	require.NoError(t, err)
	assert.True(t, report.Scene.Scaled)
	assert.Equal(t, 200, report.Scene.Calibration.PixelDistance)
	assert.Equal(t, 300, report.Scene.Calibration.Horizon)
	require.NotNil(t, report.Last)
	assert.InDelta(t, 15.0, report.Last.Build.Width, 1e-9)
	assert.Len(t, sig.calls, 1)

	// markers lost, the horizon is kept but nothing is scaled
	markers.markers = nil

	report, err = p.Process(img)
	require.NoError(t, err)
	assert.False(t, report.Scene.Scaled)
	assert.True(t, report.Scene.HasHorizon)
	assert.Len(t, sig.calls, 1)
}

func TestProcessErrors(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()

	p := NewPipeline(config.Default(), Collaborators{}, nil, nil)
	_, err := p.Process(img)
	assert.Error(t, err)

	p = NewPipeline(config.Default(), Collaborators{
		Pose:  &fakePose{err: errors.New("model")},
		Faces: &fakeFaces{},
	}, nil, nil)

	_, err = p.Process(img)
	assert.ErrorContains(t, err, "poses")

	p = NewPipeline(config.Default(), Collaborators{
		Pose:  &fakePose{},
		Faces: &fakeFaces{err: errors.New("encoder")},
	}, nil, nil)

	_, err = p.Process(img)
	assert.ErrorContains(t, err, "faces")
}

func TestApplyCalibration(t *testing.T) {
	cfg := config.Default()

	ApplyCalibration(&cfg, calibrate.Calibration{
		PixelDistance: 210, RealDistance: 60, Unit: "in", Horizon: 512,
	})

	assert.True(t, cfg.Calibrated())
	assert.Equal(t, 210, cfg.Reference.DistancePixel)
	assert.Equal(t, 60.0, cfg.Reference.DistanceValue)
	assert.Equal(t, "in", cfg.Reference.DistanceUnit)
	assert.Equal(t, 512, cfg.Reference.LineY)

	cal := StaticCalibration(cfg)
	assert.InDelta(t, 60.0/210.0, cal.Ratio(), 1e-12)
}
