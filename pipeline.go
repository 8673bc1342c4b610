package buildverify

import (
	"fmt"
	"log"

	"gocv.io/x/gocv"

	"github.com/swdee/go-buildverify/associate"
	"github.com/swdee/go-buildverify/build"
	"github.com/swdee/go-buildverify/calibrate"
	"github.com/swdee/go-buildverify/config"
	"github.com/swdee/go-buildverify/debounce"
	"github.com/swdee/go-buildverify/filter"
	"github.com/swdee/go-buildverify/observation"
	"github.com/swdee/go-buildverify/pose"
	"github.com/swdee/go-buildverify/posture"
	"github.com/swdee/go-buildverify/registry"
)

// BuildWindow is the median filter window applied to measured builds
const BuildWindow = 16

// FaceDetector finds and labels the faces in a frame
type FaceDetector interface {
	Detect(img gocv.Mat) ([]observation.Face, error)
}

// MarkerDetector finds the calibration markers in a frame
type MarkerDetector interface {
	DetectMarkers(img gocv.Mat) []calibrate.Marker
}

// Signaler receives the per frame verification outcome of a label
type Signaler interface {
	Queue(label, payload string) (bool, error)
}

// Collaborators are the detectors the pipeline runs on each frame
type Collaborators struct {
	Pose    pose.Estimator
	Faces   FaceDetector
	Markers MarkerDetector
}

// Scene is the scale and floor line a frame is measured against
type Scene struct {
	Calibration calibrate.Calibration
	// Scaled is true when Calibration can convert pixels for this frame
	Scaled bool
	// HasHorizon is false until a marker line is known
	HasHorizon bool
}

// BodyResult is the outcome of one body in a frame
type BodyResult struct {
	Body     observation.Body
	Verdict  posture.Verdict
	HeadFirm bool
	// HeadAngle is the head tilt in degrees, zero when it could not be measured
	HeadAngle float64
	// Paired is true when a face was associated to the body
	Paired bool
	Label  string
	// Measurement is the raw pixel build and Filtered its median smoothed
	// width and height
	Measurement build.Measurement
	Filtered    build.Measurement
	// OutsideHorizon is true when the feet were off the marker line
	OutsideHorizon bool
	// Scaled is true when Build holds a real world conversion
	Scaled   bool
	Build    build.Build
	Verified bool
	// Signalled is true when the debouncer wrote the outcome
	Signalled bool
}

// Measured reports whether the body got past the horizon gate
func (r BodyResult) Measured() bool {
	return r.Paired && !r.OutsideHorizon
}

// Report is the outcome of one frame
type Report struct {
	Faces       int
	KnownFaces  int
	Bodies      int
	ValidBodies int
	Results     []BodyResult
	// Last is the last scaled result of the frame
	Last *BodyResult

	Scene          Scene
	Markers        []calibrate.Marker
	DetectedFaces  []observation.Face
	DetectedBodies []observation.Body
}

// Pipeline runs the per frame verification
type Pipeline struct {
	cfg       config.Config
	collab    Collaborators
	async     *pose.Async
	validator *posture.Validator
	registry  *registry.Registry
	signal    Signaler
	static    calibrate.Calibration
	live      *calibrate.LiveReference
	width     *filter.Median
	height    *filter.Median
	last      *BodyResult
}

// NewPipeline returns a Pipeline.  signal may be nil in which case outcomes
// are only reported.
func NewPipeline(cfg config.Config, collab Collaborators, reg *registry.Registry,
	signal Signaler) *Pipeline {

	p := &Pipeline{
		cfg:       cfg,
		collab:    collab,
		validator: posture.New(Thresholds(cfg)),
		registry:  reg,
		signal:    signal,
		static:    StaticCalibration(cfg),
		width:     filter.NewMedian(BuildWindow),
		height:    filter.NewMedian(BuildWindow),
	}

	if collab.Pose != nil {
		p.async = pose.NewAsync(collab.Pose)
	}

	if cfg.Reference.UseLiveRef {
		p.live = calibrate.NewLiveReference(float64(cfg.Thresholds.ArucoLine),
			cfg.Reference.DistanceValue, cfg.Reference.DistanceUnit)
	}

	return p
}

// Thresholds returns the posture thresholds of a configuration
func Thresholds(cfg config.Config) posture.Thresholds {
	th := cfg.Thresholds
	return posture.Thresholds{
		BodyVisibility: th.BodyVisibility,
		FaceVisibility: th.FaceVisibility,
		ShoulderLine:   th.ShoulderLine,
		AnkleLine:      th.AnkleLine,
		KneeBend:       th.KneeBend,
		HeadAngle:      th.HeadAngle,
	}
}

// StaticCalibration returns the calibration committed in a configuration
func StaticCalibration(cfg config.Config) calibrate.Calibration {
	return calibrate.Calibration{
		PixelDistance: cfg.Reference.DistancePixel,
		RealDistance:  cfg.Reference.DistanceValue,
		Unit:          cfg.Reference.DistanceUnit,
		Horizon:       cfg.Reference.LineY,
	}
}

// ApplyCalibration stores a committed calibration in the configuration
func ApplyCalibration(cfg *config.Config, cal calibrate.Calibration) {
	cfg.Reference.DistancePixel = cal.PixelDistance
	cfg.Reference.DistanceValue = cal.RealDistance
	cfg.Reference.DistanceUnit = cal.Unit
	cfg.Reference.LineY = cal.Horizon
}

// LastResult returns the last scaled result seen by the pipeline
func (p *Pipeline) LastResult() (BodyResult, bool) {

	if p.last == nil {
		return BodyResult{}, false
	}

	return *p.last, true
}

// Process runs the detectors on a frame and evaluates their results.  The
// frame must stay open until Process returns.
func (p *Pipeline) Process(frame gocv.Mat) (Report, error) {

	if p.async == nil || p.collab.Faces == nil {
		return Report{}, fmt.Errorf("pipeline requires pose and face detectors")
	}

	p.async.Start(frame)

	faces, faceErr := p.collab.Faces.Detect(frame)

	var markers []calibrate.Marker

	if p.collab.Markers != nil {
		markers = p.collab.Markers.DetectMarkers(frame)
	}

	scene := p.scene(markers)

	bodies, poseErr := p.async.Result()

	if faceErr != nil {
		return Report{}, fmt.Errorf("error detecting faces: %w", faceErr)
	}

	if poseErr != nil {
		return Report{}, fmt.Errorf("error detecting poses: %w", poseErr)
	}

	report := p.Evaluate(bodies, faces, scene)
	report.Markers = markers

	return report, nil
}

// scene works out the scale for the frame from the live markers or the
// committed calibration
func (p *Pipeline) scene(markers []calibrate.Marker) Scene {

	if p.live != nil {
		cal, ok := p.live.Update(markers)
		return Scene{Calibration: cal, Scaled: ok, HasHorizon: p.live.Seen()}
	}

	return Scene{
		Calibration: p.static,
		Scaled:      p.static.Valid(),
		HasHorizon:  p.static.Valid(),
	}
}

// Evaluate runs the decision step over the detections of one frame.  Faces
// are consumed as they are paired to bodies.
func (p *Pipeline) Evaluate(bodies []observation.Body, faces []observation.Face, scene Scene) Report {

	report := Report{
		Faces:          len(faces),
		Bodies:         len(bodies),
		Scene:          scene,
		DetectedFaces:  faces,
		DetectedBodies: bodies,
	}

	for _, f := range faces {
		if f.Known() {
			report.KnownFaces++
		}
	}

	remaining := faces

	for _, body := range bodies {

		res := BodyResult{
			Body:    body,
			Verdict: p.validator.Evaluate(body),
		}

		headFirm, err := p.validator.HeadFirm(body)

		if err != nil {
			log.Printf("body %d head check: %v\n", body.ID, err)
		}

		res.HeadFirm = headFirm

		if angle, err := posture.HeadAngle(body); err == nil {
			res.HeadAngle = angle
		}

		if !res.Verdict.Firm || !res.HeadFirm || len(remaining) == 0 {
			report.Results = append(report.Results, res)
			continue
		}

		face, rest, ok := associate.Pop(remaining, body)

		if !ok {
			report.Results = append(report.Results, res)
			continue
		}

		remaining = rest
		res.Paired = true
		res.Label = face.Label
		res.Measurement = build.Estimate(body, face)

		if scene.HasHorizon && !calibrate.WithinHorizon(res.Measurement.Bottom.Y,
			scene.Calibration.Horizon, float64(p.cfg.Thresholds.ArucoBodyLine)) {

			res.OutsideHorizon = true
			report.Results = append(report.Results, res)
			continue
		}

		report.ValidBodies++

		p.width.Insert(res.Measurement.Width)
		p.height.Insert(res.Measurement.Height)

		res.Filtered = res.Measurement
		res.Filtered.Width, _ = p.width.Retrieve()
		res.Filtered.Height, _ = p.height.Retrieve()

		if scene.Scaled {
			p.verify(&res, scene.Calibration)
		}

		report.Results = append(report.Results, res)

		if res.Scaled {
			last := res
			report.Last = &last
			p.last = &last
		}
	}

	return report
}

// verify converts the filtered build, checks it against the registry and
// queues the outcome
func (p *Pipeline) verify(res *BodyResult, cal calibrate.Calibration) {

	res.Scaled = true
	res.Build = res.Filtered.Real(cal)

	if p.registry != nil {
		res.Verified = p.registry.Verify(res.Label, res.Build.Width, res.Build.Height)
	}

	if p.signal == nil {
		return
	}

	payload := debounce.NotVerified

	if res.Verified {
		payload = debounce.Verified
	}

	wrote, err := p.signal.Queue(res.Label, payload)

	if err != nil {
		log.Printf("Error sending signal: %v\n", err)
	}

	res.Signalled = wrote
}

// Reference returns the live marker reference, nil when the committed
// calibration is used
func (p *Pipeline) Reference() *calibrate.Reference {

	if p.live == nil {
		return nil
	}

	return p.live.Reference()
}
