package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/swdee/go-buildverify"
	"github.com/swdee/go-buildverify/calibrate"
	"github.com/swdee/go-buildverify/capture"
	"github.com/swdee/go-buildverify/config"
	"github.com/swdee/go-buildverify/debounce"
	"github.com/swdee/go-buildverify/facerec"
	"github.com/swdee/go-buildverify/pose"
	"github.com/swdee/go-buildverify/posture"
	"github.com/swdee/go-buildverify/registry"
	"github.com/swdee/go-buildverify/render"
	"github.com/swdee/go-buildverify/serialout"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run build and face verification on the camera feed",
	Long: `Detect people standing on the marker line, measure their build, recognise
their face and verify both against the builds registry.  Verified people send
"1" and everyone else "0" to the serial port once the outcome has been
consistent for the configured number of frames.

Examples:
  # use the calibration saved by the calibrate command
  buildverify detect --port /dev/ttyUSB0

  # derive the scale from the markers in every frame
  buildverify detect --use-live-ref --preview`,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	f := detectCmd.Flags()
	f.String("port", "", "Serial port the outcome is written to")
	f.Int("baud", serialout.DefaultBaudRate, "Serial port baud rate")
	f.String("builts", "data/builts.json", "Builds registry file (JSON or YAML)")
	f.String("faces", "data/faces", "Directory of known faces, one sub directory per label")
	f.String("pose-model", "data/yolov8n-pose.onnx", "YOLOv8-pose ONNX model file")
	f.String("face-models", "data/models", "Directory of dlib face models")
	f.Bool("face-cnn", true, "Detect faces with the dlib CNN detector instead of HOG")
	f.Bool("use-live-ref", false, "Derive the scale from the markers in every frame")
	f.Float64("body-visibility", 0.8, "Minimum mean keypoint visibility of a body")
	f.Float64("face-visibility", 0.5, "Visibility each face keypoint must exceed")
	f.Float64("ankle-line", 20, "Pixels each ankle may sit from the ankle line")
	f.Float64("shoulder-line", 20, "Pixels each shoulder may sit from the shoulder line")
	f.Float64("head-angle", 15, "Maximum head tilt in degrees")
	f.Float64("knee-bend", 10, "Maximum leg curveness in pixels")
	f.Int("built-tolerance", 3, "Tolerance of the registry build check")
	f.Int("aruco-body-line", 40, "Pixels the bottom of a body may sit from the horizon")
	f.Float64("face-tolerance", facerec.DefaultTolerance, "Maximum face descriptor distance of a match")
	f.Int("serial-consistency", 5, "Consistent frames required before signalling")
	f.Duration("serial-window", 500*time.Millisecond, "Maximum gap between consistent frames")
}

// applyDetectFlags sets the configuration from the detect flags given on
// the command line
func applyDetectFlags(cmd *cobra.Command, cfg *config.Config) {

	overrideString(cmd, "port", &cfg.Serial.Port)
	overrideInt(cmd, "baud", &cfg.Serial.Options.BaudRate)
	overrideString(cmd, "builts", &cfg.Paths.Builts)
	overrideString(cmd, "faces", &cfg.Paths.KnownFaces)
	overrideString(cmd, "pose-model", &cfg.Models.Pose)
	overrideString(cmd, "face-models", &cfg.Models.Faces)
	overrideBool(cmd, "face-cnn", &cfg.Models.FaceCNN)
	overrideBool(cmd, "use-live-ref", &cfg.Reference.UseLiveRef)

	th := &cfg.Thresholds
	overrideFloat64(cmd, "body-visibility", &th.BodyVisibility)
	overrideFloat64(cmd, "face-visibility", &th.FaceVisibility)
	overrideFloat64(cmd, "ankle-line", &th.AnkleLine)
	overrideFloat64(cmd, "shoulder-line", &th.ShoulderLine)
	overrideFloat64(cmd, "head-angle", &th.HeadAngle)
	overrideFloat64(cmd, "knee-bend", &th.KneeBend)
	overrideInt(cmd, "built-tolerance", &th.BuiltTolerance)
	overrideInt(cmd, "aruco-body-line", &th.ArucoBodyLine)
	overrideFloat64(cmd, "face-tolerance", &th.FaceTolerance)
	overrideInt(cmd, "serial-consistency", &th.SerialConsistency)
	overrideDuration(cmd, "serial-window", &th.SerialWindow)
}

func runDetect(cmd *cobra.Command, args []string) error {

	cfg, err := loadConfig(cmd)

	if err != nil {
		return err
	}

	applyDetectFlags(cmd, &cfg)

	if err := finishConfig(cfg); err != nil {
		return err
	}

	if !cfg.Reference.UseLiveRef && !cfg.Calibrated() {
		log.Printf("No calibration saved, builds will not be converted or verified\n")
	}

	reg, err := registry.Load(cfg.Paths.Builts, cfg.Thresholds.BuiltTolerance)

	if err != nil {
		return err
	}

	log.Printf("Loaded %d builds from %s, tolerance %d\n", reg.Len(), cfg.Paths.Builts,
		reg.Tolerance())

	log.Printf("Reading known faces from %s\n", cfg.Paths.KnownFaces)

	rec, err := facerec.NewRecognizer(cfg.Models.Faces, cfg.Paths.KnownFaces,
		cfg.Thresholds.FaceTolerance, facerec.WithCNN(cfg.Models.FaceCNN))

	if err != nil {
		return err
	}

	defer rec.Close()

	log.Printf("Gallery holds %d faces of %v\n", rec.Gallery().Len(), rec.Gallery().Labels())

	det, err := pose.NewDetector(cfg.Models.Pose, pose.COCOParams())

	if err != nil {
		return err
	}

	defer det.Close()

	aruco := calibrate.NewArucoDetector()
	defer aruco.Close()

	// signals are dropped when the port can not be opened
	var signaler buildverify.Signaler

	log.Printf("Connecting to serial port %q\n", cfg.Serial.Port)

	port, err := serialout.Open(cfg.Serial.Port, cfg.Serial.Options)

	if err != nil {
		log.Printf("Error opening serial port, signals disabled: %v\n", err)

		if ports, perr := serialout.Ports(); perr == nil {
			log.Printf("Available serial ports: %v\n", ports)
		}
	} else {
		defer port.Close()
		signaler = debounce.New(port, cfg.Thresholds.SerialConsistency, cfg.Thresholds.SerialWindow)
		log.Printf("Connected to serial port %q\n", cfg.Serial.Port)
	}

	pipe := buildverify.NewPipeline(cfg, buildverify.Collaborators{
		Pose:    det,
		Faces:   rec,
		Markers: aruco,
	}, reg, signaler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	frames, err := startCapture(ctx, cfg)

	if err != nil {
		return err
	}

	defer frames.Close()

	var window *gocv.Window

	if mustGetBool(cmd, "preview") {
		window = gocv.NewWindow("Build Verification")
		defer window.Close()
	}

	view := &preview{cfg: cfg, labels: rec.Gallery().Labels(), pipe: pipe}
	stats := &frameStats{start: time.Now()}

	for {
		frame, err := frames.Next(ctx)

		if err != nil {
			if errors.Is(err, capture.ErrClosed) || ctx.Err() != nil {
				break
			}

			return err
		}

		report, err := pipe.Process(frame.Mat)

		if err != nil {
			log.Printf("Error processing frame %d: %v\n", frame.Seq, err)
			frame.Close()
			continue
		}

		stats.add(report)

		if stats.due() {
			stats.summary(pipe, cfg.Reference.DistanceUnit, frames.Drops())
		}

		quit := false

		if window != nil {
			view.draw(&frame.Mat, report, stats.fps())
			window.IMShow(frame.Mat)
			quit = window.WaitKey(1) == 'q'
		}

		frame.Close()

		if quit {
			break
		}
	}

	stats.summary(pipe, cfg.Reference.DistanceUnit, frames.Drops())

	return nil
}

// frameStats collects the frame reports between two summary log lines
type frameStats struct {
	start  time.Time
	frames int
	last   buildverify.Report
	result *buildverify.BodyResult
}

func (s *frameStats) add(r buildverify.Report) {

	s.frames++
	s.last = r

	for i := range r.Results {
		if r.Results[i].Measured() {
			res := r.Results[i]
			s.result = &res
		}
	}
}

func (s *frameStats) due() bool {
	return time.Since(s.start) >= time.Second
}

func (s *frameStats) fps() float64 {

	elapsed := time.Since(s.start).Seconds()

	if elapsed <= 0 {
		return 0
	}

	return float64(s.frames) / elapsed
}

// summary logs the counts of the last frame and resets the counters
func (s *frameStats) summary(pipe *buildverify.Pipeline, unit string, drops uint64) {

	r := s.last

	log.Printf("FPS=%.2f, Drops=%d\n", s.fps(), drops)
	log.Printf("Face: Detected=%d, Known=%d\n", r.Faces, r.KnownFaces)
	log.Printf("Body: Detected=%d, Valid=%d\n", r.Bodies, r.ValidBodies)

	if s.result != nil {
		log.Printf("Result: %s, label=%s, verified=%t\n", resultText(*s.result),
			s.result.Label, s.result.Verified)
	}

	if last, ok := pipe.LastResult(); ok {
		log.Printf("Last Valid Result: Width=%.2f%s, Height=%.2f%s, label=%s\n",
			last.Build.Width, unit, last.Build.Height, unit, last.Label)
	}

	s.start = time.Now()
	s.frames = 0
	s.result = nil
}

// resultText returns the build of a result in real units when it was scaled
// and in pixels otherwise
func resultText(res buildverify.BodyResult) string {

	if res.Scaled {
		return res.Build.String()
	}

	return res.Filtered.Pixels().String()
}

// preview draws the pipeline report over the frame
type preview struct {
	cfg    config.Config
	labels []string
	pipe   *buildverify.Pipeline
}

func (p *preview) draw(img *gocv.Mat, r buildverify.Report, fps float64) {

	font := render.DefaultFont()
	th := p.cfg.Thresholds

	render.Markers(img, r.Markers, p.pipe.Reference())

	if r.Scene.HasHorizon {
		aligned := r.Scene.Scaled || !p.cfg.Reference.UseLiveRef
		render.ReferenceLines(img, r.Scene.Calibration.Horizon, th.ArucoLine,
			th.ArucoBodyLine, aligned)
	}

	render.FaceBoxes(img, r.DetectedFaces, p.labels, font, 1)
	render.PoseKeyPoints(img, r.DetectedBodies, 1)

	for _, res := range r.Results {

		v := res.Verdict
		render.PostureChecks(img, res.Body, v.Passed(posture.CheckShoulders),
			v.Passed(posture.CheckLegs), v.Passed(posture.CheckAnkles))
		render.HeadLine(img, res.Body, res.HeadAngle, res.HeadFirm, font)

		if !res.Measured() {
			continue
		}

		text := fmt.Sprintf("%s %s", res.Label, resultText(res))
		render.BuildLine(img, res.Measurement, text, res.Verified, font)
	}

	status := render.StatusFont()

	render.StatusLines(img, []string{
		fmt.Sprintf("FPS:%.2f", fps),
		fmt.Sprintf("Faces:%d/%d Bodies:%d/%d", r.KnownFaces, r.Faces, r.ValidBodies, r.Bodies),
	}, status)

	render.Crosshairs(img)
	render.Text(img, "q: quit", image.Pt(status.LeftPad, img.Rows()-status.TopPad), status)
}
