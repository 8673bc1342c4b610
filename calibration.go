package buildverify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/swdee/go-buildverify/calibrate"
	"github.com/swdee/go-buildverify/capture"
	"github.com/swdee/go-buildverify/config"
)

// FrameSource supplies the frames of a calibration session
type FrameSource interface {
	Next(ctx context.Context) (*capture.Frame, error)
}

// FrameHook is called on every calibration frame before it is released
type FrameHook func(frame *capture.Frame, markers []calibrate.Marker, progress calibrate.Progress)

// CalibrationSession runs the steady state protocol over a frame source
// until the marker distance commits
type CalibrationSession struct {
	src      FrameSource
	markers  MarkerDetector
	protocol *calibrate.Protocol
	onFrame  FrameHook
}

// NewCalibrationSession returns a session using the reference settings of
// the configuration
func NewCalibrationSession(cfg config.Config, src FrameSource, markers MarkerDetector) *CalibrationSession {
	return &CalibrationSession{
		src:     src,
		markers: markers,
		protocol: calibrate.NewProtocol(float64(cfg.Thresholds.ArucoLine),
			cfg.Reference.CalibrationTolerance, cfg.Reference.DistanceValue,
			cfg.Reference.DistanceUnit),
	}
}

// OnFrame sets the hook called for every frame
func (s *CalibrationSession) OnFrame(hook FrameHook) {
	s.onFrame = hook
}

// Protocol returns the protocol state of the session
func (s *CalibrationSession) Protocol() *calibrate.Protocol {
	return s.protocol
}

// Run consumes frames until the calibration commits.  When the source closes
// or ctx ends first the returned error wraps calibrate.ErrIncomplete and no
// calibration is produced.
func (s *CalibrationSession) Run(ctx context.Context) (calibrate.Calibration, error) {

	for {
		frame, err := s.src.Next(ctx)

		if err != nil {
			if errors.Is(err, capture.ErrClosed) || ctx.Err() != nil {
				return calibrate.Calibration{}, fmt.Errorf("%w: %v", calibrate.ErrIncomplete, err)
			}

			return calibrate.Calibration{}, fmt.Errorf("error reading frame: %w", err)
		}

		markers := s.markers.DetectMarkers(frame.Mat)
		progress, done := s.protocol.Feed(markers)

		if s.onFrame != nil {
			s.onFrame(frame, markers, progress)
		}

		frame.Close()

		if done {
			cal, err := s.protocol.Result()

			if err != nil {
				return cal, err
			}

			log.Printf("Calibration committed: %s\n", cal)
			return cal, nil
		}
	}
}

// PersistCalibration stores a committed calibration in the configuration
// file at path, leaving every other setting in the file as it is
func PersistCalibration(path string, cal calibrate.Calibration) error {

	cfg, err := config.Read(path)

	if err != nil {
		return err
	}

	ApplyCalibration(&cfg, cal)

	return cfg.Save(path)
}
