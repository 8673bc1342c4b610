package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/swdee/go-buildverify"
	"github.com/swdee/go-buildverify/calibrate"
	"github.com/swdee/go-buildverify/capture"
	"github.com/swdee/go-buildverify/render"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Lock the pixel distance between the two floor markers",
	Long: `Place ArUco markers 0 and 1 (4x4_100 dictionary) on the floor line a known
distance apart and hold them in view.  Once the median filtered distance
between the marker centers stays unchanged for the tolerance number of frames
the distance and horizon line are saved to the configuration file.

Examples:
  # markers 50cm apart
  buildverify calibrate --distance 50 --unit cm

  # watch the markers while calibrating
  buildverify calibrate --preview`,
	RunE: runCalibrate,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)

	calibrateCmd.Flags().Float64("distance", 50, "Real distance between the marker centers")
	calibrateCmd.Flags().String("unit", "cm", "Unit of the real distance")
	calibrateCmd.Flags().Int("tolerance", 30, "Frames the filtered distance must stay unchanged")
}

func runCalibrate(cmd *cobra.Command, args []string) error {

	cfg, err := loadConfig(cmd)

	if err != nil {
		return err
	}

	overrideFloat64(cmd, "distance", &cfg.Reference.DistanceValue)
	overrideString(cmd, "unit", &cfg.Reference.DistanceUnit)
	overrideInt(cmd, "tolerance", &cfg.Reference.CalibrationTolerance)

	if err := finishConfig(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames, err := startCapture(ctx, cfg)

	if err != nil {
		return err
	}

	defer frames.Close()

	aruco := calibrate.NewArucoDetector()
	defer aruco.Close()

	session := buildverify.NewCalibrationSession(cfg, frames, aruco)

	var window *gocv.Window

	if mustGetBool(cmd, "preview") {
		window = gocv.NewWindow("Calibration")
		defer window.Close()
	}

	font := render.StatusFont()
	aligned := false

	bar := progressbar.NewOptions(cfg.Reference.CalibrationTolerance,
		progressbar.OptionSetDescription("Waiting for markers"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	session.OnFrame(func(frame *capture.Frame, markers []calibrate.Marker, p calibrate.Progress) {

		if p.Aligned != aligned {
			aligned = p.Aligned

			if aligned {
				bar.Describe(fmt.Sprintf("Steady at %.1fpx", p.Filtered))
			} else {
				bar.Describe("Waiting for markers")
			}
		}

		if p.Aligned {
			bar.Set(p.Steady)
		}

		if window == nil {
			return
		}

		ref := session.Protocol().Reference()

		render.Markers(&frame.Mat, markers, ref)

		if p.Detected {
			render.ReferenceLines(&frame.Mat, ref.Horizon(), cfg.Thresholds.ArucoLine,
				cfg.Thresholds.ArucoBodyLine, p.Aligned)
		}

		render.StatusLines(&frame.Mat, []string{
			fmt.Sprintf("Distance: %.1fpx", p.Filtered),
			fmt.Sprintf("Steady: %d/%d", p.Steady, p.Required),
		}, font)

		render.Crosshairs(&frame.Mat)
		render.Text(&frame.Mat, "q: quit", image.Pt(font.LeftPad, frame.Mat.Rows()-font.TopPad), font)

		window.IMShow(frame.Mat)

		if window.WaitKey(1) == 'q' {
			cancel()
		}
	})

	cal, err := session.Run(ctx)

	if err == nil {
		bar.Finish()
	} else {
		bar.Clear()
	}

	fmt.Println()

	if errors.Is(err, calibrate.ErrIncomplete) {
		log.Printf("Calibration incomplete, configuration left unchanged\n")
		return nil
	}

	if err != nil {
		return err
	}

	// without --override only the calibration facts are written back
	if override {
		buildverify.ApplyCalibration(&cfg, cal)
		err = cfg.Save(configFile)
	} else {
		err = buildverify.PersistCalibration(configFile, cal)
	}

	if err != nil {
		return err
	}

	log.Printf("Saved calibration %s to %s\n", cal, configFile)

	return nil
}
