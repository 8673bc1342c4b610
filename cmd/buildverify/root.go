package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/swdee/go-buildverify/capture"
	"github.com/swdee/go-buildverify/config"
)

var (
	configFile string
	override   bool
)

var rootCmd = &cobra.Command{
	Use:   "buildverify",
	Short: "Verify a person's build and face against a registry",
	Long: `buildverify watches a camera for people standing on a line marked by two
ArUco markers, measures their height and shoulder width, recognises their
face and checks both against a registry of known builds.  The outcome is
written to a serial port once it has been consistent for a number of frames.

Run "buildverify calibrate" once with the markers in view to lock the pixel
distance between them, then "buildverify detect".`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "buildverify.yaml", "YAML configuration file")
	pf.BoolVarP(&override, "override", "o", false, "Save the flags given on the command line to the configuration file")
	pf.Int("camera", 0, "Camera device index")
	pf.Int("width", 1280, "Camera frame width")
	pf.Int("height", 720, "Camera frame height")
	pf.Bool("crop", false, "Crop frames to the centered 9:16 portrait region")
	pf.Bool("preview", false, "Show the annotated frames in a window, press q to quit")
	pf.Int("aruco-line", 10, "Pixels both markers may sit from their horizon line")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig loads the configuration file and applies the camera flags
func loadConfig(cmd *cobra.Command) (config.Config, error) {

	cfg, err := config.Load(configFile)

	if err != nil {
		return cfg, err
	}

	overrideInt(cmd, "camera", &cfg.Camera.Target)
	overrideInt(cmd, "width", &cfg.Camera.Width)
	overrideInt(cmd, "height", &cfg.Camera.Height)
	overrideBool(cmd, "crop", &cfg.Camera.Crop9x16)
	overrideInt(cmd, "aruco-line", &cfg.Thresholds.ArucoLine)

	return cfg, nil
}

// finishConfig validates the configuration and saves it when overrides were
// requested
func finishConfig(cfg config.Config) error {

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if override {
		if err := cfg.Save(configFile); err != nil {
			return err
		}

		log.Printf("Saved configuration to %s\n", configFile)
	}

	return nil
}

// startCapture opens the configured camera and starts reading frames
func startCapture(ctx context.Context, cfg config.Config) (*capture.Capture, error) {

	cam, err := capture.OpenCamera(cfg.Camera.Target, cfg.Camera.Width, cfg.Camera.Height)

	if err != nil {
		return nil, err
	}

	c := capture.New(cam, capture.Options{
		Interval: cfg.Camera.ReadInterval,
		Crop9x16: cfg.Camera.Crop9x16,
	})

	c.Start(ctx)

	log.Printf("Reading camera %d at %dx%d\n", cfg.Camera.Target, cfg.Camera.Width, cfg.Camera.Height)

	return c, nil
}
