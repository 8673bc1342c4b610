// Package config holds the settings of the verification pipeline and their
// YAML persistence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/swdee/go-buildverify/serialout"
)

// Environment variables applied over the loaded file
const (
	EnvSerialPort = "BUILDVERIFY_SERIAL_PORT"
	EnvCamera     = "BUILDVERIFY_CAMERA"
)

// Config is the complete pipeline configuration
type Config struct {
	Camera     CameraConfig     `yaml:"camera"`
	Reference  ReferenceConfig  `yaml:"reference"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Paths      PathsConfig      `yaml:"paths"`
	Serial     SerialConfig     `yaml:"serial"`
	Models     ModelsConfig     `yaml:"models"`
}

type CameraConfig struct {
	// Target is the camera device index
	Target int `yaml:"target"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// Crop9x16 keeps the centered portrait region of each frame
	Crop9x16 bool `yaml:"crop_9_16"`
	// ReadInterval is the minimum time between two frame reads
	ReadInterval time.Duration `yaml:"read_interval"`
}

// ReferenceConfig holds the marker calibration facts.  DistancePixel and
// LineY are written by the calibrate command.
type ReferenceConfig struct {
	CalibrationTolerance int     `yaml:"calibration_tolerance"`
	UseLiveRef           bool    `yaml:"use_live_ref"`
	DistanceUnit         string  `yaml:"distance_unit"`
	DistanceValue        float64 `yaml:"distance_value"`
	DistancePixel        int     `yaml:"distance_pixel"`
	LineY                int     `yaml:"aruco_line_y_axis"`
}

type ThresholdsConfig struct {
	BodyVisibility    float64       `yaml:"body_visibility"`
	FaceVisibility    float64       `yaml:"face_visibility"`
	AnkleLine         float64       `yaml:"ankle_line"`
	ShoulderLine      float64       `yaml:"shoulder_line"`
	HeadAngle         float64       `yaml:"head_angle"`
	KneeBend          float64       `yaml:"knee_bend"`
	BuiltTolerance    int           `yaml:"built_tolerance"`
	ArucoLine         int           `yaml:"aruco_line"`
	ArucoBodyLine     int           `yaml:"aruco_body_line"`
	SerialConsistency int           `yaml:"serial_consistency_req"`
	SerialWindow      time.Duration `yaml:"serial_window"`
	FaceTolerance     float64       `yaml:"face_tolerance"`
}

type PathsConfig struct {
	KnownFaces string `yaml:"known_faces"`
	Builts     string `yaml:"builts"`
}

type SerialConfig struct {
	Port    string                `yaml:"port"`
	Options serialout.PortOptions `yaml:",inline"`
}

type ModelsConfig struct {
	// Pose is the YOLOv8-pose ONNX model file
	Pose string `yaml:"pose"`
	// Faces is the directory of dlib face models
	Faces string `yaml:"faces"`
	// FaceCNN detects faces in frames with the dlib CNN detector
	FaceCNN bool `yaml:"face_cnn"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Camera: CameraConfig{
			Target:       0,
			Width:        1280,
			Height:       720,
			ReadInterval: 50 * time.Millisecond,
		},
		Reference: ReferenceConfig{
			CalibrationTolerance: 30,
			DistanceUnit:         "cm",
			DistanceValue:        50,
		},
		Thresholds: ThresholdsConfig{
			BodyVisibility:    0.8,
			FaceVisibility:    0.5,
			AnkleLine:         20,
			ShoulderLine:      20,
			HeadAngle:         15,
			KneeBend:          10,
			BuiltTolerance:    3,
			ArucoLine:         10,
			ArucoBodyLine:     40,
			SerialConsistency: 5,
			SerialWindow:      500 * time.Millisecond,
			FaceTolerance:     0.6,
		},
		Paths: PathsConfig{
			KnownFaces: "data/faces",
			Builts:     "data/builts.json",
		},
		Serial: SerialConfig{
			Options: serialout.PortOptions{BaudRate: serialout.DefaultBaudRate},
		},
		Models: ModelsConfig{
			Pose:    "data/yolov8n-pose.onnx",
			Faces:   "data/models",
			FaceCNN: true,
		},
	}
}

// Load reads the configuration file at path over the defaults and applies
// the environment overrides.  A missing file yields the defaults.
func Load(path string) (Config, error) {

	cfg, err := Read(path)

	if err != nil {
		return cfg, err
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Read reads the configuration file at path over the defaults without
// applying the environment overrides
func Read(path string) (Config, error) {

	cfg := Default()

	data, err := os.ReadFile(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("error reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {

	if port := os.Getenv(EnvSerialPort); port != "" {
		c.Serial.Port = port
	}

	if cam := os.Getenv(EnvCamera); cam != "" {

		n, err := strconv.Atoi(cam)

		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvCamera, cam, err)
		}

		c.Camera.Target = n
	}

	return nil
}

// Validate checks the configuration values are usable
func (c Config) Validate() error {

	var errs []error

	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	th := c.Thresholds

	check(c.Camera.Width > 0 && c.Camera.Height > 0, "camera size %dx%d must be positive", c.Camera.Width, c.Camera.Height)
	check(c.Camera.ReadInterval >= 0, "camera read interval must not be negative")
	check(c.Reference.CalibrationTolerance > 0, "calibration tolerance must be positive")
	check(c.Reference.DistanceValue > 0, "reference distance must be positive")
	check(c.Reference.DistancePixel >= 0, "reference pixel distance must not be negative")
	check(th.BodyVisibility >= 0 && th.BodyVisibility <= 1, "body visibility %v must be within 0..1", th.BodyVisibility)
	check(th.FaceVisibility >= 0 && th.FaceVisibility <= 1, "face visibility %v must be within 0..1", th.FaceVisibility)
	check(th.AnkleLine >= 0 && th.ShoulderLine >= 0 && th.KneeBend >= 0, "line thresholds must not be negative")
	check(th.HeadAngle >= 0 && th.HeadAngle <= 180, "head angle %v must be within 0..180", th.HeadAngle)
	check(th.BuiltTolerance >= 0, "built tolerance must not be negative")
	check(th.ArucoLine >= 0 && th.ArucoBodyLine >= 0, "aruco line thresholds must not be negative")
	check(th.SerialConsistency > 0, "serial consistency must be positive")
	check(th.SerialWindow > 0, "serial window must be positive")
	check(th.FaceTolerance > 0, "face tolerance must be positive")

	if _, err := c.Serial.Options.Normalize(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Calibrated reports whether a static reference was committed
func (c Config) Calibrated() bool {
	return c.Reference.DistancePixel > 0
}

// Save writes the configuration to path
func (c Config) Save(path string) error {

	data, err := yaml.Marshal(c)

	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
