package calibrate

import (
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"
)

// ArucoDetector finds 4x4 ArUco markers in camera frames
type ArucoDetector struct {
	detector gocv.ArucoDetector
}

// NewArucoDetector returns an ArUco detector for the 4x4_100 dictionary
func NewArucoDetector() *ArucoDetector {

	dict := gocv.GetPredefinedDictionary(gocv.ArucoDict4x4_100)
	params := gocv.NewArucoDetectorParameters()

	return &ArucoDetector{
		detector: gocv.NewArucoDetectorWithParams(dict, params),
	}
}

// DetectMarkers returns the markers found in the image
func (a *ArucoDetector) DetectMarkers(img gocv.Mat) []Marker {

	corners, ids, _ := a.detector.DetectMarkers(img)

	markers := make([]Marker, 0, len(ids))

	for i, id := range ids {

		if i >= len(corners) || len(corners[i]) < 4 {
			continue
		}

		m := Marker{ID: id}

		for j := 0; j < 4; j++ {
			m.Corners[j] = r2.Vec{X: float64(corners[i][j].X), Y: float64(corners[i][j].Y)}
		}

		markers = append(markers, m)
	}

	return markers
}

// Close releases the detector
func (a *ArucoDetector) Close() error {
	a.detector.Close()
	return nil
}
