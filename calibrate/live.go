package calibrate

import (
	"github.com/swdee/go-buildverify/filter"
)

// LiveReference re-derives the scale on every frame from the markers in
// view, smoothing the marker distance with its own median filter.  A frame
// without an aligned marker pair has no scale, the last horizon is kept.
type LiveReference struct {
	ref          *Reference
	median       *filter.Median
	realDistance float64
	unit         string
	current      Calibration
	seen         bool
}

// NewLiveReference returns a LiveReference using the given horizon
// alignment tolerance and real distance between the markers
func NewLiveReference(alignTolerance, realDistance float64, unit string) *LiveReference {
	return &LiveReference{
		ref:          NewReference(alignTolerance),
		median:       filter.NewMedian(LiveWindow),
		realDistance: realDistance,
		unit:         unit,
	}
}

// Update feeds the markers detected in one frame and returns the latest
// scale.  The boolean reports whether the scale was derived from this frame.
func (l *LiveReference) Update(markers []Marker) (Calibration, bool) {

	if !l.ref.Detect(markers) || !l.ref.IsAligned() {
		return l.current, false
	}

	l.median.Insert(l.ref.Distance())
	filtered, _ := l.median.Retrieve()

	l.seen = true
	l.current = Calibration{
		PixelDistance: int(filtered),
		RealDistance:  l.realDistance,
		Unit:          l.unit,
		Horizon:       l.ref.Horizon(),
	}

	return l.current, l.current.Valid()
}

// Seen reports whether an aligned marker pair was ever found
func (l *LiveReference) Seen() bool {
	return l.seen
}

// Reference returns the marker reference of the last frame
func (l *LiveReference) Reference() *Reference {
	return l.ref
}
