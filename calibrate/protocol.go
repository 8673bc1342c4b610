package calibrate

import (
	"errors"
	"fmt"

	"github.com/swdee/go-buildverify/filter"
)

const (
	// ProtocolWindow is the median filter window used while calibrating
	ProtocolWindow = 64
	// LiveWindow is the median filter window used by the live reference
	LiveWindow = 50
)

// ErrIncomplete is returned when a calibration session ends before the
// reference distance became steady
var ErrIncomplete = errors.New("calibration did not reach a steady state")

// Calibration is the committed scale of the scene
type Calibration struct {
	// PixelDistance is the steady filtered distance between the markers
	PixelDistance int
	// RealDistance is the measured distance between the markers
	RealDistance float64
	// Unit is the unit RealDistance is expressed in
	Unit string
	// Horizon is the Y line of the markers at commit time
	Horizon int
}

// Valid reports whether the calibration can convert pixels
func (c Calibration) Valid() bool {
	return c.PixelDistance > 0 && c.RealDistance > 0
}

// Ratio returns the number of real world units per pixel
func (c Calibration) Ratio() float64 {

	if c.PixelDistance <= 0 {
		return 0
	}

	return c.RealDistance / float64(c.PixelDistance)
}

// ToReal converts a pixel length to real world units
func (c Calibration) ToReal(px float64) float64 {
	return px * c.Ratio()
}

// String returns a human readable summary of the calibration
func (c Calibration) String() string {
	return fmt.Sprintf("%dpx = %g%s (horizon y=%d)", c.PixelDistance,
		c.RealDistance, c.Unit, c.Horizon)
}

// Progress is the state of a calibration after each frame
type Progress struct {
	// Detected is true when both markers were found
	Detected bool
	// Aligned is true when both markers sit on the horizon
	Aligned bool
	// Filtered is the current median filtered distance
	Filtered float64
	// Steady is the number of consecutive valid frames with an unchanged
	// filtered distance
	Steady int
	// Required is the steady count needed to commit
	Required int
}

// Protocol locks the marker distance once the median filtered value has
// stayed unchanged for a number of valid frames
type Protocol struct {
	ref          *Reference
	median       *filter.Median
	tolerance    int
	realDistance float64
	unit         string
	steady       int
	last         float64
	started      bool
	committed    *Calibration
}

// NewProtocol returns a calibration protocol.  alignTolerance is the marker
// horizon tolerance in pixels, steadyFrames the number of frames the filtered
// distance must stay unchanged and realDistance the measured distance between
// the markers in unit.
func NewProtocol(alignTolerance float64, steadyFrames int, realDistance float64, unit string) *Protocol {
	return &Protocol{
		ref:          NewReference(alignTolerance),
		median:       filter.NewMedian(ProtocolWindow),
		tolerance:    steadyFrames,
		realDistance: realDistance,
		unit:         unit,
	}
}

// Reference returns the marker reference of the last fed frame
func (p *Protocol) Reference() *Reference {
	return p.ref
}

// Feed processes the markers detected in one frame.  It returns true once
// the calibration is committed, later calls keep returning true without
// changing the committed value.
func (p *Protocol) Feed(markers []Marker) (Progress, bool) {

	prog := Progress{Required: p.tolerance}

	if p.committed != nil {
		prog.Steady = p.steady
		prog.Filtered = p.last
		return prog, true
	}

	prog.Detected = p.ref.Detect(markers)
	prog.Aligned = prog.Detected && p.ref.IsAligned()

	if !prog.Aligned {
		prog.Steady = p.steady
		prog.Filtered = p.last
		return prog, false
	}

	p.median.Insert(p.ref.Distance())
	filtered, _ := p.median.Retrieve()

	if !p.started || filtered != p.last {
		p.steady = 0
	}

	p.started = true
	p.last = filtered
	p.steady++

	prog.Steady = p.steady
	prog.Filtered = filtered

	if p.steady >= p.tolerance {
		p.committed = &Calibration{
			PixelDistance: int(filtered),
			RealDistance:  p.realDistance,
			Unit:          p.unit,
			Horizon:       p.ref.Horizon(),
		}
		return prog, true
	}

	return prog, false
}

// Result returns the committed calibration or ErrIncomplete
func (p *Protocol) Result() (Calibration, error) {

	if p.committed == nil {
		return Calibration{}, ErrIncomplete
	}

	return *p.committed, nil
}
