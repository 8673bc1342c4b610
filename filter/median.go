package filter

import (
	"math"
	"sort"
)

// Median is a fixed window median smoother for a single scalar signal.  It
// keeps the most recent window+1 values and is not safe for concurrent use,
// create one Median per signal.
type Median struct {
	// window is the configured window size, history holds up to window+1
	// values
	window int
	// history of inserted values in insertion order
	history []float64
	// sorted is scratch space reused by Retrieve
	sorted []float64
}

// NewMedian returns a median filter with the given window size
func NewMedian(window int) *Median {

	if window < 0 {
		window = 0
	}

	return &Median{
		window:  window,
		history: make([]float64, 0, window+1),
		sorted:  make([]float64, 0, window+1),
	}
}

// Insert appends a value to the history, dropping the oldest value once the
// history already holds more than window values
func (m *Median) Insert(value float64) {

	if len(m.history) > m.window {
		// remove oldest
		copy(m.history, m.history[1:])
		m.history = m.history[:len(m.history)-1]
	}

	m.history = append(m.history, value)
}

// Retrieve returns the median of the current history.  When the history is
// empty it returns NaN and false, callers must check the boolean before
// using the value.
func (m *Median) Retrieve() (float64, bool) {

	n := len(m.history)

	if n == 0 {
		return math.NaN(), false
	}

	m.sorted = append(m.sorted[:0], m.history...)
	sort.Float64s(m.sorted)

	if n%2 == 1 {
		return m.sorted[n/2], true
	}

	return (m.sorted[n/2-1] + m.sorted[n/2]) / 2, true
}

// Len returns the number of values held in the history
func (m *Median) Len() int {
	return len(m.history)
}

// Reset clears the history
func (m *Median) Reset() {
	m.history = m.history[:0]
}
