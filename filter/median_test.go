package filter

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedianEmpty(t *testing.T) {
	m := NewMedian(4)

	v, ok := m.Retrieve()

	assert.False(t, ok)
	assert.True(t, math.IsNaN(v))
}

func TestMedianWindow(t *testing.T) {

	tests := []struct {
		window int
		input  []float64
		want   float64
	}{
		{4, []float64{3}, 3},
		{4, []float64{3, 1}, 2},
		{4, []float64{5, 1, 3}, 3},
		// the history holds window+1 values so 9 is dropped
		{2, []float64{9, 1, 2, 3}, 2},
		{2, []float64{9, 9, 1, 2, 3}, 2},
		{3, []float64{10, 10, 10, 1, 2, 3, 4}, 2.5},
	}

	for _, tc := range tests {
		m := NewMedian(tc.window)

		for _, v := range tc.input {
			m.Insert(v)
		}

		got, ok := m.Retrieve()

		assert.True(t, ok)
		assert.Equal(t, tc.want, got, "window %d input %v", tc.window, tc.input)
		assert.LessOrEqual(t, m.Len(), tc.window+1)
	}
}

// TestMedianMatchesLastValues checks the filter against a direct median of
// the last window+1 values for random input
func TestMedianMatchesLastValues(t *testing.T) {

	rng := rand.New(rand.NewSource(42))
	window := 7
	m := NewMedian(window)
	var all []float64

	for i := 0; i < 200; i++ {
		v := float64(rng.Intn(50))
		all = append(all, v)
		m.Insert(v)

		start := len(all) - (window + 1)
		if start < 0 {
			start = 0
		}

		tail := append([]float64(nil), all[start:]...)
		sort.Float64s(tail)

		var want float64
		if n := len(tail); n%2 == 1 {
			want = tail[n/2]
		} else {
			want = (tail[n/2-1] + tail[n/2]) / 2
		}

		got, _ := m.Retrieve()

		if got != want {
			t.Fatalf("insert %d: expected median %v, got %v", i, want, got)
		}
	}
}

func TestMedianReset(t *testing.T) {
	m := NewMedian(3)
	m.Insert(1)
	m.Reset()

	_, ok := m.Retrieve()
	assert.False(t, ok)
}
