package pose

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/swdee/go-buildverify/observation"
)

type slowEstimator struct {
	delay    time.Duration
	inFlight atomic.Int32
	overlap  atomic.Bool
	calls    atomic.Int32
	err      error
}

func (s *slowEstimator) Detect(gocv.Mat) ([]observation.Body, error) {

	if s.inFlight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.inFlight.Add(-1)

	time.Sleep(s.delay)
	n := s.calls.Add(1)

	if s.err != nil {
		return nil, s.err
	}

	return make([]observation.Body, n), nil
}

func TestAsyncResult(t *testing.T) {
	est := &slowEstimator{delay: 10 * time.Millisecond}
	a := NewAsync(est)

	_, err := a.Result()
	assert.ErrorIs(t, err, ErrNotStarted)

	img := gocv.NewMat()
	defer img.Close()

	a.Start(img)
	bodies, err := a.Result()

	require.NoError(t, err)
	assert.Len(t, bodies, 1)

	// result is stable until the next start
	bodies, _ = a.Result()
	assert.Len(t, bodies, 1)
}

func TestAsyncStartWaitsForInFlight(t *testing.T) {
	est := &slowEstimator{delay: 5 * time.Millisecond}
	a := NewAsync(est)

	img := gocv.NewMat()
	defer img.Close()

	for i := 0; i < 5; i++ {
		a.Start(img)
	}

	bodies, err := a.Result()
	require.NoError(t, err)

	assert.Len(t, bodies, 5)
	assert.False(t, est.overlap.Load())
}

func TestAsyncError(t *testing.T) {
	est := &slowEstimator{err: errors.New("model failed")}
	a := NewAsync(est)

	img := gocv.NewMat()
	defer img.Close()

	a.Start(img)
	_, err := a.Result()

	assert.ErrorContains(t, err, "model failed")
}
