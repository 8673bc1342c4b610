package pose

import (
	"errors"

	"gocv.io/x/gocv"

	"github.com/swdee/go-buildverify/observation"
)

// ErrNotStarted is returned by Result when no detection was started
var ErrNotStarted = errors.New("pose detection not started")

// Async runs an Estimator in the background so face recognition can work on
// the same frame concurrently.  Only one detection is in flight at a time and
// it can not be cancelled.
type Async struct {
	est    Estimator
	done   chan struct{}
	bodies []observation.Body
	err    error
}

// NewAsync wraps an Estimator
func NewAsync(est Estimator) *Async {
	return &Async{est: est}
}

// Start begins detection on img.  A detection still in flight is waited on
// first.  The caller must keep img open until Result returns.
func (a *Async) Start(img gocv.Mat) {

	if a.done != nil {
		<-a.done
	}

	done := make(chan struct{})
	a.done = done

	go func() {
		defer close(done)
		a.bodies, a.err = a.est.Detect(img)
	}()
}

// Result waits for the detection started last and returns its bodies
func (a *Async) Result() ([]observation.Body, error) {

	if a.done == nil {
		return nil, ErrNotStarted
	}

	<-a.done

	return a.bodies, a.err
}
