/*
Package capture reads camera frames in the background and hands the newest
one to the decision loop.  Frames are held in a single slot mailbox, a frame
that was not taken before the next one arrives is released and counted as a
drop, so a slow consumer always works on the latest picture.
*/
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

// ErrClosed is returned by Next once the source has no more frames
var ErrClosed = errors.New("capture closed")

// emptyBackoff is the pause after an empty read when no Interval is set
const emptyBackoff = 10 * time.Millisecond

// Source produces frames, gocv.VideoCapture satisfies it
type Source interface {
	Read(m *gocv.Mat) bool
	Close() error
}

// Frame is one captured picture
type Frame struct {
	Mat gocv.Mat
	// Seq is the capture sequence number starting at 1
	Seq uint64
	At  time.Time
}

// Close releases the frame image
func (f *Frame) Close() error {
	return f.Mat.Close()
}

// Options configures a Capture
type Options struct {
	// Interval is the minimum time between two reads, zero reads as fast as
	// the source allows
	Interval time.Duration
	// Crop9x16 keeps only the centered 9:16 portrait region of each frame
	Crop9x16 bool
}

// Capture is a lossy single slot frame mailbox fed from a Source
type Capture struct {
	src  Source
	opts Options

	mu     sync.Mutex
	frame  *Frame
	closed bool
	ready  chan struct{}

	seq   atomic.Uint64
	drops atomic.Uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a Capture reading from src.  Call Start to begin reading.
func New(src Source, opts Options) *Capture {
	return &Capture{
		src:   src,
		opts:  opts,
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// OpenCamera opens a camera device at the requested resolution
func OpenCamera(device int, width, height int) (*gocv.VideoCapture, error) {

	cam, err := gocv.OpenVideoCapture(device)

	if err != nil {
		return nil, fmt.Errorf("error opening camera %d: %w", device, err)
	}

	if width > 0 && height > 0 {
		cam.Set(gocv.VideoCaptureFrameWidth, float64(width))
		cam.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}

	return cam, nil
}

// Start launches the read loop
func (c *Capture) Start(ctx context.Context) {

	ctx, c.cancel = context.WithCancel(ctx)

	go c.run(ctx)
}

// Done is closed when the read loop has stopped
func (c *Capture) Done() <-chan struct{} {
	return c.done
}

func (c *Capture) run(ctx context.Context) {

	defer close(c.done)
	defer c.finish()

	for {
		if ctx.Err() != nil {
			return
		}

		img := gocv.NewMat()

		if ok := c.src.Read(&img); !ok {
			img.Close()
			return
		}

		if img.Empty() {
			img.Close()

			if !c.pause(ctx, max(c.opts.Interval, emptyBackoff)) {
				return
			}
			continue
		}

		if c.opts.Crop9x16 {
			cropped := Crop9x16(img)
			img.Close()
			img = cropped
		}

		c.publish(&Frame{Mat: img, Seq: c.seq.Add(1), At: time.Now()})

		if c.opts.Interval > 0 && !c.pause(ctx, c.opts.Interval) {
			return
		}
	}
}

// pause waits for d, returning false when ctx ends first
func (c *Capture) pause(ctx context.Context, d time.Duration) bool {

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// publish places a frame in the slot, overwriting an unconsumed frame
func (c *Capture) publish(f *Frame) {

	c.mu.Lock()

	if c.frame != nil {
		c.frame.Close()
		c.drops.Add(1)
	}

	c.frame = f
	c.mu.Unlock()

	c.signal()
}

func (c *Capture) signal() {
	select {
	case c.ready <- struct{}{}:
	default:
	}
}

func (c *Capture) finish() {

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.signal()
}

// Next takes ownership of the newest frame, waiting for one when the slot is
// empty.  The caller must Close the returned frame.  A frame still in the
// slot when the source ends is returned before ErrClosed.
func (c *Capture) Next(ctx context.Context) (*Frame, error) {

	for {
		c.mu.Lock()

		if f := c.frame; f != nil {
			c.frame = nil
			c.mu.Unlock()
			return f, nil
		}

		if c.closed {
			c.mu.Unlock()
			return nil, ErrClosed
		}

		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.ready:
		}
	}
}

// Drops returns the number of frames released unconsumed
func (c *Capture) Drops() uint64 {
	return c.drops.Load()
}

// Captured returns the number of frames read
func (c *Capture) Captured() uint64 {
	return c.seq.Load()
}

// Close stops the read loop, releases any frame left in the slot and closes
// the source
func (c *Capture) Close() error {

	if c.cancel != nil {
		c.cancel()
		<-c.done
	}

	c.mu.Lock()
	if c.frame != nil {
		c.frame.Close()
		c.frame = nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.src.Close()
}

// Crop9x16 returns a copy of the centered 9:16 portrait region of img.
// Images already narrower than 9:16 are copied whole.
func Crop9x16(img gocv.Mat) gocv.Mat {

	h, w := img.Rows(), img.Cols()
	cw := h * 9 / 16

	if cw >= w {
		return img.Clone()
	}

	x0 := (w - cw) / 2

	region := img.Region(image.Rect(x0, 0, x0+cw, h))
	defer region.Close()

	return region.Clone()
}
