/*
Package debounce turns a noisy per frame verification result into a steady
signal.  A payload is only written after the same label was queued a number of
times with no gap between two consecutive queues longer than the consistency
window.  The payload of the queue reaching the count is the one written.
*/
package debounce

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	// Verified is the payload written when a person matches their build
	Verified = "1"
	// NotVerified is the payload written when a person does not match
	NotVerified = "0"
)

// Clock provides the current time
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Option configures a Debouncer
type Option func(*Debouncer)

// WithClock sets the clock used to time the consistency window
func WithClock(c Clock) Option {
	return func(d *Debouncer) {
		d.clock = c
	}
}

type entry struct {
	updated time.Time
	count   int
}

// Debouncer counts repeated labels and writes a payload once the label has
// been seen consistently
type Debouncer struct {
	mu        sync.Mutex
	w         io.Writer
	threshold int
	window    time.Duration
	clock     Clock
	entries   map[string]*entry
}

// New returns a Debouncer writing to w.  threshold is the number of
// consistent queues needed before a payload is written and window the
// longest gap allowed between two queues of the same label.
func New(w io.Writer, threshold int, window time.Duration, opts ...Option) *Debouncer {

	d := &Debouncer{
		w:         w,
		threshold: threshold,
		window:    window,
		clock:     realClock{},
		entries:   make(map[string]*entry),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Queue records one observation of payload for label.  When the label reaches
// the threshold the payload is written followed by a newline and the label
// is forgotten, so it has to build up the count again.  The boolean reports whether a write
// happened.
func (d *Debouncer) Queue(label, payload string) (bool, error) {

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()

	e, ok := d.entries[label]

	if !ok {
		e = &entry{}
		d.entries[label] = e
	}

	if !e.updated.IsZero() && now.Sub(e.updated) > d.window {
		e.count = 0
	}

	e.count++
	e.updated = now

	if e.count < d.threshold {
		return false, nil
	}

	delete(d.entries, label)

	if _, err := io.WriteString(d.w, payload+"\n"); err != nil {
		return false, fmt.Errorf("error writing signal %q for %s: %w", payload, label, err)
	}

	return true, nil
}

// Pending returns the current count of a label
func (d *Debouncer) Pending(label string) int {

	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.entries[label]; ok {
		return e.count
	}

	return 0
}
