package controltest

import (
	"sync"

	"github.com/bnema/screenctl/internal/input"
)

// Recorder is an injector that keeps every event
type Recorder struct {
	mu     sync.Mutex
	events []input.MotionEvent
	err    error
	closed bool
}

// FailWith makes Inject return err after recording the event
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Inject implements input.Injector
func (r *Recorder) Inject(event input.MotionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

// Close implements input.Injector
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Events returns the recorded events
func (r *Recorder) Events() []input.MotionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]input.MotionEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Actions returns the action of every recorded event
func (r *Recorder) Actions() []input.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]input.Action, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

// Closed reports whether Close was called
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Clock is a manual clock
type Clock struct {
	mu  sync.Mutex
	now int64
}

// NewClock returns a clock reading start
func NewClock(start int64) *Clock {
	return &Clock{now: start}
}

// UptimeMillis returns the current reading
func (c *Clock) UptimeMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *Clock) Advance(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += ms
}
