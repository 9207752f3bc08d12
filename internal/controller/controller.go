// Package controller runs one control session: a worker that decodes frames from
// the byte channel and synthesizes input events from them.
package controller

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/bnema/screenctl/internal/base128"
	"github.com/bnema/screenctl/internal/input"
	"github.com/bnema/screenctl/internal/logger"
	"github.com/bnema/screenctl/internal/message"
	"github.com/charmbracelet/log"
)

// Observer is notified of session activity from the worker goroutine.
// Implementations must not block.
type Observer interface {
	FrameDecoded(msg message.Message)
	EventInjected(event input.MotionEvent)
	SessionEnded(err error)
}

// Stats counts session activity
type Stats struct {
	Frames          uint64
	Ignored         uint64
	Events          uint64
	DroppedReleases uint64
}

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the monotonic clock
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithBufferSize sets the read buffer capacity
func WithBufferSize(size int) Option {
	return func(c *Controller) { c.bufferSize = size }
}

// WithLogger replaces the session logger
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithObserver registers an observer
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// Controller owns one connection: its stream, pointer state and injector
type Controller struct {
	clock      Clock
	bufferSize int
	log        *log.Logger
	observers  []Observer

	stream   *base128.Stream
	in       *base128.InputStream
	synth    *Synthesizer
	injector input.Injector

	started   atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
	err       error

	frames          atomic.Uint64
	ignored         atomic.Uint64
	events          atomic.Uint64
	droppedReleases atomic.Uint64
}

// New creates a controller reading from channel and delivering to injector
func New(channel io.ReadCloser, injector input.Injector, opts ...Option) *Controller {
	c := &Controller{
		clock:    MonotonicClock{},
		log:      logger.Logger,
		injector: injector,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.stream = base128.NewStream(channel, c.bufferSize)
	c.in = base128.NewInputStream(c.stream)
	c.synth = NewSynthesizer(c.clock, injector, c.log)
	c.synth.OnEvent = func(event input.MotionEvent) {
		c.events.Add(1)
		for _, o := range c.observers {
			o.EventInjected(event)
		}
	}
	return c
}

// ErrAlreadyStarted is returned by Run when the worker already ran
var ErrAlreadyStarted = errors.New("controller already started")

// Start launches the worker goroutine
func (c *Controller) Start() {
	if c.started.CompareAndSwap(false, true) {
		c.log.Debug("controller starting")
		go c.run()
	}
}

// Run decodes and dispatches frames on the calling goroutine until the stream
// ends or fails. It returns nil on a clean end of stream.
func (c *Controller) Run() error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	return c.run()
}

func (c *Controller) run() error {
	defer close(c.done)

	err := c.loop()
	switch {
	case err == nil:
		c.log.Debug("end of command stream")
	default:
		c.log.Error("control stream failed", "err", err)
		c.err = err
	}

	for _, o := range c.observers {
		o.SessionEnded(c.err)
	}
	return c.err
}

func (c *Controller) loop() error {
	for {
		msg, err := message.Decode(c.in)
		if err != nil {
			if !base128.IsFatal(err) {
				return nil
			}
			return err
		}
		c.frames.Add(1)
		for _, o := range c.observers {
			o.FrameDecoded(msg)
		}
		c.process(msg)
	}
}

func (c *Controller) process(msg message.Message) {
	switch m := msg.(type) {
	case message.MouseEvent:
		if !c.synth.ProcessMouseEvent(m) {
			c.droppedReleases.Add(1)
		}
	default:
		c.ignored.Add(1)
		c.log.Error("unexpected message type", "type", msg.Type(), "message", msg)
	}
}

// Shutdown closes the channel, which ends the worker's pending read
func (c *Controller) Shutdown() {
	_ = c.stream.Close()
}

// Done is closed when the worker has stopped
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that stopped the worker, nil after a clean end of stream.
// It is only meaningful once Done is closed.
func (c *Controller) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close shuts the session down, waits for the worker and releases the injector
func (c *Controller) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.Shutdown()
		if c.started.CompareAndSwap(false, true) {
			close(c.done)
		}
		<-c.done
		err = c.injector.Close()
	})
	return err
}

// Pressed returns the tracked pointers. Call it only from the worker or after Done.
func (c *Controller) Pressed() []PressedPointer {
	return c.synth.Pressed()
}

// Stats returns the activity counters
func (c *Controller) Stats() Stats {
	return Stats{
		Frames:          c.frames.Load(),
		Ignored:         c.ignored.Load(),
		Events:          c.events.Load(),
		DroppedReleases: c.droppedReleases.Load(),
	}
}
