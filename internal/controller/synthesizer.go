package controller

import (
	"github.com/bnema/screenctl/internal/input"
	"github.com/bnema/screenctl/internal/message"
	"github.com/charmbracelet/log"
)

// mousePointerID is the only pointer a mouse drives.
// TODO: track one entry per pointer id once MotionEvent frames are synthesized.
const mousePointerID = 0

// Synthesizer turns mouse samples into Down/Move/Up gestures.
// It is not safe for concurrent use; the session worker owns it.
type Synthesizer struct {
	clock    Clock
	injector input.Injector
	pressed  pointerTable
	log      *log.Logger

	// OnEvent, if set, observes every event handed to the injector
	OnEvent func(event input.MotionEvent)
}

// NewSynthesizer creates a synthesizer delivering to injector
func NewSynthesizer(clock Clock, injector input.Injector, logger *log.Logger) *Synthesizer {
	return &Synthesizer{
		clock:    clock,
		injector: injector,
		log:      logger,
	}
}

// ProcessMouseEvent updates the pointer state for one mouse sample and injects the
// resulting event. It reports whether an event was emitted.
func (s *Synthesizer) ProcessMouseEvent(msg message.MouseEvent) bool {
	now := s.clock.UptimeMillis()
	pressure := msg.ButtonState & message.ButtonPrimary
	pos := input.Point{X: msg.X, Y: msg.Y}

	event := input.MotionEvent{
		DeviceID:    msg.DisplayID,
		EventTime:   now,
		ButtonState: msg.ButtonState,
		PointerIDs:  []int32{mousePointerID},
		Coords:      []input.Point{pos},
		Pressures:   []float32{float32(pressure)},
	}

	i := s.pressed.find(mousePointerID)
	switch {
	case i < 0 && pressure == 0:
		// Release without a tracked press
		return false
	case i < 0:
		event.Action = input.ActionDown
		event.DownTime = 0
		s.pressed.add(PressedPointer{PointerID: mousePointerID, PressTime: now, Last: pos})
	case pressure != 0:
		event.Action = input.ActionMove
		event.DownTime = now - s.pressed.pointers[i].PressTime
		s.pressed.pointers[i].Last = pos
	default:
		event.Action = input.ActionUp
		event.DownTime = now - s.pressed.pointers[i].PressTime
		s.pressed.remove(i)
	}

	s.inject(event)
	return true
}

// Pressed returns a copy of the tracked pointers
func (s *Synthesizer) Pressed() []PressedPointer {
	return s.pressed.snapshot()
}

func (s *Synthesizer) inject(event input.MotionEvent) {
	if s.OnEvent != nil {
		s.OnEvent(event)
	}
	// Injection failures stay on this side of the decode loop
	if err := s.injector.Inject(event); err != nil && s.log != nil {
		s.log.Warn("injection failed", "event", event, "err", err)
	}
}
