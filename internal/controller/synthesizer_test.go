package controller

import (
	"errors"
	"testing"

	"github.com/bnema/screenctl/internal/controltest"
	"github.com/bnema/screenctl/internal/input"
	"github.com/bnema/screenctl/internal/logger"
	"github.com/bnema/screenctl/internal/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSynthesizer() (*Synthesizer, *controltest.Clock, *controltest.Recorder) {
	clock := controltest.NewClock(1000)
	rec := &controltest.Recorder{}
	return NewSynthesizer(clock, rec, logger.Logger), clock, rec
}

func TestSynthesizer_Gesture(t *testing.T) {
	s, clock, rec := newTestSynthesizer()

	assert.True(t, s.ProcessMouseEvent(message.MouseEvent{X: 10, Y: 20, ButtonState: 1}))
	require.Len(t, s.Pressed(), 1)
	assert.Equal(t, PressedPointer{PointerID: 0, PressTime: 1000, Last: input.Point{X: 10, Y: 20}}, s.Pressed()[0])

	clock.Advance(16)
	assert.True(t, s.ProcessMouseEvent(message.MouseEvent{X: 15, Y: 25, ButtonState: 1}))

	clock.Advance(34)
	assert.True(t, s.ProcessMouseEvent(message.MouseEvent{X: 15, Y: 25, ButtonState: 0}))

	events := rec.Events()
	require.Len(t, events, 3)
	assert.Equal(t, []input.Action{input.ActionDown, input.ActionMove, input.ActionUp}, rec.Actions())

	assert.Equal(t, int64(0), events[0].DownTime)
	assert.Equal(t, int64(1000), events[0].EventTime)
	assert.Equal(t, []input.Point{{X: 10, Y: 20}}, events[0].Coords)
	assert.Equal(t, []float32{1}, events[0].Pressures)

	assert.Equal(t, int64(16), events[1].DownTime)
	assert.Equal(t, int64(1016), events[1].EventTime)
	assert.Equal(t, []input.Point{{X: 15, Y: 25}}, events[1].Coords)

	assert.Equal(t, int64(50), events[2].DownTime)
	assert.Equal(t, int64(1050), events[2].EventTime)
	assert.Equal(t, []float32{0}, events[2].Pressures)

	for _, e := range events {
		assert.Equal(t, 1, e.PointerCount())
		assert.Equal(t, []int32{0}, e.PointerIDs)
	}
	assert.Empty(t, s.Pressed())
}

func TestSynthesizer_ReleaseWithoutPress(t *testing.T) {
	s, _, rec := newTestSynthesizer()

	assert.False(t, s.ProcessMouseEvent(message.MouseEvent{X: 1, Y: 1, ButtonState: 0}))
	assert.False(t, s.ProcessMouseEvent(message.MouseEvent{X: 2, Y: 2, ButtonState: 0}))

	assert.Empty(t, rec.Events())
	assert.Empty(t, s.Pressed())
}

func TestSynthesizer_OnlyPrimaryButtonPresses(t *testing.T) {
	s, _, rec := newTestSynthesizer()

	// Secondary button alone carries no pressure
	assert.False(t, s.ProcessMouseEvent(message.MouseEvent{X: 1, Y: 1, ButtonState: message.ButtonSecondary}))
	assert.Empty(t, rec.Events())

	assert.True(t, s.ProcessMouseEvent(message.MouseEvent{X: 1, Y: 1, ButtonState: message.ButtonPrimary | message.ButtonSecondary}))
	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, input.ActionDown, events[0].Action)
	assert.Equal(t, uint32(3), events[0].ButtonState)
}

func TestSynthesizer_NewGestureAfterRelease(t *testing.T) {
	s, clock, rec := newTestSynthesizer()

	s.ProcessMouseEvent(message.MouseEvent{X: 1, Y: 1, ButtonState: 1})
	clock.Advance(10)
	s.ProcessMouseEvent(message.MouseEvent{X: 1, Y: 1, ButtonState: 0})
	clock.Advance(500)
	s.ProcessMouseEvent(message.MouseEvent{X: 5, Y: 5, ButtonState: 1})
	clock.Advance(7)
	s.ProcessMouseEvent(message.MouseEvent{X: 6, Y: 6, ButtonState: 1})

	events := rec.Events()
	require.Len(t, events, 4)
	assert.Equal(t, input.ActionDown, events[2].Action)
	assert.Equal(t, int64(0), events[2].DownTime, "a new gesture starts from zero")
	assert.Equal(t, int64(7), events[3].DownTime, "down time is relative to the latest press")
	require.Len(t, s.Pressed(), 1)
	assert.Equal(t, int64(1510), s.Pressed()[0].PressTime)
	assert.Equal(t, input.Point{X: 6, Y: 6}, s.Pressed()[0].Last)
}

func TestSynthesizer_DisplayID(t *testing.T) {
	s, _, rec := newTestSynthesizer()

	s.ProcessMouseEvent(message.MouseEvent{X: 1, Y: 1, ButtonState: 1, DisplayID: 2})
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, int32(2), rec.Events()[0].DeviceID)
}

func TestSynthesizer_InjectionFailureKeepsState(t *testing.T) {
	s, _, rec := newTestSynthesizer()
	rec.FailWith(errors.New("injection refused"))

	assert.True(t, s.ProcessMouseEvent(message.MouseEvent{X: 1, Y: 1, ButtonState: 1}))
	assert.Len(t, s.Pressed(), 1, "pointer state does not depend on injection success")

	assert.True(t, s.ProcessMouseEvent(message.MouseEvent{X: 1, Y: 1, ButtonState: 0}))
	assert.Empty(t, s.Pressed())
	assert.Len(t, rec.Events(), 2)
}

func TestPointerTable(t *testing.T) {
	var table pointerTable

	table.add(PressedPointer{PointerID: 0, PressTime: 1})
	table.add(PressedPointer{PointerID: 1, PressTime: 2})
	table.add(PressedPointer{PointerID: 0, PressTime: 3})

	assert.Equal(t, 2, table.len(), "one entry per pointer id")
	assert.Equal(t, 0, table.find(0))
	assert.Equal(t, int64(3), table.pointers[0].PressTime)
	assert.Equal(t, -1, table.find(5))

	table.remove(table.find(0))
	assert.Equal(t, []PressedPointer{{PointerID: 1, PressTime: 2}}, table.snapshot())
}

func TestMonotonicClock(t *testing.T) {
	var c MonotonicClock
	a := c.UptimeMillis()
	b := c.UptimeMillis()
	assert.Positive(t, a)
	assert.GreaterOrEqual(t, b, a)
}
