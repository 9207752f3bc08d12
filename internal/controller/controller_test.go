package controller

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/bnema/screenctl/internal/base128"
	"github.com/bnema/screenctl/internal/controltest"
	"github.com/bnema/screenctl/internal/input"
	"github.com/bnema/screenctl/internal/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	frames []message.Type
	events int
	ended  []error
}

func (o *recordingObserver) FrameDecoded(msg message.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.frames = append(o.frames, msg.Type())
}

func (o *recordingObserver) EventInjected(input.MotionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events++
}

func (o *recordingObserver) SessionEnded(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ended = append(o.ended, err)
}

func waitDone(t *testing.T, c *Controller) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("controller worker did not stop")
	}
}

func TestController_GestureFromStream(t *testing.T) {
	data := controltest.Join(
		controltest.MouseEvent(10, 20, 1, 0),
		controltest.MouseEvent(15, 25, 1, 0),
		controltest.MouseEvent(15, 25, 0, 0),
	)
	rec := &controltest.Recorder{}
	obs := &recordingObserver{}
	// Three-byte chunks split frames across refills
	c := New(controltest.NewChannel(data, 3), rec,
		WithClock(controltest.NewClock(0)),
		WithBufferSize(8),
		WithObserver(obs),
	)

	require.NoError(t, c.Run())
	assert.NoError(t, c.Err())
	assert.Equal(t, []input.Action{input.ActionDown, input.ActionMove, input.ActionUp}, rec.Actions())
	assert.Empty(t, c.Pressed())
	assert.Equal(t, Stats{Frames: 3, Events: 3}, c.Stats())

	assert.Equal(t, []message.Type{message.TypeMouseEvent, message.TypeMouseEvent, message.TypeMouseEvent}, obs.frames)
	assert.Equal(t, 3, obs.events)
	assert.Equal(t, []error{nil}, obs.ended)
}

func TestController_ReleaseWithoutPress(t *testing.T) {
	rec := &controltest.Recorder{}
	c := New(controltest.NewChannel(controltest.MouseEvent(5, 5, 0, 0), 0), rec)

	require.NoError(t, c.Run())
	assert.Empty(t, rec.Events())
	assert.Empty(t, c.Pressed())
	assert.Equal(t, uint64(1), c.Stats().DroppedReleases)
}

func TestController_IgnoresOtherMessages(t *testing.T) {
	data := controltest.Join(
		controltest.NewFrame(int32(message.TypeKeyEvent)).Int32(0).Int32(29).Uint32(0).Bytes(),
		controltest.NewFrame(int32(message.TypeSetMaxVideoResolution)).Uint32(640).Uint32(480).Bytes(),
		controltest.MouseEvent(1, 1, 1, 0),
	)
	rec := &controltest.Recorder{}
	c := New(controltest.NewChannel(data, 0), rec)

	require.NoError(t, c.Run())
	assert.Equal(t, []input.Action{input.ActionDown}, rec.Actions())
	assert.Equal(t, Stats{Frames: 3, Ignored: 2, Events: 1}, c.Stats())
}

func TestController_UnexpectedTypeStopsWorker(t *testing.T) {
	data := controltest.Join(
		controltest.MouseEvent(1, 1, 1, 0),
		controltest.NewFrame(99).Bytes(),
		// Never reached: the stream is out of sync after the unknown tag
		controltest.MouseEvent(2, 2, 1, 0),
		controltest.MouseEvent(2, 2, 0, 0),
	)
	rec := &controltest.Recorder{}
	c := New(controltest.NewChannel(data, 0), rec)
	c.Start()
	waitDone(t, c)

	assert.ErrorIs(t, c.Err(), message.ErrUnexpectedMessageType)
	assert.Equal(t, []input.Action{input.ActionDown}, rec.Actions())
	assert.Equal(t, uint64(1), c.Stats().Frames)
}

func TestController_FatalErrors(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name    string
		channel *controltest.Channel
		wantErr error
	}{
		{
			name:    "premature end of stream",
			channel: controltest.NewChannel(controltest.NewFrame(0).Int32(10).Bytes(), 0),
			wantErr: base128.ErrPrematureEndOfStream,
		},
		{
			name:    "invalid varint",
			channel: controltest.NewChannel(controltest.NewFrame(0).Raw(0xFF, 0xFF, 0xFF, 0xFF, 0x7F).Bytes(), 0),
			wantErr: base128.ErrInvalidFormat,
		},
		{
			name:    "i/o error",
			channel: controltest.NewChannel(controltest.MouseEvent(1, 1, 0, 0), 0).FailWith(boom),
			wantErr: base128.ErrIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			c := New(tt.channel, &controltest.Recorder{}, WithObserver(obs))

			err := c.Run()
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, c.Err(), tt.wantErr)
			require.Len(t, obs.ended, 1)
			assert.ErrorIs(t, obs.ended[0], tt.wantErr)
		})
	}
}

func TestController_ShutdownUnblocksWorker(t *testing.T) {
	server, client := net.Pipe()
	defer func() { _ = client.Close() }()

	rec := &controltest.Recorder{}
	c := New(server, rec, WithClock(controltest.NewClock(0)))
	c.Start()

	_, err := client.Write(controltest.MouseEvent(3, 4, 1, 0))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return c.Stats().Events == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	waitDone(t, c)

	assert.NoError(t, c.Err(), "closing the channel is a clean end of stream")
	assert.True(t, rec.Closed(), "Close releases the injector after the worker stops")
	assert.NoError(t, c.Close(), "Close is idempotent")
}

func TestController_CloseBeforeStart(t *testing.T) {
	rec := &controltest.Recorder{}
	ch := controltest.NewChannel(nil, 0)
	c := New(ch, rec)

	require.NoError(t, c.Close())
	waitDone(t, c)
	assert.True(t, ch.Closed())
	assert.True(t, rec.Closed())
	assert.ErrorIs(t, c.Run(), ErrAlreadyStarted)
}

func TestController_RunTwice(t *testing.T) {
	c := New(controltest.NewChannel(nil, 0), &controltest.Recorder{})
	require.NoError(t, c.Run())
	assert.ErrorIs(t, c.Run(), ErrAlreadyStarted)
}
