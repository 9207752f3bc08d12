package input

import (
	"fmt"
	"sync"

	"github.com/ThomasT75/uinput"
)

const uinputPath = "/dev/uinput"

// uInputInjector replays events on an absolute uinput touchpad
type uInputInjector struct {
	pad    uinput.TouchPad
	width  int32
	height int32
	mu     sync.Mutex
	closed bool
	down   bool
}

func newUInputInjector(name string, width, height int32) (*uInputInjector, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: display size %dx%d", ErrInvalidEvent, width, height)
	}
	if name == "" {
		name = "screenctl touchpad"
	}
	pad, err := uinput.CreateTouchPad(uinputPath, []byte(name), 0, width-1, 0, height-1)
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual touchpad: %w", err)
	}
	return &uInputInjector{
		pad:    pad,
		width:  width,
		height: height,
	}, nil
}

// Inject implements Injector. Only the first pointer is replayed.
func (h *uInputInjector) Inject(event MotionEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrInjectorClosed
	}
	if event.PointerCount() == 0 || len(event.Coords) == 0 {
		return fmt.Errorf("%w: no pointers", ErrInvalidEvent)
	}

	p := event.Coords[0]
	if err := h.pad.MoveTo(clamp(p.X, h.width), clamp(p.Y, h.height)); err != nil {
		return fmt.Errorf("failed to move: %w", err)
	}

	switch event.Action {
	case ActionDown:
		if h.down {
			return nil
		}
		h.down = true
		return h.pad.TouchDown()
	case ActionMove:
		return nil
	case ActionUp:
		if !h.down {
			return nil
		}
		h.down = false
		return h.pad.TouchUp()
	default:
		return fmt.Errorf("%w: action %s", ErrInvalidEvent, event.Action)
	}
}

// Close releases the virtual device, lifting a touch still in progress
func (h *uInputInjector) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.down {
		_ = h.pad.TouchUp()
		h.down = false
	}
	return h.pad.Close()
}

func clamp(v, size int32) int32 {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}
