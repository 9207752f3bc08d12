package input

import "fmt"

// Action is the action of a synthesized motion event
type Action int32

const (
	ActionDown Action = 0
	ActionUp   Action = 1
	ActionMove Action = 2
)

func (a Action) String() string {
	switch a {
	case ActionDown:
		return "down"
	case ActionUp:
		return "up"
	case ActionMove:
		return "move"
	default:
		return fmt.Sprintf("Action(%d)", int32(a))
	}
}

// Point is a position on a display in its original orientation
type Point struct {
	X int32
	Y int32
}

// MotionEvent describes one synthesized pointer event.
// PointerIDs, Coords and Pressures are parallel slices, one entry per pointer.
type MotionEvent struct {
	DeviceID    int32
	Action      Action
	EventTime   int64 // monotonic milliseconds
	DownTime    int64 // milliseconds since the gesture started
	ButtonState uint32
	PointerIDs  []int32
	Coords      []Point
	Pressures   []float32
}

// PointerCount returns the number of pointers carried by the event
func (e MotionEvent) PointerCount() int {
	return len(e.PointerIDs)
}

func (e MotionEvent) String() string {
	return fmt.Sprintf("MotionEvent(%s device=%d time=%d down=%d pointers=%d coords=%v)",
		e.Action, e.DeviceID, e.EventTime, e.DownTime, e.PointerCount(), e.Coords)
}
