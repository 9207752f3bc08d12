// Package message defines the control messages carried on the base-128 stream.
//
// A frame is a varint type tag followed by the fixed field layout of that type.
// Frames carry no length prefix, so the tag set is closed and versioned together
// with the protocol: a receiver cannot skip a frame whose tag it does not know.
package message

import (
	"fmt"

	"github.com/bnema/screenctl/internal/base128"
)

// Type is the tag that starts every frame
type Type int32

const (
	TypeMouseEvent            Type = 0
	TypeMotionEvent           Type = 1
	TypeKeyEvent              Type = 2
	TypeTextInput             Type = 3
	TypeSetDeviceOrientation  Type = 4
	TypeSetMaxVideoResolution Type = 5
)

// String returns the name of the message type
func (t Type) String() string {
	switch t {
	case TypeMouseEvent:
		return "MouseEvent"
	case TypeMotionEvent:
		return "MotionEvent"
	case TypeKeyEvent:
		return "KeyEvent"
	case TypeTextInput:
		return "TextInput"
	case TypeSetDeviceOrientation:
		return "SetDeviceOrientation"
	case TypeSetMaxVideoResolution:
		return "SetMaxVideoResolution"
	default:
		return fmt.Sprintf("Type(%d)", int32(t))
	}
}

// Message is one decoded control message.
// The set of implementations is closed to this package.
type Message interface {
	Type() Type
	fmt.Stringer
	isMessage()
}

// Mouse button bits of MouseEvent.ButtonState
const (
	ButtonPrimary   uint32 = 1 << 0
	ButtonSecondary uint32 = 1 << 1
	ButtonTertiary  uint32 = 1 << 2
)

// MouseEvent is a mouse button being pressed or released or the mouse being moved.
// Coordinates refer to the display in its original orientation.
type MouseEvent struct {
	X           int32
	Y           int32
	ButtonState uint32
	// Zero is the main display
	DisplayID int32
}

func (MouseEvent) Type() Type { return TypeMouseEvent }
func (MouseEvent) isMessage() {}

func (m MouseEvent) String() string {
	return fmt.Sprintf("MouseEvent(x=%d, y=%d, buttons=%#x, display=%d)", m.X, m.Y, m.ButtonState, m.DisplayID)
}

// MaxPointers is the largest number of pointers in a MotionEvent
const MaxPointers = 2

// Pointer is one touch of a MotionEvent
type Pointer struct {
	X int32
	Y int32
	// Stays the same while the touch point moves
	PointerID int32
}

// MotionEvent actions
const (
	MotionActionDown        int32 = 0
	MotionActionUp          int32 = 1
	MotionActionMove        int32 = 2
	MotionActionCancel      int32 = 3
	MotionActionOutside     int32 = 4
	MotionActionPointerDown int32 = 5
	MotionActionPointerUp   int32 = 6
)

// MotionEvent is a touch event with up to MaxPointers pointers ordered by id
type MotionEvent struct {
	Pointers  []Pointer
	Action    int32
	DisplayID int32
}

func (MotionEvent) Type() Type { return TypeMotionEvent }
func (MotionEvent) isMessage() {}

func (m MotionEvent) String() string {
	return fmt.Sprintf("MotionEvent(pointers=%v, action=%d, display=%d)", m.Pointers, m.Action, m.DisplayID)
}

// KeyAction is the action of a KeyEvent
type KeyAction int32

const (
	KeyActionDown      KeyAction = 0
	KeyActionUp        KeyAction = 1
	KeyActionDownAndUp KeyAction = 8
)

func (a KeyAction) String() string {
	switch a {
	case KeyActionDown:
		return "down"
	case KeyActionUp:
		return "up"
	case KeyActionDownAndUp:
		return "down-and-up"
	default:
		return fmt.Sprintf("KeyAction(%d)", int32(a))
	}
}

// KeyEvent is a key being pressed or released on a keyboard
type KeyEvent struct {
	Action    KeyAction
	KeyCode   int32
	MetaState uint32
}

func (KeyEvent) Type() Type { return TypeKeyEvent }
func (KeyEvent) isMessage() {}

func (m KeyEvent) String() string {
	return fmt.Sprintf("KeyEvent(action=%s, keycode=%d, meta=%#x)", m.Action, m.KeyCode, m.MetaState)
}

// TextInput is one or more characters typed on a keyboard
type TextInput struct {
	Text base128.String16
}

func (TextInput) Type() Type { return TypeTextInput }
func (TextInput) isMessage() {}

func (m TextInput) String() string {
	if !m.Text.Valid {
		return "TextInput(null)"
	}
	return fmt.Sprintf("TextInput(%q)", m.Text.String())
}

// SetDeviceOrientation rotates the device
type SetDeviceOrientation struct {
	Orientation uint32
}

func (SetDeviceOrientation) Type() Type { return TypeSetDeviceOrientation }
func (SetDeviceOrientation) isMessage() {}

func (m SetDeviceOrientation) String() string {
	return fmt.Sprintf("SetDeviceOrientation(%d)", m.Orientation)
}

// SetMaxVideoResolution limits the display streaming resolution
type SetMaxVideoResolution struct {
	Width  uint32
	Height uint32
}

func (SetMaxVideoResolution) Type() Type { return TypeSetMaxVideoResolution }
func (SetMaxVideoResolution) isMessage() {}

func (m SetMaxVideoResolution) String() string {
	return fmt.Sprintf("SetMaxVideoResolution(%dx%d)", m.Width, m.Height)
}
