package message

import (
	"errors"
	"fmt"

	"github.com/bnema/screenctl/internal/base128"
)

// ErrUnexpectedMessageType is matched by UnexpectedTypeError
var ErrUnexpectedMessageType = errors.New("unexpected message type")

// UnexpectedTypeError reports a tag missing from the catalog.
// The rest of the frame cannot be skipped, so the stream is out of sync after it.
type UnexpectedTypeError struct {
	Type Type
}

func (e *UnexpectedTypeError) Error() string {
	return fmt.Sprintf("unexpected message type %d", int32(e.Type))
}

func (e *UnexpectedTypeError) Is(target error) bool {
	return target == ErrUnexpectedMessageType
}

type decodeFunc func(in *base128.InputStream) (Message, error)

var decoders = map[Type]decodeFunc{
	TypeMouseEvent:            decodeMouseEvent,
	TypeMotionEvent:           decodeMotionEvent,
	TypeKeyEvent:              decodeKeyEvent,
	TypeTextInput:             decodeTextInput,
	TypeSetDeviceOrientation:  decodeSetDeviceOrientation,
	TypeSetMaxVideoResolution: decodeSetMaxVideoResolution,
}

// known reports whether t is part of the catalog
func known(t Type) bool {
	_, ok := decoders[t]
	return ok
}

// Decode reads one frame.
// A clean end of stream before the tag returns base128.ErrEndOfStream; once the
// tag is read any end of stream is premature.
func Decode(in *base128.InputStream) (Message, error) {
	tag, err := in.ReadInt32()
	if err != nil {
		return nil, err
	}

	decode, ok := decoders[Type(tag)]
	if !ok {
		return nil, &UnexpectedTypeError{Type: Type(tag)}
	}

	msg, err := decode(in)
	if err != nil {
		if errors.Is(err, base128.ErrEndOfStream) {
			return nil, fmt.Errorf("%s: %w", Type(tag), base128.ErrPrematureEndOfStream)
		}
		return nil, fmt.Errorf("%s: %w", Type(tag), err)
	}
	return msg, nil
}

func decodeMouseEvent(in *base128.InputStream) (Message, error) {
	var m MouseEvent
	var err error
	if m.X, err = in.ReadInt32(); err != nil {
		return nil, err
	}
	if m.Y, err = in.ReadInt32(); err != nil {
		return nil, err
	}
	if m.ButtonState, err = in.ReadUint32(); err != nil {
		return nil, err
	}
	if m.DisplayID, err = in.ReadInt32(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeMotionEvent(in *base128.InputStream) (Message, error) {
	n, err := in.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 || n > MaxPointers {
		return nil, fmt.Errorf("%w: %d pointers", base128.ErrInvalidFormat, n)
	}

	var m MotionEvent
	m.Pointers = make([]Pointer, n)
	for i := range m.Pointers {
		p := &m.Pointers[i]
		if p.X, err = in.ReadInt32(); err != nil {
			return nil, err
		}
		if p.Y, err = in.ReadInt32(); err != nil {
			return nil, err
		}
		if p.PointerID, err = in.ReadInt32(); err != nil {
			return nil, err
		}
	}
	for i := 1; i < len(m.Pointers); i++ {
		if m.Pointers[i].PointerID <= m.Pointers[i-1].PointerID {
			return nil, fmt.Errorf("%w: pointers not ordered by id", base128.ErrInvalidFormat)
		}
	}

	if m.Action, err = in.ReadInt32(); err != nil {
		return nil, err
	}
	if m.DisplayID, err = in.ReadInt32(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeKeyEvent(in *base128.InputStream) (Message, error) {
	action, err := in.ReadInt32()
	if err != nil {
		return nil, err
	}
	m := KeyEvent{Action: KeyAction(action)}
	switch m.Action {
	case KeyActionDown, KeyActionUp, KeyActionDownAndUp:
	default:
		return nil, fmt.Errorf("%w: unrecognized key action %d", base128.ErrInvalidFormat, action)
	}
	if m.KeyCode, err = in.ReadInt32(); err != nil {
		return nil, err
	}
	if m.MetaState, err = in.ReadUint32(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeTextInput(in *base128.InputStream) (Message, error) {
	text, err := in.ReadString16()
	if err != nil {
		return nil, err
	}
	return TextInput{Text: text}, nil
}

func decodeSetDeviceOrientation(in *base128.InputStream) (Message, error) {
	orientation, err := in.ReadUint32()
	if err != nil {
		return nil, err
	}
	return SetDeviceOrientation{Orientation: orientation}, nil
}

func decodeSetMaxVideoResolution(in *base128.InputStream) (Message, error) {
	var m SetMaxVideoResolution
	var err error
	if m.Width, err = in.ReadUint32(); err != nil {
		return nil, err
	}
	if m.Height, err = in.ReadUint32(); err != nil {
		return nil, err
	}
	return m, nil
}
