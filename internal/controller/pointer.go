package controller

import (
	"github.com/bnema/screenctl/internal/input"
)

// PressedPointer is a pointer held down since PressTime
type PressedPointer struct {
	PointerID int32
	PressTime int64
	Last      input.Point
}

// pointerTable keeps at most one entry per pointer id, in press order
type pointerTable struct {
	pointers []PressedPointer
}

func (t *pointerTable) find(id int32) int {
	for i := range t.pointers {
		if t.pointers[i].PointerID == id {
			return i
		}
	}
	return -1
}

func (t *pointerTable) add(p PressedPointer) {
	if i := t.find(p.PointerID); i >= 0 {
		t.pointers[i] = p
		return
	}
	t.pointers = append(t.pointers, p)
}

func (t *pointerTable) remove(i int) {
	t.pointers = append(t.pointers[:i], t.pointers[i+1:]...)
}

func (t *pointerTable) len() int {
	return len(t.pointers)
}

func (t *pointerTable) snapshot() []PressedPointer {
	out := make([]PressedPointer, len(t.pointers))
	copy(out, t.pointers)
	return out
}
