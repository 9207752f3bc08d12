package input

import (
	"os"
	"testing"
)

// TestUInputPermissions checks if we have the necessary permissions
func TestUInputPermissions(t *testing.T) {
	if _, err := os.Stat(uinputPath); os.IsNotExist(err) {
		t.Skip("/dev/uinput does not exist - uinput module not loaded")
	}

	if err := CheckUInputAccess(""); err != nil {
		t.Skipf("%v", err)
	}
}

// TestUInputInjector_Integration performs a real gesture if permissions allow
func TestUInputInjector_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	inj, err := newUInputInjector("screenctl test touchpad", 1080, 1920)
	if err != nil {
		t.Skipf("Cannot create uinput injector: %v", err)
	}
	defer func() { _ = inj.Close() }()

	gesture := []MotionEvent{
		{Action: ActionDown, PointerIDs: []int32{0}, Coords: []Point{{X: 100, Y: 100}}, Pressures: []float32{1}},
		{Action: ActionMove, PointerIDs: []int32{0}, Coords: []Point{{X: 150, Y: 120}}, Pressures: []float32{1}},
		{Action: ActionUp, PointerIDs: []int32{0}, Coords: []Point{{X: 150, Y: 120}}, Pressures: []float32{0}},
	}
	for _, ev := range gesture {
		if err := inj.Inject(ev); err != nil {
			t.Errorf("Failed to inject %s: %v", ev, err)
		}
	}
	if inj.down {
		t.Error("touch still down after the up event")
	}

	if err := inj.Inject(MotionEvent{Action: ActionMove}); err == nil {
		t.Error("expected error for an event without pointers")
	}

	if err := inj.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := inj.Inject(gesture[0]); err != ErrInjectorClosed {
		t.Errorf("expected ErrInjectorClosed, got %v", err)
	}
}
