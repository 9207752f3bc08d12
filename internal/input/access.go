package input

import (
	"errors"
	"fmt"
	"os"
)

// ErrNoUInputAccess is returned when the uinput device cannot be opened for writing
var ErrNoUInputAccess = errors.New("no write access to uinput")

// CheckUInputAccess tests if path can be opened for writing.
// An empty path checks /dev/uinput.
func CheckUInputAccess(path string) error {
	if path == "" {
		path = uinputPath
	}
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s (run as root or add a udev rule for the input group)", ErrNoUInputAccess, path)
		}
		return fmt.Errorf("%w: %w", ErrNoUInputAccess, err)
	}
	return file.Close()
}
