package base128

import "errors"

var (
	// ErrEndOfStream is returned when the channel closes cleanly between values
	ErrEndOfStream = errors.New("end of stream")
	// ErrIO is returned when the underlying channel read fails
	ErrIO = errors.New("i/o error")
	// ErrInvalidFormat is returned for malformed varints, booleans and string lengths
	ErrInvalidFormat = errors.New("invalid format")
	// ErrPrematureEndOfStream is returned when the channel closes in the middle of a value
	ErrPrematureEndOfStream = errors.New("premature end of stream")
)

// IsFatal reports whether err must terminate the connection.
// Only a clean end of stream is not fatal.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrEndOfStream)
}

// premature converts a clean end of stream observed inside a value.
func premature(err error) error {
	if errors.Is(err, ErrEndOfStream) {
		return ErrPrematureEndOfStream
	}
	return err
}
