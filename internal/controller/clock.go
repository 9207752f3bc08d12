package controller

import (
	"golang.org/x/sys/unix"
)

// Clock supplies monotonic milliseconds. Values are only meaningful as deltas.
type Clock interface {
	UptimeMillis() int64
}

// MonotonicClock reads CLOCK_MONOTONIC, independent of wall-clock changes
type MonotonicClock struct{}

// UptimeMillis implements Clock
func (MonotonicClock) UptimeMillis() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return ts.Sec*1000 + ts.Nsec/1_000_000
}
