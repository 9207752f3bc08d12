// Package base128 decodes the base-128 control stream: a buffered byte reader over an
// opaque channel and the varint, boolean and UTF-16 string primitives built on it.
package base128

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the capacity of the read buffer
const DefaultBufferSize = 4096

// ByteReader is the single-byte source the codec reads from
type ByteReader interface {
	ReadByte() (byte, error)
}

// Stream buffers reads from a byte channel.
// The buffer is refilled by one bulk read only once every buffered byte is consumed.
type Stream struct {
	ch      io.ReadCloser
	buf     []byte
	offset  int
	dataEnd int
	pending error

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewStream creates a stream over ch with a buffer of the given capacity.
// A non-positive size selects DefaultBufferSize.
func NewStream(ch io.ReadCloser, size int) *Stream {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Stream{
		ch:  ch,
		buf: make([]byte, size),
	}
}

// ReadByte returns the next byte of the channel
func (s *Stream) ReadByte() (byte, error) {
	if s.offset == s.dataEnd {
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
	b := s.buf[s.offset]
	s.offset++
	return b, nil
}

// buffered returns the number of bytes read from the channel but not yet consumed
func (s *Stream) buffered() int {
	return s.dataEnd - s.offset
}

// Close releases the channel. It may be called while ReadByte is blocked in
// another goroutine; the pending read then reports ErrEndOfStream.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.ch.Close()
	})
	return s.closeErr
}

func (s *Stream) fill() error {
	if s.pending != nil {
		err := s.pending
		s.pending = nil
		return s.classify(err)
	}

	n, err := s.ch.Read(s.buf)
	if n > 0 {
		s.offset = 0
		s.dataEnd = n
		// Bytes come first, the error surfaces on the next refill
		s.pending = err
		return nil
	}
	if err == nil {
		return ErrEndOfStream
	}
	return s.classify(err)
}

func (s *Stream) classify(err error) error {
	if errors.Is(err, io.EOF) || s.closed.Load() ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return ErrEndOfStream
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}
