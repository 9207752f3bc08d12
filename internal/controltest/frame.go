// Package controltest builds control-stream bytes for tests.
package controltest

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"google.golang.org/protobuf/encoding/protowire"
)

// Frame accumulates encoded values
type Frame struct {
	buf []byte
}

// NewFrame starts a frame with the given type tag
func NewFrame(tag int32) *Frame {
	return (&Frame{}).Int32(tag)
}

// Int32 appends a 32-bit varint. Negative values use their 32-bit two's complement.
func (f *Frame) Int32(v int32) *Frame {
	f.buf = protowire.AppendVarint(f.buf, uint64(uint32(v)))
	return f
}

// Int16 appends a 16-bit varint. Negative values use their 16-bit two's complement.
func (f *Frame) Int16(v int16) *Frame {
	f.buf = protowire.AppendVarint(f.buf, uint64(uint16(v)))
	return f
}

// Uint32 appends an unsigned 32-bit varint
func (f *Frame) Uint32(v uint32) *Frame {
	f.buf = protowire.AppendVarint(f.buf, uint64(v))
	return f
}

// Int64 appends a 64-bit varint
func (f *Frame) Int64(v int64) *Frame {
	f.buf = protowire.AppendVarint(f.buf, uint64(v))
	return f
}

// Bool appends a boolean byte
func (f *Frame) Bool(v bool) *Frame {
	if v {
		f.buf = append(f.buf, 1)
	} else {
		f.buf = append(f.buf, 0)
	}
	return f
}

// String16 appends a present string as UTF-16 code units, low byte first
func (f *Frame) String16(units ...uint16) *Frame {
	f.Int32(int32(len(units) + 1))
	for _, u := range units {
		f.buf = append(f.buf, byte(u), byte(u>>8))
	}
	return f
}

// NullString16 appends the null string
func (f *Frame) NullString16() *Frame {
	return f.Int32(0)
}

// Raw appends bytes verbatim
func (f *Frame) Raw(b ...byte) *Frame {
	f.buf = append(f.buf, b...)
	return f
}

// Bytes returns the encoded frame
func (f *Frame) Bytes() []byte {
	return f.buf
}

// MouseEvent encodes a mouse event frame
func MouseEvent(x, y int32, buttons uint32, displayID int32) []byte {
	return NewFrame(0).Int32(x).Int32(y).Uint32(buttons).Int32(displayID).Bytes()
}

// Join concatenates frames into one stream
func Join(frames ...[]byte) []byte {
	return bytes.Join(frames, nil)
}

// Channel is an in-memory byte channel returning data in fixed chunks.
// Close unblocks nothing since reads never block; it makes later reads fail.
type Channel struct {
	mu     sync.Mutex
	data   []byte
	chunk  int
	reads  int
	err    error
	closed bool
}

// NewChannel returns a channel serving data; chunk limits the bytes per Read
// (0 means no limit).
func NewChannel(data []byte, chunk int) *Channel {
	return &Channel{data: data, chunk: chunk}
}

// FailWith makes the channel return err once the data is exhausted
func (c *Channel) FailWith(err error) *Channel {
	c.err = err
	return c
}

// Read implements io.Reader
func (c *Channel) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reads++
	if c.closed {
		return 0, errors.New("read on closed channel")
	}
	if len(c.data) == 0 {
		if c.err != nil {
			return 0, c.err
		}
		return 0, io.EOF
	}
	n := len(p)
	if c.chunk > 0 && n > c.chunk {
		n = c.chunk
	}
	n = copy(p[:n], c.data)
	c.data = c.data[n:]
	return n, nil
}

// Close implements io.Closer
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Reads returns how many times Read was called
func (c *Channel) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Closed reports whether Close was called
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
