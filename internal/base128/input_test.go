package base128

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/bnema/screenctl/internal/controltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inputOf(b ...byte) *InputStream {
	return NewInputStream(NewStream(io.NopCloser(bytes.NewReader(b)), 0))
}

func TestReadInt16(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    int16
		wantErr error
	}{
		{name: "zero", data: []byte{0x00}, want: 0},
		{name: "single byte max", data: []byte{0x7F}, want: 127},
		{name: "two bytes", data: []byte{0xFF, 0x01}, want: 255},
		{name: "all ones", data: []byte{0xFF, 0xFF, 0x03}, want: -1},
		{name: "tail bits truncated", data: []byte{0x80, 0x80, 0x80, 0x03}, want: 0},
		{name: "tail bit 2 set", data: []byte{0x80, 0x80, 0x80, 0x04}, wantErr: ErrInvalidFormat},
		{name: "tail continuation", data: []byte{0x80, 0x80, 0x80, 0x80}, wantErr: ErrInvalidFormat},
		{name: "empty", data: nil, wantErr: ErrEndOfStream},
		{name: "truncated", data: []byte{0x80}, wantErr: ErrPrematureEndOfStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inputOf(tt.data...).ReadInt16()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadInt32(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    int32
		wantErr error
	}{
		{name: "zero", data: []byte{0x00}, want: 0},
		{name: "300", data: []byte{0xAC, 0x02}, want: 300},
		{name: "max int32", data: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x07}, want: math.MaxInt32},
		{name: "minus one", data: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}, want: -1},
		{name: "tail bit 4 set", data: []byte{0x80, 0x80, 0x80, 0x80, 0x10}, wantErr: ErrInvalidFormat},
		{name: "tail continuation", data: []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}, wantErr: ErrInvalidFormat},
		{name: "empty", data: nil, wantErr: ErrEndOfStream},
		{name: "truncated after continuation", data: []byte{0xFF, 0xFF}, wantErr: ErrPrematureEndOfStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inputOf(tt.data...).ReadInt32()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadInt16_RoundTrip(t *testing.T) {
	values := []int16{0, 1, 127, 128, 16383, math.MaxInt16, -1, math.MinInt16}
	for _, v := range values {
		in := inputOf((&controltest.Frame{}).Int16(v).Bytes()...)
		got, err := in.ReadInt16()
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got)
	}

	// A 32-bit encoding of a negative value overflows the 16-bit tail
	_, err := inputOf((&controltest.Frame{}).Int32(-1).Bytes()...).ReadInt16()
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestReadInt32_RoundTrip(t *testing.T) {
	values := []int32{0, 1, 127, 128, 16383, 16384, 1 << 20, 1 << 27, math.MaxInt32, -1, math.MinInt32}
	for _, v := range values {
		in := inputOf(controltest.NewFrame(v).Bytes()...)
		got, err := in.ReadInt32()
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got)
	}
}

func TestReadInt64(t *testing.T) {
	ones := bytes.Repeat([]byte{0xFF}, 9)

	tests := []struct {
		name    string
		data    []byte
		want    int64
		wantErr error
	}{
		{name: "zero", data: []byte{0x00}, want: 0},
		{name: "minus one", data: append(append([]byte{}, ones...), 0x01), want: -1},
		{name: "tail bit 1 set", data: append(append([]byte{}, ones...), 0x02), wantErr: ErrInvalidFormat},
		{name: "tail bit 6 set", data: append(append([]byte{}, ones...), 0x40), wantErr: ErrInvalidFormat},
		{name: "tail continuation", data: append(append([]byte{}, ones...), 0x81), wantErr: ErrInvalidFormat},
		{name: "truncated", data: ones, wantErr: ErrPrematureEndOfStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inputOf(tt.data...).ReadInt64()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadInt64_RoundTrip(t *testing.T) {
	values := []int64{0, 1, 300, 1 << 35, math.MaxInt64, -1, math.MinInt64}
	for _, v := range values {
		in := inputOf((&controltest.Frame{}).Int64(v).Bytes()...)
		got, err := in.ReadInt64()
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got)
	}
}

func TestReadBool(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    bool
		wantErr error
	}{
		{name: "false", data: []byte{0x00}, want: false},
		{name: "true", data: []byte{0x01}, want: true},
		{name: "two", data: []byte{0x02}, wantErr: ErrInvalidFormat},
		{name: "high bit", data: []byte{0x81}, wantErr: ErrInvalidFormat},
		{name: "empty", data: nil, wantErr: ErrEndOfStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inputOf(tt.data...).ReadBool()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadString16(t *testing.T) {
	t.Run("null", func(t *testing.T) {
		s, err := inputOf(0x00).ReadString16()
		require.NoError(t, err)
		assert.False(t, s.Valid)
		assert.Empty(t, s.Units)
	})

	t.Run("present empty", func(t *testing.T) {
		s, err := inputOf(0x01).ReadString16()
		require.NoError(t, err)
		assert.True(t, s.Valid)
		assert.Empty(t, s.Units)
		assert.Equal(t, "", s.String())
	})

	t.Run("two code units", func(t *testing.T) {
		in := inputOf(0x03, 'h', 0x00, 'i', 0x00, 0x2A)
		s, err := in.ReadString16()
		require.NoError(t, err)
		assert.True(t, s.Valid)
		assert.Equal(t, []uint16{'h', 'i'}, s.Units)
		assert.Equal(t, "hi", s.String())

		// Exactly four raw bytes were consumed
		next, err := in.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte(0x2A), next)
	})

	t.Run("surrogate pair", func(t *testing.T) {
		data := (&controltest.Frame{}).String16(0xD83D, 0xDE00).Bytes()
		s, err := inputOf(data...).ReadString16()
		require.NoError(t, err)
		assert.Equal(t, "\U0001F600", s.String())
	})

	t.Run("negative length", func(t *testing.T) {
		_, err := inputOf(0xFF, 0xFF, 0xFF, 0xFF, 0x0F).ReadString16()
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("truncated units", func(t *testing.T) {
		_, err := inputOf(0x03, 'h', 0x00, 'i').ReadString16()
		assert.ErrorIs(t, err, ErrPrematureEndOfStream)
	})

	t.Run("truncated before units", func(t *testing.T) {
		_, err := inputOf(0x03).ReadString16()
		assert.ErrorIs(t, err, ErrPrematureEndOfStream)
	})

	t.Run("oversized", func(t *testing.T) {
		data := (&controltest.Frame{}).Int32(MaxString16Units + 2).Bytes()
		_, err := inputOf(data...).ReadString16()
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(ErrEndOfStream))
	assert.True(t, IsFatal(ErrPrematureEndOfStream))
	assert.True(t, IsFatal(ErrInvalidFormat))
	assert.True(t, IsFatal(errors.Join(ErrIO, io.ErrUnexpectedEOF)))
}
