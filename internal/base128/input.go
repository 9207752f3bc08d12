package base128

import (
	"unicode/utf16"
)

// MaxString16Units bounds the length of a decoded string
const MaxString16Units = 1 << 20

// String16 is a nullable sequence of UTF-16 code units.
// Valid is false for the null string; a valid string may be empty.
type String16 struct {
	Units []uint16
	Valid bool
}

// String decodes the code units. The null string decodes to "".
func (s String16) String() string {
	return string(utf16.Decode(s.Units))
}

// InputStream reads base-128 encoded values.
// Every multi-byte integer is a sequence of little-endian 7-bit groups; bit 7 of
// each byte is set when more bytes follow.
type InputStream struct {
	r ByteReader
}

// NewInputStream creates an input stream reading from r
func NewInputStream(r ByteReader) *InputStream {
	return &InputStream{r: r}
}

// ReadByte reads one raw byte
func (in *InputStream) ReadByte() (byte, error) {
	return in.r.ReadByte()
}

// ReadInt16 reads a 16-bit varint
func (in *InputStream) ReadInt16() (int16, error) {
	b, err := in.r.ReadByte()
	if err != nil {
		return 0, err
	}
	value := uint32(b & 0x7F)
	for shift := 7; b&0x80 != 0; shift += 7 {
		if b, err = in.r.ReadByte(); err != nil {
			return 0, premature(err)
		}
		if shift == 21 && b&0xFC != 0 {
			return 0, ErrInvalidFormat
		}
		value |= uint32(b&0x7F) << shift
	}
	return int16(value), nil
}

// ReadInt32 reads a 32-bit varint
func (in *InputStream) ReadInt32() (int32, error) {
	b, err := in.r.ReadByte()
	if err != nil {
		return 0, err
	}
	value := uint32(b & 0x7F)
	for shift := 7; b&0x80 != 0; shift += 7 {
		if b, err = in.r.ReadByte(); err != nil {
			return 0, premature(err)
		}
		if shift == 28 && b&0xF0 != 0 {
			return 0, ErrInvalidFormat
		}
		value |= uint32(b&0x7F) << shift
	}
	return int32(value), nil
}

// ReadUint32 reads a 32-bit varint carrying an unsigned value
func (in *InputStream) ReadUint32() (uint32, error) {
	v, err := in.ReadInt32()
	return uint32(v), err
}

// ReadInt64 reads a 64-bit varint
func (in *InputStream) ReadInt64() (int64, error) {
	b, err := in.r.ReadByte()
	if err != nil {
		return 0, err
	}
	value := uint64(b & 0x7F)
	for shift := 7; b&0x80 != 0; shift += 7 {
		if b, err = in.r.ReadByte(); err != nil {
			return 0, premature(err)
		}
		// Only bit 0 of the tenth byte is data. The continuation bit is rejected too,
		// stricter than a 0x7E mask that would keep reading an eleventh byte.
		if shift == 63 && b&0xFE != 0 {
			return 0, ErrInvalidFormat
		}
		value |= uint64(b&0x7F) << shift
	}
	return int64(value), nil
}

// ReadBool reads a single byte that must be 0 or 1
func (in *InputStream) ReadBool() (bool, error) {
	b, err := in.r.ReadByte()
	if err != nil {
		return false, err
	}
	if b&^0x1 != 0 {
		return false, ErrInvalidFormat
	}
	return b != 0, nil
}

// ReadUint16 reads two raw bytes, low byte first
func (in *InputStream) ReadUint16() (uint16, error) {
	lo, err := in.r.ReadByte()
	if err != nil {
		return 0, err
	}
	hi, err := in.r.ReadByte()
	if err != nil {
		return 0, premature(err)
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// ReadString16 reads a nullable UTF-16 string.
// The length field is the number of code units plus one; zero encodes null.
func (in *InputStream) ReadString16() (String16, error) {
	length, err := in.ReadInt32()
	if err != nil {
		return String16{}, err
	}
	if length < 0 {
		return String16{}, ErrInvalidFormat
	}
	if length == 0 {
		return String16{}, nil
	}
	length--
	if length > MaxString16Units {
		return String16{}, ErrInvalidFormat
	}
	units := make([]uint16, length)
	for i := range units {
		if units[i], err = in.ReadUint16(); err != nil {
			return String16{}, premature(err)
		}
	}
	return String16{Units: units, Valid: true}, nil
}
