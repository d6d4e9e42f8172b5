package util

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/alfrunes/umqtt/mqtt"
)

const (
	// MaxVarLengthSize is the number of bytes needed for the largest
	// remaining length.
	MaxVarLengthSize = 4
)

var (
	ErrVarLengthTooLong = fmt.Errorf("%w: remaining length > 4 bytes", mqtt.ErrPacket)
)

// EncodeVarLength encodes length as an MQTT remaining length into b and
// returns the number of bytes used. The value is not range checked; b must
// have room for VarLengthSize(length) bytes.
func EncodeVarLength(b []byte, length uint32) (n int) {
	for {
		encByte := uint8(length % 128)
		length /= 128
		if length > 0 {
			encByte |= 0x80
		}
		b[n] = encByte
		n++
		if length == 0 {
			return n
		}
	}
}

// VarLengthSize returns the number of bytes EncodeVarLength uses for val.
func VarLengthSize(val uint32) int {
	var length int
	for {
		length++
		val /= 128
		if val < 1 {
			break
		}
	}
	return length
}

// DecodeVarLength decodes the remaining length at the start of b and returns
// the value together with the number of bytes consumed.
func DecodeVarLength(b []byte) (length uint32, n int, err error) {
	var mult uint32 = 1
	for n < MaxVarLengthSize {
		if n >= len(b) {
			return 0, n, mqtt.ErrPacketShort
		}
		encByte := b[n]
		length += uint32(encByte&0x7F) * mult
		n++
		if encByte&0x80 == 0 {
			return length, n, nil
		}
		mult *= 128
	}
	return 0, n, ErrVarLengthTooLong
}

// ReadVarLength reads a remaining length from the stream r one byte at a
// time, never consuming more than the length field itself.
func ReadVarLength(r io.Reader) (v uint32, n int, err error) {
	var b [1]byte
	// Read up to maximum of 4 bytes
	for i := 0; i < 28; i += 7 {
		N, err := io.ReadFull(r, b[:])
		n += N
		if err != nil {
			return v, n, err
		}
		v += uint32(b[0]&0x7F) << i
		if b[0]&0x80 == 0 {
			return v, n, nil
		}
	}
	return 0, n, ErrVarLengthTooLong
}

// EncodeBlock writes block to b as a 2-byte big endian length followed by
// the raw bytes and returns len(block)+2. The caller guarantees that the
// block fits a 16-bit length and that b is large enough.
func EncodeBlock(b []byte, block []byte) int {
	binary.BigEndian.PutUint16(b, uint16(len(block)))
	return copy(b[2:], block) + 2
}

// BlockSize is the encoded size of block.
func BlockSize(block []byte) int {
	return len(block) + 2
}

// DecodeBlock reads a length prefixed block from the start of b. The
// returned block aliases b; nothing is copied.
func DecodeBlock(b []byte) (block []byte, n int, err error) {
	if len(b) < 2 {
		return nil, 0, mqtt.ErrPacketShort
	}
	l := int(binary.BigEndian.Uint16(b))
	n = l + 2
	if n > len(b) {
		return nil, 0, mqtt.ErrPacketShort
	}
	return b[2:n:n], n, nil
}
