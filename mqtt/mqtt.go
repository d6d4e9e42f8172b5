package mqtt

import (
	"errors"
	"fmt"
)

const (
	QoS0 QoS = 0
	QoS1 QoS = 1
	QoS2 QoS = 2

	// Version definitions
	MQTTv311 Version = 0x04

	// MaxBlockLength is the largest length a 2-byte prefixed block can
	// announce.
	MaxBlockLength = 0xFFFF
	// MaxRemainingLength is the largest value representable by the
	// 4 byte remaining length field.
	MaxRemainingLength = 268435455
)

var (
	// ErrPacket is the parent of every error caused by malformed or
	// protocol-inconsistent incoming data.
	ErrPacket      = fmt.Errorf("packet malformed")
	ErrPacketShort = fmt.Errorf("%w: length too short", ErrPacket)
	ErrPacketLong  = fmt.Errorf("%w: length too long", ErrPacket)

	// ErrBufferTooSmall is returned when a caller supplied buffer cannot
	// hold the packet. Query the size and retry with a larger buffer.
	ErrBufferTooSmall = fmt.Errorf("buffer too small")
	// ErrInvalidParameter is returned when an options record is missing
	// required fields or carries out of range values. Nothing is written
	// and no session state is touched.
	ErrInvalidParameter = fmt.Errorf("invalid parameter")
)

type Version uint8

type QoS uint8

// Valid reports whether q is one of the three defined service levels.
func (q QoS) Valid() bool {
	return q <= QoS2
}

// ErrorKind classifies the errors returned by the codec.
type ErrorKind uint8

const (
	OK ErrorKind = iota
	PacketError
	BufferTooSmall
	InvalidParameter
	// Unknown is reported for errors not originating from the codec, for
	// instance io errors from a stream reader.
	Unknown
)

func (k ErrorKind) String() string {
	switch k {
	case OK:
		return "ok"
	case PacketError:
		return "packet error"
	case BufferTooSmall:
		return "buffer too small"
	case InvalidParameter:
		return "invalid parameter"
	}
	return "unknown"
}

// KindOf returns the ErrorKind of err.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, ErrPacket):
		return PacketError
	case errors.Is(err, ErrBufferTooSmall):
		return BufferTooSmall
	case errors.Is(err, ErrInvalidParameter):
		return InvalidParameter
	}
	return Unknown
}
