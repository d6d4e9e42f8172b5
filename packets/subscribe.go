package packets

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/alfrunes/umqtt/mqtt"
	"github.com/alfrunes/umqtt/x/util"
)

const (
	cmdSubscribe   uint8 = 0x80
	cmdSubAck      uint8 = 0x90
	cmdUnsubscribe uint8 = 0xA0
	cmdUnsubAck    uint8 = 0xB0

	// NOTE: second nibble of (un)subscribe command is fixed to 0x2
	subscribeFlags uint8 = 0x02
)

type Subscribe struct {
	PacketIdentifier uint16

	// Payload
	Topics []mqtt.Topic
}

// SubAck carries one return code per requested topic. ReturnCodes aliases
// the decoded buffer.
type SubAck struct {
	PacketIdentifier uint16

	ReturnCodes []uint8
}

type Unsubscribe struct {
	PacketIdentifier uint16

	Topics [][]byte
}

type UnsubAck struct {
	PacketIdentifier uint16
}

func (s *Subscribe) Type() uint8 {
	return cmdSubscribe
}

func (s *Subscribe) Validate() error {
	if len(s.Topics) == 0 {
		return fmt.Errorf("%w: subscribe: no topics",
			mqtt.ErrInvalidParameter)
	}
	for i, topic := range s.Topics {
		if len(topic.Name) == 0 {
			return fmt.Errorf("%w: subscribe: empty topic filter at %d",
				mqtt.ErrInvalidParameter, i)
		}
		if !topic.QoS.Valid() {
			return fmt.Errorf("%w: subscribe: illegal QoS value %d at %d",
				mqtt.ErrInvalidParameter, topic.QoS, i)
		}
		if err := checkBlocks("subscribe", topic.Name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Subscribe) remainingLength() int {
	// Remaining length = len(packetIdentifier) + payloadLength
	length := 2
	for _, topic := range s.Topics {
		// Add length of encoded topics + QoS byte
		length += util.BlockSize(topic.Name) + 1
	}
	return length
}

func (s *Subscribe) Size() (int, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return packetSize(s.remainingLength())
}

func (s *Subscribe) MarshalTo(b []byte) (n int, err error) {
	if err = s.Validate(); err != nil {
		return 0, err
	} else if s.PacketIdentifier == 0 {
		return 0, fmt.Errorf("%w: subscribe: missing packet identifier",
			mqtt.ErrInvalidParameter)
	}
	n, err = putFixedHeader(b, cmdSubscribe|subscribeFlags,
		s.remainingLength())
	if err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint16(b[n:], s.PacketIdentifier)
	n += 2

	// Payload
	for _, topic := range s.Topics {
		n += util.EncodeBlock(b[n:], topic.Name)
		b[n] = uint8(topic.QoS)
		n++
	}
	return n, nil
}

func (s *Subscribe) MarshalBinary() (b []byte, err error) {
	return marshalBinary(s)
}

func (s *Subscribe) WriteTo(w io.Writer) (n int64, err error) {
	return writeTo(w, s)
}

func (s *SubAck) Type() uint8 {
	return cmdSubAck
}

func (s *SubAck) Size() (int, error) {
	if len(s.ReturnCodes) == 0 {
		return 0, fmt.Errorf("%w: suback: no return codes",
			mqtt.ErrInvalidParameter)
	}
	return packetSize(len(s.ReturnCodes) + 2)
}

func (s *SubAck) MarshalTo(b []byte) (n int, err error) {
	if _, err = s.Size(); err != nil {
		return 0, err
	}
	n, err = putFixedHeader(b, cmdSubAck, len(s.ReturnCodes)+2)
	if err != nil {
		return 0, err
	}

	// Variable header
	binary.BigEndian.PutUint16(b[n:], s.PacketIdentifier)
	n += 2

	// Payload
	n += copy(b[n:], s.ReturnCodes)
	return n, nil
}

func (s *SubAck) MarshalBinary() (b []byte, err error) {
	return marshalBinary(s)
}

func (s *SubAck) WriteTo(w io.Writer) (n int64, err error) {
	return writeTo(w, s)
}

func decodeSubAck(body []byte) (*SubAck, error) {
	// Packet identifier and at least one return code.
	if len(body) < 3 {
		return nil, fmt.Errorf("suback: %w", mqtt.ErrPacketShort)
	}
	return &SubAck{
		PacketIdentifier: binary.BigEndian.Uint16(body),
		ReturnCodes:      body[2:],
	}, nil
}

func (u *Unsubscribe) Type() uint8 {
	return cmdUnsubscribe
}

func (u *Unsubscribe) Validate() error {
	if len(u.Topics) == 0 {
		return fmt.Errorf("%w: unsubscribe: no topics",
			mqtt.ErrInvalidParameter)
	}
	for i, topic := range u.Topics {
		if len(topic) == 0 {
			return fmt.Errorf("%w: unsubscribe: empty topic filter at %d",
				mqtt.ErrInvalidParameter, i)
		}
	}
	return checkBlocks("unsubscribe", u.Topics...)
}

func (u *Unsubscribe) remainingLength() int {
	length := 2
	for _, topic := range u.Topics {
		length += util.BlockSize(topic)
	}
	return length
}

func (u *Unsubscribe) Size() (int, error) {
	if err := u.Validate(); err != nil {
		return 0, err
	}
	return packetSize(u.remainingLength())
}

func (u *Unsubscribe) MarshalTo(b []byte) (n int, err error) {
	if err = u.Validate(); err != nil {
		return 0, err
	} else if u.PacketIdentifier == 0 {
		return 0, fmt.Errorf("%w: unsubscribe: missing packet identifier",
			mqtt.ErrInvalidParameter)
	}
	// Fixed header
	n, err = putFixedHeader(b, cmdUnsubscribe|subscribeFlags,
		u.remainingLength())
	if err != nil {
		return 0, err
	}

	// Variable header
	binary.BigEndian.PutUint16(b[n:], u.PacketIdentifier)
	n += 2

	// Payload
	for _, topic := range u.Topics {
		n += util.EncodeBlock(b[n:], topic)
	}
	return n, nil
}

func (u *Unsubscribe) MarshalBinary() (b []byte, err error) {
	return marshalBinary(u)
}

func (u *Unsubscribe) WriteTo(w io.Writer) (n int64, err error) {
	return writeTo(w, u)
}

func (u *UnsubAck) Type() uint8 {
	return cmdUnsubAck
}

func (u *UnsubAck) Size() (int, error) {
	return 4, nil
}

func (u *UnsubAck) MarshalTo(b []byte) (n int, err error) {
	if len(b) < 4 {
		return 0, errBufferTooSmall(4, len(b))
	}
	b[0] = cmdUnsubAck
	b[1] = 2
	binary.BigEndian.PutUint16(b[2:], u.PacketIdentifier)
	return 4, nil
}

func (u *UnsubAck) MarshalBinary() (b []byte, err error) {
	return marshalBinary(u)
}

func (u *UnsubAck) WriteTo(w io.Writer) (n int64, err error) {
	return writeTo(w, u)
}

func decodeUnsubAck(body []byte) (*UnsubAck, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("unsuback: %w", mqtt.ErrPacketShort)
	} else if len(body) > 2 {
		return nil, fmt.Errorf("unsuback: %w", mqtt.ErrPacketLong)
	}
	return &UnsubAck{
		PacketIdentifier: binary.BigEndian.Uint16(body),
	}, nil
}
