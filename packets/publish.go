package packets

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/alfrunes/umqtt/mqtt"
	"github.com/alfrunes/umqtt/x/util"
)

const (
	cmdPublish uint8 = 0x30
	cmdPubAck  uint8 = 0x40

	// Flags
	PublishFlagDuplicate uint8 = 0x08
	PublishFlagRetain    uint8 = 0x01
	publishMaskQoS       uint8 = 0x06
	publishShiftQoS            = 1
)

// Publish is an application message travelling in either direction. When
// built, TopicName is required and PacketIdentifier must be non-zero for
// QoS > 0. When decoded, TopicName and Payload alias the input buffer and
// are only valid as long as that buffer is.
type Publish struct {
	// Flags
	Duplicate bool
	QoS       mqtt.QoS
	Retain    bool

	// Variable header
	TopicName        []byte
	PacketIdentifier uint16

	// Payload is encoded as a length prefixed block; an empty payload is
	// omitted from the packet.
	Payload []byte
}

// PubAck acknowledges a QoS 1 publish.
type PubAck struct {
	// Variable header
	PacketIdentifier uint16
}

func NewPublishPacket(topicName []byte, qos mqtt.QoS, payload []byte) *Publish {
	return &Publish{
		QoS:       qos,
		TopicName: topicName,
		Payload:   payload,
	}
}

func NewPubAckPacket(packetID uint16) *PubAck {
	return &PubAck{
		PacketIdentifier: packetID,
	}
}

func (p *Publish) Type() uint8 {
	return cmdPublish
}

// Validate checks the fields that are independent of the packet identifier.
func (p *Publish) Validate() error {
	if len(p.TopicName) == 0 {
		return fmt.Errorf("%w: publish: empty topic name",
			mqtt.ErrInvalidParameter)
	}
	if !p.QoS.Valid() {
		return fmt.Errorf("%w: publish: illegal QoS value %d",
			mqtt.ErrInvalidParameter, p.QoS)
	}
	return checkBlocks("publish", p.TopicName, p.Payload)
}

func (p *Publish) remainingLength() int {
	// Remaining length = len(block(topicName))
	//                  + len(packetIdentifier) [QoS > 0]
	//                  + len(block(payload))   [payload present]
	length := util.BlockSize(p.TopicName)
	if p.QoS > mqtt.QoS0 {
		length += 2
	}
	if len(p.Payload) > 0 {
		length += util.BlockSize(p.Payload)
	}
	return length
}

func (p *Publish) fixedHeader() uint8 {
	fixedHeader := cmdPublish
	if p.Duplicate {
		fixedHeader |= PublishFlagDuplicate
	}
	fixedHeader |= (uint8(p.QoS) << publishShiftQoS) & publishMaskQoS
	if p.Retain {
		fixedHeader |= PublishFlagRetain
	}
	return fixedHeader
}

// Size returns the number of bytes MarshalTo writes for p.
func (p *Publish) Size() (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return packetSize(p.remainingLength())
}

func (p *Publish) MarshalTo(b []byte) (n int, err error) {
	if err = p.Validate(); err != nil {
		return 0, err
	} else if p.QoS > mqtt.QoS0 && p.PacketIdentifier == 0 {
		return 0, fmt.Errorf("%w: publish: QoS %d requires a packet identifier",
			mqtt.ErrInvalidParameter, p.QoS)
	}
	n, err = putFixedHeader(b, p.fixedHeader(), p.remainingLength())
	if err != nil {
		return 0, err
	}

	// Variable header
	n += util.EncodeBlock(b[n:], p.TopicName)
	if p.QoS > mqtt.QoS0 {
		binary.BigEndian.PutUint16(b[n:], p.PacketIdentifier)
		n += 2
	}

	// Payload
	if len(p.Payload) > 0 {
		n += util.EncodeBlock(b[n:], p.Payload)
	}
	return n, nil
}

func (p *Publish) MarshalBinary() (b []byte, err error) {
	return marshalBinary(p)
}

func (p *Publish) WriteTo(w io.Writer) (n int64, err error) {
	return writeTo(w, p)
}

func decodePublish(flags uint8, body []byte) (*Publish, error) {
	p := &Publish{
		Duplicate: flags&PublishFlagDuplicate > 0,
		QoS:       mqtt.QoS((flags & publishMaskQoS) >> publishShiftQoS),
		Retain:    flags&PublishFlagRetain > 0,
	}
	if !p.QoS.Valid() {
		return nil, fmt.Errorf("%w: publish: illegal QoS value %d",
			mqtt.ErrPacket, p.QoS)
	}

	topic, n, err := util.DecodeBlock(body)
	if err != nil {
		return nil, fmt.Errorf("publish: topic: %w", err)
	}
	p.TopicName = topic
	body = body[n:]

	if p.QoS > mqtt.QoS0 {
		if len(body) < 2 {
			return nil, fmt.Errorf("publish: packet identifier: %w",
				mqtt.ErrPacketShort)
		}
		p.PacketIdentifier = binary.BigEndian.Uint16(body)
		body = body[2:]
	}

	// NOTE: payload can be absent
	if len(body) > 0 {
		p.Payload, n, err = util.DecodeBlock(body)
		if err != nil {
			return nil, fmt.Errorf("publish: payload: %w", err)
		}
		body = body[n:]
	}
	if len(body) > 0 {
		return nil, fmt.Errorf("publish: %w", mqtt.ErrPacketLong)
	}
	return p, nil
}

func (p *PubAck) Type() uint8 {
	return cmdPubAck
}

func (p *PubAck) Size() (int, error) {
	return 4, nil
}

func (p *PubAck) MarshalTo(b []byte) (n int, err error) {
	if len(b) < 4 {
		return 0, errBufferTooSmall(4, len(b))
	}
	b[0] = cmdPubAck
	b[1] = 2
	binary.BigEndian.PutUint16(b[2:], p.PacketIdentifier)
	return 4, nil
}

func (p *PubAck) MarshalBinary() (b []byte, err error) {
	return marshalBinary(p)
}

func (p *PubAck) WriteTo(w io.Writer) (n int64, err error) {
	return writeTo(w, p)
}

func decodePubAck(body []byte) (*PubAck, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("puback: %w", mqtt.ErrPacketShort)
	} else if len(body) > 2 {
		return nil, fmt.Errorf("puback: %w", mqtt.ErrPacketLong)
	}
	return &PubAck{
		PacketIdentifier: binary.BigEndian.Uint16(body),
	}, nil
}
