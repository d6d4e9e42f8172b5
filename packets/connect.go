package packets

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/alfrunes/umqtt/mqtt"
	"github.com/alfrunes/umqtt/x/util"
)

const (
	cmdConnect    uint8 = 0x10
	cmdConnAck    uint8 = 0x20
	cmdDisconnect uint8 = 0xE0

	// Flags
	connectFlagUsername       uint8 = 0x80
	connectFlagPassword       uint8 = 0x40
	connectFlagWillRetain     uint8 = 0x20
	connectFlagWill           uint8 = 0x04
	connectFlagCleanSession   uint8 = 0x02
	connAckFlagSessionPresent uint8 = 0x01
	connectMaskWillQoS        uint8 = 0x18
	connectShiftWillQoS             = 3

	// "MQTT" block + level + flags + keep alive
	connectVariableHeaderLength = 10
)

var protocolName = []byte{'M', 'Q', 'T', 'T'}

// Connect contains a structural representation of a connect packet. All
// byte slices are borrowed from the caller and only read while the packet
// is being built.
type Connect struct {
	// CleanSession forces the server to discard any previous session
	// state and start a new one which lasts until the client disconnects.
	CleanSession bool
	// KeepAlive contains the duration in seconds for the client to remain
	// inactive before getting disconnected.
	KeepAlive uint16

	// ClientID is the client identifier presented to the server
	// (required).
	ClientID []byte

	// WillTopic is the topic the server publishes WillMessage to if the
	// client disconnects ungracefully. WillTopic and WillMessage must
	// either both be set or both be empty.
	WillTopic   []byte
	WillMessage []byte
	// WillQoS is the QoS of the will message.
	WillQoS mqtt.QoS
	// WillRetain holds the retain flag for the will message.
	WillRetain bool

	// Username and Password are optional credentials.
	Username []byte
	Password []byte
}

// ConnAck is the server response to a connect request.
type ConnAck struct {
	SessionPresent bool
	ReturnCode     uint8
}

// Disconnect is the final packet sent by a client.
type Disconnect struct{}

func (c *Connect) Type() uint8 {
	return cmdConnect
}

func (c *Connect) hasWill() bool {
	return len(c.WillTopic) > 0
}

// Validate checks that the record describes a legal connect packet.
func (c *Connect) Validate() error {
	if len(c.ClientID) == 0 {
		return fmt.Errorf("%w: connect: empty client identifier",
			mqtt.ErrInvalidParameter)
	}
	if !c.WillQoS.Valid() {
		return fmt.Errorf("%w: connect: illegal will QoS value %d",
			mqtt.ErrInvalidParameter, c.WillQoS)
	}
	if len(c.WillTopic) == 0 && len(c.WillMessage) > 0 {
		return fmt.Errorf("%w: connect: will message without will topic",
			mqtt.ErrInvalidParameter)
	} else if len(c.WillTopic) > 0 && len(c.WillMessage) == 0 {
		return fmt.Errorf("%w: connect: will topic without will message",
			mqtt.ErrInvalidParameter)
	}
	return checkBlocks("connect",
		c.ClientID, c.WillTopic, c.WillMessage, c.Username, c.Password)
}

func (c *Connect) remainingLength() int {
	length := connectVariableHeaderLength + util.BlockSize(c.ClientID)
	if c.hasWill() {
		length += util.BlockSize(c.WillTopic) +
			util.BlockSize(c.WillMessage)
	}
	if len(c.Username) > 0 {
		length += util.BlockSize(c.Username)
	}
	if len(c.Password) > 0 {
		length += util.BlockSize(c.Password)
	}
	return length
}

func (c *Connect) flags() (flags uint8) {
	if c.CleanSession {
		flags |= connectFlagCleanSession
	}
	if c.hasWill() {
		flags |= connectFlagWill
		flags |= (uint8(c.WillQoS) << connectShiftWillQoS) &
			connectMaskWillQoS
		if c.WillRetain {
			flags |= connectFlagWillRetain
		}
	}
	if len(c.Username) > 0 {
		flags |= connectFlagUsername
	}
	if len(c.Password) > 0 {
		flags |= connectFlagPassword
	}
	return flags
}

// Size returns the number of bytes MarshalTo writes for c.
func (c *Connect) Size() (int, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	return packetSize(c.remainingLength())
}

// MarshalTo serializes the connect packet into b and returns the number of
// bytes written.
func (c *Connect) MarshalTo(b []byte) (n int, err error) {
	if err = c.Validate(); err != nil {
		return 0, err
	}
	n, err = putFixedHeader(b, cmdConnect, c.remainingLength())
	if err != nil {
		return 0, err
	}

	// Variable header
	n += util.EncodeBlock(b[n:], protocolName)
	b[n] = uint8(mqtt.MQTTv311)
	b[n+1] = c.flags()
	binary.BigEndian.PutUint16(b[n+2:], c.KeepAlive)
	n += 4

	// Payload
	n += util.EncodeBlock(b[n:], c.ClientID)
	if c.hasWill() {
		n += util.EncodeBlock(b[n:], c.WillTopic)
		n += util.EncodeBlock(b[n:], c.WillMessage)
	}
	if len(c.Username) > 0 {
		n += util.EncodeBlock(b[n:], c.Username)
	}
	if len(c.Password) > 0 {
		n += util.EncodeBlock(b[n:], c.Password)
	}
	return n, nil
}

func (c *Connect) MarshalBinary() (b []byte, err error) {
	return marshalBinary(c)
}

// WriteTo marshals and writes the connect request to the stream w.
func (c *Connect) WriteTo(w io.Writer) (n int64, err error) {
	return writeTo(w, c)
}

func (c *ConnAck) Type() uint8 {
	return cmdConnAck
}

// Err returns the error corresponding to the return code, or nil if the
// connection was accepted.
func (c *ConnAck) Err() error {
	return mqtt.ConnectError(c.ReturnCode)
}

func (c *ConnAck) Size() (int, error) {
	return 4, nil
}

func (c *ConnAck) MarshalTo(b []byte) (n int, err error) {
	if len(b) < 4 {
		return 0, errBufferTooSmall(4, len(b))
	}
	var flags uint8
	if c.SessionPresent {
		flags |= connAckFlagSessionPresent
	}
	b[0] = cmdConnAck
	b[1] = 2
	b[2] = flags
	b[3] = c.ReturnCode
	return 4, nil
}

func (c *ConnAck) MarshalBinary() (b []byte, err error) {
	return marshalBinary(c)
}

// WriteTo writes the marshaled ConnAck packet to the stream w.
func (c *ConnAck) WriteTo(w io.Writer) (n int64, err error) {
	return writeTo(w, c)
}

func decodeConnAck(body []byte) (*ConnAck, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("connack: %w", mqtt.ErrPacketShort)
	} else if len(body) > 2 {
		return nil, fmt.Errorf("connack: %w", mqtt.ErrPacketLong)
	}
	return &ConnAck{
		SessionPresent: body[0]&connAckFlagSessionPresent > 0,
		ReturnCode:     body[1],
	}, nil
}

func (d *Disconnect) Type() uint8 {
	return cmdDisconnect
}

func (d *Disconnect) Size() (int, error) {
	return 2, nil
}

// MarshalTo writes the constant disconnect packet; it only fails if b holds
// less than two bytes.
func (d *Disconnect) MarshalTo(b []byte) (n int, err error) {
	if len(b) < 2 {
		return 0, errBufferTooSmall(2, len(b))
	}
	b[0] = cmdDisconnect
	b[1] = 0
	return 2, nil
}

func (d *Disconnect) MarshalBinary() (b []byte, err error) {
	return []byte{cmdDisconnect, 0}, nil
}

// WriteTo writes the marshaled Disconnect request to stream.
func (d *Disconnect) WriteTo(w io.Writer) (n int64, err error) {
	return writeTo(w, d)
}
