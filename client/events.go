package client

import "github.com/alfrunes/umqtt/packets"

type EventType uint8

const (
	EventConnected EventType = iota + 1
	EventPublish
	EventPubAck
	EventSubAck
	EventUnsubAck
	EventPingResp
	// EventReply carries a packet the session built in response to an
	// incoming one; the caller is expected to send it.
	EventReply
)

func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventPublish:
		return "publish"
	case EventPubAck:
		return "puback"
	case EventSubAck:
		return "suback"
	case EventUnsubAck:
		return "unsuback"
	case EventPingResp:
		return "pingresp"
	case EventReply:
		return "reply"
	}
	return "unknown"
}

// Event is delivered to the session's Sink for every processed packet. The
// byte slices referenced by an event alias the buffer passed to Process and
// must be copied if they are needed after HandleEvent returns.
type Event interface {
	Type() EventType
}

// ConnectedEvent reports the broker's answer to CONNECT.
type ConnectedEvent struct {
	Result *packets.ConnAck
}

// PublishEvent carries an application message from the broker.
type PublishEvent struct {
	*packets.Publish
}

type PubAckEvent struct {
	PacketIdentifier uint16
}

type SubAckEvent struct {
	PacketIdentifier uint16
	ReturnCodes      []uint8
}

type UnsubAckEvent struct {
	PacketIdentifier uint16
}

type PingRespEvent struct{}

// ReplyEvent holds a complete acknowledgment packet ready to be written to
// the transport.
type ReplyEvent struct {
	Packet []byte
}

func (ConnectedEvent) Type() EventType { return EventConnected }
func (PublishEvent) Type() EventType   { return EventPublish }
func (PubAckEvent) Type() EventType    { return EventPubAck }
func (SubAckEvent) Type() EventType    { return EventSubAck }
func (UnsubAckEvent) Type() EventType  { return EventUnsubAck }
func (PingRespEvent) Type() EventType  { return EventPingResp }
func (ReplyEvent) Type() EventType     { return EventReply }

// Sink receives events synchronously from Session.Process.
type Sink interface {
	HandleEvent(s *Session, ev Event)
}

// SinkFunc adapts an ordinary function to the Sink interface.
type SinkFunc func(s *Session, ev Event)

func (f SinkFunc) HandleEvent(s *Session, ev Event) {
	f(s, ev)
}
