package client

import (
	"encoding/hex"
	"fmt"

	"github.com/alfrunes/umqtt/mqtt"
	"github.com/alfrunes/umqtt/packets"
	log "github.com/sirupsen/logrus"
)

// Session is the state shared by every packet built for, or received on, a
// single logical connection: the packet identifier counter and the event
// sink. A Session performs no I/O and holds no buffers. It is not safe for
// concurrent use; callers confine it to one goroutine or guard it with a
// mutex.
type Session struct {
	packetID uint16

	sink Sink
	log  log.FieldLogger
}

// NewSession initializes a new session delivering decoded events to sink.
// The sink may be nil, in which case Process only validates packets.
func NewSession(sink Sink, options ...*SessionOptions) *Session {
	s := &Session{
		sink: sink,
		log:  log.StandardLogger(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if opt.Logger != nil {
			s.log = opt.Logger
		}
	}
	return s
}

// PacketID returns the last packet identifier handed out, 0 if none.
func (s *Session) PacketID() uint16 {
	return s.packetID
}

// nextPacketID increments the counter skipping 0 on wrap around.
func (s *Session) nextPacketID() uint16 {
	s.packetID++
	if s.packetID == 0 {
		s.packetID = 1
	}
	return s.packetID
}

func (s *Session) debugEnabled() bool {
	type levelChecker interface {
		IsLevelEnabled(log.Level) bool
	}
	if l, ok := s.log.(levelChecker); ok {
		return l.IsLevelEnabled(log.DebugLevel)
	}
	return true
}

func (s *Session) logBuilt(name string, p packets.Packet, b []byte) {
	if !s.debugEnabled() {
		return
	}
	fields := log.Fields{
		"type":   name,
		"length": len(b),
		"packet": hex.EncodeToString(b),
	}
	switch pkt := p.(type) {
	case *packets.Publish:
		fields["packetId"] = pkt.PacketIdentifier
		fields["QoS"] = pkt.QoS
	case *packets.Subscribe:
		fields["packetId"] = pkt.PacketIdentifier
	case *packets.Unsubscribe:
		fields["packetId"] = pkt.PacketIdentifier
	}
	s.log.WithFields(fields).Debug("Built packet")
}

// checkCapacity validates p and makes sure b can hold it, so that no packet
// identifier is consumed by a build that is bound to fail.
func checkCapacity(p packets.Packet, b []byte) (int, error) {
	size, err := p.Size()
	if err != nil {
		return 0, err
	}
	if size > len(b) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d",
			mqtt.ErrBufferTooSmall, size, len(b))
	}
	return size, nil
}

// Connect serializes connect into b. Use connect.Size to find the
// required buffer size.
func (s *Session) Connect(b []byte, connect *packets.Connect) (int, error) {
	n, err := connect.MarshalTo(b)
	if err != nil {
		return 0, err
	}
	s.logBuilt("CONNECT", connect, b[:n])
	return n, nil
}

// Publish serializes pub into b. A publish with QoS > 0 consumes a new
// packet identifier which is written back to pub.PacketIdentifier.
func (s *Session) Publish(b []byte, pub *packets.Publish) (int, error) {
	if _, err := checkCapacity(pub, b); err != nil {
		return 0, err
	}
	if pub.QoS > mqtt.QoS0 {
		pub.PacketIdentifier = s.nextPacketID()
	}
	n, err := pub.MarshalTo(b)
	if err != nil {
		return 0, err
	}
	s.logBuilt("PUBLISH", pub, b[:n])
	return n, nil
}

// Subscribe serializes sub into b consuming a new packet identifier, which
// is written back to sub.PacketIdentifier.
func (s *Session) Subscribe(b []byte, sub *packets.Subscribe) (int, error) {
	if _, err := checkCapacity(sub, b); err != nil {
		return 0, err
	}
	sub.PacketIdentifier = s.nextPacketID()
	n, err := sub.MarshalTo(b)
	if err != nil {
		return 0, err
	}
	s.logBuilt("SUBSCRIBE", sub, b[:n])
	return n, nil
}

// Unsubscribe serializes unsub into b consuming a new packet identifier,
// which is written back to unsub.PacketIdentifier.
func (s *Session) Unsubscribe(b []byte, unsub *packets.Unsubscribe) (int, error) {
	if _, err := checkCapacity(unsub, b); err != nil {
		return 0, err
	}
	unsub.PacketIdentifier = s.nextPacketID()
	n, err := unsub.MarshalTo(b)
	if err != nil {
		return 0, err
	}
	s.logBuilt("UNSUBSCRIBE", unsub, b[:n])
	return n, nil
}

// PingReq writes a PINGREQ packet to b. It needs no session.
func PingReq(b []byte) (int, error) {
	return (&packets.PingReq{}).MarshalTo(b)
}

// Disconnect writes a DISCONNECT packet to b. It needs no session.
func Disconnect(b []byte) (int, error) {
	return (&packets.Disconnect{}).MarshalTo(b)
}
