package client

import (
	"fmt"

	"github.com/alfrunes/umqtt/packets"
	log "github.com/sirupsen/logrus"
)

// Process decodes one complete packet held in b and delivers the resulting
// events to the session's sink. The packet is validated in full before any
// event is emitted; on error nothing is delivered. Events alias b.
//
// An incoming PUBLISH with QoS > 0 is followed by a ReplyEvent carrying the
// PUBACK to send back. QoS 2 publishes are acknowledged the same way.
func (s *Session) Process(b []byte) error {
	packet, err := packets.Decode(b)
	if err != nil {
		if s.debugEnabled() {
			fields := log.Fields{
				"length": len(b),
				"error":  err,
			}
			if len(b) > 0 {
				fields["type"] = fmt.Sprintf("0x%02X", b[0]&0xF0)
			}
			s.log.WithFields(fields).Debug("Discarding malformed packet")
		}
		return err
	}
	if s.sink == nil {
		return nil
	}

	switch pkt := packet.(type) {
	case *packets.ConnAck:
		s.sink.HandleEvent(s, ConnectedEvent{Result: pkt})

	case *packets.Publish:
		s.sink.HandleEvent(s, PublishEvent{Publish: pkt})
		if pkt.QoS > 0 {
			var reply [4]byte
			// PubAck.MarshalTo cannot fail on a 4 byte buffer.
			n, _ := packets.NewPubAckPacket(pkt.PacketIdentifier).
				MarshalTo(reply[:])
			s.sink.HandleEvent(s, ReplyEvent{Packet: reply[:n]})
		}

	case *packets.PubAck:
		s.sink.HandleEvent(s, PubAckEvent{
			PacketIdentifier: pkt.PacketIdentifier,
		})

	case *packets.SubAck:
		s.sink.HandleEvent(s, SubAckEvent{
			PacketIdentifier: pkt.PacketIdentifier,
			ReturnCodes:      pkt.ReturnCodes,
		})

	case *packets.UnsubAck:
		s.sink.HandleEvent(s, UnsubAckEvent{
			PacketIdentifier: pkt.PacketIdentifier,
		})

	case *packets.PingResp:
		s.sink.HandleEvent(s, PingRespEvent{})
	}
	return nil
}
