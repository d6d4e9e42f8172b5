package packets

import (
	"fmt"
	"io"

	"github.com/alfrunes/umqtt/mqtt"
	"github.com/alfrunes/umqtt/x/util"
)

// Packet is implemented by every control packet known to this package.
type Packet interface {
	// Type returns the control packet type, i.e. the upper nibble of the
	// fixed header byte.
	Type() uint8
	// Size returns the total encoded size of the packet, validating the
	// packet in the process.
	Size() (int, error)
	// MarshalTo serializes the packet into b returning the number of bytes
	// written. Nothing is written if b is smaller than Size.
	MarshalTo(b []byte) (n int, err error)
	// MarshalBinary serializes the packet to a newly allocated buffer.
	MarshalBinary() (b []byte, err error)
	// WriteTo serializes the packet and writes it to the given writer
	// returning the number of bytes written.
	WriteTo(w io.Writer) (n int64, err error)
}

// Decode parses one complete control packet. The remaining length field
// must account for exactly the bytes following it. Byte slices inside the
// returned packet alias b.
func Decode(b []byte) (Packet, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("empty packet: %w", mqtt.ErrPacketShort)
	}
	cmd := b[0] & 0xF0
	flags := b[0] & 0x0F

	remLength, n, err := util.DecodeVarLength(b[1:])
	if err != nil {
		return nil, err
	}
	total := 1 + n + int(remLength)
	if total > len(b) {
		return nil, mqtt.ErrPacketShort
	} else if total < len(b) {
		return nil, mqtt.ErrPacketLong
	}
	body := b[1+n:]

	switch cmd {
	// Only packets a server sends to a client are accepted.
	case cmdConnAck:
		return decodeConnAck(body)

	case cmdPublish:
		return decodePublish(flags, body)

	case cmdPubAck:
		return decodePubAck(body)

	case cmdSubAck:
		return decodeSubAck(body)

	case cmdUnsubAck:
		return decodeUnsubAck(body)

	case cmdPingResp:
		if len(body) > 0 {
			return nil, fmt.Errorf("pingresp: %w", mqtt.ErrPacketLong)
		}
		return &PingResp{}, nil
	}
	return nil, fmt.Errorf("%w: unsupported command byte: 0x%02X",
		mqtt.ErrPacket, cmd)
}

// Reader frames a byte stream into complete control packets.
type Reader struct {
	r io.Reader
}

// NewReader returns a Reader consuming packets from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadPacket reads the next packet from the stream into buf and returns its
// length. If buf cannot hold the packet, the packet is discarded from the
// stream and an error wrapping mqtt.ErrBufferTooSmall is returned.
func (r *Reader) ReadPacket(buf []byte) (n int, err error) {
	var hdr [1]byte
	if _, err = io.ReadFull(r.r, hdr[:]); err != nil {
		return 0, err
	}
	remLength, _, err := util.ReadVarLength(r.r)
	if err == io.EOF {
		return 0, io.ErrUnexpectedEOF
	} else if err != nil {
		return 0, err
	}
	size := 1 + util.VarLengthSize(remLength) + int(remLength)
	if size > len(buf) {
		_, err = io.CopyN(io.Discard, r.r, int64(remLength))
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		} else if err != nil {
			return 0, err
		}
		return 0, errBufferTooSmall(size, len(buf))
	}
	buf[0] = hdr[0]
	n = 1 + util.EncodeVarLength(buf[1:], remLength)
	N, err := io.ReadFull(r.r, buf[n:size])
	n += N
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

func errBufferTooSmall(need, have int) error {
	return fmt.Errorf("%w: need %d bytes, have %d",
		mqtt.ErrBufferTooSmall, need, have)
}

// packetSize returns the full packet length for the given remaining length.
func packetSize(remLength int) (int, error) {
	if remLength > mqtt.MaxRemainingLength {
		return 0, fmt.Errorf("%w: remaining length %d exceeds %d",
			mqtt.ErrInvalidParameter, remLength, mqtt.MaxRemainingLength)
	}
	return 1 + util.VarLengthSize(uint32(remLength)) + remLength, nil
}

// putFixedHeader checks that b can hold the whole packet and writes the
// fixed header, returning the offset of the variable header.
func putFixedHeader(b []byte, header uint8, remLength int) (int, error) {
	size, err := packetSize(remLength)
	if err != nil {
		return 0, err
	} else if size > len(b) {
		return 0, errBufferTooSmall(size, len(b))
	}
	b[0] = header
	return 1 + util.EncodeVarLength(b[1:], uint32(remLength)), nil
}

func checkBlocks(pkt string, blocks ...[]byte) error {
	for _, block := range blocks {
		if len(block) > mqtt.MaxBlockLength {
			return fmt.Errorf("%w: %s: field length %d exceeds %d",
				mqtt.ErrInvalidParameter, pkt,
				len(block), mqtt.MaxBlockLength)
		}
	}
	return nil
}

func marshalBinary(p Packet) ([]byte, error) {
	size, err := p.Size()
	if err != nil {
		return nil, err
	}
	b := make([]byte, size)
	n, err := p.MarshalTo(b)
	if err != nil {
		return nil, err
	}
	return b[:n], nil
}

func writeTo(w io.Writer, p Packet) (n int64, err error) {
	b, err := p.MarshalBinary()
	if err != nil {
		return n, err
	}
	N, err := w.Write(b)
	n = int64(N)
	if err == nil && N < len(b) {
		err = io.ErrShortWrite
	}
	return n, err
}
