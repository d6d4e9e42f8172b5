package packets

import (
	"bytes"
)

type BufferConn struct {
	*bytes.Buffer
	writeErr error
	readErr  error
}

func NewBufferConn(buf *bytes.Buffer) *BufferConn {
	return &BufferConn{Buffer: buf}
}

func (f *BufferConn) Write(b []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.Buffer.Write(b)
}

func (f *BufferConn) Read(b []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.Buffer.Read(b)
}

// mustMarshal serializes p or panics; only for fixtures.
func mustMarshal(p Packet) []byte {
	b, err := p.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return b
}
