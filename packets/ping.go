package packets

import (
	"io"
)

const (
	cmdPingReq  uint8 = 0xC0
	cmdPingResp uint8 = 0xD0
)

type PingReq struct{}

type PingResp struct{}

func (p *PingReq) Type() uint8 {
	return cmdPingReq
}

func (p *PingReq) Size() (int, error) {
	return 2, nil
}

func (p *PingReq) MarshalTo(b []byte) (n int, err error) {
	if len(b) < 2 {
		return 0, errBufferTooSmall(2, len(b))
	}
	b[0] = cmdPingReq
	b[1] = 0
	return 2, nil
}

func (p *PingReq) MarshalBinary() (b []byte, err error) {
	return []byte{cmdPingReq, 0}, nil
}

func (p *PingReq) WriteTo(w io.Writer) (n int64, err error) {
	return writeTo(w, p)
}

func (p *PingResp) Type() uint8 {
	return cmdPingResp
}

func (p *PingResp) Size() (int, error) {
	return 2, nil
}

func (p *PingResp) MarshalTo(b []byte) (n int, err error) {
	if len(b) < 2 {
		return 0, errBufferTooSmall(2, len(b))
	}
	b[0] = cmdPingResp
	b[1] = 0
	return 2, nil
}

func (p *PingResp) MarshalBinary() (b []byte, err error) {
	return []byte{cmdPingResp, 0}, nil
}

func (p *PingResp) WriteTo(w io.Writer) (n int64, err error) {
	return writeTo(w, p)
}
