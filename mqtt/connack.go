package mqtt

import "fmt"

// ConnAck return codes (MQTT 3.1.1 section 3.2.2.3)
const (
	ConnAckAccepted       uint8 = 0x00
	ConnAckBadVersion     uint8 = 0x01
	ConnAckIDNotAllowed   uint8 = 0x02
	ConnAckServerUnavail  uint8 = 0x03
	ConnAckBadCredentials uint8 = 0x04
	ConnAckUnauthorized   uint8 = 0x05
)

var (
	ErrConnectBadVersion   = fmt.Errorf("connect: unacceptable protocol version")
	ErrConnectIDNotAllowed = fmt.Errorf("connect: client identifier rejected")
	ErrConnectUnavailable  = fmt.Errorf("connect: server unavailable")
	ErrConnectCredentials  = fmt.Errorf("connect: bad user name or password")
	ErrConnectUnauthorized = fmt.Errorf("connect: not authorized")
)

// ConnectError translates a CONNACK return code into an error. The accepted
// code yields nil.
func ConnectError(code uint8) error {
	switch code {
	case ConnAckAccepted:
		return nil
	case ConnAckBadVersion:
		return ErrConnectBadVersion
	case ConnAckIDNotAllowed:
		return ErrConnectIDNotAllowed
	case ConnAckServerUnavail:
		return ErrConnectUnavailable
	case ConnAckBadCredentials:
		return ErrConnectCredentials
	case ConnAckUnauthorized:
		return ErrConnectUnauthorized
	}
	return fmt.Errorf("connect: unknown return code 0x%02X", code)
}
