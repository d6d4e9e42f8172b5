package packets

import (
	"bytes"
	"testing"

	"github.com/alfrunes/umqtt/mqtt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSizeMatchesMarshal(t *testing.T) {
	type testCase struct {
		Name string
		*Connect
	}
	testCases := []testCase{
		{
			Name: "Minimal",
			Connect: &Connect{
				ClientID: []byte("c"),
			},
		}, {
			Name: "Credentials",
			Connect: &Connect{
				ClientID:  []byte("foobar"),
				KeepAlive: 123,
				Username:  []byte("foo@bar.org"),
				Password:  []byte("foobarbaz"),
			},
		}, {
			Name: "Password only",
			Connect: &Connect{
				ClientID: []byte("foobar"),
				Password: []byte("secret"),
			},
		}, {
			Name: "Will",
			Connect: &Connect{
				ClientID:     []byte("bobTheBldr"),
				CleanSession: true,
				WillTopic:    []byte("bob/bld"),
				WillMessage:  []byte("Hi, I'm a bldr"),
				WillQoS:      mqtt.QoS2,
				WillRetain:   true,
			},
		}, {
			Name: "Everything",
			Connect: &Connect{
				ClientID:     bytes.Repeat([]byte{'x'}, 200),
				CleanSession: true,
				KeepAlive:    0xFFFF,
				WillTopic:    []byte("foo/bar"),
				WillMessage:  []byte("Hello there!"),
				WillQoS:      mqtt.QoS1,
				Username:     []byte("foo@bar.org"),
				Password:     []byte("foobarbaz"),
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			size, err := testCase.Connect.Size()
			require.NoError(t, err)
			buf := make([]byte, size+10)
			n, err := testCase.Connect.MarshalTo(buf)
			require.NoError(t, err)
			assert.Equal(t, size, n)

			b, err := testCase.Connect.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, buf[:n], b)
		})
	}
}

func TestConnectWireFormat(t *testing.T) {
	connect := &Connect{
		ClientID:     []byte("foo"),
		CleanSession: true,
		KeepAlive:    60,
	}
	b, err := connect.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{
		cmdConnect, 15,
		0x00, 0x04, 'M', 'Q', 'T', 'T',
		0x04,
		connectFlagCleanSession,
		0x00, 60,
		0x00, 0x03, 'f', 'o', 'o',
	}, b)

	connect.WillTopic = []byte("w")
	connect.WillMessage = []byte("bye")
	connect.WillQoS = mqtt.QoS1
	connect.WillRetain = true
	connect.Username = []byte("u")
	connect.Password = []byte("p")
	b, err = connect.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{
		cmdConnect, 29,
		0x00, 0x04, 'M', 'Q', 'T', 'T',
		0x04,
		connectFlagUsername | connectFlagPassword |
			connectFlagWillRetain | 0x08 | connectFlagWill |
			connectFlagCleanSession,
		0x00, 60,
		0x00, 0x03, 'f', 'o', 'o',
		0x00, 0x01, 'w',
		0x00, 0x03, 'b', 'y', 'e',
		0x00, 0x01, 'u',
		0x00, 0x01, 'p',
	}, b)
}

func TestConnectWillFlagsRequireWill(t *testing.T) {
	connect := &Connect{
		ClientID:   []byte("foo"),
		WillQoS:    mqtt.QoS2,
		WillRetain: true,
	}
	b, err := connect.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, uint8(0), b[9])
}

func TestConnectInvalid(t *testing.T) {
	testCases := map[string]*Connect{
		"Empty client id": {},
		"Illegal will QoS": {
			ClientID:    []byte("foo"),
			WillTopic:   []byte("foo"),
			WillMessage: []byte("bar"),
			WillQoS:     mqtt.QoS(3),
		},
		"Will topic without message": {
			ClientID:  []byte("foo"),
			WillTopic: []byte("foo"),
		},
		"Will message without topic": {
			ClientID:    []byte("foo"),
			WillMessage: []byte("bar"),
		},
		"Oversized will message": {
			ClientID:    []byte("foo"),
			WillTopic:   []byte("foo"),
			WillMessage: make([]byte, mqtt.MaxBlockLength+1),
		},
	}
	for name, connect := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := connect.Size()
			assert.ErrorIs(t, err, mqtt.ErrInvalidParameter)

			buf := bytes.Repeat([]byte{0xAA}, 128)
			n, err := connect.MarshalTo(buf)
			assert.ErrorIs(t, err, mqtt.ErrInvalidParameter)
			assert.Equal(t, mqtt.InvalidParameter, mqtt.KindOf(err))
			assert.Zero(t, n)
			assert.Equal(t, bytes.Repeat([]byte{0xAA}, 128), buf)
		})
	}
}

func TestConnectBufferTooSmall(t *testing.T) {
	connect := &Connect{ClientID: []byte("foobar")}
	size, err := connect.Size()
	require.NoError(t, err)

	buf := make([]byte, size-1)
	_, err = connect.MarshalTo(buf)
	assert.ErrorIs(t, err, mqtt.ErrBufferTooSmall)
	assert.Equal(t, make([]byte, size-1), buf)
}

func TestConnAck(t *testing.T) {
	connAck := &ConnAck{
		SessionPresent: true,
		ReturnCode:     mqtt.ConnAckAccepted,
	}
	b, err := connAck.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{cmdConnAck, 2, 1, 0}, b)

	p, err := Decode(b)
	require.NoError(t, err)
	if assert.IsType(t, connAck, p) {
		assert.Equal(t, connAck, p)
		assert.NoError(t, p.(*ConnAck).Err())
	}

	p, err = Decode([]byte{cmdConnAck, 2, 0, mqtt.ConnAckBadCredentials})
	require.NoError(t, err)
	assert.False(t, p.(*ConnAck).SessionPresent)
	assert.ErrorIs(t, p.(*ConnAck).Err(), mqtt.ErrConnectCredentials)

	_, err = Decode([]byte{cmdConnAck, 1, 0})
	assert.ErrorIs(t, err, mqtt.ErrPacketShort)
	_, err = Decode([]byte{cmdConnAck, 3, 0, 0, 0})
	assert.ErrorIs(t, err, mqtt.ErrPacketLong)
	// Declared length disagrees with the frame.
	_, err = Decode([]byte{cmdConnAck, 2, 0})
	assert.ErrorIs(t, err, mqtt.ErrPacketShort)
}

func TestDisconnect(t *testing.T) {
	d := &Disconnect{}
	buf := make([]byte, 2)
	n, err := d.MarshalTo(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xE0, 0x00}, buf[:n])

	_, err = d.MarshalTo(buf[:1])
	assert.ErrorIs(t, err, mqtt.ErrBufferTooSmall)

	// Client packets are never accepted by the decoder.
	_, err = Decode(buf)
	assert.ErrorIs(t, err, mqtt.ErrPacket)
}
