package client

import (
	"time"

	"github.com/alfrunes/umqtt/mqtt"
	"github.com/alfrunes/umqtt/packets"
	log "github.com/sirupsen/logrus"
)

// SessionOptions holds configuration options to initialize a new Session.
type SessionOptions struct {
	// Logger receives debug output for built and rejected packets.
	// Defaults to the logrus standard logger.
	Logger log.FieldLogger
}

// NewSessionOptions initializes a new empty session options struct.
func NewSessionOptions() *SessionOptions {
	return new(SessionOptions)
}

// SetLogger sets the logger used by the session.
func (opts *SessionOptions) SetLogger(logger log.FieldLogger) *SessionOptions {
	opts.Logger = logger
	return opts
}

// ConnectOptions holds configuration options for making a connect request.
type ConnectOptions struct {
	// ClientID is the identity communicated with the server. Defaults to
	// a random UUID (version 4).
	ClientID *string
	// CleanSession indicates whether the server should discard any
	// previously stored session-state for the client.
	CleanSession *bool
	// KeepAlive is the number of seconds the session is active, defaults
	// to 0 ("infinite").
	KeepAlive *uint16

	// Username MQTT credentials. (Defaults to none)
	Username *string
	// Password MQTT credentials. (Defaults to none)
	Password *string

	// WillTopic is the topic the server publishes the will message to
	// if the connection is lost. The topic QoS is used for the will.
	// Defaults to none.
	WillTopic *mqtt.Topic
	// WillMessage is the payload of the will. Required if WillTopic is set.
	WillMessage []byte
	// WillRetain determines whether the server should retain the will
	// message.
	WillRetain *bool
}

// NewConnectOptions initializes a new connect options struct.
func NewConnectOptions() *ConnectOptions {
	return &ConnectOptions{}
}

// SetClientID sets the client id communicated with the server.
func (opts *ConnectOptions) SetClientID(id string) *ConnectOptions {
	opts.ClientID = &id
	return opts
}

// SetCleanSession sets the clean-session flag.
func (opts *ConnectOptions) SetCleanSession(cleanSession bool) *ConnectOptions {
	opts.CleanSession = &cleanSession
	return opts
}

// SetKeepAlive sets the keep alive to the given duration.
// NOTE: If the duration is longer than the maximum 18:12:15 (hr:min:sec),
// the value will be truncated to this maximum.
func (opts *ConnectOptions) SetKeepAlive(duration time.Duration) *ConnectOptions {
	secs := int64(duration.Seconds())
	if secs > int64(^uint16(0)) {
		secs = int64(^uint16(0))
	} else if secs < 0 {
		secs = 0
	}
	secsUint16 := uint16(secs)
	opts.KeepAlive = &secsUint16
	return opts
}

// SetUsername sets the username credential.
func (opts *ConnectOptions) SetUsername(username string) *ConnectOptions {
	opts.Username = &username
	return opts
}

// SetPassword sets the password credential.
func (opts *ConnectOptions) SetPassword(password string) *ConnectOptions {
	opts.Password = &password
	return opts
}

// SetWill sets the will topic and message.
func (opts *ConnectOptions) SetWill(
	topic mqtt.Topic,
	message []byte,
	retain bool,
) *ConnectOptions {
	opts.WillTopic = &topic
	opts.WillMessage = message
	opts.WillRetain = &retain
	return opts
}

// NewConnectPacket merges the options, later options taking precedence, into
// a CONNECT packet. A random client id is generated if none is given.
func NewConnectPacket(options ...*ConnectOptions) (*packets.Connect, error) {
	connect := &packets.Connect{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if opt.ClientID != nil {
			connect.ClientID = []byte(*opt.ClientID)
		}
		if opt.CleanSession != nil {
			connect.CleanSession = *opt.CleanSession
		}
		if opt.KeepAlive != nil {
			connect.KeepAlive = *opt.KeepAlive
		}
		if opt.Username != nil {
			connect.Username = []byte(*opt.Username)
		}
		if opt.Password != nil {
			connect.Password = []byte(*opt.Password)
		}
		if opt.WillTopic != nil {
			connect.WillTopic = opt.WillTopic.Name
			connect.WillQoS = opt.WillTopic.QoS
			connect.WillMessage = opt.WillMessage
		}
		if opt.WillRetain != nil {
			connect.WillRetain = *opt.WillRetain
		}
	}
	if len(connect.ClientID) == 0 {
		id, err := NewClientID()
		if err != nil {
			return nil, err
		}
		connect.ClientID = []byte(id)
	}
	return connect, nil
}

// PublishOptions contains configuration options for making a publish request.
type PublishOptions struct {
	// Retain determines whether the server should retain the application
	// message and it's QoS to be delivered to future subscribers.
	Retain *bool
	// Duplicate marks the message as a redelivery.
	Duplicate *bool
}

// NewPublishOptions initializes a new blank publish options struct.
func NewPublishOptions() *PublishOptions {
	return &PublishOptions{}
}

// SetRetain sets the retain flag to the given value.
func (opts *PublishOptions) SetRetain(retain bool) *PublishOptions {
	opts.Retain = &retain
	return opts
}

// SetDuplicate sets the duplicate delivery flag.
func (opts *PublishOptions) SetDuplicate(dup bool) *PublishOptions {
	opts.Duplicate = &dup
	return opts
}

// NewPublishPacket creates a PUBLISH for the topic. The packet identifier is
// assigned by Session.Publish.
func NewPublishPacket(
	topic mqtt.Topic,
	payload []byte,
	options ...*PublishOptions,
) *packets.Publish {
	pub := packets.NewPublishPacket(topic.Name, topic.QoS, payload)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if opt.Retain != nil {
			pub.Retain = *opt.Retain
		}
		if opt.Duplicate != nil {
			pub.Duplicate = *opt.Duplicate
		}
	}
	return pub
}
