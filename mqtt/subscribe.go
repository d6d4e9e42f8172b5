package mqtt

// Topic pairs a topic filter with the maximum QoS requested for it. Name is
// not copied by the codec; it must stay valid until the packet is built.
type Topic struct {
	Name []byte
	QoS  QoS
}

// NewTopic is a convenience constructor for string topic names.
func NewTopic(name string, qos QoS) Topic {
	return Topic{
		Name: []byte(name),
		QoS:  qos,
	}
}
