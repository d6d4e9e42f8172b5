package client

import (
	"github.com/stretchr/testify/mock"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) HandleEvent(s *Session, ev Event) {
	m.Called(s, ev)
}

// recorder collects every event delivered to it, copying reply packets
// since they do not outlive the callback.
type recorder struct {
	events []Event
}

func (r *recorder) HandleEvent(s *Session, ev Event) {
	if reply, ok := ev.(ReplyEvent); ok {
		reply.Packet = append([]byte(nil), reply.Packet...)
		ev = reply
	}
	r.events = append(r.events, ev)
}
