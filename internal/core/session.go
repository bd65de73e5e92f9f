package core

import "context"

// Session binds a resolved identity to a live transport connection for the
// lifetime of that connection. Events are drained by the transport write
// loop; broadcast-group state is mutated only through the Hub.
type Session struct {
	ID       string
	Identity string
	Events   chan *Event
}

// NewSession constructs a session with an initialized event channel.
func NewSession(id, identity string) *Session {
	return &Session{
		ID:       id,
		Identity: identity,
		Events:   make(chan *Event, 16),
	}
}

// Send delivers a direct response event, blocking until the write loop
// accepts it or the context is done. Responses must not be dropped.
func (s *Session) Send(ctx context.Context, ev *Event) error {
	select {
	case s.Events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Push delivers a broadcast event, dropping it if the consumer is slow.
func (s *Session) Push(ev *Event) {
	select {
	case s.Events <- ev:
	default:
		// Drop if slow consumer.
	}
}
