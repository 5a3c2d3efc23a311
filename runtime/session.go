package runtime

import (
	"context"
	"space-chat/contract"
	"space-chat/domain"
	"space-chat/domain/event"
	"space-chat/errors"
	"sync"
)

var _ contract.Subscriber = (*Session)(nil)

// Session is one live connection of a participant.
// Its outbound queue is bounded: Consume never blocks, a full queue means
// the client is too slow and the dispatcher evicts it.
type Session struct {
	id            domain.SessionID
	participantID domain.ParticipantID
	events        chan event.DomainEvent
	done          chan struct{}
	mu            sync.RWMutex
	closed        bool
}

func NewSession(participantID domain.ParticipantID, bufferSize int) *Session {
	return &Session{
		id:            domain.NewSessionID(),
		participantID: participantID,
		events:        make(chan event.DomainEvent, bufferSize),
		done:          make(chan struct{}),
	}
}

func (s *Session) ID() domain.SessionID                { return s.id }
func (s *Session) ParticipantID() domain.ParticipantID { return s.participantID }

// Events is read by the transport write loop.
func (s *Session) Events() <-chan event.DomainEvent { return s.events }

// Done is closed when the session has been closed, by the client or by eviction.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ErrSessionClosed
	}
	select {
	case s.events <- e:
		return nil
	default:
		return errors.ErrSlowConsumer
	}
}

// Close is idempotent. Queued events are left to the reader, nothing new is accepted.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}
