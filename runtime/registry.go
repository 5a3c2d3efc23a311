package runtime

import (
	"fmt"
	"space-chat/contract"
	"space-chat/domain"
	"space-chat/domain/event"
	"space-chat/errors"
	"sync"
)

var _ contract.IRegistry = (*Registry)(nil)

// Registry maps topics to live sessions.
//
// Subscriptions are held per participant, not per session: every session of a
// participant receives the same topics, and a session opened later inherits
// them. Subscriptions of a participant vanish with their last session.
type Registry struct {
	mu                  sync.RWMutex
	sessions            map[domain.SessionID]contract.Subscriber
	participantSessions map[domain.ParticipantID]domain.Set[domain.SessionID]
	participantTopics   map[domain.ParticipantID]domain.Set[event.Topic]
	topicMembers        map[event.Topic]domain.Set[domain.ParticipantID]
	viewing             map[domain.RoomID]domain.Set[domain.SessionID]
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:            make(map[domain.SessionID]contract.Subscriber),
		participantSessions: make(map[domain.ParticipantID]domain.Set[domain.SessionID]),
		participantTopics:   make(map[domain.ParticipantID]domain.Set[event.Topic]),
		topicMembers:        make(map[event.Topic]domain.Set[domain.ParticipantID]),
		viewing:             make(map[domain.RoomID]domain.Set[domain.SessionID]),
	}
}

func (r *Registry) Register(s contract.Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
	add(r.participantSessions, s.ParticipantID(), s.ID())
}

// Remove unregisters a session and its active-viewer flags.
// The participant's subscriptions are dropped with their last session.
func (r *Registry) Remove(id domain.SessionID) (contract.Subscriber, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	delete(r.sessions, id)
	for roomID := range r.viewing {
		remove(r.viewing, roomID, id)
	}
	p := s.ParticipantID()
	remove(r.participantSessions, p, id)
	if _, online := r.participantSessions[p]; !online {
		for topic := range r.participantTopics[p] {
			remove(r.topicMembers, topic, p)
		}
		delete(r.participantTopics, p)
	}
	return s, true
}

func (r *Registry) Get(id domain.SessionID) (contract.Subscriber, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// SubscribeParticipant is a no-op for a participant without live session:
// Connect subscribes the current rooms from the store.
func (r *Registry) SubscribeParticipant(p domain.ParticipantID, topic event.Topic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, online := r.participantSessions[p]; !online {
		return
	}
	add(r.participantTopics, p, topic)
	add(r.topicMembers, topic, p)
}

func (r *Registry) UnsubscribeParticipant(p domain.ParticipantID, topic event.Topic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	remove(r.participantTopics, p, topic)
	remove(r.topicMembers, topic, p)
}

// Subscribers resolves a topic into the live sessions of its participants.
func (r *Registry) Subscribers(topic event.Topic) []contract.Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var subscribers []contract.Subscriber
	for p := range r.topicMembers[topic] {
		for id := range r.participantSessions[p] {
			subscribers = append(subscribers, r.sessions[id])
		}
	}
	return subscribers
}

func (r *Registry) SetViewing(id domain.SessionID, roomID domain.RoomID, viewing bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, errors.ErrSessionNotFound)
	}
	if viewing {
		add(r.viewing, roomID, id)
	} else {
		remove(r.viewing, roomID, id)
	}
	return nil
}

func (r *Registry) ClearViewing(p domain.ParticipantID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.participantSessions[p] {
		remove(r.viewing, roomID, id)
	}
}

// IsViewing reports whether at least one session of p has the room open.
func (r *Registry) IsViewing(roomID domain.RoomID, p domain.ParticipantID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id := range r.viewing[roomID] {
		if s, ok := r.sessions[id]; ok && s.ParticipantID() == p {
			return true
		}
	}
	return false
}

// All returns every live session.
func (r *Registry) All() []contract.Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]contract.Subscriber, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	return all
}

func add[K comparable, V comparable](m map[K]domain.Set[V], key K, value V) {
	set, ok := m[key]
	if !ok {
		set = domain.NewSet[V]()
		m[key] = set
	}
	set[value] = struct{}{}
}

// remove deletes empty sets to prevent memory leaks over time.
func remove[K comparable, V comparable](m map[K]domain.Set[V], key K, value V) {
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, value)
	if len(set) == 0 {
		delete(m, key)
	}
}
