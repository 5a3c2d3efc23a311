package runtime

import (
	"maps"
	"space-chat/domain"
	"space-chat/runtime/workers"
	"sync/atomic"
)

// roomSnapshot is an immutable copy of a room, read without going through its worker.
type roomSnapshot struct {
	room    domain.Room
	cursors map[domain.ParticipantID]domain.ReadCursor
}

// roomState is owned by the room's worker: room and cursors are only touched
// from inside a task. Other goroutines read the latest snapshot.
type roomState struct {
	room     domain.Room
	cursors  map[domain.ParticipantID]domain.ReadCursor
	snapshot atomic.Pointer[roomSnapshot]
}

func newRoomState(room domain.Room, cursors []domain.ReadCursor) *roomState {
	s := &roomState{room: room, cursors: make(map[domain.ParticipantID]domain.ReadCursor, len(cursors))}
	for _, c := range cursors {
		s.cursors[c.ParticipantID] = c
	}
	s.publish()
	return s
}

// apply is called once the transition has been committed.
func (s *roomState) apply(room domain.Room, cursors []domain.ReadCursor, cleared []domain.ParticipantID) {
	s.room = room
	for _, c := range cursors {
		s.cursors[c.ParticipantID] = c
	}
	for _, p := range cleared {
		delete(s.cursors, p)
	}
	s.publish()
}

func (s *roomState) publish() {
	s.snapshot.Store(&roomSnapshot{room: s.room.Clone(), cursors: maps.Clone(s.cursors)})
}

func (s *roomState) load() *roomSnapshot { return s.snapshot.Load() }

type roomActor struct {
	worker *workers.RoomWorker
	state  *roomState
}
