package runtime

import (
	"space-chat/domain"
	"time"
)

// UnreadTracker derives read cursors from ledger transitions.
// It holds no state: the room's worker owns the cursors and persists what it returns.
type UnreadTracker struct {
	isViewing func(roomID domain.RoomID, p domain.ParticipantID) bool
}

func NewUnreadTracker(isViewing func(roomID domain.RoomID, p domain.ParticipantID) bool) UnreadTracker {
	return UnreadTracker{isViewing: isViewing}
}

// OnMessage applies msg to the cursor of every current participant.
// The sender and active viewers are caught up, everyone else gets one more unread.
// It returns every updated cursor and, among them, those whose unread count changed.
func (u UnreadTracker) OnMessage(room domain.Room, cursors map[domain.ParticipantID]domain.ReadCursor,
	msg domain.Message) (updated, changed []domain.ReadCursor) {
	for _, p := range room.ParticipantIDs() {
		cursor, ok := cursors[p]
		if !ok {
			cursor = domain.NewReadCursor(room.ID, p, msg.Seq-1, msg.CreatedAt)
		}
		before := cursor.UnreadCount
		if p == msg.SenderID || u.isViewing(room.ID, p) {
			cursor.LastReadSeq = msg.Seq
			cursor.UnreadCount = 0
		} else {
			cursor.UnreadCount++
		}
		cursor.UpdatedAt = msg.CreatedAt
		updated = append(updated, cursor)
		if cursor.UnreadCount != before {
			changed = append(changed, cursor)
		}
	}
	return updated, changed
}

// MarkRead catches p up with the room, creating the cursor when it does not exist yet.
func (u UnreadTracker) MarkRead(room domain.Room, cursors map[domain.ParticipantID]domain.ReadCursor,
	p domain.ParticipantID, at time.Time) domain.ReadCursor {
	cursor, ok := cursors[p]
	if !ok {
		return domain.NewReadCursor(room.ID, p, room.LastSeq, at)
	}
	cursor.LastReadSeq = room.LastSeq
	cursor.UnreadCount = 0
	cursor.UpdatedAt = at
	return cursor
}
