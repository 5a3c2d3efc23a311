package runtime

import (
	"space-chat/domain"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestUnreadTracker_OnMessage(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()
	room, err := domain.NewRoom(domain.NewRoomID(), "", []domain.ParticipantID{"alice", "bob", "carol"}, now)
	req.NoError(err)
	cursors := map[domain.ParticipantID]domain.ReadCursor{
		"alice": domain.NewReadCursor(room.ID, "alice", 0, now),
		"bob":   {RoomID: room.ID, ParticipantID: "bob", LastReadSeq: 0, UnreadCount: 3},
	}
	// Given carol views the room and has no cursor yet
	tracker := NewUnreadTracker(func(_ domain.RoomID, p domain.ParticipantID) bool { return p == "carol" })

	// When alice sends seq 4
	msg := domain.NewMessage(room.ID, 4, "alice", "hi", "", now)
	updated, changed := tracker.OnMessage(room, cursors, msg)

	// Then every participant has a cursor, only bob accumulates
	byParticipant := lo.KeyBy(updated, func(c domain.ReadCursor) domain.ParticipantID { return c.ParticipantID })
	req.Len(byParticipant, 3)
	req.Equal(uint64(4), byParticipant["alice"].LastReadSeq)
	req.Equal(0, byParticipant["alice"].UnreadCount)
	req.Equal(4, byParticipant["bob"].UnreadCount)
	req.Equal(uint64(0), byParticipant["bob"].LastReadSeq)
	req.Equal(uint64(4), byParticipant["carol"].LastReadSeq)
	req.Equal(0, byParticipant["carol"].UnreadCount)

	// And only bob's count changed
	req.Len(changed, 1)
	req.Equal(domain.ParticipantID("bob"), changed[0].ParticipantID)

	// And the input map is left untouched
	req.Equal(3, cursors["bob"].UnreadCount)
}

func TestUnreadTracker_MarkRead(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()
	room, err := domain.NewRoom(domain.NewRoomID(), "", []domain.ParticipantID{"alice"}, now)
	req.NoError(err)
	room.LastSeq = 7
	tracker := NewUnreadTracker(func(domain.RoomID, domain.ParticipantID) bool { return false })

	// When there is no cursor yet
	cursor := tracker.MarkRead(room, nil, "alice", now)
	req.Equal(uint64(7), cursor.LastReadSeq)
	req.Equal(0, cursor.UnreadCount)

	// When there is one
	cursors := map[domain.ParticipantID]domain.ReadCursor{"alice": {RoomID: room.ID, ParticipantID: "alice", LastReadSeq: 2, UnreadCount: 5}}
	cursor = tracker.MarkRead(room, cursors, "alice", now)
	req.Equal(uint64(7), cursor.LastReadSeq)
	req.Equal(0, cursor.UnreadCount)
}
