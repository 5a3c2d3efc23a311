package repositories

import (
	"log/slog"
	"space-chat/domain"
	"space-chat/errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newRoom(t *testing.T, participants ...domain.ParticipantID) domain.Room {
	t.Helper()
	room, err := domain.NewRoom(domain.NewRoomID(), "studio", participants, time.Now().UTC())
	require.NoError(t, err)
	return room
}

func TestLedger_Commit_Room_Message_And_Cursors(t *testing.T) {
	req := require.New(t)
	db := openDB(t)
	ledger := NewLedgerRepository(db, slog.Default())
	rooms := NewRoomRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default(), 10)
	cursors := NewCursorRepository(db, slog.Default())
	now := time.Now().UTC()

	// Given a created room
	room := newRoom(t, "alice", "bob")
	req.NoError(ledger.Commit(Mutation{
		Room: &room,
		Cursors: []domain.ReadCursor{
			domain.NewReadCursor(room.ID, "alice", 0, now),
			domain.NewReadCursor(room.ID, "bob", 0, now),
		},
	}))

	// When a message is committed with the cursor changes
	msg := domain.NewMessage(room.ID, 1, "alice", "hello", "en", now)
	req.NoError(room.Record(msg))
	req.NoError(ledger.Commit(Mutation{
		Room:     &room,
		Messages: []domain.Message{msg},
		Cursors: []domain.ReadCursor{
			{RoomID: room.ID, ParticipantID: "alice", LastReadSeq: 1, UpdatedAt: now},
			{RoomID: room.ID, ParticipantID: "bob", UnreadCount: 1, UpdatedAt: now},
		},
	}))

	// Then everything is readable
	stored, err := rooms.Get(room.ID)
	req.NoError(err)
	req.Equal(uint64(1), stored.LastSeq)
	req.Equal(msg.ID, stored.LastMessage.MessageID)
	req.Equal(room.ParticipantIDs(), stored.ParticipantIDs())

	fetched, err := messages.Get(msg.ID)
	req.NoError(err)
	req.Equal(msg, fetched)

	bobCursor, err := cursors.Get(room.ID, "bob")
	req.NoError(err)
	req.Equal(1, bobCursor.UnreadCount)

	all, err := cursors.ListForRoom(room.ID)
	req.NoError(err)
	req.Len(all, 2)
}

func TestLedger_Commit_Moves_Membership_Indexes(t *testing.T) {
	req := require.New(t)
	db := openDB(t)
	ledger := NewLedgerRepository(db, slog.Default())
	rooms := NewRoomRepository(db, slog.Default())
	cursors := NewCursorRepository(db, slog.Default())

	room := newRoom(t, "alice", "bob")
	req.NoError(ledger.Commit(Mutation{
		Room:    &room,
		Cursors: []domain.ReadCursor{domain.NewReadCursor(room.ID, "bob", 0, time.Now())},
	}))

	// When bob leaves
	room.Leave("bob")
	req.NoError(ledger.Commit(Mutation{Room: &room, ClearedCursors: []domain.ParticipantID{"bob"}}))

	// Then bob's room only shows in the left index
	active, err := rooms.ListActiveFor("bob")
	req.NoError(err)
	req.Empty(active)
	left, err := rooms.ListLeftFor("bob")
	req.NoError(err)
	req.Equal([]domain.RoomID{room.ID}, left)
	_, err = cursors.Get(room.ID, "bob")
	req.ErrorIs(err, errors.ErrNotFound)

	// When bob joins back
	room.Join("bob")
	req.NoError(ledger.Commit(Mutation{Room: &room}))

	active, err = rooms.ListActiveFor("bob")
	req.NoError(err)
	req.Equal([]domain.RoomID{room.ID}, active)
	left, err = rooms.ListLeftFor("bob")
	req.NoError(err)
	req.Empty(left)
}

func TestLedger_Commit_Requires_Room_To_Clear_Cursors(t *testing.T) {
	req := require.New(t)
	ledger := NewLedgerRepository(openDB(t), slog.Default())

	err := ledger.Commit(Mutation{ClearedCursors: []domain.ParticipantID{"bob"}})

	req.Error(err)
}

func TestRoomRepository_Get_Unknown(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomRepository(openDB(t), slog.Default())

	_, err := rooms.Get(domain.NewRoomID())

	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestRoomRepository_Participant_Prefix_Is_Exact(t *testing.T) {
	req := require.New(t)
	db := openDB(t)
	ledger := NewLedgerRepository(db, slog.Default())
	rooms := NewRoomRepository(db, slog.Default())

	// Given "al" and "alice" in different rooms
	first := newRoom(t, "al")
	second := newRoom(t, "alice")
	req.NoError(ledger.Commit(Mutation{Room: &first}))
	req.NoError(ledger.Commit(Mutation{Room: &second}))

	// Then "al" only sees its own room
	active, err := rooms.ListActiveFor("al")
	req.NoError(err)
	req.Equal([]domain.RoomID{first.ID}, active)
}
