package repositories

import (
	"fmt"
	"log/slog"
	"space-chat/domain"
	"space-chat/errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func seedMessages(t *testing.T, ledger LedgerRepository, room *domain.Room, count int) []domain.Message {
	t.Helper()
	at := time.Now().UTC()
	var messages []domain.Message
	for i := 1; i <= count; i++ {
		msg := domain.NewMessage(room.ID, room.LastSeq+1, "alice", fmt.Sprintf("message %d", i), "", at.Add(time.Duration(i)*time.Second))
		require.NoError(t, room.Record(msg))
		require.NoError(t, ledger.Commit(Mutation{Room: room, Messages: []domain.Message{msg}}))
		messages = append(messages, msg)
	}
	return messages
}

func seqs(messages []domain.Message) []uint64 {
	return lo.Map(messages, func(m domain.Message, _ int) uint64 { return m.Seq })
}

func Test_Range_After_Seq(t *testing.T) {
	req := require.New(t)
	db := openDB(t)
	ledger := NewLedgerRepository(db, slog.Default())
	repository := NewMessageRepository(db, slog.Default(), 3)
	room := newRoom(t, "alice")

	// Given 12 messages, more than 9 so the padding matters
	seedMessages(t, ledger, &room, 12)

	// When paging forward
	page1, err := repository.Range(room.ID, 0, 0)
	req.NoError(err)
	page2, err := repository.Range(room.ID, 3, 10)
	req.NoError(err)
	tail, err := repository.Range(room.ID, 10, 3)
	req.NoError(err)
	empty, err := repository.Range(room.ID, 12, 3)
	req.NoError(err)

	// Then pages are bounded by the repository limit and ordered by seq
	req.Equal([]uint64{1, 2, 3}, seqs(page1))
	req.Equal([]uint64{4, 5, 6}, seqs(page2))
	req.Equal([]uint64{11, 12}, seqs(tail))
	req.Empty(empty)
}

func Test_Latest_Walks_Backwards(t *testing.T) {
	req := require.New(t)
	db := openDB(t)
	ledger := NewLedgerRepository(db, slog.Default())
	repository := NewMessageRepository(db, slog.Default(), 2)
	room := newRoom(t, "alice")
	seedMessages(t, ledger, &room, 5)

	// --- PAGE 1 ---
	list1, err := repository.Latest(room.ID, 0, 0)
	req.NoError(err)
	req.Equal([]uint64{5, 4}, seqs(list1))

	// --- PAGE 2 ---
	list2, err := repository.Latest(room.ID, list1[len(list1)-1].Seq, 0)
	req.NoError(err)
	req.Equal([]uint64{3, 2}, seqs(list2))

	// --- PAGE 3 ---
	list3, err := repository.Latest(room.ID, list2[len(list2)-1].Seq, 0)
	req.NoError(err)
	req.Equal([]uint64{1}, seqs(list3))

	list4, err := repository.Latest(room.ID, 1, 0)
	req.NoError(err)
	req.Empty(list4)
}

func Test_Rooms_Do_Not_Mix(t *testing.T) {
	req := require.New(t)
	db := openDB(t)
	ledger := NewLedgerRepository(db, slog.Default())
	repository := NewMessageRepository(db, slog.Default(), 10)
	first := newRoom(t, "alice")
	second := newRoom(t, "alice")
	seedMessages(t, ledger, &first, 2)
	seedMessages(t, ledger, &second, 3)

	messages, err := repository.Range(first.ID, 0, 10)
	req.NoError(err)
	req.Len(messages, 2)
	latest, err := repository.Latest(second.ID, 0, 10)
	req.NoError(err)
	req.Len(latest, 3)
}

func Test_Update_Keeps_Seq_And_Locate(t *testing.T) {
	req := require.New(t)
	db := openDB(t)
	ledger := NewLedgerRepository(db, slog.Default())
	repository := NewMessageRepository(db, slog.Default(), 10)
	room := newRoom(t, "alice")
	msg := seedMessages(t, ledger, &room, 1)[0]

	// When the message is deleted and committed again
	_, err := msg.SoftDelete("alice", time.Now().UTC())
	req.NoError(err)
	req.NoError(ledger.Commit(Mutation{Messages: []domain.Message{msg}}))

	// Then the same seq holds the delete marker
	messages, err := repository.Range(room.ID, 0, 10)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(domain.DeletedContent, messages[0].Content)
	req.True(messages[0].IsDeleted())

	roomID, err := repository.Locate(msg.ID)
	req.NoError(err)
	req.Equal(room.ID, roomID)

	_, err = repository.Locate(uuid.New())
	req.ErrorIs(err, errors.ErrMessageNotFound)
	_, err = repository.Get(uuid.New())
	req.ErrorIs(err, errors.ErrNotFound)
}
