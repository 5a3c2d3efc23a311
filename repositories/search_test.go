package repositories

import (
	"context"
	"log/slog"
	"space-chat/domain"
	"space-chat/domain/search"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openIndex(t *testing.T) MessageIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewMessageIndex(writer, slog.Default())
}

func TestMessageIndex_Search_Scoped_To_Rooms(t *testing.T) {
	req := require.New(t)
	index := openIndex(t)
	ctx := context.Background()
	roomA, roomB := domain.NewRoomID(), domain.NewRoomID()
	now := time.Now().UTC()

	inA := domain.NewMessage(roomA, 1, "alice", "the invoice for the studio", "en", now)
	inB := domain.NewMessage(roomB, 1, "bob", "invoice attached", "en", now)
	noise := domain.NewMessage(roomA, 2, "bob", "see you tomorrow", "en", now)
	for _, m := range []domain.Message{inA, inB, noise} {
		req.NoError(index.Index(m))
	}
	query, err := search.NewSearchQuery("invoice")
	req.NoError(err)

	// When searching room A only
	ids, err := index.Search(ctx, query, []domain.RoomID{roomA})
	req.NoError(err)
	req.Len(ids, 1)
	req.Equal(inA.ID, ids[0])

	// When searching both rooms
	ids, err = index.Search(ctx, query, []domain.RoomID{roomA, roomB})
	req.NoError(err)
	req.ElementsMatch([]uuid.UUID{inA.ID, inB.ID}, ids)

	// When no room is allowed
	ids, err = index.Search(ctx, query, nil)
	req.NoError(err)
	req.Empty(ids)
}

func TestMessageIndex_Edit_And_Delete(t *testing.T) {
	req := require.New(t)
	index := openIndex(t)
	ctx := context.Background()
	room := domain.NewRoomID()
	msg := domain.NewMessage(room, 1, "alice", "original wording", "en", time.Now().UTC())
	req.NoError(index.Index(msg))

	// When the message is edited
	req.NoError(msg.Edit("alice", "rewritten sentence", "en", time.Now().UTC()))
	req.NoError(index.Index(msg))

	// Then only the new wording matches
	original, _ := search.NewSearchQuery("original")
	rewritten, _ := search.NewSearchQuery("rewritten")
	ids, err := index.Search(ctx, original, []domain.RoomID{room})
	req.NoError(err)
	req.Empty(ids)
	ids, err = index.Search(ctx, rewritten, []domain.RoomID{room})
	req.NoError(err)
	req.Len(ids, 1)

	// When the message is deleted
	_, err = msg.SoftDelete("alice", time.Now().UTC())
	req.NoError(err)
	req.NoError(index.Index(msg))

	// Then nothing matches anymore
	ids, err = index.Search(ctx, rewritten, []domain.RoomID{room})
	req.NoError(err)
	req.Empty(ids)
}

func TestMessageIndex_Sender_Filter(t *testing.T) {
	req := require.New(t)
	index := openIndex(t)
	room := domain.NewRoomID()
	req.NoError(index.Index(domain.NewMessage(room, 1, "alice", "keys are under the mat", "en", time.Now().UTC())))
	req.NoError(index.Index(domain.NewMessage(room, 2, "bob", "thanks for the keys", "en", time.Now().UTC())))

	query, err := search.NewSearchQuery("keys --sender bob")
	req.NoError(err)
	ids, err := index.Search(context.Background(), query, []domain.RoomID{room})

	req.NoError(err)
	req.Len(ids, 1)
}
