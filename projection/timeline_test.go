package projection

import (
	"space-chat/domain"
	"space-chat/domain/event"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func envelopeOf(t *testing.T, e event.DomainEvent) event.Envelope {
	t.Helper()
	envelope, err := event.NewEnvelope(e)
	require.NoError(t, err)
	return envelope
}

func TestTimeline_Orders_And_Deduplicates(t *testing.T) {
	req := require.New(t)
	room := domain.NewRoomID()
	timeline := NewTimeline(string(room))
	at := time.Now().UTC()

	first := domain.NewMessage(room, 1, "alice", "Hello Bob", "en", at)
	second := domain.NewMessage(room, 2, "clara", "Hi Bob", "en", at.Add(time.Second))

	// When the second message arrives before the first, and the first twice
	for _, msg := range []domain.Message{second, first, first} {
		_, err := timeline.Apply(envelopeOf(t, event.MessageSent{Message: msg}))
		req.NoError(err)
	}

	// Then the timeline is in seq order without duplicates
	messages := timeline.Messages()
	req.Len(messages, 2)
	req.Equal("alice", messages[0].SenderID)
	req.Equal("clara", messages[1].SenderID)
	req.Equal(uint64(2), timeline.LastSeq())
	req.Empty(timeline.Missing())
}

func TestTimeline_Delete_Is_Terminal(t *testing.T) {
	req := require.New(t)
	room := domain.NewRoomID()
	timeline := NewTimeline(string(room))
	at := time.Now().UTC()

	msg := domain.NewMessage(room, 1, "alice", "parking code 4521", "en", at)
	edited := msg
	req.NoError(edited.Edit("alice", "parking code 4522", "en", at.Add(time.Second)))
	deleted := edited
	_, err := deleted.SoftDelete("alice", at.Add(2*time.Second))
	req.NoError(err)

	// Given the message was sent then deleted
	changed, err := timeline.Apply(envelopeOf(t, event.MessageSent{Message: msg}))
	req.NoError(err)
	req.True(changed)
	changed, err = timeline.Apply(envelopeOf(t, event.MessageDeleted{Message: deleted}))
	req.NoError(err)
	req.True(changed)

	// When a late edit shows up
	changed, err = timeline.Apply(envelopeOf(t, event.MessageEdited{Message: edited}))
	req.NoError(err)

	// Then the delete marker wins
	req.False(changed)
	messages := timeline.Messages()
	req.Len(messages, 1)
	req.Equal(string(domain.MessageDeleted), messages[0].State)
	req.Equal(domain.DeletedContent, messages[0].Content)
}

func TestTimeline_Keeps_Latest_Edit(t *testing.T) {
	req := require.New(t)
	room := domain.NewRoomID()
	timeline := NewTimeline(string(room))
	at := time.Now().UTC()

	msg := domain.NewMessage(room, 1, "alice", "v1", "", at)
	v2 := msg
	req.NoError(v2.Edit("alice", "v2", "", at.Add(time.Second)))
	v3 := v2
	req.NoError(v3.Edit("alice", "v3", "", at.Add(2*time.Second)))

	// When edits arrive out of order
	timeline.Load([]event.MessageView{event.ToMessageView(msg)})
	for _, e := range []domain.Message{v3, v2} {
		_, err := timeline.Apply(envelopeOf(t, event.MessageEdited{Message: e}))
		req.NoError(err)
	}

	// Then the newest content is kept
	req.Equal("v3", timeline.Messages()[0].Content)
}

func TestTimeline_Reports_Missing_Seqs_And_Ignores_Other_Rooms(t *testing.T) {
	req := require.New(t)
	room := domain.NewRoomID()
	timeline := NewTimeline(string(room))
	at := time.Now().UTC()

	_, err := timeline.Apply(envelopeOf(t, event.MessageSent{Message: domain.NewMessage(room, 4, "alice", "late joiner", "", at)}))
	req.NoError(err)
	changed, err := timeline.Apply(envelopeOf(t, event.MessageSent{Message: domain.NewMessage(domain.NewRoomID(), 9, "bob", "elsewhere", "", at)}))
	req.NoError(err)
	req.False(changed)

	req.Equal([]uint64{1, 2, 3}, timeline.Missing())

	// When the history page is loaded
	timeline.Load([]event.MessageView{
		event.ToMessageView(domain.NewMessage(room, 2, "bob", "b", "", at)),
		event.ToMessageView(domain.NewMessage(room, 1, "bob", "a", "", at)),
		event.ToMessageView(domain.NewMessage(room, 3, "bob", "c", "", at)),
	})
	req.Empty(timeline.Missing())
	req.Len(timeline.Messages(), 4)
}
