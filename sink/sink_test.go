package sink

import (
	"context"
	"log/slog"
	"space-chat/domain"
	"space-chat/domain/event"
	"space-chat/domain/search"
	"space-chat/repositories"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/blugelabs/bluge"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisSink_Publishes_Envelope_On_Topic_Channel(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	redisSink := NewRedisSink(client, "spacechat:", slog.Default())

	msg := domain.NewMessage(domain.NewRoomID(), 3, "alice", "hello", "en", time.Now().UTC())
	evt := event.MessageSent{Message: msg}

	// Given a subscriber on the room channel
	pubsub := client.Subscribe(ctx, redisSink.Channel(evt.Topic()))
	t.Cleanup(func() { _ = pubsub.Close() })
	_, err := pubsub.Receive(ctx)
	req.NoError(err)

	// When the sink consumes the event
	req.NoError(redisSink.Consume(ctx, evt))

	// Then the subscriber receives the wire envelope
	select {
	case received := <-pubsub.Channel():
		req.Equal("spacechat:room."+string(msg.RoomID), received.Channel)
		var envelope event.Envelope
		req.NoError(json.Unmarshal([]byte(received.Payload), &envelope))
		req.Equal(event.MessageSentKind, envelope.Kind)
		req.Equal(uint64(3), envelope.Seq)
		view, err := envelope.DecodeMessage()
		req.NoError(err)
		req.Equal("hello", view.Content)
	case <-time.After(time.Second):
		req.Fail("nothing published")
	}
}

func TestRedisSink_Unavailable_Server(t *testing.T) {
	req := require.New(t)
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	redisSink := NewRedisSink(client, "", slog.Default())

	// Given the server went away
	server.Close()

	// Then the error is reported to the fanout, which only logs it
	err := redisSink.Consume(context.Background(), event.NotificationRead{Notification: domain.NewNotification("bob", domain.Generic, "x", time.Now().UTC())})
	req.Error(err)
}

func TestSearchSink_Follows_Message_Lifecycle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })
	index := repositories.NewMessageIndex(writer, slog.Default())
	searchSink := NewSearchSink(index, slog.Default())

	room := domain.NewRoomID()
	msg := domain.NewMessage(room, 1, "alice", "parking code is 4521", "en", time.Now().UTC())
	parking, err := search.NewSearchQuery("parking")
	req.NoError(err)

	// When the message is sent
	req.NoError(searchSink.Consume(ctx, event.MessageSent{Message: msg}))
	ids, err := index.Search(ctx, parking, []domain.RoomID{room})
	req.NoError(err)
	req.Len(ids, 1)

	// When it is deleted
	_, err = msg.SoftDelete("alice", time.Now().UTC())
	req.NoError(err)
	req.NoError(searchSink.Consume(ctx, event.MessageDeleted{Message: msg}))

	// Then it is no longer found
	ids, err = index.Search(ctx, parking, []domain.RoomID{room})
	req.NoError(err)
	req.Empty(ids)

	// And other events are ignored
	req.NoError(searchSink.Consume(ctx, event.ParticipantJoined{Room: room, Participant: "bob"}))
}
