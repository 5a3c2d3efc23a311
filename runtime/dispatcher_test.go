package runtime

import (
	"context"
	"log/slog"
	"space-chat/contract"
	"space-chat/domain"
	"space-chat/domain/event"
	"space-chat/errors"
	"space-chat/mocks"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDispatcher_Publish_Delivers_To_Room_Subscribers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := mocks.NewMockIRegistry(ctrl)
	alice := mocks.NewMockSubscriber(ctrl)
	bob := mocks.NewMockSubscriber(ctrl)
	fanout := make(chan event.DomainEvent, 1)
	dispatcher := NewDispatcher(slog.Default(), registry, nil, fanout)

	roomID := domain.NewRoomID()
	evt := event.MessageSent{Message: domain.NewMessage(roomID, 1, "alice", "hi", "", time.Now().UTC())}

	// Given two sessions subscribed to the room
	registry.EXPECT().Subscribers(event.RoomTopic(roomID)).Return([]contract.Subscriber{alice, bob})
	alice.EXPECT().Consume(gomock.Any(), evt).Return(nil)
	bob.EXPECT().Consume(gomock.Any(), evt).Return(nil)

	// When the event is published
	dispatcher.Publish(context.Background(), roomID, evt)

	// Then it is forwarded to permanent sinks too
	req.Equal(evt, <-fanout)
}

func TestDispatcher_Evicts_Slow_Subscriber(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := mocks.NewMockIRegistry(ctrl)
	slow := mocks.NewMockSubscriber(ctrl)
	fast := mocks.NewMockSubscriber(ctrl)
	telemetry := make(chan event.Event, 1)
	dispatcher := NewDispatcher(slog.Default(), registry, telemetry, nil)

	evt := event.NotificationPublished{Notification: domain.NewNotification("bob", domain.Generic, "hello", time.Now().UTC())}

	// Given one of the sessions has a full queue
	registry.EXPECT().Subscribers(event.ParticipantTopic("bob")).Return([]contract.Subscriber{slow, fast})
	slow.EXPECT().Consume(gomock.Any(), evt).Return(errors.ErrSlowConsumer)
	fast.EXPECT().Consume(gomock.Any(), evt).Return(nil)
	slow.EXPECT().ID().Return(domain.SessionID("s1")).AnyTimes()
	slow.EXPECT().ParticipantID().Return(domain.ParticipantID("bob")).AnyTimes()
	registry.EXPECT().Remove(domain.SessionID("s1")).Return(slow, true)
	slow.EXPECT().Close()

	// When an event is published to the participant
	dispatcher.PublishToParticipant(context.Background(), "bob", evt)

	// Then the slow session is evicted and reported
	reported := <-telemetry
	req.Equal(event.SessionEvictedType, reported.Type)
	req.Equal(domain.SessionID("s1"), reported.Payload.(event.SessionEvicted).SessionID)
}

func TestDispatcher_Forward_Drops_When_Fanout_Is_Full(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().Subscribers(gomock.Any()).Return(nil).Times(2)

	// Given a fanout channel already holding one event
	fanout := make(chan event.DomainEvent, 1)
	telemetry := make(chan event.Event, 1)
	dispatcher := NewDispatcher(slog.Default(), registry, telemetry, fanout)
	roomID := domain.NewRoomID()
	dispatcher.Publish(context.Background(), roomID, event.MessageSent{})

	// When publishing again, the room is not held
	start := time.Now()
	dispatcher.Publish(context.Background(), roomID, event.MessageEdited{})
	req.Less(time.Since(start), 50*time.Millisecond)

	// Then the event is dropped for permanent sinks and the saturation reported
	req.Len(fanout, 1)
	reported := <-telemetry
	req.Equal(event.ChannelCapacityType, reported.Type)
	req.Equal(event.ChannelCapacity{ChannelName: "domain_events", Capacity: 1, Length: 1}, reported.Payload)
}

func TestSession_Bounded_Queue(t *testing.T) {
	req := require.New(t)
	session := NewSession("alice", 1)
	ctx := context.Background()

	req.NoError(session.Consume(ctx, event.MessageSent{}))
	// When the queue is full
	req.ErrorIs(session.Consume(ctx, event.MessageSent{}), errors.ErrSlowConsumer)

	// When the session is closed
	session.Close()
	session.Close()
	req.ErrorIs(session.Consume(ctx, event.MessageSent{}), errors.ErrSessionClosed)
	select {
	case <-session.Done():
	default:
		req.Fail("done must be closed")
	}
}
