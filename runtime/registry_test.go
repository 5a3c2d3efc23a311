package runtime

import (
	"space-chat/domain"
	"space-chat/domain/event"
	"space-chat/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Subscribe_One_Room_One_Participant(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.NewRoomID()
	session := NewSession("alice", 4)

	// Given no user is connected
	req.Empty(registry.Subscribers(event.RoomTopic(roomID)))

	// When a participant connects and subscribes a room
	registry.Register(session)
	registry.SubscribeParticipant("alice", event.RoomTopic(roomID))

	// Then the room resolves to the participant's session
	subscribers := registry.Subscribers(event.RoomTopic(roomID))
	req.Len(subscribers, 1)
	req.Equal(session.ID(), subscribers[0].ID())
}

func TestRegistry_Sessions_Share_Participant_Subscriptions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	topic := event.RoomTopic(domain.NewRoomID())
	laptop := NewSession("alice", 4)
	phone := NewSession("alice", 4)

	// Given a first session subscribed to a room
	registry.Register(laptop)
	registry.SubscribeParticipant("alice", topic)

	// When a second session of the same participant connects
	registry.Register(phone)

	// Then both receive the room's events
	req.Len(registry.Subscribers(topic), 2)

	// When the first disconnects, the second keeps the subscription
	_, ok := registry.Remove(laptop.ID())
	req.True(ok)
	req.Len(registry.Subscribers(topic), 1)

	// When the last one disconnects nothing is left behind
	registry.Remove(phone.ID())
	req.Empty(registry.Subscribers(topic))
	req.Empty(registry.topicMembers)
	req.Empty(registry.participantTopics)
}

func TestRegistry_Subscribe_Offline_Participant_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	topic := event.RoomTopic(domain.NewRoomID())

	registry.SubscribeParticipant("bob", topic)

	req.Empty(registry.Subscribers(topic))
	req.Empty(registry.topicMembers)
}

func TestRegistry_Unsubscribe(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	topic := event.RoomTopic(domain.NewRoomID())
	registry.Register(NewSession("alice", 4))
	registry.Register(NewSession("bob", 4))
	registry.SubscribeParticipant("alice", topic)
	registry.SubscribeParticipant("bob", topic)

	// When a participant unsubscribes a room
	registry.UnsubscribeParticipant("alice", topic)

	// Then only the other participant remains
	subscribers := registry.Subscribers(topic)
	req.Len(subscribers, 1)
	req.Equal(domain.ParticipantID("bob"), subscribers[0].ParticipantID())
}

func TestRegistry_Viewing(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.NewRoomID()
	laptop := NewSession("alice", 4)
	phone := NewSession("alice", 4)
	registry.Register(laptop)
	registry.Register(phone)

	// Given no session views the room
	req.False(registry.IsViewing(roomID, "alice"))

	// When one session marks the room active
	req.NoError(registry.SetViewing(laptop.ID(), roomID, true))
	req.True(registry.IsViewing(roomID, "alice"))
	req.False(registry.IsViewing(roomID, "bob"))

	// When it becomes inactive while the other one views it
	req.NoError(registry.SetViewing(phone.ID(), roomID, true))
	req.NoError(registry.SetViewing(laptop.ID(), roomID, false))
	req.True(registry.IsViewing(roomID, "alice"))

	// When flags are cleared for the participant
	registry.ClearViewing("alice", roomID)
	req.False(registry.IsViewing(roomID, "alice"))

	// When the session is unknown
	err := registry.SetViewing("unknown", roomID, true)
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestRegistry_Remove_Clears_Viewing(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.NewRoomID()
	session := NewSession("alice", 4)
	registry.Register(session)
	req.NoError(registry.SetViewing(session.ID(), roomID, true))

	registry.Remove(session.ID())

	req.False(registry.IsViewing(roomID, "alice"))
	req.Empty(registry.viewing)
	_, ok := registry.Remove(session.ID())
	req.False(ok)
}
