package services

import (
	"context"
	"space-chat/domain"
	"space-chat/errors"
	"space-chat/internal/testkit"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProvisioningService_Room_Lifecycle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	o := testkit.NewOrchestrator(t, testkit.Options())
	provisioning := NewProvisioningService(o)
	chat := NewChatService(o)

	// Given a room created by a collaborator
	room, err := provisioning.CreateRoom(ctx, domain.CreateRoomCommand{Name: "booking #12", Participants: []domain.ParticipantID{"alice", "bob"}})
	req.NoError(err)

	// When alice writes twice
	for _, content := range []string{"hello", "see you at 9"} {
		_, err = chat.SendMessage(ctx, domain.SendMessageCommand{Room: room.ID, SenderID: "alice", Content: content})
		req.NoError(err)
	}

	// Then the collaborator reads the history and bob's unread count
	history, err := provisioning.GetHistory(ctx, room.ID, 0, 0)
	req.NoError(err)
	req.Len(history, 2)
	req.Equal(uint64(2), history[1].Seq)

	page, err := provisioning.GetHistory(ctx, room.ID, 1, 10)
	req.NoError(err)
	req.Len(page, 1)
	req.Equal("see you at 9", page[0].Content)

	cursor, err := provisioning.GetUnread(ctx, room.ID, "bob")
	req.NoError(err)
	req.Equal(2, cursor.UnreadCount)

	// When bob leaves
	_, err = provisioning.LeaveRoom(ctx, domain.LeaveRoomCommand{Room: room.ID, ParticipantID: "bob"})
	req.NoError(err)

	// Then the room is listed as history only
	listing, err := provisioning.ListRooms(ctx, "bob")
	req.NoError(err)
	req.Empty(listing.Active)
	req.Equal([]domain.RoomID{room.ID}, listing.Left)

	// And he keeps read access through the chat service
	messages, err := chat.History(ctx, domain.HistoryQuery{Room: room.ID, RequesterID: "bob"})
	req.NoError(err)
	req.Len(messages, 2)

	// When he is invited back
	_, err = provisioning.JoinRoom(ctx, domain.JoinRoomCommand{Room: room.ID, ParticipantID: "bob"})
	req.NoError(err)
	listing, err = provisioning.ListRooms(ctx, "bob")
	req.NoError(err)
	req.Equal([]domain.RoomID{room.ID}, listing.Active)
	req.Empty(listing.Left)
}

func TestProvisioningService_Rejections(t *testing.T) {
	ctx := context.Background()
	o := testkit.NewOrchestrator(t, testkit.Options())
	provisioning := NewProvisioningService(o)

	t.Run("should reject a room without participants", func(t *testing.T) {
		_, err := provisioning.CreateRoom(ctx, domain.CreateRoomCommand{Name: "nobody"})
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
	})

	t.Run("should report a missing room", func(t *testing.T) {
		_, err := provisioning.GetHistory(ctx, domain.NewRoomID(), 0, 10)
		require.ErrorIs(t, err, errors.ErrNotFound)
		_, err = provisioning.JoinRoom(ctx, domain.JoinRoomCommand{Room: domain.NewRoomID(), ParticipantID: "bob"})
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("should reject an unknown notification kind", func(t *testing.T) {
		_, err := provisioning.PublishNotification(ctx, domain.PublishNotificationCommand{RecipientID: "bob", Kind: "promo", Content: "x"})
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
	})

	t.Run("should reject an invalid participant", func(t *testing.T) {
		_, err := provisioning.ListRooms(ctx, "")
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
	})
}

func TestChatService_Notifications(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	o := testkit.NewOrchestrator(t, testkit.Options())
	provisioning := NewProvisioningService(o)
	chat := NewChatService(o)

	// Given bob is connected
	session, snapshot, err := chat.Connect(ctx, "bob")
	req.NoError(err)
	req.Zero(snapshot.UnreadNotifications)

	// When a collaborator notifies him
	published, err := provisioning.PublishNotification(ctx, domain.PublishNotificationCommand{RecipientID: "bob", Kind: domain.NewReservation, Content: "Desk 4 booked"})
	req.NoError(err)

	// Then the session receives it and the feed lists it as unread
	select {
	case e := <-session.Events():
		req.Equal("participant.bob", string(e.Topic()))
	case <-time.After(time.Second):
		req.Fail("notification not delivered")
	}
	unread, err := chat.ListNotifications(ctx, "bob", true, 10)
	req.NoError(err)
	req.Len(unread, 1)
	req.Equal(published.ID, unread[0].ID)

	// When he reads it
	read, err := chat.MarkNotificationRead(ctx, "bob", published.ID)
	req.NoError(err)
	req.True(read.IsRead)

	// Then the unread feed is empty and another participant cannot read it
	unread, err = chat.ListNotifications(ctx, "bob", true, 10)
	req.NoError(err)
	req.Empty(unread)
	_, err = chat.MarkNotificationRead(ctx, "alice", published.ID)
	req.ErrorIs(err, errors.ErrNotFound)

	req.NoError(chat.Disconnect(session.ID()))
}

func TestChatService_Validates_Commands(t *testing.T) {
	ctx := context.Background()
	chat := NewChatService(nil)

	// Validation happens before the orchestrator is reached
	_, err := chat.SendMessage(ctx, domain.SendMessageCommand{Room: "not-a-uuid", SenderID: "alice", Content: "x"})
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
	_, err = chat.EditMessage(ctx, domain.EditMessageCommand{RequesterID: "alice", Content: "x"})
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
	_, err = chat.MarkRead(ctx, domain.MarkReadCommand{Room: domain.NewRoomID()})
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
	_, err = chat.History(ctx, domain.HistoryQuery{Room: domain.NewRoomID(), RequesterID: "alice", Limit: -1})
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
}
