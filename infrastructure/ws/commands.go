package ws

import (
	"context"
	"fmt"
	"space-chat/domain"
	"space-chat/domain/event"
	"space-chat/errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type commandHandler func(ctx context.Context, c *connection, frame CommandFrame) (any, error)

var commands = map[string]commandHandler{
	SendMessage:          sendMessage,
	EditMessage:          editMessage,
	DeleteMessage:        deleteMessage,
	LeaveRoom:            leaveRoom,
	MarkRead:             markRead,
	MarkActive:           markActive,
	MarkInactive:         markInactive,
	History:              history,
	SearchMessages:       searchMessages,
	ListNotifications:    listNotifications,
	MarkNotificationRead: markNotificationRead,
}

// execute runs one client command on behalf of the connected participant.
func (c *connection) execute(ctx context.Context, frame CommandFrame) ReplyFrame {
	handler, ok := commands[frame.Command]
	if !ok {
		return errorReply(frame.ID, fmt.Errorf("%q: %w", frame.Command, errors.ErrInvalidCommand))
	}
	result, err := handler(ctx, c, frame)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeInternal {
			c.log.Error("Command failed", "command", frame.Command, "participant", c.participant, "error", err)
		}
		return errorReply(frame.ID, err)
	}
	return okReply(frame.ID, result)
}

func decode[T any](frame CommandFrame) (T, error) {
	var payload T
	if len(frame.Payload) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		return payload, fmt.Errorf("%s payload: %v: %w", frame.Command, err, errors.ErrInvalidArgument)
	}
	return payload, nil
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s %q: %w", field, raw, errors.ErrInvalidArgument)
	}
	return id, nil
}

func sendMessage(ctx context.Context, c *connection, frame CommandFrame) (any, error) {
	payload, err := decode[ContentPayload](frame)
	if err != nil {
		return nil, err
	}
	msg, err := c.chat.SendMessage(ctx, domain.SendMessageCommand{Room: domain.RoomID(frame.RoomID), SenderID: c.participant, Content: payload.Content})
	if err != nil {
		return nil, err
	}
	return event.ToMessageView(msg), nil
}

func editMessage(ctx context.Context, c *connection, frame CommandFrame) (any, error) {
	payload, err := decode[EditPayload](frame)
	if err != nil {
		return nil, err
	}
	id, err := parseID(payload.MessageID, "messageId")
	if err != nil {
		return nil, err
	}
	msg, err := c.chat.EditMessage(ctx, domain.EditMessageCommand{MessageID: id, RequesterID: c.participant, Content: payload.Content})
	if err != nil {
		return nil, err
	}
	return event.ToMessageView(msg), nil
}

func deleteMessage(ctx context.Context, c *connection, frame CommandFrame) (any, error) {
	payload, err := decode[MessagePayload](frame)
	if err != nil {
		return nil, err
	}
	id, err := parseID(payload.MessageID, "messageId")
	if err != nil {
		return nil, err
	}
	msg, err := c.chat.DeleteMessage(ctx, domain.DeleteMessageCommand{MessageID: id, RequesterID: c.participant})
	if err != nil {
		return nil, err
	}
	return event.ToMessageView(msg), nil
}

func leaveRoom(ctx context.Context, c *connection, frame CommandFrame) (any, error) {
	room, err := c.chat.LeaveRoom(ctx, domain.LeaveRoomCommand{Room: domain.RoomID(frame.RoomID), ParticipantID: c.participant})
	if err != nil {
		return nil, err
	}
	return event.MembershipView{RoomID: string(room.ID), ParticipantID: string(c.participant), LastSeq: room.LastSeq, At: time.Now().UTC()}, nil
}

func markRead(ctx context.Context, c *connection, frame CommandFrame) (any, error) {
	cursor, err := c.chat.MarkRead(ctx, domain.MarkReadCommand{Room: domain.RoomID(frame.RoomID), ParticipantID: c.participant})
	if err != nil {
		return nil, err
	}
	return event.ToUnreadView(cursor, nil), nil
}

func markActive(ctx context.Context, c *connection, frame CommandFrame) (any, error) {
	cursor, err := c.chat.MarkActive(ctx, c.session.ID(), domain.RoomID(frame.RoomID))
	if err != nil {
		return nil, err
	}
	return event.ToUnreadView(cursor, nil), nil
}

func markInactive(ctx context.Context, c *connection, frame CommandFrame) (any, error) {
	return nil, c.chat.MarkInactive(ctx, c.session.ID(), domain.RoomID(frame.RoomID))
}

// history pages forward from afterSeq, or backwards from beforeSeq when latest is set.
func history(ctx context.Context, c *connection, frame CommandFrame) (any, error) {
	payload, err := decode[HistoryPayload](frame)
	if err != nil {
		return nil, err
	}
	query := domain.HistoryQuery{Room: domain.RoomID(frame.RoomID), RequesterID: c.participant, AfterSeq: payload.AfterSeq, Limit: payload.Limit}
	var messages []domain.Message
	if payload.Latest {
		messages, err = c.chat.LatestMessages(ctx, query, payload.BeforeSeq)
	} else {
		messages, err = c.chat.History(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	return event.ToMessageViews(messages), nil
}

func searchMessages(ctx context.Context, c *connection, frame CommandFrame) (any, error) {
	payload, err := decode[SearchPayload](frame)
	if err != nil {
		return nil, err
	}
	messages, err := c.chat.SearchMessages(ctx, c.participant, payload.Query)
	if err != nil {
		return nil, err
	}
	return event.ToMessageViews(messages), nil
}

func listNotifications(ctx context.Context, c *connection, frame CommandFrame) (any, error) {
	payload, err := decode[NotificationsPayload](frame)
	if err != nil {
		return nil, err
	}
	notifications, err := c.chat.ListNotifications(ctx, c.participant, payload.UnreadOnly, payload.Limit)
	if err != nil {
		return nil, err
	}
	return event.ToNotificationViews(notifications), nil
}

func markNotificationRead(ctx context.Context, c *connection, frame CommandFrame) (any, error) {
	payload, err := decode[NotificationPayload](frame)
	if err != nil {
		return nil, err
	}
	id, err := parseID(payload.NotificationID, "notificationId")
	if err != nil {
		return nil, err
	}
	notification, err := c.chat.MarkNotificationRead(ctx, c.participant, id)
	if err != nil {
		return nil, err
	}
	return event.ToNotificationView(notification), nil
}
