package ws

import (
	"space-chat/domain/event"
	"space-chat/errors"

	"github.com/goccy/go-json"
)

const (
	SendMessage          = "sendMessage"
	EditMessage          = "editMessage"
	DeleteMessage        = "deleteMessage"
	LeaveRoom            = "leaveRoom"
	MarkRead             = "markRead"
	MarkActive           = "markActive"
	MarkInactive         = "markInactive"
	History              = "history"
	SearchMessages       = "searchMessages"
	ListNotifications    = "listNotifications"
	MarkNotificationRead = "markNotificationRead"
)

// CommandFrame is what a client sends. Id is echoed back in the reply.
type CommandFrame struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	RoomID  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ReplyFrame struct {
	Type   event.FrameType `json:"type"`
	ID     string          `json:"id"`
	OK     bool            `json:"ok"`
	Result any             `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func okReply(id string, result any) ReplyFrame {
	return ReplyFrame{Type: event.ReplyFrame, ID: id, OK: true, Result: result}
}

func errorReply(id string, err error) ReplyFrame {
	return ReplyFrame{
		Type:  event.ReplyFrame,
		ID:    id,
		Error: &ErrorBody{Code: errors.CodeOf(err), Message: errors.PublicMessage(err)},
	}
}

type ContentPayload struct {
	Content string `json:"content"`
}

type EditPayload struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type MessagePayload struct {
	MessageID string `json:"messageId"`
}

type HistoryPayload struct {
	AfterSeq  uint64 `json:"afterSeq"`
	BeforeSeq uint64 `json:"beforeSeq"`
	Latest    bool   `json:"latest"`
	Limit     int    `json:"limit"`
}

type SearchPayload struct {
	Query string `json:"query"`
}

type NotificationsPayload struct {
	UnreadOnly bool `json:"unreadOnly"`
	Limit      int  `json:"limit"`
}

type NotificationPayload struct {
	NotificationID string `json:"notificationId"`
}
