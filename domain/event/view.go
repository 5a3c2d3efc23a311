package event

import (
	"space-chat/domain"
	"time"

	"github.com/samber/lo"
)

// Wire representations shared by the websocket, the gRPC API and the Redis bridge.

type MessageView struct {
	ID        string     `json:"id"`
	RoomID    string     `json:"roomId"`
	Seq       uint64     `json:"seq"`
	SenderID  string     `json:"senderId"`
	Content   string     `json:"content"`
	Lang      string     `json:"lang,omitempty"`
	State     string     `json:"state"`
	CreatedAt time.Time  `json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

func ToMessageView(m domain.Message) MessageView {
	return MessageView{
		ID:        m.ID.String(),
		RoomID:    string(m.RoomID),
		Seq:       m.Seq,
		SenderID:  string(m.SenderID),
		Content:   m.Content,
		Lang:      m.Lang,
		State:     string(m.State()),
		CreatedAt: m.CreatedAt,
		EditedAt:  m.EditedAt,
		DeletedAt: m.DeletedAt,
	}
}

func ToMessageViews(messages []domain.Message) []MessageView {
	return lo.Map(messages, func(m domain.Message, _ int) MessageView { return ToMessageView(m) })
}

type SummaryView struct {
	MessageID string    `json:"messageId"`
	Seq       uint64    `json:"seq"`
	SenderID  string    `json:"senderId"`
	Preview   string    `json:"preview"`
	Deleted   bool      `json:"deleted,omitempty"`
	At        time.Time `json:"at"`
}

func ToSummaryView(s *domain.MessageSummary) *SummaryView {
	if s == nil {
		return nil
	}
	return &SummaryView{
		MessageID: s.MessageID.String(),
		Seq:       s.Seq,
		SenderID:  string(s.SenderID),
		Preview:   s.Preview,
		Deleted:   s.Deleted,
		At:        s.At,
	}
}

type RoomView struct {
	RoomID       string       `json:"roomId"`
	Name         string       `json:"name,omitempty"`
	Participants []string     `json:"participants"`
	LastMessage  *SummaryView `json:"lastMessage,omitempty"`
	LastSeq      uint64       `json:"lastSeq"`
	LastReadSeq  uint64       `json:"lastReadSeq"`
	UnreadCount  int          `json:"unreadCount"`
}

func ToRoomView(s domain.RoomSummary) RoomView {
	return RoomView{
		RoomID:       string(s.RoomID),
		Name:         s.Name,
		Participants: lo.Map(s.Participants, func(p domain.ParticipantID, _ int) string { return string(p) }),
		LastMessage:  ToSummaryView(s.LastMessage),
		LastSeq:      s.LastSeq,
		LastReadSeq:  s.LastReadSeq,
		UnreadCount:  s.UnreadCount,
	}
}

type MembershipView struct {
	RoomID        string    `json:"roomId"`
	ParticipantID string    `json:"participantId"`
	LastSeq       uint64    `json:"lastSeq"`
	At            time.Time `json:"at"`
}

type UnreadView struct {
	RoomID      string       `json:"roomId"`
	LastReadSeq uint64       `json:"lastReadSeq"`
	UnreadCount int          `json:"unreadCount"`
	LastMessage *SummaryView `json:"lastMessage,omitempty"`
}

func ToUnreadView(c domain.ReadCursor, last *domain.MessageSummary) UnreadView {
	return UnreadView{
		RoomID:      string(c.RoomID),
		LastReadSeq: c.LastReadSeq,
		UnreadCount: c.UnreadCount,
		LastMessage: ToSummaryView(last),
	}
}

type NotificationView struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipientId"`
	Kind        string    `json:"kind"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
}

func ToNotificationView(n domain.Notification) NotificationView {
	return NotificationView{
		ID:          n.ID.String(),
		RecipientID: string(n.RecipientID),
		Kind:        string(n.Kind),
		Content:     n.Content,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
}

func ToNotificationViews(notifications []domain.Notification) []NotificationView {
	return lo.Map(notifications, func(n domain.Notification, _ int) NotificationView { return ToNotificationView(n) })
}

// SnapshotView is the first frame a connected client receives.
type SnapshotView struct {
	Type                FrameType          `json:"type"`
	SessionID           string             `json:"sessionId"`
	ParticipantID       string             `json:"participantId"`
	Rooms               []RoomView         `json:"rooms"`
	UnreadNotifications int                `json:"unreadNotifications"`
	Notifications       []NotificationView `json:"notifications"`
}

func NewSnapshotView(sessionID domain.SessionID, p domain.ParticipantID, rooms []domain.RoomSummary, unreadNotifications int, notifications []domain.Notification) SnapshotView {
	return SnapshotView{
		Type:                SnapshotFrame,
		SessionID:           string(sessionID),
		ParticipantID:       string(p),
		Rooms:               lo.Map(rooms, func(s domain.RoomSummary, _ int) RoomView { return ToRoomView(s) }),
		UnreadNotifications: unreadNotifications,
		Notifications:       ToNotificationViews(notifications),
	}
}
