package repositories

import (
	"fmt"
	"space-chat/domain"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Key layout. Participant ids never contain ':' (see domain.ParticipantID.Validate).
//
//	room:{roomId}                            DiskRoom
//	member:{participantId}:{roomId}          empty, active membership index
//	left:{participantId}:{roomId}            empty, former membership index
//	msg:{roomId}:{seq %020d}                 DiskMessage
//	msgid:{messageId}                        DiskMessageRef
//	cursor:{roomId}:{participantId}          DiskCursor
//	notif:{participantId}:{nanos %019d}:{id} DiskNotification
//	notifid:{notificationId}                 key of the notif entry
const (
	RoomPrefix         = "room:"
	MemberPrefix       = "member:"
	LeftPrefix         = "left:"
	MessagePrefix      = "msg:"
	MessageIDPrefix    = "msgid:"
	CursorPrefix       = "cursor:"
	NotificationPrefix = "notif:"
	NotificationIDKey  = "notifid:"
)

func roomKey(id domain.RoomID) []byte { return []byte(RoomPrefix + string(id)) }

func memberPrefix(p domain.ParticipantID) []byte {
	return []byte(MemberPrefix + string(p) + ":")
}

func memberKey(p domain.ParticipantID, id domain.RoomID) []byte {
	return append(memberPrefix(p), string(id)...)
}

func leftPrefix(p domain.ParticipantID) []byte { return []byte(LeftPrefix + string(p) + ":") }

func leftKey(p domain.ParticipantID, id domain.RoomID) []byte {
	return append(leftPrefix(p), string(id)...)
}

func messagePrefix(id domain.RoomID) []byte { return []byte(MessagePrefix + string(id) + ":") }

// messageKey pads the seq with 20 digits so lexicographical order is seq order.
func messageKey(id domain.RoomID, seq uint64) []byte {
	return fmt.Appendf(messagePrefix(id), "%020d", seq)
}

func messageIDKey(id uuid.UUID) []byte { return []byte(MessageIDPrefix + id.String()) }

func cursorPrefix(id domain.RoomID) []byte { return []byte(CursorPrefix + string(id) + ":") }

func cursorKey(id domain.RoomID, p domain.ParticipantID) []byte {
	return append(cursorPrefix(id), string(p)...)
}

func notificationPrefix(p domain.ParticipantID) []byte {
	return []byte(NotificationPrefix + string(p) + ":")
}

func notificationKey(n domain.Notification) []byte {
	return fmt.Appendf(notificationPrefix(n.RecipientID), "%019d:%s", n.CreatedAt.UnixNano(), n.ID)
}

func notificationIDKey(id uuid.UUID) []byte { return []byte(NotificationIDKey + id.String()) }

// seekLast returns a key greater than every key under prefix, for reverse iteration.
func seekLast(prefix []byte) []byte {
	return append(append([]byte{}, prefix...), 0xFF)
}

type DiskSummary struct {
	MessageID uuid.UUID `json:"message_id"`
	Seq       uint64    `json:"seq"`
	SenderID  string    `json:"sender_id"`
	Preview   string    `json:"preview"`
	Deleted   bool      `json:"deleted,omitempty"`
	At        time.Time `json:"at"`
}

type DiskRoom struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Participants     []string     `json:"participants"`
	LeftParticipants []string     `json:"left_participants"`
	LastMessage      *DiskSummary `json:"last_message,omitempty"`
	LastSeq          uint64       `json:"last_seq"`
	CreatedAt        time.Time    `json:"created_at"`
}

type DiskMessage struct {
	ID        uuid.UUID  `json:"id"`
	RoomID    string     `json:"room_id"`
	Seq       uint64     `json:"seq"`
	SenderID  string     `json:"sender_id"`
	Content   string     `json:"content"`
	Lang      string     `json:"lang,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

type DiskMessageRef struct {
	RoomID string `json:"room_id"`
	Seq    uint64 `json:"seq"`
}

type DiskCursor struct {
	RoomID        string    `json:"room_id"`
	ParticipantID string    `json:"participant_id"`
	LastReadSeq   uint64    `json:"last_read_seq"`
	UnreadCount   int       `json:"unread_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type DiskNotification struct {
	ID          uuid.UUID `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Kind        string    `json:"kind"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

func participantStrings(s domain.Set[domain.ParticipantID]) []string {
	ids := make([]string, 0, len(s))
	for _, p := range lo.Keys(s) {
		ids = append(ids, string(p))
	}
	return ids
}

func participantSet(ids []string) domain.Set[domain.ParticipantID] {
	return domain.NewSet(lo.Map(ids, func(id string, _ int) domain.ParticipantID { return domain.ParticipantID(id) })...)
}

func fromSummary(s *domain.MessageSummary) *DiskSummary {
	if s == nil {
		return nil
	}
	return &DiskSummary{
		MessageID: s.MessageID, Seq: s.Seq, SenderID: string(s.SenderID),
		Preview: s.Preview, Deleted: s.Deleted, At: s.At,
	}
}

func toSummary(s *DiskSummary) *domain.MessageSummary {
	if s == nil {
		return nil
	}
	return &domain.MessageSummary{
		MessageID: s.MessageID, Seq: s.Seq, SenderID: domain.ParticipantID(s.SenderID),
		Preview: s.Preview, Deleted: s.Deleted, At: s.At,
	}
}

func fromRoom(r domain.Room) DiskRoom {
	return DiskRoom{
		ID:               string(r.ID),
		Name:             r.Name,
		Participants:     participantStrings(r.Participants),
		LeftParticipants: participantStrings(r.LeftParticipants),
		LastMessage:      fromSummary(r.LastMessage),
		LastSeq:          r.LastSeq,
		CreatedAt:        r.CreatedAt,
	}
}

func toRoom(d DiskRoom) domain.Room {
	return domain.Room{
		ID:               domain.RoomID(d.ID),
		Name:             d.Name,
		Participants:     participantSet(d.Participants),
		LeftParticipants: participantSet(d.LeftParticipants),
		LastMessage:      toSummary(d.LastMessage),
		LastSeq:          d.LastSeq,
		CreatedAt:        d.CreatedAt,
	}
}

func fromMessage(m domain.Message) DiskMessage {
	return DiskMessage{
		ID: m.ID, RoomID: string(m.RoomID), Seq: m.Seq, SenderID: string(m.SenderID),
		Content: m.Content, Lang: m.Lang, CreatedAt: m.CreatedAt,
		EditedAt: m.EditedAt, DeletedAt: m.DeletedAt,
	}
}

func toMessage(d DiskMessage) domain.Message {
	return domain.Message{
		ID: d.ID, RoomID: domain.RoomID(d.RoomID), Seq: d.Seq, SenderID: domain.ParticipantID(d.SenderID),
		Content: d.Content, Lang: d.Lang, CreatedAt: d.CreatedAt,
		EditedAt: d.EditedAt, DeletedAt: d.DeletedAt,
	}
}

func fromCursor(c domain.ReadCursor) DiskCursor {
	return DiskCursor{
		RoomID: string(c.RoomID), ParticipantID: string(c.ParticipantID),
		LastReadSeq: c.LastReadSeq, UnreadCount: c.UnreadCount, UpdatedAt: c.UpdatedAt,
	}
}

func toCursor(d DiskCursor) domain.ReadCursor {
	return domain.ReadCursor{
		RoomID: domain.RoomID(d.RoomID), ParticipantID: domain.ParticipantID(d.ParticipantID),
		LastReadSeq: d.LastReadSeq, UnreadCount: d.UnreadCount, UpdatedAt: d.UpdatedAt,
	}
}

func fromNotification(n domain.Notification) DiskNotification {
	return DiskNotification{
		ID: n.ID, RecipientID: string(n.RecipientID), Kind: string(n.Kind),
		Content: n.Content, IsRead: n.IsRead, CreatedAt: n.CreatedAt,
	}
}

func toNotification(d DiskNotification) domain.Notification {
	return domain.Notification{
		ID: d.ID, RecipientID: domain.ParticipantID(d.RecipientID), Kind: domain.NotificationKind(d.Kind),
		Content: d.Content, IsRead: d.IsRead, CreatedAt: d.CreatedAt,
	}
}

func decode[T any](val []byte) (T, error) {
	var v T
	err := json.Unmarshal(val, &v)
	return v, err
}
