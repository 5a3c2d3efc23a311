package event

import (
	"space-chat/domain"
	"strings"
	"time"
)

const (
	roomTopicPrefix        = "room."
	participantTopicPrefix = "participant."
)

// Topic is a delivery address: room.<roomId> or participant.<participantId>.
type Topic string

func RoomTopic(id domain.RoomID) Topic { return Topic(roomTopicPrefix + string(id)) }

func ParticipantTopic(id domain.ParticipantID) Topic {
	return Topic(participantTopicPrefix + string(id))
}

func (t Topic) RoomID() (domain.RoomID, bool) {
	id, ok := strings.CutPrefix(string(t), roomTopicPrefix)
	return domain.RoomID(id), ok
}

func (t Topic) ParticipantID() (domain.ParticipantID, bool) {
	id, ok := strings.CutPrefix(string(t), participantTopicPrefix)
	return domain.ParticipantID(id), ok
}

type Kind string

const (
	MessageSentKind       Kind = "messageSent"
	MessageEditedKind     Kind = "messageEdited"
	MessageDeletedKind    Kind = "messageDeleted"
	ParticipantJoinedKind Kind = "participantJoined"
	ParticipantLeftKind   Kind = "participantLeft"
	RoomCreatedKind       Kind = "roomCreated"
	RoomAddedKind         Kind = "roomAdded"
	UnreadUpdatedKind     Kind = "unreadUpdated"
	NotificationKind      Kind = "notification"
	NotificationReadKind  Kind = "notificationRead"
)

// DomainEvent is published on exactly one topic.
// Room events carry the seq of the ledger transition that produced them,
// personal events carry 0.
type DomainEvent interface {
	Topic() Topic
	Kind() Kind
	Seq() uint64
}

type MessageSent struct {
	Message domain.Message
}

func (e MessageSent) Topic() Topic { return RoomTopic(e.Message.RoomID) }
func (e MessageSent) Kind() Kind   { return MessageSentKind }
func (e MessageSent) Seq() uint64  { return e.Message.Seq }

type MessageEdited struct {
	Message domain.Message
}

func (e MessageEdited) Topic() Topic { return RoomTopic(e.Message.RoomID) }
func (e MessageEdited) Kind() Kind   { return MessageEditedKind }
func (e MessageEdited) Seq() uint64  { return e.Message.Seq }

// MessageDeleted carries the delete marker, never the original content.
type MessageDeleted struct {
	Message domain.Message
}

func (e MessageDeleted) Topic() Topic { return RoomTopic(e.Message.RoomID) }
func (e MessageDeleted) Kind() Kind   { return MessageDeletedKind }
func (e MessageDeleted) Seq() uint64  { return e.Message.Seq }

// ParticipantJoined and ParticipantLeft carry the room's LastSeq at the time of the change.
type ParticipantJoined struct {
	Room        domain.RoomID
	Participant domain.ParticipantID
	LastSeq     uint64
	At          time.Time
}

func (e ParticipantJoined) Topic() Topic { return RoomTopic(e.Room) }
func (e ParticipantJoined) Kind() Kind   { return ParticipantJoinedKind }
func (e ParticipantJoined) Seq() uint64  { return e.LastSeq }

type ParticipantLeft struct {
	Room        domain.RoomID
	Participant domain.ParticipantID
	LastSeq     uint64
	At          time.Time
}

func (e ParticipantLeft) Topic() Topic { return RoomTopic(e.Room) }
func (e ParticipantLeft) Kind() Kind   { return ParticipantLeftKind }
func (e ParticipantLeft) Seq() uint64  { return e.LastSeq }

type RoomCreated struct {
	Recipient domain.ParticipantID
	Room      domain.RoomSummary
}

func (e RoomCreated) Topic() Topic { return ParticipantTopic(e.Recipient) }
func (e RoomCreated) Kind() Kind   { return RoomCreatedKind }
func (e RoomCreated) Seq() uint64  { return 0 }

// RoomAdded tells a participant that joined an existing room.
type RoomAdded struct {
	Recipient domain.ParticipantID
	Room      domain.RoomSummary
}

func (e RoomAdded) Topic() Topic { return ParticipantTopic(e.Recipient) }
func (e RoomAdded) Kind() Kind   { return RoomAddedKind }
func (e RoomAdded) Seq() uint64  { return 0 }

type UnreadUpdated struct {
	Cursor      domain.ReadCursor
	LastMessage *domain.MessageSummary
}

func (e UnreadUpdated) Topic() Topic { return ParticipantTopic(e.Cursor.ParticipantID) }
func (e UnreadUpdated) Kind() Kind   { return UnreadUpdatedKind }
func (e UnreadUpdated) Seq() uint64  { return 0 }

type NotificationPublished struct {
	Notification domain.Notification
}

func (e NotificationPublished) Topic() Topic { return ParticipantTopic(e.Notification.RecipientID) }
func (e NotificationPublished) Kind() Kind   { return NotificationKind }
func (e NotificationPublished) Seq() uint64  { return 0 }

type NotificationRead struct {
	Notification domain.Notification
}

func (e NotificationRead) Topic() Topic { return ParticipantTopic(e.Notification.RecipientID) }
func (e NotificationRead) Kind() Kind   { return NotificationReadKind }
func (e NotificationRead) Seq() uint64  { return 0 }
