package domain

import (
	"github.com/google/uuid"
)

// Command targets a single room and is serialized by that room.
type Command interface {
	RoomID() RoomID
}

type CreateRoomCommand struct {
	Name         string          `validate:"max=120"`
	Participants []ParticipantID `validate:"required,min=1,dive,required,max=128,excludesall=: "`
}

type JoinRoomCommand struct {
	Room          RoomID        `validate:"required,uuid"`
	ParticipantID ParticipantID `validate:"required,max=128"`
}

func (c JoinRoomCommand) RoomID() RoomID { return c.Room }

type LeaveRoomCommand struct {
	Room          RoomID        `validate:"required,uuid"`
	ParticipantID ParticipantID `validate:"required,max=128"`
}

func (c LeaveRoomCommand) RoomID() RoomID { return c.Room }

type SendMessageCommand struct {
	Room     RoomID        `validate:"required,uuid"`
	SenderID ParticipantID `validate:"required,max=128"`
	Content  string        `validate:"required"`
}

func (c SendMessageCommand) RoomID() RoomID { return c.Room }

type MarkReadCommand struct {
	Room          RoomID        `validate:"required,uuid"`
	ParticipantID ParticipantID `validate:"required,max=128"`
}

func (c MarkReadCommand) RoomID() RoomID { return c.Room }

// EditMessageCommand and DeleteMessageCommand resolve their room from the message id.
type EditMessageCommand struct {
	MessageID   uuid.UUID     `validate:"required"`
	RequesterID ParticipantID `validate:"required,max=128"`
	Content     string        `validate:"required"`
}

type DeleteMessageCommand struct {
	MessageID   uuid.UUID     `validate:"required"`
	RequesterID ParticipantID `validate:"required,max=128"`
}

type PublishNotificationCommand struct {
	RecipientID ParticipantID    `validate:"required,max=128"`
	Kind        NotificationKind `validate:"required,oneof=new-reservation reservation-status-changed board-comment generic"`
	Content     string           `validate:"required"`
}

type HistoryQuery struct {
	Room        RoomID        `validate:"required,uuid"`
	RequesterID ParticipantID `validate:"required,max=128"`
	AfterSeq    uint64
	Limit       int `validate:"gte=0,lte=500"`
}

func (q HistoryQuery) RoomID() RoomID { return q.Room }
