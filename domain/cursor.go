package domain

import "time"

// ReadCursor tracks what a participant has seen in a room.
type ReadCursor struct {
	RoomID        RoomID
	ParticipantID ParticipantID
	LastReadSeq   uint64
	UnreadCount   int
	UpdatedAt     time.Time
}

// NewReadCursor starts fully read at seq.
func NewReadCursor(roomID RoomID, p ParticipantID, seq uint64, at time.Time) ReadCursor {
	return ReadCursor{RoomID: roomID, ParticipantID: p, LastReadSeq: seq, UpdatedAt: at}
}
