package domain

import (
	"fmt"
	"slices"
	"space-chat/errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	MaxRoomNameLength = 120
	previewLength     = 80
)

// MessageSummary is what room listings show about the latest message.
type MessageSummary struct {
	MessageID uuid.UUID
	Seq       uint64
	SenderID  ParticipantID
	Preview   string
	Deleted   bool
	At        time.Time
}

// Room is a conversation with explicit membership.
// Participants and LeftParticipants are always disjoint.
type Room struct {
	ID               RoomID
	Name             string
	Participants     Set[ParticipantID]
	LeftParticipants Set[ParticipantID]
	LastMessage      *MessageSummary
	LastSeq          uint64
	CreatedAt        time.Time
}

// NewRoom builds a room with a de-duplicated, non-empty membership.
func NewRoom(id RoomID, name string, participants []ParticipantID, at time.Time) (Room, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxRoomNameLength {
		return Room{}, errors.ErrRoomNameTooLong
	}
	for _, p := range participants {
		if err := p.Validate(); err != nil {
			return Room{}, err
		}
	}
	members := NewSet(lo.Uniq(participants)...)
	if len(members) == 0 {
		return Room{}, errors.ErrEmptyMembership
	}
	return Room{
		ID:               id,
		Name:             name,
		Participants:     members,
		LeftParticipants: NewSet[ParticipantID](),
		CreatedAt:        at,
	}, nil
}

func (r Room) IsParticipant(p ParticipantID) bool { return r.Participants.Has(p) }

func (r Room) HasLeft(p ParticipantID) bool { return r.LeftParticipants.Has(p) }

// HasHistoryAccess is true for current and former participants.
func (r Room) HasHistoryAccess(p ParticipantID) bool {
	return r.IsParticipant(p) || r.HasLeft(p)
}

// IsArchived rooms have no participants left: nothing is delivered anymore.
func (r Room) IsArchived() bool { return len(r.Participants) == 0 }

// Join returns false when p is already a participant.
func (r *Room) Join(p ParticipantID) bool {
	if r.Participants.Has(p) {
		return false
	}
	delete(r.LeftParticipants, p)
	r.Participants[p] = struct{}{}
	return true
}

// Leave returns false when p was not a participant.
func (r *Room) Leave(p ParticipantID) bool {
	if !r.Participants.Has(p) {
		return false
	}
	delete(r.Participants, p)
	r.LeftParticipants[p] = struct{}{}
	return true
}

// Record makes msg the latest message of the room. msg.Seq must be LastSeq+1.
func (r *Room) Record(msg Message) error {
	if msg.Seq != r.LastSeq+1 {
		return fmt.Errorf("room %s expects seq %d, got %d", r.ID, r.LastSeq+1, msg.Seq)
	}
	r.LastSeq = msg.Seq
	r.LastMessage = lo.ToPtr(msg.Summary())
	return nil
}

// Refresh updates the last-message summary when msg is the latest message.
func (r *Room) Refresh(msg Message) bool {
	if r.LastMessage == nil || r.LastMessage.MessageID != msg.ID {
		return false
	}
	r.LastMessage = lo.ToPtr(msg.Summary())
	return true
}

func (r Room) ParticipantIDs() []ParticipantID {
	ids := lo.Keys(r.Participants)
	slices.Sort(ids)
	return ids
}

func (r Room) LeftParticipantIDs() []ParticipantID {
	ids := lo.Keys(r.LeftParticipants)
	slices.Sort(ids)
	return ids
}

// Clone returns a deep copy, mutations happen on clones only.
func (r Room) Clone() Room {
	c := r
	c.Participants = r.Participants.Clone()
	c.LeftParticipants = r.LeftParticipants.Clone()
	if r.LastMessage != nil {
		c.LastMessage = lo.ToPtr(*r.LastMessage)
	}
	return c
}

// RoomSummary is the per-participant listing entry.
type RoomSummary struct {
	RoomID       RoomID
	Name         string
	Participants []ParticipantID
	LastMessage  *MessageSummary
	LastSeq      uint64
	LastReadSeq  uint64
	UnreadCount  int
}

func NewRoomSummary(room Room, cursor ReadCursor) RoomSummary {
	return RoomSummary{
		RoomID:       room.ID,
		Name:         room.Name,
		Participants: room.ParticipantIDs(),
		LastMessage:  room.LastMessage,
		LastSeq:      room.LastSeq,
		LastReadSeq:  cursor.LastReadSeq,
		UnreadCount:  cursor.UnreadCount,
	}
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	return string([]rune(content)[:previewLength]) + "…"
}
