// Package domain contains core concepts of the chat system.
// This file defines Message and its edit/delete rules.
package domain

import (
	"space-chat/errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DeletedContent replaces the content of a soft-deleted message.
const DeletedContent = "This message has been deleted"

type MessageState string

const (
	MessageActive  MessageState = "ACTIVE"
	MessageEdited  MessageState = "EDITED"
	MessageDeleted MessageState = "DELETED"
)

// Message is an entry of a room ledger.
// Seq is assigned by the room and never changes.
type Message struct {
	ID        uuid.UUID
	RoomID    RoomID
	Seq       uint64
	SenderID  ParticipantID
	Content   string
	Lang      string
	CreatedAt time.Time
	EditedAt  *time.Time
	DeletedAt *time.Time
}

func NewMessage(roomID RoomID, seq uint64, sender ParticipantID, content, lang string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		Seq:       seq,
		SenderID:  sender,
		Content:   content,
		Lang:      lang,
		CreatedAt: at,
	}
}

func (m Message) State() MessageState {
	switch {
	case m.DeletedAt != nil:
		return MessageDeleted
	case m.EditedAt != nil:
		return MessageEdited
	default:
		return MessageActive
	}
}

func (m Message) IsDeleted() bool { return m.DeletedAt != nil }

// Edit replaces the content. Only the sender may edit, and never after deletion.
func (m *Message) Edit(requester ParticipantID, content, lang string, at time.Time) error {
	if requester != m.SenderID {
		return errors.ErrNotSender
	}
	if m.IsDeleted() {
		return errors.ErrMessageDeleted
	}
	m.Content = content
	m.Lang = lang
	m.EditedAt = &at
	return nil
}

// SoftDelete is idempotent: it returns false when the message was already deleted.
// The original content is wiped.
func (m *Message) SoftDelete(requester ParticipantID, at time.Time) (bool, error) {
	if requester != m.SenderID {
		return false, errors.ErrNotSender
	}
	if m.IsDeleted() {
		return false, nil
	}
	m.Content = DeletedContent
	m.Lang = ""
	m.DeletedAt = &at
	return true, nil
}

func (m Message) Summary() MessageSummary {
	return MessageSummary{
		MessageID: m.ID,
		Seq:       m.Seq,
		SenderID:  m.SenderID,
		Preview:   preview(m.Content),
		Deleted:   m.IsDeleted(),
		At:        m.CreatedAt,
	}
}

// ValidateContent trims nothing, it only rejects blank or oversized bodies.
func ValidateContent(content string, maxLength int) error {
	if strings.TrimSpace(content) == "" {
		return errors.ErrEmptyContent
	}
	if maxLength > 0 && utf8.RuneCountInString(content) > maxLength {
		return errors.ErrContentTooLong
	}
	return nil
}
