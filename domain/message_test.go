package domain

import (
	"space-chat/errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessage_Edit(t *testing.T) {
	req := require.New(t)
	msg := NewMessage(NewRoomID(), 1, "alice", "helo", "", time.Now())
	at := time.Now()

	// When someone else edits
	err := msg.Edit("bob", "hijacked", "", at)

	// Then it is forbidden and nothing changed
	req.ErrorIs(err, errors.ErrForbidden)
	req.Equal("helo", msg.Content)
	req.Equal(MessageActive, msg.State())

	// When the sender edits
	req.NoError(msg.Edit("alice", "hello", "en", at))

	// Then the message is edited and keeps its seq
	req.Equal("hello", msg.Content)
	req.Equal(MessageEdited, msg.State())
	req.Equal(uint64(1), msg.Seq)
	req.Equal(at, *msg.EditedAt)
}

func TestMessage_Edit_After_Delete_Conflicts(t *testing.T) {
	req := require.New(t)
	msg := NewMessage(NewRoomID(), 1, "alice", "hello", "", time.Now())

	changed, err := msg.SoftDelete("alice", time.Now())
	req.NoError(err)
	req.True(changed)

	err = msg.Edit("alice", "back from the dead", "", time.Now())
	req.ErrorIs(err, errors.ErrConflict)
	req.Equal(DeletedContent, msg.Content)
}

func TestMessage_SoftDelete_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	msg := NewMessage(NewRoomID(), 4, "alice", "secret", "en", time.Now())
	first := time.Now()

	// Given a message deleted once
	changed, err := msg.SoftDelete("alice", first)
	req.NoError(err)
	req.True(changed)
	deleted := msg

	// When it is deleted again
	changed, err = msg.SoftDelete("alice", first.Add(time.Minute))

	// Then nothing moves
	req.NoError(err)
	req.False(changed)
	req.Equal(deleted, msg)
	req.Equal(MessageDeleted, msg.State())
	req.NotContains(msg.Content, "secret")
	req.Empty(msg.Lang)
}

func TestMessage_SoftDelete_By_Other_Is_Forbidden(t *testing.T) {
	req := require.New(t)
	msg := NewMessage(NewRoomID(), 1, "alice", "hello", "", time.Now())

	_, err := msg.SoftDelete("bob", time.Now())

	req.ErrorIs(err, errors.ErrNotSender)
	req.False(msg.IsDeleted())
}

func TestValidateContent(t *testing.T) {
	req := require.New(t)

	req.ErrorIs(ValidateContent("   \n", 10), errors.ErrEmptyContent)
	req.ErrorIs(ValidateContent(strings.Repeat("é", 11), 10), errors.ErrContentTooLong)
	req.NoError(ValidateContent(strings.Repeat("é", 10), 10))
	req.NoError(ValidateContent("no limit", 0))
}

func TestMessage_Summary_Truncates_Preview(t *testing.T) {
	req := require.New(t)
	msg := NewMessage(NewRoomID(), 1, "alice", strings.Repeat("a", 200), "", time.Now())

	summary := msg.Summary()

	req.Equal(msg.ID, summary.MessageID)
	req.Equal(previewLength+1, len([]rune(summary.Preview)))
}
