package repositories

import (
	"log/slog"
	"space-chat/domain"
	"space-chat/errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository_Store_List_MarkRead(t *testing.T) {
	req := require.New(t)
	repo := NewNotificationRepository(openDB(t), slog.Default())
	at := time.Now().UTC()

	// Given three notifications for alice and one for bob
	first := domain.NewNotification("alice", domain.NewReservation, "Studio booked", at)
	second := domain.NewNotification("alice", domain.BoardComment, "New comment", at.Add(time.Second))
	third := domain.NewNotification("alice", domain.Generic, "Hello", at.Add(2*time.Second))
	other := domain.NewNotification("bob", domain.Generic, "Not yours", at)
	for _, n := range []domain.Notification{first, second, third, other} {
		req.NoError(repo.Store(n))
	}

	// When listing
	all, err := repo.List("alice", false, 0)
	req.NoError(err)

	// Then newest come first and bob's are absent
	req.Len(all, 3)
	req.Equal(third.ID, all[0].ID)
	req.Equal(first.ID, all[2].ID)

	// When one is read
	read, err := repo.MarkRead("alice", second.ID)
	req.NoError(err)
	req.True(read.IsRead)

	// Then unread counters follow, twice is harmless
	_, err = repo.MarkRead("alice", second.ID)
	req.NoError(err)
	count, err := repo.CountUnread("alice")
	req.NoError(err)
	req.Equal(2, count)
	unread, err := repo.List("alice", true, 1)
	req.NoError(err)
	req.Len(unread, 1)
	req.Equal(third.ID, unread[0].ID)
}

func TestNotificationRepository_MarkRead_Foreign_Or_Unknown(t *testing.T) {
	req := require.New(t)
	repo := NewNotificationRepository(openDB(t), slog.Default())
	n := domain.NewNotification("bob", domain.Generic, "secret", time.Now().UTC())
	req.NoError(repo.Store(n))

	_, err := repo.MarkRead("alice", n.ID)
	req.ErrorIs(err, errors.ErrNotificationNotFound)

	_, err = repo.MarkRead("alice", uuid.New())
	req.ErrorIs(err, errors.ErrNotFound)

	count, err := repo.CountUnread("bob")
	req.NoError(err)
	req.Equal(1, count)
}
