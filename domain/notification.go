package domain

import (
	"fmt"
	"space-chat/errors"
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NewReservation           NotificationKind = "new-reservation"
	ReservationStatusChanged NotificationKind = "reservation-status-changed"
	BoardComment             NotificationKind = "board-comment"
	Generic                  NotificationKind = "generic"
)

func (k NotificationKind) Validate() error {
	switch k {
	case NewReservation, ReservationStatusChanged, BoardComment, Generic:
		return nil
	}
	return fmt.Errorf("notification kind %q: %w", k, errors.ErrInvalidArgument)
}

// Notification is a per-recipient feed entry, independent of rooms.
type Notification struct {
	ID          uuid.UUID
	RecipientID ParticipantID
	Kind        NotificationKind
	Content     string
	IsRead      bool
	CreatedAt   time.Time
}

func NewNotification(recipient ParticipantID, kind NotificationKind, content string, at time.Time) Notification {
	return Notification{
		ID:          uuid.New(),
		RecipientID: recipient,
		Kind:        kind,
		Content:     content,
		CreatedAt:   at,
	}
}
