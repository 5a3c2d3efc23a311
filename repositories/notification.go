package repositories

import (
	"fmt"
	"log/slog"
	"space-chat/domain"
	"space-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type INotificationRepository interface {
	Store(n domain.Notification) error
	MarkRead(recipient domain.ParticipantID, id uuid.UUID) (domain.Notification, error)
	List(recipient domain.ParticipantID, unreadOnly bool, limit int) ([]domain.Notification, error)
	CountUnread(recipient domain.ParticipantID) (int, error)
}

type NotificationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewNotificationRepository(db *badger.DB, log *slog.Logger) NotificationRepository {
	return NotificationRepository{db: db, log: log}
}

// Store writes the notification under its recipient, ordered by creation time,
// plus an id index used by MarkRead.
func (r NotificationRepository) Store(n domain.Notification) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key := notificationKey(n)
		if err := writeJSON(txn, key, fromNotification(n)); err != nil {
			return err
		}
		return txn.Set(notificationIDKey(n.ID), key)
	})
}

// MarkRead is idempotent. A notification of another recipient is reported as not found.
func (r NotificationRepository) MarkRead(recipient domain.ParticipantID, id uuid.UUID) (domain.Notification, error) {
	var notification domain.Notification
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(notificationIDKey(id))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		diskNotification, err := readJSON[DiskNotification](txn, key)
		if err != nil {
			return err
		}
		if diskNotification.RecipientID != string(recipient) {
			return badger.ErrKeyNotFound
		}
		diskNotification.IsRead = true
		notification = toNotification(diskNotification)
		return writeJSON(txn, key, diskNotification)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Notification{}, fmt.Errorf("notification %s: %w", id, errors.ErrNotificationNotFound)
	}
	return notification, err
}

// List returns the newest notifications first. limit <= 0 means no limit.
func (r NotificationRepository) List(recipient domain.ParticipantID, unreadOnly bool, limit int) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := notificationPrefix(recipient)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(seekLast(prefix)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(notifications) == limit {
				break
			}
			diskNotification, err := decodeItem[DiskNotification](it.Item())
			if err != nil {
				return err
			}
			if unreadOnly && diskNotification.IsRead {
				continue
			}
			notifications = append(notifications, toNotification(diskNotification))
		}
		return nil
	})
	return notifications, err
}

func (r NotificationRepository) CountUnread(recipient domain.ParticipantID) (int, error) {
	unread, err := r.List(recipient, true, 0)
	return len(unread), err
}
