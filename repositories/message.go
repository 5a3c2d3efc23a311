package repositories

import (
	"fmt"
	"log/slog"
	"space-chat/domain"
	"space-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const defaultLimitMessages = 100

type IMessageRepository interface {
	Get(id uuid.UUID) (domain.Message, error)
	Locate(id uuid.UUID) (domain.RoomID, error)
	Range(roomID domain.RoomID, afterSeq uint64, limit int) ([]domain.Message, error)
	Latest(roomID domain.RoomID, beforeSeq uint64, limit int) ([]domain.Message, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages int
}

// NewMessageRepository bounds every page to limitMessages.
func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages int) MessageRepository {
	if limitMessages <= 0 {
		limitMessages = defaultLimitMessages
	}
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

func (m MessageRepository) Get(id uuid.UUID) (domain.Message, error) {
	var msg domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		ref, err := readJSON[DiskMessageRef](txn, messageIDKey(id))
		if err != nil {
			return err
		}
		diskMessage, err := readJSON[DiskMessage](txn, messageKey(domain.RoomID(ref.RoomID), ref.Seq))
		if err != nil {
			return err
		}
		msg = toMessage(diskMessage)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, fmt.Errorf("message %s: %w", id, errors.ErrMessageNotFound)
	}
	return msg, err
}

// Locate resolves the room of a message without decoding it.
func (m MessageRepository) Locate(id uuid.UUID) (domain.RoomID, error) {
	var roomID domain.RoomID
	err := m.db.View(func(txn *badger.Txn) error {
		ref, err := readJSON[DiskMessageRef](txn, messageIDKey(id))
		roomID = domain.RoomID(ref.RoomID)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", fmt.Errorf("message %s: %w", id, errors.ErrMessageNotFound)
	}
	return roomID, err
}

// Range returns up to limit messages with seq > afterSeq, in ascending seq order.
// The zero-padded seq in the key makes the prefix scan ordered.
func (m MessageRepository) Range(roomID domain.RoomID, afterSeq uint64, limit int) ([]domain.Message, error) {
	limit = m.bound(limit)
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(roomID)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(messageKey(roomID, afterSeq+1)); it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == limit {
				break
			}
			msg, err := decodeItem[DiskMessage](it.Item())
			if err != nil {
				return err
			}
			messages = append(messages, toMessage(msg))
		}
		return nil
	})
	return messages, err
}

// Latest walks the ledger backwards from beforeSeq (exclusive, 0 means the end).
// Messages come newest first, the last one's seq is the cursor of the next page.
func (m MessageRepository) Latest(roomID domain.RoomID, beforeSeq uint64, limit int) ([]domain.Message, error) {
	limit = m.bound(limit)
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(roomID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch beforeSeq {
		case 0:
			seekKey = seekLast(prefix)
		case 1:
			return nil
		default:
			seekKey = messageKey(roomID, beforeSeq-1)
		}

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", limit))
				break
			}
			msg, err := decodeItem[DiskMessage](it.Item())
			if err != nil {
				return err
			}
			messages = append(messages, toMessage(msg))
		}
		return nil
	})
	return messages, err
}

func (m MessageRepository) bound(limit int) int {
	if limit <= 0 || (m.limitMessages > 0 && limit > m.limitMessages) {
		return m.limitMessages
	}
	return limit
}

func decodeItem[T any](item *badger.Item) (T, error) {
	var v T
	err := item.Value(func(val []byte) error {
		var err error
		v, err = decode[T](val)
		return err
	})
	return v, err
}
