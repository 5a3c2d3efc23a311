package repositories

import (
	"fmt"
	"log/slog"
	"space-chat/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

type ILedgerRepository interface {
	Commit(mutation Mutation) error
}

// Mutation is everything a single room transition writes.
// It is applied in one Badger transaction: all or nothing.
type Mutation struct {
	Room           *domain.Room
	Messages       []domain.Message
	Cursors        []domain.ReadCursor
	ClearedCursors []domain.ParticipantID // cursors of Room to delete
}

type LedgerRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewLedgerRepository(db *badger.DB, log *slog.Logger) LedgerRepository {
	return LedgerRepository{db: db, log: log}
}

func (l LedgerRepository) Commit(m Mutation) error {
	if m.Room == nil && len(m.ClearedCursors) > 0 {
		return fmt.Errorf("clearing cursors requires the room")
	}
	err := l.db.Update(func(txn *badger.Txn) error {
		if m.Room != nil {
			if err := writeRoom(txn, *m.Room); err != nil {
				return err
			}
			for _, p := range m.ClearedCursors {
				if err := txn.Delete(cursorKey(m.Room.ID, p)); err != nil {
					return err
				}
			}
		}
		for _, msg := range m.Messages {
			if err := writeMessage(txn, msg); err != nil {
				return err
			}
		}
		for _, c := range m.Cursors {
			if err := writeJSON(txn, cursorKey(c.RoomID, c.ParticipantID), fromCursor(c)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ledger commit: %w", err)
	}
	return nil
}

// writeRoom keeps the membership indexes aligned with the room record.
func writeRoom(txn *badger.Txn, room domain.Room) error {
	if err := writeJSON(txn, roomKey(room.ID), fromRoom(room)); err != nil {
		return err
	}
	for p := range room.Participants {
		if err := txn.Set(memberKey(p, room.ID), nil); err != nil {
			return err
		}
		if err := txn.Delete(leftKey(p, room.ID)); err != nil {
			return err
		}
	}
	for p := range room.LeftParticipants {
		if err := txn.Set(leftKey(p, room.ID), nil); err != nil {
			return err
		}
		if err := txn.Delete(memberKey(p, room.ID)); err != nil {
			return err
		}
	}
	return nil
}

func writeMessage(txn *badger.Txn, msg domain.Message) error {
	if err := writeJSON(txn, messageKey(msg.RoomID, msg.Seq), fromMessage(msg)); err != nil {
		return err
	}
	return writeJSON(txn, messageIDKey(msg.ID), DiskMessageRef{RoomID: string(msg.RoomID), Seq: msg.Seq})
}

func writeJSON(txn *badger.Txn, key []byte, v any) error {
	bytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, bytes)
}

// readJSON returns badger.ErrKeyNotFound untouched so callers can map it.
func readJSON[T any](txn *badger.Txn, key []byte) (T, error) {
	var v T
	item, err := txn.Get(key)
	if err != nil {
		return v, err
	}
	err = item.Value(func(val []byte) error {
		v, err = decode[T](val)
		return err
	})
	return v, err
}
