package repositories

import (
	"fmt"
	"log/slog"
	"space-chat/domain"
	"space-chat/errors"

	"github.com/dgraph-io/badger/v4"
)

type ICursorRepository interface {
	Get(roomID domain.RoomID, p domain.ParticipantID) (domain.ReadCursor, error)
	ListForRoom(roomID domain.RoomID) ([]domain.ReadCursor, error)
}

// CursorRepository is read-only, cursors are written through LedgerRepository.Commit.
type CursorRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewCursorRepository(db *badger.DB, log *slog.Logger) CursorRepository {
	return CursorRepository{db: db, log: log}
}

func (c CursorRepository) Get(roomID domain.RoomID, p domain.ParticipantID) (domain.ReadCursor, error) {
	var cursor domain.ReadCursor
	err := c.db.View(func(txn *badger.Txn) error {
		diskCursor, err := readJSON[DiskCursor](txn, cursorKey(roomID, p))
		cursor = toCursor(diskCursor)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ReadCursor{}, fmt.Errorf("cursor %s/%s: %w", roomID, p, errors.ErrCursorNotFound)
	}
	return cursor, err
}

func (c CursorRepository) ListForRoom(roomID domain.RoomID) ([]domain.ReadCursor, error) {
	var cursors []domain.ReadCursor
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := cursorPrefix(roomID)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			diskCursor, err := decodeItem[DiskCursor](it.Item())
			if err != nil {
				return err
			}
			cursors = append(cursors, toCursor(diskCursor))
		}
		return nil
	})
	return cursors, err
}
