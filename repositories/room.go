package repositories

import (
	"fmt"
	"log/slog"
	"space-chat/domain"
	"space-chat/errors"

	"github.com/dgraph-io/badger/v4"
)

type IRoomRepository interface {
	Get(id domain.RoomID) (domain.Room, error)
	ListActiveFor(p domain.ParticipantID) ([]domain.RoomID, error)
	ListLeftFor(p domain.ParticipantID) ([]domain.RoomID, error)
}

type RoomRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) RoomRepository {
	return RoomRepository{db: db, log: log}
}

func (r RoomRepository) Get(id domain.RoomID) (domain.Room, error) {
	var room domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		diskRoom, err := readJSON[DiskRoom](txn, roomKey(id))
		if err != nil {
			return err
		}
		room = toRoom(diskRoom)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, fmt.Errorf("room %s: %w", id, errors.ErrRoomNotFound)
	}
	return room, err
}

// ListActiveFor scans the member index, no room record is decoded.
func (r RoomRepository) ListActiveFor(p domain.ParticipantID) ([]domain.RoomID, error) {
	return r.scanIndex(memberPrefix(p))
}

func (r RoomRepository) ListLeftFor(p domain.ParticipantID) ([]domain.RoomID, error) {
	return r.scanIndex(leftPrefix(p))
}

func (r RoomRepository) scanIndex(prefix []byte) ([]domain.RoomID, error) {
	var ids []domain.RoomID
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, domain.RoomID(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return ids, err
}
