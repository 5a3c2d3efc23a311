package repositories

import (
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
)

// Repositories groups every store the runtime reads and writes.
type Repositories struct {
	Ledger        ILedgerRepository
	Rooms         IRoomRepository
	Messages      IMessageRepository
	Cursors       ICursorRepository
	Notifications INotificationRepository
	Index         IMessageIndex // nil when search is disabled
}

func NewRepositories(db *badger.DB, writer *bluge.Writer, log *slog.Logger, limitMessages int) Repositories {
	repos := Repositories{
		Ledger:        NewLedgerRepository(db, log),
		Rooms:         NewRoomRepository(db, log),
		Messages:      NewMessageRepository(db, log, limitMessages),
		Cursors:       NewCursorRepository(db, log),
		Notifications: NewNotificationRepository(db, log),
	}
	if writer != nil {
		repos.Index = NewMessageIndex(writer, log)
	}
	return repos
}
