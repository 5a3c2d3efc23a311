package sink

import (
	"context"
	"fmt"
	"log/slog"
	"space-chat/contract"
	"space-chat/domain/event"
	"space-chat/repositories"
)

var _ contract.EventSink = SearchSink{}

// SearchSink keeps the full-text index in line with the ledger.
// Edits replace the indexed content, deletes remove the document.
type SearchSink struct {
	index repositories.IMessageIndex
	log   *slog.Logger
}

func NewSearchSink(index repositories.IMessageIndex, log *slog.Logger) SearchSink {
	return SearchSink{index: index, log: log}
}

func (s SearchSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageSent:
		return s.index.Index(evt.Message)
	case event.MessageEdited:
		return s.index.Index(evt.Message)
	case event.MessageDeleted:
		return s.index.Remove(evt.Message.ID)
	default:
		s.log.Debug(fmt.Sprintf("Not indexed event : %s", e.Kind()))
		return nil
	}
}
