package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"space-chat/domain"
	"space-chat/domain/search"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	fieldRoom    = "room"
	fieldSender  = "sender"
	fieldContent = "content"
	fieldSeq     = "seq"
)

type IMessageIndex interface {
	Index(msg domain.Message) error
	Remove(id uuid.UUID) error
	Search(ctx context.Context, query search.Query, rooms []domain.RoomID) ([]uuid.UUID, error)
}

// MessageIndex keeps one Bluge document per live message.
// Deleted messages are removed so their content can no longer be found.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) MessageIndex {
	return MessageIndex{writer: writer, log: log}
}

func (i MessageIndex) Index(msg domain.Message) error {
	if msg.IsDeleted() {
		return i.Remove(msg.ID)
	}
	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewKeywordField(fieldRoom, string(msg.RoomID)).StoreValue()).
		AddField(bluge.NewKeywordField(fieldSender, string(msg.SenderID)).StoreValue()).
		AddField(bluge.NewTextField(fieldContent, msg.Content)).
		AddField(bluge.NewNumericField(fieldSeq, float64(msg.Seq)).StoreValue())
	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("indexing message %s: %w", msg.ID, err)
	}
	return nil
}

func (i MessageIndex) Remove(id uuid.UUID) error {
	if err := i.writer.Delete(bluge.Identifier(id.String())); err != nil {
		return fmt.Errorf("removing message %s: %w", id, err)
	}
	return nil
}

// Search matches every term of the query inside the given rooms, best score first.
func (i MessageIndex) Search(ctx context.Context, query search.Query, rooms []domain.RoomID) ([]uuid.UUID, error) {
	if len(rooms) == 0 {
		return nil, nil
	}
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	roomQuery := bluge.NewBooleanQuery().SetMinShould(1)
	for _, room := range rooms {
		roomQuery.AddShould(bluge.NewTermQuery(string(room)).SetField(fieldRoom))
	}
	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query.Terms).SetField(fieldContent).SetOperator(bluge.MatchQueryOperatorAnd)).
		AddMust(roomQuery)
	if query.SenderID != "" {
		q.AddMust(bluge.NewTermQuery(string(query.SenderID)).SetField(fieldSender))
	}

	matches, err := reader.Search(ctx, bluge.NewTopNSearch(query.Limit, q))
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	match, err := matches.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				if id, parseErr := uuid.ParseBytes(value); parseErr == nil {
					ids = append(ids, id)
				}
				return false
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return lo.Uniq(ids), nil
}
