//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_repository.go -package=mocks
package repositories

import (
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"artisan-chat/domain"
)

// ISearchRepository maintains the full-text index over persisted chat
// messages. Indexing is best-effort: a failed index write never blocks
// message delivery, only search freshness.
type ISearchRepository interface {
	IndexMessage(message domain.Message) error
	Search(ctx context.Context, userID, query string, limit int) ([]uuid.UUID, uint64, error)
}

type MessageSearchRepository struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageSearchRepository(writer *bluge.Writer, log *slog.Logger) *MessageSearchRepository {
	return &MessageSearchRepository{writer: writer, log: log}
}

// IndexMessage upserts the message into the index, keyed by its id.
func (s *MessageSearchRepository) IndexMessage(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("content", message.Content)).
		AddField(bluge.NewKeywordField("sender_id", message.SenderID)).
		AddField(bluge.NewKeywordField("recipient_id", message.RecipientID))
	return s.writer.Update(doc.ID(), doc)
}

// Search returns ids of messages matching the query in any conversation
// the user participates in, newest-ranked first, along with the total hit
// count. The caller resolves ids against the message repository.
func (s *MessageSearchRepository) Search(ctx context.Context, userID, query string, limit int) ([]uuid.UUID, uint64, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = reader.Close()
	}()

	content := bluge.NewMatchQuery(query)
	content.SetField("content")

	// Restrict hits to conversations the user belongs to.
	participant := bluge.NewBooleanQuery()
	sender := bluge.NewTermQuery(userID)
	sender.SetField("sender_id")
	recipient := bluge.NewTermQuery(userID)
	recipient.SetField("recipient_id")
	participant.AddShould(sender, recipient)
	participant.SetMinShould(1)

	boolean := bluge.NewBooleanQuery()
	boolean.AddMust(content, participant)

	request := bluge.NewTopNSearch(limit, boolean).WithStandardAggregations()
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, 0, err
	}

	var ids []uuid.UUID
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, 0, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field != "_id" {
				return true
			}
			id, parseErr := uuid.Parse(string(value))
			if parseErr != nil {
				s.log.Warn("Index document has a non-uuid id", "id", string(value))
				return true
			}
			ids = append(ids, id)
			return true
		})
		if err != nil {
			return nil, 0, err
		}
	}
	return ids, iterator.Aggregations().Count(), nil
}
