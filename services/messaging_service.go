//go:generate go run go.uber.org/mock/mockgen -source=messaging_service.go -destination=../mocks/mock_messaging_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"artisan-chat/domain"
	"artisan-chat/errors"
	"artisan-chat/moderation"
	"artisan-chat/repositories"
)

// IMessagingService is the persistence collaborator consumed by the
// message router, plus the history and search operations backing the
// companion REST endpoints.
type IMessagingService interface {
	CreateMessage(ctx context.Context, senderID, recipientID, content string, jobID *string) (domain.Message, error)
	MarkMessageAsRead(ctx context.Context, messageID uuid.UUID) (domain.Message, error)
	GetConversation(userA, userB string, cursor *string) ([]domain.Message, *string, error)
	SearchMessages(ctx context.Context, userID, query string, limit int) ([]domain.Message, uint64, error)
}

type MessagingService struct {
	repository       repositories.IMessageRepository
	search           repositories.ISearchRepository
	moderator        moderation.Moderator
	log              *slog.Logger
	maxContentLength int
}

func NewMessagingService(
	repository repositories.IMessageRepository,
	search repositories.ISearchRepository,
	moderator moderation.Moderator,
	log *slog.Logger,
	maxContentLength int,
) *MessagingService {
	return &MessagingService{
		repository:       repository,
		search:           search,
		moderator:        moderator,
		log:              log,
		maxContentLength: maxContentLength,
	}
}

// CreateMessage censors, persists and indexes a new direct message. The
// returned record is what must be fanned out; the caller never fans out
// anything if this returns an error.
func (s *MessagingService) CreateMessage(_ context.Context, senderID, recipientID, content string, jobID *string) (domain.Message, error) {
	if s.maxContentLength > 0 && len([]rune(content)) > s.maxContentLength {
		return domain.Message{}, errors.ErrContentTooLong
	}

	sanitized, foundWords := s.moderator.Censor(content)
	if len(foundWords) > 0 {
		info := whatlanggo.Detect(content)
		s.log.Warn("Message content censored",
			"sender_id", senderID,
			"lang", info.Lang.Iso6391(),
			"matches", len(foundWords))
	}

	message := domain.Message{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		JobID:       jobID,
		Content:     sanitized,
		Read:        false,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repository.CreateMessage(message); err != nil {
		return domain.Message{}, fmt.Errorf("persisting message: %w", err)
	}

	// Search freshness is best-effort; the message is already durable.
	if err := s.search.IndexMessage(message); err != nil {
		s.log.Error("Failed to index message", "message_id", message.ID, "error", err)
	}
	return message, nil
}

// MarkMessageAsRead flips the read flag. Re-marking a read message is a
// no-op that still succeeds and still returns the record.
func (s *MessagingService) MarkMessageAsRead(_ context.Context, messageID uuid.UUID) (domain.Message, error) {
	return s.repository.MarkMessageAsRead(messageID)
}

func (s *MessagingService) GetConversation(userA, userB string, cursor *string) ([]domain.Message, *string, error) {
	return s.repository.GetConversation(userA, userB, cursor)
}

// SearchMessages resolves index hits back to full records. Ids that no
// longer resolve (index ahead of a compaction) are skipped.
func (s *MessagingService) SearchMessages(ctx context.Context, userID, query string, limit int) ([]domain.Message, uint64, error) {
	ids, total, err := s.search.Search(ctx, userID, query, limit)
	if err != nil {
		return nil, 0, err
	}

	messages := lo.FilterMap(ids, func(id uuid.UUID, _ int) (domain.Message, bool) {
		message, err := s.repository.GetMessage(id)
		if err != nil {
			s.log.Debug("Indexed message no longer resolves", "message_id", id)
			return domain.Message{}, false
		}
		return message, true
	})
	return messages, total, nil
}
