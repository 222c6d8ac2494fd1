//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"artisan-chat/domain"
	"artisan-chat/errors"
)

type IMessageRepository interface {
	CreateMessage(message domain.Message) error
	GetMessage(messageID uuid.UUID) (domain.Message, error)
	MarkMessageAsRead(messageID uuid.UUID) (domain.Message, error)
	GetConversation(userA, userB string, cursor *string) ([]domain.Message, *string, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// diskMessage is the stored shape; kept separate from domain.Message so
// the wire JSON tags can evolve without rewriting the store.
type diskMessage struct {
	ID          uuid.UUID `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	JobID       *string   `json:"job_id,omitempty"`
	Content     string    `json:"content"`
	Read        bool      `json:"read"`
	CreatedAt   int64     `json:"created_at"`
}

// conversationKey builds the shared prefix for a pair of users. The pair
// is sorted so both directions of a conversation land under one prefix.
func conversationKey(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + "|" + userB
}

// primaryKey is formatted as "msg:{pair}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func primaryKey(message domain.Message) string {
	return fmt.Sprintf("msg:%s:%019d:%s",
		conversationKey(message.SenderID, message.RecipientID),
		message.CreatedAt.UnixNano(),
		message.ID,
	)
}

// indexKey maps a message id back to its primary key so the read flag can
// be flipped without knowing the conversation.
func indexKey(messageID uuid.UUID) string {
	return "msgid:" + messageID.String()
}

// CreateMessage persists a message in BadgerDB together with its id index.
func (m MessageRepository) CreateMessage(message domain.Message) error {
	bytes, err := json.Marshal(fromDomain(message))
	if err != nil {
		return err
	}
	key := primaryKey(message)
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(indexKey(message.ID)), []byte(key))
	})
}

// GetMessage resolves a message through its id index.
func (m MessageRepository) GetMessage(messageID uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		stored, err := m.loadByID(txn, messageID)
		if err != nil {
			return err
		}
		message = toDomain(stored)
		return nil
	})
	return message, err
}

// MarkMessageAsRead flips the read flag of the identified message and
// returns the updated record. Marking an already-read message is a no-op
// that still succeeds.
func (m MessageRepository) MarkMessageAsRead(messageID uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		stored, err := m.loadByID(txn, messageID)
		if err != nil {
			return err
		}
		if !stored.Read {
			stored.Read = true
			bytes, err := json.Marshal(stored)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(primaryKey(toDomain(stored))), bytes); err != nil {
				return err
			}
		}
		message = toDomain(stored)
		return nil
	})
	return message, err
}

// GetConversation retrieves messages between two users using a prefix scan.
// Thanks to the padded timestamp in the key, messages are naturally sorted
// by time; the iterator walks in reverse so the newest page comes first.
// It stops collecting messages once the configured limitMessages is reached.
func (m MessageRepository) GetConversation(userA, userB string, cursor *string) ([]domain.Message, *string, error) {
	var stored []diskMessage
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", conversationKey(userA, userB))
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible timestamp, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(stored) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				var d diskMessage
				if err := json.Unmarshal(value, &d); err != nil {
					return err
				}
				stored = append(stored, d)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	messages := lo.Map(stored, func(item diskMessage, _ int) domain.Message {
		return toDomain(item)
	})
	return messages, &lastKey, nil
}

// loadByID walks the msgid index to the primary record.
func (m MessageRepository) loadByID(txn *badger.Txn, messageID uuid.UUID) (diskMessage, error) {
	var stored diskMessage
	item, err := txn.Get([]byte(indexKey(messageID)))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return stored, errors.ErrMessageNotFound
		}
		return stored, err
	}
	var key []byte
	if err := item.Value(func(val []byte) error {
		key = append([]byte{}, val...)
		return nil
	}); err != nil {
		return stored, err
	}
	if !strings.HasPrefix(string(key), "msg:") {
		return stored, errors.ErrMessageNotFound
	}
	record, err := txn.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return stored, errors.ErrMessageNotFound
		}
		return stored, err
	}
	err = record.Value(func(val []byte) error {
		return json.Unmarshal(val, &stored)
	})
	return stored, err
}

func fromDomain(message domain.Message) diskMessage {
	return diskMessage{
		ID:          message.ID,
		SenderID:    message.SenderID,
		RecipientID: message.RecipientID,
		JobID:       message.JobID,
		Content:     message.Content,
		Read:        message.Read,
		CreatedAt:   message.CreatedAt.UnixNano(),
	}
}

func toDomain(stored diskMessage) domain.Message {
	return domain.Message{
		ID:          stored.ID,
		SenderID:    stored.SenderID,
		RecipientID: stored.RecipientID,
		JobID:       stored.JobID,
		Content:     stored.Content,
		Read:        stored.Read,
		CreatedAt:   time.Unix(0, stored.CreatedAt).UTC(),
	}
}
