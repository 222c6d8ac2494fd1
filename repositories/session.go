//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../mocks/mock_session_repository.go -package=mocks
package repositories

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"artisan-chat/errors"
)

// ISessionRepository is the server-side session store the HTTP middleware
// writes to and the realtime handshake reads from.
type ISessionRepository interface {
	GetSessionByID(ctx context.Context, sessionID string) ([]byte, error)
	PutSession(sessionID string, blob []byte, ttl time.Duration) error
	DeleteSession(sessionID string) error
}

type SessionRepository struct {
	db *badger.DB
}

func NewSessionRepository(db *badger.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func sessionKey(sessionID string) []byte {
	return []byte("sess:" + sessionID)
}

// GetSessionByID returns the serialized session blob for a session id.
// The blob is owned by the HTTP session middleware; it is returned as-is.
func (s *SessionRepository) GetSessionByID(_ context.Context, sessionID string) ([]byte, error) {
	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(sessionID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrSessionNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			blob = append([]byte{}, val...)
			return nil
		})
	})
	return blob, err
}

// PutSession stores a serialized session with an expiry. Badger's entry
// TTL gives expired sessions the same absent semantics as a deleted row.
func (s *SessionRepository) PutSession(sessionID string, blob []byte, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(sessionKey(sessionID), blob).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

func (s *SessionRepository) DeleteSession(sessionID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(sessionID))
	})
}
