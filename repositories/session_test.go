package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"artisan-chat/errors"
)

func Test_Session_Roundtrip(t *testing.T) {
	req := require.New(t)
	repository := NewSessionRepository(openTestDB(t))

	blob := []byte(`{"passport":{"user":"client-1"}}`)
	req.NoError(repository.PutSession("abc123", blob, time.Hour))

	fetched, err := repository.GetSessionByID(context.Background(), "abc123")
	req.NoError(err)
	req.Equal(blob, fetched)
}

func Test_Session_Unknown_Id(t *testing.T) {
	req := require.New(t)
	repository := NewSessionRepository(openTestDB(t))

	_, err := repository.GetSessionByID(context.Background(), "ghost")
	req.ErrorIs(err, errors.ErrSessionNotFound)
}

func Test_Session_Delete(t *testing.T) {
	req := require.New(t)
	repository := NewSessionRepository(openTestDB(t))

	req.NoError(repository.PutSession("abc123", []byte(`{}`), time.Hour))
	req.NoError(repository.DeleteSession("abc123"))

	_, err := repository.GetSessionByID(context.Background(), "abc123")
	req.ErrorIs(err, errors.ErrSessionNotFound)
}

func Test_Session_Expiry(t *testing.T) {
	req := require.New(t)
	repository := NewSessionRepository(openTestDB(t))

	req.NoError(repository.PutSession("abc123", []byte(`{}`), 50*time.Millisecond))
	time.Sleep(100 * time.Millisecond)

	_, err := repository.GetSessionByID(context.Background(), "abc123")
	req.ErrorIs(err, errors.ErrSessionNotFound)
}
