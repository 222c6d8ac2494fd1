package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"artisan-chat/errors"
	"artisan-chat/mocks"
)

func TestTicketIssuer_RoundTrip(t *testing.T) {
	req := require.New(t)
	issuer := NewTicketIssuer([]byte("test-secret"), time.Minute)

	ticket, err := issuer.Issue("artisan-1")
	req.NoError(err)

	userID, err := issuer.Validate(ticket)
	req.NoError(err)
	req.Equal("artisan-1", userID)
}

func TestTicketIssuer_RejectsForeignSignature(t *testing.T) {
	req := require.New(t)
	issuer := NewTicketIssuer([]byte("test-secret"), time.Minute)
	other := NewTicketIssuer([]byte("another-secret"), time.Minute)

	ticket, err := other.Issue("artisan-1")
	req.NoError(err)

	_, err = issuer.Validate(ticket)
	req.ErrorIs(err, errors.ErrInvalidTicket)
}

func TestTicketIssuer_RejectsExpiredTicket(t *testing.T) {
	req := require.New(t)
	issuer := NewTicketIssuer([]byte("test-secret"), -time.Minute)

	ticket, err := issuer.Issue("artisan-1")
	req.NoError(err)

	_, err = issuer.Validate(ticket)
	req.ErrorIs(err, errors.ErrInvalidTicket)
}

func TestTicketIssuer_RejectsGarbage(t *testing.T) {
	req := require.New(t)
	issuer := NewTicketIssuer([]byte("test-secret"), time.Minute)

	_, err := issuer.Validate("not-a-ticket")
	req.ErrorIs(err, errors.ErrInvalidTicket)
}

func TestAuthenticator_TicketWinsOverTheCookie(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	issuer := NewTicketIssuer([]byte("test-secret"), time.Minute)
	ticket, err := issuer.Issue("artisan-1")
	req.NoError(err)

	// The store would resolve the cookie to a different user; it must
	// never be consulted when a ticket is present.
	store := mocks.NewMockSessionStore(ctrl)
	sessions := NewSessionAuthenticator(store, slog.Default())
	authenticator := NewAuthenticator(sessions, issuer, slog.Default())

	r := httptest.NewRequest("GET", "/ws?ticket="+ticket, nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "s:abc123.sig"})

	userID, err := authenticator.Authenticate(context.Background(), r)
	req.NoError(err)
	req.Equal("artisan-1", userID)
}

func TestAuthenticator_FallsBackToTheSessionCookie(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().
		GetSessionByID(gomock.Any(), "abc123").
		Return([]byte(`{"passport":{"user":"client-1"}}`), nil)

	sessions := NewSessionAuthenticator(store, slog.Default())
	authenticator := NewAuthenticator(sessions, NewTicketIssuer([]byte("test-secret"), time.Minute), slog.Default())

	userID, err := authenticator.Authenticate(context.Background(), handshakeRequest("s:abc123.sig"))
	req.NoError(err)
	req.Equal("client-1", userID)
}
