package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"artisan-chat/errors"
	"artisan-chat/mocks"
)

func TestUnsignCookieValue(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "Signed value",
			raw:      "s:abc123.signature",
			expected: "abc123",
		},
		{
			name:     "URL-encoded signed value",
			raw:      "s%3Aabc123.signature",
			expected: "abc123",
		},
		{
			name:     "Signature containing dots keeps only the id",
			raw:      "s:abc123.sig.with.dots",
			expected: "abc123",
		},
		{
			name:     "Unsigned value passes through",
			raw:      "plain-session-id",
			expected: "plain-session-id",
		},
		{
			name:     "Signed value without signature",
			raw:      "s:abc123",
			expected: "abc123",
		},
		{
			name:     "Empty value",
			raw:      "",
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, UnsignCookieValue(tt.raw))
		})
	}
}

func handshakeRequest(cookieValue string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if cookieValue != "" {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookieValue})
	}
	return r
}

func TestSessionAuthenticator_ResolvesTheUserFromTheStore(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().
		GetSessionByID(gomock.Any(), "abc123").
		Return([]byte(`{"cookie":{"path":"/"},"passport":{"user":"client-1"}}`), nil)

	authenticator := NewSessionAuthenticator(store, slog.Default())
	userID, err := authenticator.Authenticate(context.Background(), handshakeRequest("s:abc123.signature"))

	req.NoError(err)
	req.Equal("client-1", userID)
}

func TestSessionAuthenticator_MissingCookie(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	authenticator := NewSessionAuthenticator(mocks.NewMockSessionStore(ctrl), slog.Default())
	_, err := authenticator.Authenticate(context.Background(), handshakeRequest(""))

	req.ErrorIs(err, errors.ErrNotAuthenticated)
}

func TestSessionAuthenticator_StoreFailureIsAnAuthFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().
		GetSessionByID(gomock.Any(), "abc123").
		Return(nil, errors.ErrSessionNotFound)

	authenticator := NewSessionAuthenticator(store, slog.Default())
	_, err := authenticator.Authenticate(context.Background(), handshakeRequest("s:abc123.signature"))

	req.ErrorIs(err, errors.ErrNotAuthenticated)
}

func TestSessionAuthenticator_SessionWithoutPassport(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().
		GetSessionByID(gomock.Any(), "abc123").
		Return([]byte(`{"cookie":{"path":"/"}}`), nil)

	authenticator := NewSessionAuthenticator(store, slog.Default())
	_, err := authenticator.Authenticate(context.Background(), handshakeRequest("s:abc123.sig"))

	req.ErrorIs(err, errors.ErrNotAuthenticated)
}

func TestSessionAuthenticator_CorruptedSessionBlob(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().
		GetSessionByID(gomock.Any(), "abc123").
		Return([]byte(`not json`), nil)

	authenticator := NewSessionAuthenticator(store, slog.Default())
	_, err := authenticator.Authenticate(context.Background(), handshakeRequest("s:abc123.sig"))

	req.ErrorIs(err, errors.ErrNotAuthenticated)
}
