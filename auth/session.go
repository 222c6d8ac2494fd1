// Package auth resolves a connection handshake to a user identity.
// The default path re-reads the HTTP application's session cookie and
// looks the session up server-side; the alternative path validates a
// short-lived signed upgrade ticket.
package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"artisan-chat/contract"
	"artisan-chat/domain"
	"artisan-chat/errors"
)

// SessionCookieName is the convention used by the HTTP session middleware.
const SessionCookieName = "connect.sid"

type SessionAuthenticator struct {
	store contract.SessionStore
	log   *slog.Logger
}

func NewSessionAuthenticator(store contract.SessionStore, log *slog.Logger) *SessionAuthenticator {
	return &SessionAuthenticator{store: store, log: log}
}

// Authenticate extracts the session id from the handshake request's cookie,
// resolves the serialized session server-side and returns the authenticated
// user id. Any store failure is logged and treated as an authentication
// failure, never propagated as a crash.
func (a *SessionAuthenticator) Authenticate(ctx context.Context, r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", errors.ErrNotAuthenticated
	}

	sessionID := UnsignCookieValue(cookie.Value)
	if sessionID == "" {
		return "", errors.ErrNotAuthenticated
	}

	blob, err := a.store.GetSessionByID(ctx, sessionID)
	if err != nil {
		a.log.Warn("Session lookup failed during handshake", "error", err)
		return "", errors.ErrNotAuthenticated
	}

	var record domain.SessionRecord
	if err := json.Unmarshal(blob, &record); err != nil {
		a.log.Warn("Session blob is not valid JSON", "error", err)
		return "", errors.ErrNotAuthenticated
	}
	if record.Passport.User == "" {
		return "", errors.ErrNotAuthenticated
	}
	return record.Passport.User, nil
}

// UnsignCookieValue reduces a signed session cookie value to the raw
// session id used as the store key. Signed values look like
// "s:<id>.<signature>" and may arrive URL-encoded ("s%3A..."). The
// signature is stripped, not verified; validity comes from the store
// lookup itself.
func UnsignCookieValue(raw string) string {
	if decoded, err := url.QueryUnescape(raw); err == nil {
		raw = decoded
	}
	if strings.HasPrefix(raw, "s:") {
		raw = raw[2:]
		if i := strings.Index(raw, "."); i >= 0 {
			raw = raw[:i]
		}
	}
	return raw
}
