package auth

import (
	"context"
	"log/slog"
	"net/http"
)

// Authenticator combines both handshake authentication paths: an explicit
// upgrade ticket wins when present, otherwise the session cookie is used.
type Authenticator struct {
	sessions *SessionAuthenticator
	tickets  *TicketIssuer
	log      *slog.Logger
}

func NewAuthenticator(sessions *SessionAuthenticator, tickets *TicketIssuer, log *slog.Logger) *Authenticator {
	return &Authenticator{sessions: sessions, tickets: tickets, log: log}
}

func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) (string, error) {
	if ticket := r.URL.Query().Get("ticket"); ticket != "" && a.tickets != nil {
		return a.tickets.Validate(ticket)
	}
	return a.sessions.Authenticate(ctx, r)
}
