package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"artisan-chat/errors"
)

// TicketClaims defines the structure of the data stored inside an upgrade ticket.
type TicketClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TicketIssuer creates and validates the short-lived signed tickets a
// client can present on the upgrade handshake instead of the session
// cookie. The ticket is issued over the already-authenticated HTTP
// channel, so its lifetime can stay very short.
type TicketIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTicketIssuer(secret []byte, ttl time.Duration) *TicketIssuer {
	return &TicketIssuer{secret: secret, ttl: ttl}
}

// Issue creates a signed ticket for a specific user.
func (t *TicketIssuer) Issue(userID string) (string, error) {
	claims := &TicketClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "artisan-chat",
		},
	}

	// HS256 (HMAC with SHA256), signed with the server's secret key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate parses and validates the signature and expiration of a ticket
// and returns the user id it was issued for.
func (t *TicketIssuer) Validate(ticket string) (string, error) {
	token, err := jwt.ParseWithClaims(ticket, &TicketClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return "", errors.ErrInvalidTicket
	}

	claims, ok := token.Claims.(*TicketClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", errors.ErrInvalidTicket
	}
	return claims.UserID, nil
}
