// Package domain contains core concepts of the marketplace messaging system.
// This file defines the chat message exchanged between a client and an artisan.
// Messages are immutable except for their read flag.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a persisted direct chat message between two users.
// JobID optionally correlates the conversation to a work order.
type Message struct {
	ID          uuid.UUID `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	JobID       *string   `json:"jobId,omitempty"`
	Content     string    `json:"content"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}
