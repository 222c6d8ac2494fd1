package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"artisan-chat/domain"
	"artisan-chat/services"
)

// Router dispatches inbound frames by their declared type. Each frame
// type is an independent transition: a failure in one handler only ever
// affects the originating connection.
type Router struct {
	log       *slog.Logger
	registry  *Registry
	messaging services.IMessagingService
	validate  *validator.Validate
}

func NewRouter(log *slog.Logger, registry *Registry, messaging services.IMessagingService) *Router {
	return &Router{
		log:       log,
		registry:  registry,
		messaging: messaging,
		validate:  validator.New(),
	}
}

// HandleFrame decodes and dispatches one inbound frame from conn. The
// sender identity always comes from the connection, never from the frame.
func (r *Router) HandleFrame(ctx context.Context, conn *Connection, raw []byte) {
	envelope, err := domain.DecodeEnvelope(raw)
	if err != nil {
		r.sendError(conn, "Invalid message format")
		return
	}

	switch envelope.Type {
	case domain.FrameSendMessage:
		var payload domain.SendMessagePayload
		if !r.decode(conn, raw, &payload) {
			return
		}
		r.handleSendMessage(ctx, conn, payload)
	case domain.FrameTyping:
		var payload domain.TypingPayload
		if !r.decode(conn, raw, &payload) {
			return
		}
		r.handleTyping(conn, payload)
	case domain.FrameMarkRead:
		var payload domain.MarkReadPayload
		if !r.decode(conn, raw, &payload) {
			return
		}
		r.handleMarkRead(ctx, conn, payload)
	default:
		// Non-fatal: the connection stays open.
		r.log.Warn("Unrecognized frame type", "type", envelope.Type, "user_id", conn.UserID())
	}
}

// decode unmarshals and validates a typed payload. A malformed frame is
// reported to the originating connection only.
func (r *Router) decode(conn *Connection, raw []byte, payload any) bool {
	if err := json.Unmarshal(raw, payload); err != nil {
		r.sendError(conn, "Invalid message format")
		return false
	}
	if err := r.validate.Struct(payload); err != nil {
		r.sendError(conn, "Invalid message format")
		return false
	}
	return true
}

// handleSendMessage persists the message, then fans the identical frame
// out to both parties. The persistence write happens-before the fan-out;
// on failure nothing is fanned out and only the sender sees the error.
func (r *Router) handleSendMessage(ctx context.Context, conn *Connection, payload domain.SendMessagePayload) {
	message, err := r.messaging.CreateMessage(ctx, conn.UserID(), payload.RecipientID, payload.Content, payload.JobID)
	if err != nil {
		r.log.Error("Failed to persist message",
			"sender_id", conn.UserID(),
			"recipient_id", payload.RecipientID,
			"error", err)
		r.sendError(conn, "Failed to send message")
		return
	}

	frame, err := json.Marshal(domain.NewMessageFrameOf(message))
	if err != nil {
		r.log.Error("Failed to serialize new_message frame", "error", err)
		return
	}
	// Sender first so other tabs reflect the sent message, then the recipient.
	r.registry.FanOutRaw(message.SenderID, frame)
	if message.RecipientID != message.SenderID {
		r.registry.FanOutRaw(message.RecipientID, frame)
	}
}

// handleTyping relays the indicator to the recipient only. No persistence,
// no acknowledgement, no echo to the sender's other connections.
func (r *Router) handleTyping(conn *Connection, payload domain.TypingPayload) {
	r.registry.FanOut(payload.RecipientID, domain.NewTypingFrame(conn.UserID(), payload.IsTyping))
}

// handleMarkRead flips the read flag and pushes the receipt to the
// conversation partner. A persistence failure is logged only; this path
// stays best-effort.
func (r *Router) handleMarkRead(ctx context.Context, conn *Connection, payload domain.MarkReadPayload) {
	messageID, err := uuid.Parse(payload.MessageID)
	if err != nil {
		r.sendError(conn, "Invalid message format")
		return
	}
	if _, err := r.messaging.MarkMessageAsRead(ctx, messageID); err != nil {
		r.log.Error("Failed to mark message as read",
			"message_id", payload.MessageID,
			"user_id", conn.UserID(),
			"error", err)
		return
	}
	r.registry.FanOut(payload.ConversationUserID,
		domain.NewMessageReadFrame(payload.MessageID, conn.UserID()))
}

func (r *Router) sendError(conn *Connection, message string) {
	data, err := json.Marshal(domain.NewErrorFrame(message))
	if err != nil {
		r.log.Error(fmt.Sprintf("Failed to serialize error frame: %v", err))
		return
	}
	conn.Send(data)
}
