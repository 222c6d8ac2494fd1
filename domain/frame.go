package domain

import "encoding/json"

// FrameType tags every frame exchanged over a live connection.
type FrameType string

// Inbound frame types (client -> server).
const (
	FrameSendMessage FrameType = "send_message"
	FrameTyping      FrameType = "typing"
	FrameMarkRead    FrameType = "mark_read"
)

// Outbound frame types (server -> client).
const (
	FrameConnected    FrameType = "connected"
	FrameNewMessage   FrameType = "new_message"
	FrameMessageRead  FrameType = "message_read"
	FrameNotification FrameType = "notification"
	FrameError        FrameType = "error"
)

// Envelope is the first-pass decoding of any inbound frame.
// The payload is kept raw so each handler can decode its own shape.
type Envelope struct {
	Type FrameType `json:"type"`
}

// SendMessagePayload carries a message sending intent.
type SendMessagePayload struct {
	RecipientID string  `json:"recipientId" validate:"required"`
	Content     string  `json:"content" validate:"required"`
	JobID       *string `json:"jobId,omitempty"`
}

// TypingPayload signals that the sender started or stopped typing.
type TypingPayload struct {
	RecipientID string `json:"recipientId" validate:"required"`
	IsTyping    bool   `json:"isTyping"`
}

// MarkReadPayload asks the server to flag a message as read and to
// notify the conversation partner.
type MarkReadPayload struct {
	MessageID          string `json:"messageId" validate:"required,uuid"`
	ConversationUserID string `json:"conversationUserId" validate:"required"`
}

// ConnectedFrame is the first frame sent after a successful handshake.
type ConnectedFrame struct {
	Type   FrameType `json:"type"`
	UserID string    `json:"userId"`
}

// NewMessageFrame carries the full persisted record to sender and recipient.
type NewMessageFrame struct {
	Type    FrameType `json:"type"`
	Message Message   `json:"message"`
}

// TypingFrame is relayed to the recipient only, never persisted.
type TypingFrame struct {
	Type     FrameType `json:"type"`
	SenderID string    `json:"senderId"`
	IsTyping bool      `json:"isTyping"`
}

// MessageReadFrame is the read receipt pushed to the conversation partner.
type MessageReadFrame struct {
	Type      FrameType `json:"type"`
	MessageID string    `json:"messageId"`
	ReadBy    string    `json:"readBy"`
}

// ErrorFrame reports a recoverable failure to the originating connection.
type ErrorFrame struct {
	Type  FrameType `json:"type"`
	Error string    `json:"error"`
}

func NewConnectedFrame(userID string) ConnectedFrame {
	return ConnectedFrame{Type: FrameConnected, UserID: userID}
}

func NewMessageFrameOf(msg Message) NewMessageFrame {
	return NewMessageFrame{Type: FrameNewMessage, Message: msg}
}

func NewTypingFrame(senderID string, isTyping bool) TypingFrame {
	return TypingFrame{Type: FrameTyping, SenderID: senderID, IsTyping: isTyping}
}

func NewMessageReadFrame(messageID, readBy string) MessageReadFrame {
	return MessageReadFrame{Type: FrameMessageRead, MessageID: messageID, ReadBy: readBy}
}

func NewErrorFrame(message string) ErrorFrame {
	return ErrorFrame{Type: FrameError, Error: message}
}

// NewNotificationFrame merges an arbitrary payload under the notification
// type. The type key always wins over a payload field of the same name.
func NewNotificationFrame(payload map[string]any) map[string]any {
	frame := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		frame[k] = v
	}
	frame["type"] = FrameNotification
	return frame
}

// DecodeEnvelope extracts the frame type without committing to a payload shape.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(raw, &env)
	return env, err
}
