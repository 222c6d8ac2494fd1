package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"artisan-chat/domain"
	"artisan-chat/errors"
	"artisan-chat/mocks"
)

func decodeFrame[T any](t *testing.T, conn *Connection) T {
	t.Helper()
	var frame T
	select {
	case raw := <-conn.send:
		require.NoError(t, json.Unmarshal(raw, &frame))
	default:
		t.Fatal("expected a queued frame, found none")
	}
	return frame
}

func TestRouter_SendMessage_PersistsThenFansOutToBothParties(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry(slog.Default())
	messaging := mocks.NewMockIMessagingService(ctrl)
	router := NewRouter(slog.Default(), registry, messaging)

	sender := newTestConnection("client-1")
	senderTab := newTestConnection("client-1")
	recipient := newTestConnection("artisan-1")
	registry.Add(sender)
	registry.Add(senderTab)
	registry.Add(recipient)

	stored := domain.Message{
		ID:          uuid.New(),
		SenderID:    "client-1",
		RecipientID: "artisan-1",
		Content:     "hello there",
		CreatedAt:   time.Now().UTC(),
	}
	messaging.EXPECT().
		CreateMessage(gomock.Any(), "client-1", "artisan-1", "hello there", nil).
		Return(stored, nil)

	raw := []byte(`{"type":"send_message","recipientId":"artisan-1","content":"hello there"}`)
	router.HandleFrame(context.Background(), sender, raw)

	// Both sender tabs and the recipient receive the identical persisted record
	for _, conn := range []*Connection{sender, senderTab, recipient} {
		frame := decodeFrame[domain.NewMessageFrame](t, conn)
		req.Equal(domain.FrameNewMessage, frame.Type)
		req.Equal(stored.ID, frame.Message.ID)
		req.Equal(stored.Content, frame.Message.Content)
	}
}

func TestRouter_SendMessage_SelfMessageDeliveredOnce(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry(slog.Default())
	messaging := mocks.NewMockIMessagingService(ctrl)
	router := NewRouter(slog.Default(), registry, messaging)

	self := newTestConnection("client-1")
	registry.Add(self)

	stored := domain.Message{ID: uuid.New(), SenderID: "client-1", RecipientID: "client-1", Content: "note"}
	messaging.EXPECT().
		CreateMessage(gomock.Any(), "client-1", "client-1", "note", nil).
		Return(stored, nil)

	router.HandleFrame(context.Background(),
		self, []byte(`{"type":"send_message","recipientId":"client-1","content":"note"}`))

	req.Len(self.send, 1)
}

func TestRouter_SendMessage_PersistenceFailureOnlyReachesTheSender(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry(slog.Default())
	messaging := mocks.NewMockIMessagingService(ctrl)
	router := NewRouter(slog.Default(), registry, messaging)

	sender := newTestConnection("client-1")
	recipient := newTestConnection("artisan-1")
	registry.Add(sender)
	registry.Add(recipient)

	messaging.EXPECT().
		CreateMessage(gomock.Any(), "client-1", "artisan-1", "hello", nil).
		Return(domain.Message{}, errors.ErrContentTooLong)

	router.HandleFrame(context.Background(),
		sender, []byte(`{"type":"send_message","recipientId":"artisan-1","content":"hello"}`))

	frame := decodeFrame[domain.ErrorFrame](t, sender)
	req.Equal(domain.FrameError, frame.Type)
	req.Equal("Failed to send message", frame.Error)
	req.Empty(recipient.send)
}

func TestRouter_Typing_RelayedToRecipientOnly(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry(slog.Default())
	router := NewRouter(slog.Default(), registry, mocks.NewMockIMessagingService(ctrl))

	sender := newTestConnection("client-1")
	senderTab := newTestConnection("client-1")
	recipient := newTestConnection("artisan-1")
	registry.Add(sender)
	registry.Add(senderTab)
	registry.Add(recipient)

	router.HandleFrame(context.Background(),
		sender, []byte(`{"type":"typing","recipientId":"artisan-1","isTyping":true}`))

	frame := decodeFrame[domain.TypingFrame](t, recipient)
	req.Equal("client-1", frame.SenderID)
	req.True(frame.IsTyping)
	// The indicator is never echoed back, not even to the sender's other tabs
	req.Empty(sender.send)
	req.Empty(senderTab.send)
}

func TestRouter_MarkRead_PushesReceiptToConversationPartner(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry(slog.Default())
	messaging := mocks.NewMockIMessagingService(ctrl)
	router := NewRouter(slog.Default(), registry, messaging)

	reader := newTestConnection("artisan-1")
	partner := newTestConnection("client-1")
	registry.Add(reader)
	registry.Add(partner)

	messageID := uuid.New()
	messaging.EXPECT().
		MarkMessageAsRead(gomock.Any(), messageID).
		Return(domain.Message{ID: messageID, Read: true}, nil)

	router.HandleFrame(context.Background(), reader,
		[]byte(`{"type":"mark_read","messageId":"`+messageID.String()+`","conversationUserId":"client-1"}`))

	frame := decodeFrame[domain.MessageReadFrame](t, partner)
	req.Equal(messageID.String(), frame.MessageID)
	req.Equal("artisan-1", frame.ReadBy)
	req.Empty(reader.send)
}

func TestRouter_MarkRead_PersistenceFailureIsSilent(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry(slog.Default())
	messaging := mocks.NewMockIMessagingService(ctrl)
	router := NewRouter(slog.Default(), registry, messaging)

	reader := newTestConnection("artisan-1")
	partner := newTestConnection("client-1")
	registry.Add(reader)
	registry.Add(partner)

	messageID := uuid.New()
	messaging.EXPECT().
		MarkMessageAsRead(gomock.Any(), messageID).
		Return(domain.Message{}, errors.ErrMessageNotFound)

	router.HandleFrame(context.Background(), reader,
		[]byte(`{"type":"mark_read","messageId":"`+messageID.String()+`","conversationUserId":"client-1"}`))

	req.Empty(reader.send)
	req.Empty(partner.send)
}

func TestRouter_MalformedFrames_ReportedToOriginOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry(slog.Default())
	router := NewRouter(slog.Default(), registry, mocks.NewMockIMessagingService(ctrl))

	tests := []struct {
		name string
		raw  string
	}{
		{name: "Not JSON at all", raw: `{{{`},
		{name: "Missing recipient", raw: `{"type":"send_message","content":"hello"}`},
		{name: "Empty content", raw: `{"type":"send_message","recipientId":"artisan-1","content":""}`},
		{name: "Mark read without a uuid", raw: `{"type":"mark_read","messageId":"42","conversationUserId":"client-1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			origin := newTestConnection("client-1")
			registry.Add(origin)
			defer registry.Remove(origin)

			router.HandleFrame(context.Background(), origin, []byte(tt.raw))

			frame := decodeFrame[domain.ErrorFrame](t, origin)
			req.Equal("Invalid message format", frame.Error)
		})
	}
}

func TestRouter_UnrecognizedType_KeepsTheConnectionQuiet(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry(slog.Default())
	router := NewRouter(slog.Default(), registry, mocks.NewMockIMessagingService(ctrl))

	origin := newTestConnection("client-1")
	registry.Add(origin)

	router.HandleFrame(context.Background(), origin, []byte(`{"type":"subscribe_presence"}`))

	req.Empty(origin.send)
}
