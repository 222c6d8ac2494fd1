// Package client owns one logical realtime connection for an
// authenticated user session: it dials, reconnects with exponential
// backoff, and re-exposes the wire protocol as typed operations plus
// observable state.
package client

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"artisan-chat/domain"
)

const (
	reconnectBaseDelay   = time.Second
	reconnectMaxDelay    = 30 * time.Second
	maxReconnectAttempts = 5
	typingExpiry         = 5 * time.Second
)

// NextDelay returns the wait before reconnect attempt number attempt+1:
// min(1s * 2^attempt, 30s).
func NextDelay(attempt int) time.Duration {
	delay := float64(reconnectBaseDelay) * math.Pow(2, float64(attempt))
	return time.Duration(math.Min(delay, float64(reconnectMaxDelay)))
}

// Manager is the client-side reconnection manager. Zero value is not
// usable; construct with NewManager and call Start.
type Manager struct {
	log            *slog.Logger
	url            string
	header         http.Header
	onMessage      func(domain.Message)
	onNotification func(map[string]any)

	mu             sync.Mutex
	ws             *websocket.Conn
	connected      bool
	attempts       int
	stopped        bool
	reconnectTimer *time.Timer
	messages       []domain.Message
	typing         map[string]*time.Timer
}

// NewManager prepares a manager for one authenticated session. The
// header carries the session cookie (or the URL carries a ticket); the
// callbacks may be nil.
func NewManager(log *slog.Logger, url string, header http.Header,
	onMessage func(domain.Message), onNotification func(map[string]any)) *Manager {
	return &Manager{
		log:            log,
		url:            url,
		header:         header,
		onMessage:      onMessage,
		onNotification: onNotification,
		typing:         make(map[string]*time.Timer),
	}
}

// Start attempts the first connection immediately.
func (m *Manager) Start() {
	m.connect()
}

// Stop closes any open connection and cancels pending reconnects. The
// manager is terminal after Stop.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.stopped = true
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	for peer, timer := range m.typing {
		timer.Stop()
		delete(m.typing, peer)
	}
	ws := m.ws
	m.ws = nil
	m.connected = false
	m.mu.Unlock()

	if ws != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = ws.Close()
	}
}

// Connected reports whether a connection is currently open.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Messages returns a copy of the accumulated message list.
func (m *Manager) Messages() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// TypingPeers returns the ids of peers currently typing. A peer that
// stopped sending refreshes is cleared after a short expiry, so a sender
// that vanished mid-typing does not stay stuck.
func (m *Manager) TypingPeers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	peers := make([]string, 0, len(m.typing))
	for peer := range m.typing {
		peers = append(peers, peer)
	}
	return peers
}

// Send queues a send_message frame. A disconnected manager drops the
// operation silently; callers needing reliability use the HTTP API.
func (m *Manager) Send(recipientID, content string, jobID *string) {
	m.write(map[string]any{
		"type":        domain.FrameSendMessage,
		"recipientId": recipientID,
		"content":     content,
		"jobId":       jobID,
	})
}

// SendTyping signals the typing indicator to one recipient.
func (m *Manager) SendTyping(recipientID string, isTyping bool) {
	m.write(map[string]any{
		"type":        domain.FrameTyping,
		"recipientId": recipientID,
		"isTyping":    isTyping,
	})
}

// MarkAsRead asks the server to flag the message read and notify the partner.
func (m *Manager) MarkAsRead(messageID uuid.UUID, conversationUserID string) {
	m.write(map[string]any{
		"type":               domain.FrameMarkRead,
		"messageId":          messageID.String(),
		"conversationUserId": conversationUserID,
	})
}

func (m *Manager) write(frame map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected || m.ws == nil {
		m.log.Debug("Dropping outbound frame while disconnected", "type", frame["type"])
		return
	}
	if err := m.ws.WriteJSON(frame); err != nil {
		m.log.Debug("Outbound write failed", "error", err)
	}
}

func (m *Manager) connect() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	ws, _, err := websocket.DefaultDialer.Dial(m.url, m.header)
	if err != nil {
		m.log.Warn("Connection attempt failed", "error", err)
		m.scheduleReconnect()
		return
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		_ = ws.Close()
		return
	}
	m.ws = ws
	m.connected = true
	m.attempts = 0
	m.mu.Unlock()

	m.log.Info("Connected", "url", m.url)
	go m.readLoop(ws)
}

// scheduleReconnect arms the next attempt with exponential backoff, up
// to the attempt cap. After the cap is exhausted the manager stays
// disconnected; the UI surfaces that state.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	if m.attempts >= maxReconnectAttempts {
		m.log.Warn("Reconnect attempts exhausted, giving up")
		return
	}
	delay := NextDelay(m.attempts)
	m.attempts++
	m.log.Info("Scheduling reconnect", "attempt", m.attempts, "delay", delay)
	m.reconnectTimer = time.AfterFunc(delay, m.connect)
}

func (m *Manager) readLoop(ws *websocket.Conn) {
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}
		m.handleFrame(raw)
	}

	m.mu.Lock()
	if m.ws != ws {
		// A newer connection already replaced this one.
		m.mu.Unlock()
		return
	}
	m.ws = nil
	m.connected = false
	stopped := m.stopped
	m.mu.Unlock()

	_ = ws.Close()
	if !stopped {
		m.log.Info("Disconnected")
		m.scheduleReconnect()
	}
}

// handleFrame mirrors the server's outbound protocol.
func (m *Manager) handleFrame(raw []byte) {
	envelope, err := domain.DecodeEnvelope(raw)
	if err != nil {
		m.log.Debug("Discarding unparsable frame", "error", err)
		return
	}

	switch envelope.Type {
	case domain.FrameConnected:
		var frame domain.ConnectedFrame
		if json.Unmarshal(raw, &frame) == nil {
			m.log.Debug("Handshake acknowledged", "user_id", frame.UserID)
		}
	case domain.FrameNewMessage:
		var frame domain.NewMessageFrame
		if json.Unmarshal(raw, &frame) != nil {
			return
		}
		m.mu.Lock()
		m.messages = append(m.messages, frame.Message)
		m.mu.Unlock()
		if m.onMessage != nil {
			m.onMessage(frame.Message)
		}
	case domain.FrameTyping:
		var frame domain.TypingFrame
		if json.Unmarshal(raw, &frame) != nil {
			return
		}
		m.setTyping(frame.SenderID, frame.IsTyping)
	case domain.FrameMessageRead:
		var frame domain.MessageReadFrame
		if json.Unmarshal(raw, &frame) != nil {
			return
		}
		m.markLocalRead(frame.MessageID)
	case domain.FrameNotification:
		var payload map[string]any
		if json.Unmarshal(raw, &payload) != nil {
			return
		}
		if m.onNotification != nil {
			m.onNotification(payload)
		}
	case domain.FrameError:
		var frame domain.ErrorFrame
		if json.Unmarshal(raw, &frame) == nil {
			m.log.Error("Server reported an error", "error", frame.Error)
		}
	default:
		m.log.Debug("Unrecognized frame type", "type", envelope.Type)
	}
}

func (m *Manager) setTyping(peerID string, isTyping bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if timer, ok := m.typing[peerID]; ok {
		timer.Stop()
		delete(m.typing, peerID)
	}
	if !isTyping {
		return
	}
	m.typing[peerID] = time.AfterFunc(typingExpiry, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.typing, peerID)
	})
}

func (m *Manager) markLocalRead(messageID string) {
	id, err := uuid.Parse(messageID)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.messages {
		if m.messages[i].ID == id {
			m.messages[i].Read = true
			return
		}
	}
}
