package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"artisan-chat/domain"
)

const maxFrameSize = 64 << 10

// HandshakeAuthenticator resolves an upgrade request to a user identity.
type HandshakeAuthenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (string, error)
}

// Hub ties the upgrade endpoint, the registry and the router together.
// It also implements contract.Notifier so other subsystems can push to a
// user's live connections without going through the router.
type Hub struct {
	log            *slog.Logger
	registry       *Registry
	router         *Router
	auth           HandshakeAuthenticator
	upgrader       websocket.Upgrader
	sendBufferSize int
	authTimeout    time.Duration
}

func NewHub(
	log *slog.Logger,
	registry *Registry,
	router *Router,
	auth HandshakeAuthenticator,
	sendBufferSize int,
	handshakeTimeout, authTimeout time.Duration,
) *Hub {
	return &Hub{
		log:      log,
		registry: registry,
		router:   router,
		auth:     auth,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: handshakeTimeout,
			// The session cookie is the credential; origin restrictions
			// belong to the reverse proxy in this deployment.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sendBufferSize: sendBufferSize,
		authTimeout:    authTimeout,
	}
}

// ServeWS is the single upgrade-able endpoint. An unauthenticated
// handshake is closed with a policy-violation code before any frame is
// sent and never reaches the registry.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.authTimeout)
	userID, err := h.auth.Authenticate(ctx, r)
	cancel()
	if err != nil {
		h.log.Info("Rejected unauthenticated handshake", "remote", r.RemoteAddr)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication required"),
			time.Now().Add(writeWait))
		_ = ws.Close()
		return
	}

	conn := newConnection(userID, ws, h.log, h.sendBufferSize)
	h.registry.Add(conn)
	go conn.writePump()

	if data, err := json.Marshal(domain.NewConnectedFrame(userID)); err == nil {
		conn.Send(data)
	}

	h.log.Info("Connection established", "user_id", userID, "remote", r.RemoteAddr)
	h.readLoop(conn)
}

// readLoop pumps inbound frames into the router until the socket dies,
// then deregisters the connection. A transport error on one connection
// never affects the others.
func (h *Hub) readLoop(conn *Connection) {
	defer func() {
		h.registry.Remove(conn)
		conn.Terminate()
		h.log.Info("Connection closed", "user_id", conn.UserID())
	}()

	conn.ws.SetReadLimit(maxFrameSize)
	conn.ws.SetPongHandler(func(string) error {
		conn.SetAlive(true)
		return nil
	})

	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			h.log.Debug("Read loop ended", "user_id", conn.UserID(), "error", err)
			return
		}
		h.router.HandleFrame(context.Background(), conn, raw)
	}
}

// NotifyUser wraps the payload as a notification frame and fans it out to
// the user's live connections. Callers needing durability persist the
// payload themselves before invoking the bridge.
func (h *Hub) NotifyUser(userID string, payload map[string]any) {
	h.registry.FanOut(userID, domain.NewNotificationFrame(payload))
}
